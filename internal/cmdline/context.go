// Package cmdline holds the parsed, mutable configuration that global
// and positional command-line options (as opposed to the expression
// tree itself) populate: depth bounds, symlink policy, optimizer
// level, debug channels, and the other run-wide knobs §6 names.
//
// The shape follows the functional-options idiom used elsewhere in
// this codebase (compare service/mapper/config.go, service/mapper/
// options.go): a plain
// struct of fields plus a matching Option constructor per field,
// rather than a builder or a flags struct threaded by hand.
package cmdline

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/bfswalk/bfs/internal/walk"
)

// DebugChannel names one of the independently-gated debug loggers
// that -D raises from Disabled to Debug.
type DebugChannel string

const (
	DebugOpt    DebugChannel = "opt"
	DebugRates  DebugChannel = "rates"
	DebugStat   DebugChannel = "stat"
	DebugTree   DebugChannel = "tree"
	DebugCost   DebugChannel = "cost"
	DebugExec   DebugChannel = "exec"
	DebugSearch DebugChannel = "search"
)

// Strategy names the traversal order -S selects. The core module
// only implements StrategyBFS; the others parse but fall back to it,
// see DESIGN.md.
type Strategy string

const (
	StrategyBFS Strategy = "bfs"
	StrategyDFS Strategy = "dfs"
	StrategyIDS Strategy = "ids"
	StrategyEDS Strategy = "eds"
)

// Unbounded marks MaxDepth as having no ceiling, mirroring
// walk.Unbounded.
const Unbounded = math.MaxInt32

// Context is the run-wide configuration built while the argument
// vector is parsed. Predicate and action parsing only ever reads it;
// only the option parseFns in internal/parse mutate it.
type Context struct {
	MinDepth  int
	MaxDepth  int
	Mount     bool
	PostOrder bool
	Symlink   walk.SymlinkPolicy

	OptimizeLevel int
	Fast          bool

	Debug map[DebugChannel]bool
	Color bool

	ExtendedRegex bool
	XargsSafe     bool
	Strategy      Strategy
	Sort          bool

	DayStart          bool
	Follow            bool
	Warn              bool
	RegexType         string
	IgnoreReaddirRace bool

	Workers      int
	QueueDepth   int
	MaxOpenFiles int

	Log zerolog.Logger
	Now time.Time
}

// Option configures a Context under construction.
type Option func(*Context)

// New builds a Context from its defaults plus opts, in order.
func New(opts ...Option) *Context {
	c := &Context{
		MaxDepth:      Unbounded,
		Symlink:       walk.PolicyP,
		OptimizeLevel: 1,
		Debug:         make(map[DebugChannel]bool),
		Strategy:      StrategyBFS,
		Log:           zerolog.Nop(),
		Now:           time.Now(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.DayStart {
		c.Now = time.Date(c.Now.Year(), c.Now.Month(), c.Now.Day(), 0, 0, 0, 0, c.Now.Location())
	}
	return c
}

// DebugEnabled reports whether channel ch was named by -D.
func (c *Context) DebugEnabled(ch DebugChannel) bool {
	return c.Debug[ch]
}

// WalkOptions translates the parsed global options into a
// walk.Options, filling in the I/O tuning fields from
// walk.DefaultOptions where the command line left them unset.
func (c *Context) WalkOptions() walk.Options {
	o := walk.DefaultOptions()
	o.MinDepth = c.MinDepth
	o.MaxDepth = c.MaxDepth
	o.Mount = c.Mount
	o.PostOrder = c.PostOrder
	o.Symlink = c.Symlink
	o.Sort = c.Sort
	o.IgnoreReaddirRace = c.IgnoreReaddirRace
	o.Log = c.Log
	if c.Workers > 0 {
		o.Workers = c.Workers
	}
	if c.QueueDepth > 0 {
		o.QueueDepth = c.QueueDepth
	}
	if c.MaxOpenFiles > 0 {
		o.MaxOpenFiles = c.MaxOpenFiles
	}
	return o
}

func WithMinDepth(n int) Option       { return func(c *Context) { c.MinDepth = n } }
func WithMaxDepth(n int) Option       { return func(c *Context) { c.MaxDepth = n } }
func WithMount(b bool) Option         { return func(c *Context) { c.Mount = b } }
func WithPostOrder(b bool) Option     { return func(c *Context) { c.PostOrder = b } }
func WithSymlink(p walk.SymlinkPolicy) Option {
	return func(c *Context) { c.Symlink = p }
}
func WithOptimizeLevel(n int) Option { return func(c *Context) { c.OptimizeLevel = n } }
func WithFast(b bool) Option         { return func(c *Context) { c.Fast = b } }
func WithDebug(ch DebugChannel) Option {
	return func(c *Context) { c.Debug[ch] = true }
}
func WithColor(b bool) Option             { return func(c *Context) { c.Color = b } }
func WithExtendedRegex(b bool) Option     { return func(c *Context) { c.ExtendedRegex = b } }
func WithXargsSafe(b bool) Option         { return func(c *Context) { c.XargsSafe = b } }
func WithStrategy(s Strategy) Option      { return func(c *Context) { c.Strategy = s } }
func WithSort(b bool) Option              { return func(c *Context) { c.Sort = b } }
func WithDayStart(b bool) Option          { return func(c *Context) { c.DayStart = b } }
func WithFollow(b bool) Option            { return func(c *Context) { c.Follow = b } }
func WithWarn(b bool) Option              { return func(c *Context) { c.Warn = b } }
func WithRegexType(t string) Option       { return func(c *Context) { c.RegexType = t } }
func WithIgnoreReaddirRace(b bool) Option { return func(c *Context) { c.IgnoreReaddirRace = b } }
func WithLogger(l zerolog.Logger) Option  { return func(c *Context) { c.Log = l } }
func WithWorkers(n int) Option            { return func(c *Context) { c.Workers = n } }
func WithQueueDepth(n int) Option         { return func(c *Context) { c.QueueDepth = n } }
func WithMaxOpenFiles(n int) Option       { return func(c *Context) { c.MaxOpenFiles = n } }
