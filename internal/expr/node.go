// Package expr implements the expression tree that predicates and
// actions are compiled into: a small AST of leaves (predicate/action
// tests) and operators (NOT/AND/OR/COMMA), annotated with the
// cost/probability/purity metadata the optimizer needs.
package expr

import (
	"errors"
	"io"
	"time"

	"github.com/bfswalk/bfs/internal/walk"
)

// Op tags an operator node. Leaf nodes carry OpNone.
type Op int

const (
	OpNone Op = iota
	OpNot
	OpAnd
	OpOr
	OpComma
)

// FileDemand records how many file descriptors a subtree needs to
// hold open at once: persistent ones (e.g. an -fprint sink) live for
// the whole run, ephemeral ones (e.g. a -exec child) for one
// evaluation.
type FileDemand struct {
	Persistent uint32
	Ephemeral  uint32
}

// Execer runs an external command on behalf of an -exec-family
// action. confirm is true for -ok/-okdir, which must obtain
// interactive confirmation before running, and false for -exec/
// -execdir, which run unconditionally; the core module itself has no
// opinion on how that confirmation happens, only that the
// implementation is told which kind of call this is. The core module
// ships NopExecer, which always fails; cmd/bfs wires a real
// os/exec-backed implementation.
type Execer func(argv []string, entry *walk.Entry, confirm bool) (bool, error)

// ErrExecUnavailable is what NopExecer always returns: the core
// module never shells out on its own.
var ErrExecUnavailable = errors.New("expr: -exec family unavailable: no Execer wired")

// NopExecer is the core module's default Execer: it keeps -exec/-ok
// parseable and evaluable (they always fail their test, as a failed
// command would) without the core ever touching os/exec.
func NopExecer(argv []string, entry *walk.Entry, confirm bool) (bool, error) {
	return false, ErrExecUnavailable
}

// Formatter renders one -printf/-fprintf format string for entry. The
// core module ships DefaultFormatter, a minimal subset sufficient for
// the package's own tests. cmd/bfs does not set EvalContext.Format, so
// the CLI renders with DefaultFormatter too.
type Formatter func(format string, entry *walk.Entry) string

// EvalContext carries the state Evaluate reads and mutates across one
// full tree evaluation for one entry: output sinks, the traversal
// control outcome, and the injectable command runner.
type EvalContext struct {
	Stdout      io.Writer
	Stderr      io.Writer
	Execer      Execer
	Format      Formatter
	Now         time.Time // reference instant for -daystart/-mtime etc.
	NoFollow    bool       // true under -P (symlinks are not followed for stat-based tests); false under -H and -L
	SkipSubtree bool
	Stop        bool
	ExitCode    int

	// ReportError surfaces a per-path predicate failure (e.g. a
	// EnsureStat that failed because the entry vanished mid-walk)
	// without aborting the rest of the traversal. Nil means silent.
	ReportError func(path string, err error)
}

// Node is either a leaf predicate/action or an operator over one or
// two children. See Pool for how nodes are allocated and §3's
// invariants for what every field must satisfy.
type Node struct {
	Op   Op
	Name string // predicate/action name, for diagnostics and pretty-printing
	Eval func(entry *walk.Entry, ctx *EvalContext) bool

	Left, Right *Node

	Pure        bool
	AlwaysTrue  bool
	AlwaysFalse bool
	Cost        float64
	Prob        float64
	ArgvSpan    []string
	FileDemand  FileDemand
}

func (n *Node) IsLeaf() bool { return n.Op == OpNone }

// TRUE and FALSE are shared sentinels: never mutated, never freed,
// outside any arena.
var (
	TRUE = &Node{Name: "true", Pure: true, AlwaysTrue: true, Prob: 1, Eval: func(*walk.Entry, *EvalContext) bool { return true }}
	FALSE = &Node{Name: "false", Pure: true, AlwaysFalse: true, Prob: 0, Eval: func(*walk.Entry, *EvalContext) bool { return false }}
)

// Evaluate walks node, short-circuiting AND on false and OR on true,
// evaluating both sides of COMMA and returning the right result, and
// inverting NOT. It is pure except insofar as a leaf's Eval has
// effects (an action writing to ctx.Stdout, setting ctx.Stop, etc).
func Evaluate(node *Node, entry *walk.Entry, ctx *EvalContext) bool {
	switch node.Op {
	case OpNone:
		return node.Eval(entry, ctx)
	case OpNot:
		return !Evaluate(node.Left, entry, ctx)
	case OpAnd:
		if !Evaluate(node.Left, entry, ctx) {
			return false
		}
		return Evaluate(node.Right, entry, ctx)
	case OpOr:
		if Evaluate(node.Left, entry, ctx) {
			return true
		}
		return Evaluate(node.Right, entry, ctx)
	case OpComma:
		Evaluate(node.Left, entry, ctx)
		return Evaluate(node.Right, entry, ctx)
	default:
		return false
	}
}
