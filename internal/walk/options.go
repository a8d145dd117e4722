package walk

import (
	"math"
	"runtime"

	"github.com/rs/zerolog"
)

// SymlinkPolicy selects how the traversal treats symbolic links, per
// the spec's P (never follow) / H (command-line roots only) / L
// (always follow) variants.
type SymlinkPolicy int

const (
	PolicyP SymlinkPolicy = iota
	PolicyH
	PolicyL
)

// Unbounded marks MaxDepth as having no ceiling.
const Unbounded = math.MaxInt32

// Options configures a Walker.
type Options struct {
	MinDepth          int
	MaxDepth          int
	Mount             bool
	PostOrder         bool
	Symlink           SymlinkPolicy
	Sort              bool
	Workers           int
	QueueDepth        int
	MaxOpenFiles      int
	IgnoreReaddirRace bool
	Log               zerolog.Logger
}

// DefaultOptions returns the options a bare invocation with no depth,
// mount, or ordering flags would use.
func DefaultOptions() Options {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	workers--
	if workers < 1 {
		workers = 1
	}
	return Options{
		MaxDepth:     Unbounded,
		Symlink:      PolicyP,
		Workers:      workers,
		QueueDepth:   workers * 4,
		MaxOpenFiles: 1024,
		Log:          zerolog.Nop(),
	}
}
