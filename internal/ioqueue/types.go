package ioqueue

import (
	"os"
	"path/filepath"
)

// Op tags the kind of filesystem operation a Request carries.
type Op int

const (
	OpOpenDir Op = iota
	OpReadDir
	OpCloseDir
	OpStat
	OpNopLight
	OpNopHeavy
)

func (o Op) String() string {
	switch o {
	case OpOpenDir:
		return "OPEN_DIR"
	case OpReadDir:
		return "READ_DIR"
	case OpCloseDir:
		return "CLOSE_DIR"
	case OpStat:
		return "STAT"
	case OpNopLight:
		return "NOP_LIGHT"
	case OpNopHeavy:
		return "NOP_HEAVY"
	default:
		return "UNKNOWN"
	}
}

// StatFlagNoFollow requests lstat-like (symlink-not-followed)
// semantics for an OpStat request.
const StatFlagNoFollow = 1 << 0

// Dir is the handle an OPEN_DIR response hands back and that
// subsequent READ_DIR/CLOSE_DIR requests reference. It stands in for
// the "*at-capable directory descriptor" of the original design: Go's
// standard library has no portable openat(2)/fdopendir(2), so a
// *os.File opened on the directory plays the same role, and relative
// child lookups are realized as filepath.Join against its Name()
// rather than true *at syscalls.
type Dir struct {
	File *os.File
}

// Request is a tagged union of the filesystem operations the queue
// can service. Cookie is opaque to the queue and carried unchanged
// into the matching Response so the caller can correlate completions
// delivered out of order.
type Request struct {
	Op   Op
	AtFd *os.File // directory relative to which Path is resolved, or nil for an absolute/root path
	Path string
	Dir  *Dir // target of READ_DIR / CLOSE_DIR
	Flags int
	Cookie any
}

// Response carries the outcome of one Request.
type Response struct {
	Cookie  any
	Op      Op
	Err     error
	Dir     *Dir          // OPEN_DIR
	Entries []os.DirEntry // READ_DIR
	Info    os.FileInfo   // STAT
}

func resolve(atFd *os.File, path string) string {
	if atFd == nil || path == "" {
		return path
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(atFd.Name(), path)
}

// execute performs one request synchronously on the calling
// goroutine; it is the body shared by worker goroutines and by the
// workers==0 synchronous fallback.
func execute(req Request) Response {
	resp := Response{Cookie: req.Cookie, Op: req.Op}
	switch req.Op {
	case OpOpenDir:
		f, err := os.Open(resolve(req.AtFd, req.Path))
		resp.Err = err
		if err == nil {
			resp.Dir = &Dir{File: f}
		}
	case OpReadDir:
		if req.Dir == nil || req.Dir.File == nil {
			resp.Err = os.ErrInvalid
			break
		}
		entries, err := req.Dir.File.ReadDir(-1)
		resp.Entries = entries
		resp.Err = err
	case OpCloseDir:
		if req.Dir == nil || req.Dir.File == nil {
			break
		}
		resp.Err = req.Dir.File.Close()
	case OpStat:
		full := resolve(req.AtFd, req.Path)
		var info os.FileInfo
		var err error
		if req.Flags&StatFlagNoFollow != 0 {
			info, err = os.Lstat(full)
		} else {
			info, err = os.Stat(full)
		}
		resp.Info, resp.Err = info, err
	case OpNopLight:
		// No syscall: measures pure queue overhead.
	case OpNopHeavy:
		// A known-cheap syscall, to model the per-request cost of a
		// real filesystem operation without touching the tree.
		_ = os.Getpid()
	}
	return resp
}
