// Package walk implements breadth-first (and optional post-order)
// traversal of a filesystem subtree, issuing directory reads and
// stats asynchronously through an ioqueue.Queue and invoking a
// consumer callback once per in-scope entry.
package walk

import (
	"os"
	"time"
)

// Type discriminates the kind of filesystem object an Entry names.
type Type int

const (
	TypeUnknown Type = iota
	TypeRegular
	TypeDirectory
	TypeSymlink
	TypeBlock
	TypeChar
	TypeFIFO
	TypeSocket
	TypeDoor
	TypeWhiteout
	TypeError
)

// Which distinguishes the two calls a post-order traversal makes for
// the same directory: once before its children (Pre) and once after
// (Post). Non-directories and pre-order traversals only ever see Pre.
type Which int

const (
	Pre Which = iota
	Post
)

// statBits records which fields of Stat have been populated, so a
// consumer can tell "zero value" from "not fetched yet" apart.
type statBits uint8

const (
	statMode statBits = 1 << iota
	statSize
	statModTime
	statOwner
	statSys
)

// Stat is a lazily materialized stat block: the traversal only pays
// for a STAT request when the consumer (via Entry.EnsureStat) or an
// evaluator predicate actually needs one.
type Stat struct {
	bits    statBits
	Mode    os.FileMode
	Size    int64
	ModTime time.Time
	UID     uint32
	GID     uint32
	Sys     any
}

func (s *Stat) have(b statBits) bool { return s.bits&b != 0 }

// AccessTime, ChangeTime and BirthTime report the platform-specific
// timestamps -atime/-ctime/-Btime and -anewer/-cnewer/-Bnewer (and
// the matching -newerXY selectors) compare against. ok is false when
// the underlying platform cannot supply the field - birth time in
// particular is unavailable on several unix variants, which is a
// per-path predicate error rather than a parse error (§9).
func (s *Stat) AccessTime() (time.Time, bool) { return accessTimeFromSys(s.Sys) }
func (s *Stat) ChangeTime() (time.Time, bool) { return changeTimeFromSys(s.Sys) }
func (s *Stat) BirthTime() (time.Time, bool)  { return birthTimeFromSys(s.Sys) }

// Blocks reports the number of 512-byte blocks the file occupies on
// disk, for -sparse.
func (s *Stat) Blocks() (int64, bool) { return blocksFromSys(s.Sys) }

// Dev and Ino report the entry's device and inode numbers, for
// -inum, -samefile and mount/cycle detection outside the traversal
// engine's own internal bookkeeping.
func (s *Stat) DevIno() (dev, ino uint64, ok bool) { return devInoFromSys(s.Sys) }

// Nlink reports the hard-link count, for -links.
func (s *Stat) Nlink() (uint64, bool) { return nlinkFromSys(s.Sys) }

// TypeFromMode classifies a raw os.FileMode the way the traversal
// engine classifies directory entries and stat results, for
// predicates (-xtype) that need to reclassify a symlink by its
// target's mode after following it themselves.
func TypeFromMode(mode os.FileMode) Type {
	return typeFromMode(mode)
}

// FSType reports the filesystem type name the entry at path resides
// on, for -fstype.
func FSType(path string) (string, bool) {
	return fstypeFromPath(path)
}

// StatFromInfo builds a Stat from an already-obtained os.FileInfo,
// for predicates (-samefile, -anewer and friends) that stat a
// reference path directly with the standard library rather than
// through the traversal's ioqueue.
func StatFromInfo(info os.FileInfo) Stat {
	return statFromInfo(info)
}

func statFromInfo(info os.FileInfo) Stat {
	st := Stat{
		bits:    statMode | statSize | statModTime | statSys,
		Mode:    info.Mode(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Sys:     info.Sys(),
	}
	if uid, gid, ok := ownerFromSys(info.Sys()); ok {
		st.UID, st.GID = uid, gid
		st.bits |= statOwner
	}
	return st
}

// Entry is the value the traversal yields for every filesystem object
// it visits (the "BFTW record"): a full path, its depth from the
// traversal root (root = 0), a type tag, an optional lazily-fetched
// Stat, which half of a pre/post pair this call represents, the
// (device, inode) of the traversal's root, and an error when Type ==
// TypeError.
type Entry struct {
	Path      string
	NameOff   int // offset of the final path component within Path
	Depth     int
	Type      Type
	Stat      Stat
	Statted   bool
	Visit     Which
	RootDev   uint64
	RootIno   uint64
	Err       error
}

// Name returns the final path component.
func (e *Entry) Name() string {
	return e.Path[e.NameOff:]
}

// EnsureStat fetches the entry's stat block if it has not already
// been materialized. It runs synchronously against the standard
// library rather than through the traversal's ioqueue: predicate
// evaluation happens inline within the single traversal goroutine
// (inside the Consumer callback), so routing a one-off stat through
// the shared queue would require demultiplexing its response from
// whatever directory operations are already in flight for no benefit.
func (e *Entry) EnsureStat(noFollow bool) error {
	if e.Statted {
		return nil
	}
	var info os.FileInfo
	var err error
	if noFollow {
		info, err = os.Lstat(e.Path)
	} else {
		info, err = os.Stat(e.Path)
	}
	if err != nil {
		return err
	}
	e.Stat = statFromInfo(info)
	e.Statted = true
	return nil
}
