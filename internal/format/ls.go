// Package format renders the long-listing line -ls/-fls produce,
// modeled on ls -dils: inode, allocated blocks, permission string,
// link count, owner, group, size, modification time, and path (with
// a symlink target suffix where applicable).
package format

import (
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bfswalk/bfs/internal/walk"
)

func readlink(path string) (string, error) { return os.Readlink(path) }

// idcache is the subset of fsutil.IDCache the long-format line needs;
// named narrowly here so this package doesn't import fsutil just for
// a struct it only ever calls two methods on.
type idcache interface {
	Username(uid uint32) (string, bool)
	Groupname(gid uint32) (string, bool)
}

// LongLine renders one -ls/-fls record for an already-statted entry.
func LongLine(e *walk.Entry, ids idcache) string {
	_, ino, _ := e.Stat.DevIno()
	blocks, _ := e.Stat.Blocks()
	nlink, _ := e.Stat.Nlink()

	owner := strconv.FormatUint(uint64(e.Stat.UID), 10)
	if name, ok := ids.Username(e.Stat.UID); ok {
		owner = name
	}
	group := strconv.FormatUint(uint64(e.Stat.GID), 10)
	if name, ok := ids.Groupname(e.Stat.GID); ok {
		group = name
	}

	path := e.Path
	if e.Type == walk.TypeSymlink {
		if target, err := readlink(e.Path); err == nil {
			path = e.Path + " -> " + target
		}
	}

	return fmt.Sprintf("%9d %6d %s %3d %-8s %-8s %8d %s %s",
		ino,
		blocks,
		modeString(e.Stat.Mode, e.Type),
		nlink,
		owner,
		group,
		e.Stat.Size,
		e.Stat.ModTime.Format(lsTimeLayout(e.Stat.ModTime)),
		path,
	)
}

func lsTimeLayout(t time.Time) string {
	if time.Since(t) > 365*24*time.Hour {
		return "Jan _2  2006"
	}
	return "Jan _2 15:04"
}

// modeString renders the ten-character ls -l style mode string: a
// type letter followed by three rwx triples, with setuid/setgid/
// sticky folded into the owner/group/other execute position the way
// ls does.
func modeString(mode fs.FileMode, typ walk.Type) string {
	var b strings.Builder
	b.WriteByte(typeLetter(typ, mode))
	special := [3]struct{ bit fs.FileMode }{
		{fs.ModeSetuid}, {fs.ModeSetgid}, {0},
	}
	for i := 0; i < 3; i++ {
		shift := uint(6 - i*3)
		r, w, x := byte('-'), byte('-'), byte('-')
		if mode&(1<<(shift+2)) != 0 {
			r = 'r'
		}
		if mode&(1<<(shift+1)) != 0 {
			w = 'w'
		}
		if mode&(1<<shift) != 0 {
			x = 'x'
		}
		switch {
		case i < 2 && mode&special[i].bit != 0:
			if x == '-' {
				x = 'S'
			} else {
				x = 's'
			}
		case i == 2 && mode&fs.ModeSticky != 0:
			if x == '-' {
				x = 'T'
			} else {
				x = 't'
			}
		}
		b.WriteByte(r)
		b.WriteByte(w)
		b.WriteByte(x)
	}
	return b.String()
}

func typeLetter(typ walk.Type, mode fs.FileMode) byte {
	switch typ {
	case walk.TypeDirectory:
		return 'd'
	case walk.TypeSymlink:
		return 'l'
	case walk.TypeBlock:
		return 'b'
	case walk.TypeChar:
		return 'c'
	case walk.TypeFIFO:
		return 'p'
	case walk.TypeSocket:
		return 's'
	default:
		return '-'
	}
}
