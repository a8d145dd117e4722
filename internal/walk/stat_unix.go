//go:build unix

package walk

import "syscall"

func ownerFromSys(sys any) (uid, gid uint32, ok bool) {
	st, ok := sys.(*syscall.Stat_t)
	if !ok {
		return 0, 0, false
	}
	return st.Uid, st.Gid, true
}

func devInoFromSys(sys any) (dev, ino uint64, ok bool) {
	st, ok := sys.(*syscall.Stat_t)
	if !ok {
		return 0, 0, false
	}
	return uint64(st.Dev), st.Ino, true
}

// blocksFromSys reports the number of 512-byte blocks a file actually
// occupies on disk, for -sparse (size > blocks*512 means holes).
func blocksFromSys(sys any) (blocks int64, ok bool) {
	st, ok := sys.(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	return int64(st.Blocks), true
}

// nlinkFromSys reports the hard-link count, for -links.
func nlinkFromSys(sys any) (nlink uint64, ok bool) {
	st, ok := sys.(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	return uint64(st.Nlink), true
}
