//go:build !unix

package walk

func ownerFromSys(sys any) (uid, gid uint32, ok bool) {
	return 0, 0, false
}

func devInoFromSys(sys any) (dev, ino uint64, ok bool) {
	return 0, 0, false
}

func blocksFromSys(sys any) (blocks int64, ok bool) {
	return 0, false
}

func nlinkFromSys(sys any) (nlink uint64, ok bool) {
	return 0, false
}
