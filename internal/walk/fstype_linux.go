//go:build linux

package walk

import "syscall"

// fstypeMagic maps a handful of common Linux filesystem magic numbers
// (as reported by statfs(2)) to the name -fstype compares against.
// Unrecognized magics report "unknown" rather than failing the
// predicate outright, matching find's own fallback behavior.
var fstypeMagic = map[int64]string{
	0xEF53:     "ext2/ext3/ext4",
	0x9123683E: "btrfs",
	0x58465342: "xfs",
	0x01021994: "tmpfs",
	0x65735546: "fuse",
	0x6969:     "nfs",
	0x517B:     "smb",
	0x5346544E: "ntfs",
}

func fstypeFromPath(path string) (string, bool) {
	var buf syscall.Statfs_t
	if err := syscall.Statfs(path, &buf); err != nil {
		return "", false
	}
	if name, ok := fstypeMagic[int64(buf.Type)]; ok {
		return name, true
	}
	return "unknown", true
}
