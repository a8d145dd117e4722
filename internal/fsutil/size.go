package fsutil

import (
	"fmt"
	"strconv"
	"strings"
)

// Cmp tags the comparison sense a numeric argument carries: a leading
// "+" means greater-than, "-" means less-than, and no sign means
// exact.
type Cmp int

const (
	CmpExact Cmp = iota
	CmpGreater
	CmpLess
)

// Match reports whether value compares to ref the way c requires.
func (c Cmp) Match(value, ref int64) bool {
	switch c {
	case CmpGreater:
		return value > ref
	case CmpLess:
		return value < ref
	default:
		return value == ref
	}
}

func splitSign(s string) (Cmp, string) {
	if strings.HasPrefix(s, "+") {
		return CmpGreater, s[1:]
	}
	if strings.HasPrefix(s, "-") {
		return CmpLess, s[1:]
	}
	return CmpExact, s
}

// ParseCmpInt parses a bare signed integer argument, as used by
// -inum, -links, -uid, -gid, -used and the *min/*time families before
// their own unit suffix (if any) is stripped.
func ParseCmpInt(s string) (Cmp, int64, error) {
	cmp, digits := splitSign(s)
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("fsutil: invalid integer %q: %w", s, err)
	}
	return cmp, n, nil
}

// sizeUnits maps a -size suffix letter to its byte multiplier.
// "b" (512-byte blocks) is the default unit when none is given.
var sizeUnits = map[byte]int64{
	'c': 1,
	'w': 2,
	'b': 512,
	'k': 1024,
	'M': 1024 * 1024,
	'G': 1024 * 1024 * 1024,
	'T': 1024 * 1024 * 1024 * 1024,
	'P': 1024 * 1024 * 1024 * 1024 * 1024,
}

// ParseSize parses a -size argument: an optional +/- sense, a decimal
// count, and an optional unit suffix (default "b", 512-byte blocks).
// The returned ref is in bytes.
func ParseSize(s string) (Cmp, int64, error) {
	cmp, rest := splitSign(s)
	if rest == "" {
		return 0, 0, fmt.Errorf("fsutil: empty size argument")
	}
	unit := byte('b')
	digits := rest
	last := rest[len(rest)-1]
	if _, ok := sizeUnits[last]; ok && (last < '0' || last > '9') {
		unit = last
		digits = rest[:len(rest)-1]
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("fsutil: invalid size %q: %w", s, err)
	}
	return cmp, n * sizeUnits[unit], nil
}
