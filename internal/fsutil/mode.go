package fsutil

import (
	"fmt"
	"io/fs"
	"strconv"
	"strings"
)

// permBits is the bit mask covering every permission bit -perm and
// the symbolic parser reason about: the low 9 POSIX permission bits
// plus setuid/setgid/sticky, expressed in fs.FileMode terms.
const permBits = fs.ModePerm | fs.ModeSetuid | fs.ModeSetgid | fs.ModeSticky

// PermKind distinguishes the three -perm comparison senses.
type PermKind int

const (
	// PermExact requires the file's permission bits to equal the
	// reference exactly.
	PermExact PermKind = iota
	// PermAll ("-mode") requires every bit set in the reference to
	// also be set in the file.
	PermAll
	// PermAny ("/mode") requires at least one bit set in the
	// reference to also be set in the file (a reference of zero
	// matches unconditionally, per find's historical behavior).
	PermAny
)

// ModeSpec is a parsed -perm argument: either a fixed octal reference
// or a symbolic chmod-style spec resolved against the tested file's
// own directory-ness at evaluation time (for the "X" rights char).
type ModeSpec struct {
	Kind     PermKind
	octal    *fs.FileMode
	symbolic string
}

func isOctal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '7' {
			return false
		}
	}
	return true
}

// ParseMode parses a -perm argument. A leading "-" selects PermAll, a
// leading "/" selects PermAny, neither selects PermExact; what
// remains is either an octal literal or a chmod-style symbolic spec.
func ParseMode(s string) (*ModeSpec, error) {
	kind := PermExact
	switch {
	case strings.HasPrefix(s, "-"):
		kind, s = PermAll, s[1:]
	case strings.HasPrefix(s, "/"):
		kind, s = PermAny, s[1:]
	}
	if s == "" {
		return nil, fmt.Errorf("fsutil: empty -perm argument")
	}
	if isOctal(s) {
		v, err := strconv.ParseUint(s, 8, 32)
		if err != nil {
			return nil, fmt.Errorf("fsutil: invalid octal mode %q: %w", s, err)
		}
		m := octalToFileMode(v)
		return &ModeSpec{Kind: kind, octal: &m}, nil
	}
	if _, err := ApplySymbolic(0, s, false); err != nil {
		return nil, fmt.Errorf("fsutil: invalid symbolic mode %q: %w", s, err)
	}
	return &ModeSpec{Kind: kind, symbolic: s}, nil
}

func octalToFileMode(v uint64) fs.FileMode {
	m := fs.FileMode(v & 0777)
	if v&04000 != 0 {
		m |= fs.ModeSetuid
	}
	if v&02000 != 0 {
		m |= fs.ModeSetgid
	}
	if v&01000 != 0 {
		m |= fs.ModeSticky
	}
	return m
}

// Match reports whether mode satisfies the reference, resolving a
// symbolic reference against isDir (so "X" rights contribute an
// execute bit for directories only).
func (m *ModeSpec) Match(mode fs.FileMode, isDir bool) bool {
	ref := fs.FileMode(0)
	if m.octal != nil {
		ref = *m.octal
	} else {
		applied, err := ApplySymbolic(0, m.symbolic, isDir)
		if err != nil {
			return false
		}
		ref = applied
	}
	bits := mode & permBits
	switch m.Kind {
	case PermAll:
		return bits&ref == ref
	case PermAny:
		return ref == 0 || bits&ref != 0
	default:
		return bits == ref
	}
}

// whoMask selects which of user/group/other a symbolic clause's
// rights apply to.
type whoMask struct {
	u, g, o bool
}

// ApplySymbolic applies a comma-separated chmod-style symbolic spec
// (e.g. "u+rwx,g=rx,o-w") to base, the way chmod(1) would, and
// returns the resulting mode. isDir governs whether the "X" rights
// char (conditional execute) contributes a bit: it does when isDir is
// true, or when base already carries an execute bit for some
// category - matched against base as it stood before this call, not
// against bits set by an earlier clause in the same spec.
func ApplySymbolic(base fs.FileMode, spec string, isDir bool) (fs.FileMode, error) {
	hasExec := isDir || base&0111 != 0
	mode := base
	for _, clause := range strings.Split(spec, ",") {
		if clause == "" {
			continue
		}
		i := 0
		who := whoMask{}
		for i < len(clause) && strings.ContainsRune("ugoa", rune(clause[i])) {
			switch clause[i] {
			case 'u':
				who.u = true
			case 'g':
				who.g = true
			case 'o':
				who.o = true
			case 'a':
				who = whoMask{true, true, true}
			}
			i++
		}
		if who == (whoMask{}) {
			who = whoMask{true, true, true}
		}
		if i >= len(clause) {
			return 0, fmt.Errorf("fsutil: mode clause %q has no operator", clause)
		}
		for i < len(clause) {
			op := clause[i]
			if op != '+' && op != '-' && op != '=' {
				return 0, fmt.Errorf("fsutil: mode clause %q: expected +/-/=, got %q", clause, op)
			}
			i++
			start := i
			for i < len(clause) && strings.ContainsRune("rwxXst", rune(clause[i])) {
				i++
			}
			rights := clause[start:i]
			add, all := rightsMask(who, rights, hasExec)
			switch op {
			case '+':
				mode |= add
			case '-':
				mode &^= add
			case '=':
				mode = (mode &^ all) | add
			}
		}
	}
	return mode, nil
}

// rightsMask computes, for one (who, rights) clause body: add, the
// bits this clause would set; and all, every bit position "who"
// addresses (used by "=" to first clear the slate).
func rightsMask(who whoMask, rights string, hasExec bool) (add, all fs.FileMode) {
	if who.u {
		all |= 0700 | fs.ModeSetuid
	}
	if who.g {
		all |= 0070 | fs.ModeSetgid
	}
	if who.o {
		all |= 0007
	}
	if strings.ContainsRune(rights, 't') {
		all |= fs.ModeSticky
	}
	for _, r := range rights {
		switch r {
		case 'r':
			if who.u {
				add |= 0400
			}
			if who.g {
				add |= 0040
			}
			if who.o {
				add |= 0004
			}
		case 'w':
			if who.u {
				add |= 0200
			}
			if who.g {
				add |= 0020
			}
			if who.o {
				add |= 0002
			}
		case 'x':
			if who.u {
				add |= 0100
			}
			if who.g {
				add |= 0010
			}
			if who.o {
				add |= 0001
			}
		case 'X':
			if hasExec {
				if who.u {
					add |= 0100
				}
				if who.g {
					add |= 0010
				}
				if who.o {
					add |= 0001
				}
			}
		case 's':
			if who.u {
				add |= fs.ModeSetuid
			}
			if who.g {
				add |= fs.ModeSetgid
			}
		case 't':
			add |= fs.ModeSticky
		}
	}
	return add, all
}
