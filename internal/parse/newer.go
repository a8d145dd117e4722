package parse

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bfswalk/bfs/internal/expr"
	"github.com/bfswalk/bfs/internal/walk"
)

// newerXYChars enumerates the five reference-time selectors -newerXY
// accepts for both X (the field on the tested file) and Y (the field
// on the reference, or "t" for a literal timestamp instead of a
// file).
const newerXYChars = "acmBt"

// matchNewerXY reports whether tok is a member of the -newerXY
// family: "-newer" followed by exactly two characters from
// newerXYChars.
func matchNewerXY(tok string) (x, y byte, ok bool) {
	const prefix = "-newer"
	if !strings.HasPrefix(tok, prefix) || len(tok) != len(prefix)+2 {
		return 0, 0, false
	}
	x, y = tok[len(prefix)], tok[len(prefix)+1]
	if strings.IndexByte(newerXYChars, x) < 0 || strings.IndexByte(newerXYChars, y) < 0 {
		return 0, 0, false
	}
	return x, y, true
}

// fieldTime extracts the requested timestamp field from a stat block
// already populated by EnsureStat. Birth time ('B') is a per-path
// predicate error, not a parse error, when the platform cannot supply
// it (§9's open question): callers get ok=false and must fail the
// evaluation for just that path.
func fieldTime(field byte, st *walk.Stat) (time.Time, bool) {
	switch field {
	case 'a':
		return st.AccessTime()
	case 'c':
		return st.ChangeTime()
	case 'm':
		return st.ModTime, true
	case 'B':
		return st.BirthTime()
	}
	return time.Time{}, false
}

// parseNewerXY builds the -newerXY test: X selects which timestamp on
// the entry being visited to compare, Y selects either a literal
// timestamp ("t", parsed from the argument like -d/-daystart's
// reference would be) or the same field read from a reference file's
// stat.
func (p *Parser) parseNewerXY(name string, x, y byte) (*expr.Node, error) {
	arg, err := p.arg(name)
	if err != nil {
		return nil, err
	}

	var ref time.Time
	refOK := true
	if y == 't' {
		t, err := parseTimestamp(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArgument, name, err)
		}
		ref = t
	} else {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArgument, name, err)
		}
		st := walk.StatFromInfo(info)
		ref, refOK = fieldTime(y, &st)
	}

	return p.pool.NewLeafSpec(expr.LeafSpec{
		Name: name,
		Pure: true,
		Cost: costStat,
		Prob: 0.5,
		Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
			if !refOK {
				reportEntryError(ctx, e.Path, fmt.Errorf("%w: %s: reference file has no %c time available", ErrUnsupported, name, y))
				return false
			}
			if err := e.EnsureStat(ctx.NoFollow); err != nil {
				reportEntryError(ctx, e.Path, err)
				return false
			}
			t, ok := fieldTime(x, &e.Stat)
			if !ok {
				reportEntryError(ctx, e.Path, fmt.Errorf("%w: %s: %c time not available on this filesystem", ErrUnsupported, name, x))
				return false
			}
			return t.After(ref)
		},
	}), nil
}

// parseTimestamp accepts the handful of absolute/relative forms
// find's -newerXY/-t-like literal timestamps use in practice: a
// RFC3339 instant, or a bare date (YYYY-MM-DD).
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
