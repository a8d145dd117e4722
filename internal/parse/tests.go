package parse

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bfswalk/bfs/internal/expr"
	"github.com/bfswalk/bfs/internal/fsutil"
	"github.com/bfswalk/bfs/internal/walk"
)

func init() {
	testOrActionTable["-true"] = func(p *Parser) (*expr.Node, error) {
		return expr.TRUE, nil
	}
	testOrActionTable["-false"] = func(p *Parser) (*expr.Node, error) {
		return expr.FALSE, nil
	}

	testOrActionTable["-name"] = nameTest("-name", false, false)
	testOrActionTable["-iname"] = nameTest("-iname", true, false)
	testOrActionTable["-path"] = nameTest("-path", false, true)
	testOrActionTable["-ipath"] = nameTest("-ipath", true, true)
	testOrActionTable["-lname"] = lnameTest("-lname", false)
	testOrActionTable["-ilname"] = lnameTest("-ilname", true)

	testOrActionTable["-regex"] = regexTest("-regex", false)
	testOrActionTable["-iregex"] = regexTest("-iregex", true)

	testOrActionTable["-type"] = typeTest("-type", false)
	testOrActionTable["-xtype"] = typeTest("-xtype", true)

	testOrActionTable["-size"] = parseSize
	testOrActionTable["-empty"] = parseEmpty
	testOrActionTable["-sparse"] = parseSparse

	testOrActionTable["-inum"] = cmpIntTest("-inum", func(e *walk.Entry) (int64, bool) {
		_, ino, ok := e.Stat.DevIno()
		return int64(ino), ok
	})
	testOrActionTable["-links"] = cmpIntTestStat("-links", func(st *walk.Stat) int64 {
		if n, ok := st.Nlink(); ok {
			return int64(n)
		}
		return 0
	})
	testOrActionTable["-uid"] = cmpIntTestStat("-uid", func(st *walk.Stat) int64 { return int64(st.UID) })
	testOrActionTable["-gid"] = cmpIntTestStat("-gid", func(st *walk.Stat) int64 { return int64(st.GID) })

	testOrActionTable["-user"] = userTest
	testOrActionTable["-group"] = groupTest
	testOrActionTable["-nouser"] = parseNouser
	testOrActionTable["-nogroup"] = parseNogroup

	testOrActionTable["-perm"] = parsePerm
	testOrActionTable["-samefile"] = parseSamefile

	testOrActionTable["-amin"] = minTest("-amin", 'a')
	testOrActionTable["-cmin"] = minTest("-cmin", 'c')
	testOrActionTable["-mmin"] = minTest("-mmin", 'm')
	testOrActionTable["-Bmin"] = minTest("-Bmin", 'B')
	testOrActionTable["-atime"] = dayTest("-atime", 'a')
	testOrActionTable["-ctime"] = dayTest("-ctime", 'c')
	testOrActionTable["-mtime"] = dayTest("-mtime", 'm')
	testOrActionTable["-Btime"] = dayTest("-Btime", 'B')

	testOrActionTable["-anewer"] = newerAlias("-anewer", 'a')
	testOrActionTable["-cnewer"] = newerAlias("-cnewer", 'c')
	testOrActionTable["-mnewer"] = newerAlias("-mnewer", 'm')
	testOrActionTable["-Bnewer"] = newerAlias("-Bnewer", 'B')

	testOrActionTable["-used"] = parseUsed
	testOrActionTable["-hidden"] = parseHidden
	testOrActionTable["-fstype"] = parseFstype

	testOrActionTable["-executable"] = accessTest("-executable", fsutil.AccessExecute)
	testOrActionTable["-readable"] = accessTest("-readable", fsutil.AccessRead)
	testOrActionTable["-writable"] = accessTest("-writable", fsutil.AccessWrite)
}

// nameTest builds -name/-iname/-path/-ipath: a filepath.Match glob
// against either the base name or the full path, optionally
// lowercased for case-insensitive matching.
func nameTest(name string, caseInsensitive, fullPath bool) func(*Parser) (*expr.Node, error) {
	return func(p *Parser) (*expr.Node, error) {
		pattern, err := p.arg(name)
		if err != nil {
			return nil, err
		}
		matchPattern := pattern
		if caseInsensitive {
			matchPattern = strings.ToLower(pattern)
		}
		return p.pool.NewLeafSpec(expr.LeafSpec{
			Name: name, Pure: true, Cost: costFast, Prob: 0.5,
			Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
				subject := e.Name()
				if fullPath {
					subject = e.Path
				}
				if caseInsensitive {
					subject = strings.ToLower(subject)
				}
				ok, err := filepath.Match(matchPattern, subject)
				return err == nil && ok
			},
		}), nil
	}
}

// lnameTest matches a glob against a symlink's own target text,
// rather than following it; non-symlinks never match.
func lnameTest(name string, caseInsensitive bool) func(*Parser) (*expr.Node, error) {
	return func(p *Parser) (*expr.Node, error) {
		pattern, err := p.arg(name)
		if err != nil {
			return nil, err
		}
		matchPattern := pattern
		if caseInsensitive {
			matchPattern = strings.ToLower(pattern)
		}
		return p.pool.NewLeafSpec(expr.LeafSpec{
			Name: name, Pure: true, Cost: costStat, Prob: 0.1,
			Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
				if e.Type != walk.TypeSymlink {
					return false
				}
				target, err := readlink(e.Path)
				if err != nil {
					reportEntryError(ctx, e.Path, err)
					return false
				}
				if caseInsensitive {
					target = strings.ToLower(target)
				}
				ok, err := filepath.Match(matchPattern, target)
				return err == nil && ok
			},
		}), nil
	}
}

func regexTest(name string, caseInsensitive bool) func(*Parser) (*expr.Node, error) {
	return func(p *Parser) (*expr.Node, error) {
		pattern, err := p.arg(name)
		if err != nil {
			return nil, err
		}
		re, err := p.compileRegex(pattern, caseInsensitive)
		if err != nil {
			return nil, err
		}
		return p.pool.NewLeafSpec(expr.LeafSpec{
			Name: name, Pure: true, Cost: costFast, Prob: 0.5,
			Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool { return re.MatchString(e.Path) },
		}), nil
	}
}

// typeKinds maps a -type/-xtype letter to the Type it selects.
var typeKinds = map[byte]walk.Type{
	'f': walk.TypeRegular,
	'd': walk.TypeDirectory,
	'l': walk.TypeSymlink,
	'b': walk.TypeBlock,
	'c': walk.TypeChar,
	'p': walk.TypeFIFO,
	's': walk.TypeSocket,
	'D': walk.TypeDoor,
}

// typeTest builds -type (tests the entry's own type, never following
// a symlink to classify it) and -xtype (classifies a symlink by its
// target's type instead, falling back to TypeSymlink for a dangling
// one).
func typeTest(name string, followSymlink bool) func(*Parser) (*expr.Node, error) {
	return func(p *Parser) (*expr.Node, error) {
		arg, err := p.arg(name)
		if err != nil {
			return nil, err
		}
		var wanted []walk.Type
		for _, part := range strings.Split(arg, ",") {
			if len(part) != 1 {
				return nil, fmt.Errorf("%w: %s: invalid type %q", ErrInvalidArgument, name, part)
			}
			kind, ok := typeKinds[part[0]]
			if !ok {
				return nil, fmt.Errorf("%w: %s: invalid type %q", ErrInvalidArgument, name, part)
			}
			wanted = append(wanted, kind)
		}
		return p.pool.NewLeafSpec(expr.LeafSpec{
			Name: name, Pure: true, Cost: costFast, Prob: 0.3,
			Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
				actual := e.Type
				if followSymlink && actual == walk.TypeSymlink {
					if err := e.EnsureStat(false); err == nil {
						actual = walk.TypeFromMode(e.Stat.Mode)
					}
				}
				for _, k := range wanted {
					if actual == k {
						return true
					}
				}
				return false
			},
		}), nil
	}
}

func parseSize(p *Parser) (*expr.Node, error) {
	arg, err := p.arg("-size")
	if err != nil {
		return nil, err
	}
	cmp, ref, err := fsutil.ParseSize(arg)
	if err != nil {
		return nil, fmt.Errorf("%w: -size: %v", ErrInvalidArgument, err)
	}
	return p.pool.NewLeafSpec(expr.LeafSpec{
		Name: "size", Pure: true, Cost: costFast, Prob: 0.5,
		Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
			if err := e.EnsureStat(ctx.NoFollow); err != nil {
				reportEntryError(ctx, e.Path, err)
				return false
			}
			return cmp.Match(e.Stat.Size, ref)
		},
	}), nil
}

func parseEmpty(p *Parser) (*expr.Node, error) {
	return p.pool.NewLeafSpec(expr.LeafSpec{
		Name: "empty", Pure: true, Cost: costStat, Prob: 0.2,
		Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
			if err := e.EnsureStat(ctx.NoFollow); err != nil {
				reportEntryError(ctx, e.Path, err)
				return false
			}
			switch e.Type {
			case walk.TypeRegular:
				return e.Stat.Size == 0
			case walk.TypeDirectory:
				empty, err := dirIsEmpty(e.Path)
				if err != nil {
					reportEntryError(ctx, e.Path, err)
					return false
				}
				return empty
			default:
				return false
			}
		},
	}), nil
}

func parseSparse(p *Parser) (*expr.Node, error) {
	return p.pool.NewLeafSpec(expr.LeafSpec{
		Name: "sparse", Pure: true, Cost: costStat, Prob: 0.1,
		Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
			if err := e.EnsureStat(ctx.NoFollow); err != nil {
				reportEntryError(ctx, e.Path, err)
				return false
			}
			blocks, ok := e.Stat.Blocks()
			if !ok {
				return false
			}
			return blocks*512 < e.Stat.Size
		},
	}), nil
}

// cmpIntTest builds a comparison test over a field only available
// after a stat/dev-ino lookup that may itself fail (-inum).
func cmpIntTest(name string, field func(*walk.Entry) (int64, bool)) func(*Parser) (*expr.Node, error) {
	return func(p *Parser) (*expr.Node, error) {
		arg, err := p.arg(name)
		if err != nil {
			return nil, err
		}
		cmp, ref, err := fsutil.ParseCmpInt(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArgument, name, err)
		}
		return p.pool.NewLeafSpec(expr.LeafSpec{
			Name: name, Pure: true, Cost: costStat, Prob: 0.5,
			Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
				if err := e.EnsureStat(ctx.NoFollow); err != nil {
					reportEntryError(ctx, e.Path, err)
					return false
				}
				v, ok := field(e)
				if !ok {
					return false
				}
				return cmp.Match(v, ref)
			},
		}), nil
	}
}

// cmpIntTestStat is cmpIntTest specialized for fields that are always
// present once Stat is populated (uid, gid, link count).
func cmpIntTestStat(name string, field func(*walk.Stat) int64) func(*Parser) (*expr.Node, error) {
	return cmpIntTest(name, func(e *walk.Entry) (int64, bool) { return field(&e.Stat), true })
}

func userTest(p *Parser) (*expr.Node, error) {
	name, err := p.arg("-user")
	if err != nil {
		return nil, err
	}
	uid, err := p.idcache.LookupUser(name)
	if err != nil {
		return nil, fmt.Errorf("%w: -user: %v", ErrUnresolvedName, err)
	}
	return p.pool.NewLeafSpec(expr.LeafSpec{
		Name: "user", Pure: true, Cost: costStat, Prob: 0.2,
		Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
			if err := e.EnsureStat(ctx.NoFollow); err != nil {
				reportEntryError(ctx, e.Path, err)
				return false
			}
			return e.Stat.UID == uid
		},
	}), nil
}

func groupTest(p *Parser) (*expr.Node, error) {
	name, err := p.arg("-group")
	if err != nil {
		return nil, err
	}
	gid, err := p.idcache.LookupGroup(name)
	if err != nil {
		return nil, fmt.Errorf("%w: -group: %v", ErrUnresolvedName, err)
	}
	return p.pool.NewLeafSpec(expr.LeafSpec{
		Name: "group", Pure: true, Cost: costStat, Prob: 0.2,
		Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
			if err := e.EnsureStat(ctx.NoFollow); err != nil {
				reportEntryError(ctx, e.Path, err)
				return false
			}
			return e.Stat.GID == gid
		},
	}), nil
}

func parseNouser(p *Parser) (*expr.Node, error) {
	return p.pool.NewLeafSpec(expr.LeafSpec{
		Name: "nouser", Pure: true, Cost: costStat, Prob: 0.05,
		Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
			if err := e.EnsureStat(ctx.NoFollow); err != nil {
				reportEntryError(ctx, e.Path, err)
				return false
			}
			_, ok := p.idcache.Username(e.Stat.UID)
			return !ok
		},
	}), nil
}

func parseNogroup(p *Parser) (*expr.Node, error) {
	return p.pool.NewLeafSpec(expr.LeafSpec{
		Name: "nogroup", Pure: true, Cost: costStat, Prob: 0.05,
		Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
			if err := e.EnsureStat(ctx.NoFollow); err != nil {
				reportEntryError(ctx, e.Path, err)
				return false
			}
			_, ok := p.idcache.Groupname(e.Stat.GID)
			return !ok
		},
	}), nil
}

func parsePerm(p *Parser) (*expr.Node, error) {
	arg, err := p.arg("-perm")
	if err != nil {
		return nil, err
	}
	spec, err := fsutil.ParseMode(arg)
	if err != nil {
		return nil, fmt.Errorf("%w: -perm: %v", ErrInvalidArgument, err)
	}
	return p.pool.NewLeafSpec(expr.LeafSpec{
		Name: "perm", Pure: true, Cost: costStat, Prob: 0.3,
		Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
			if err := e.EnsureStat(ctx.NoFollow); err != nil {
				reportEntryError(ctx, e.Path, err)
				return false
			}
			return spec.Match(e.Stat.Mode, e.Type == walk.TypeDirectory)
		},
	}), nil
}

func parseSamefile(p *Parser) (*expr.Node, error) {
	arg, err := p.arg("-samefile")
	if err != nil {
		return nil, err
	}
	info, err := osStat(arg)
	if err != nil {
		return nil, fmt.Errorf("%w: -samefile: %v", ErrInvalidArgument, err)
	}
	ref := walk.StatFromInfo(info)
	refDev, refIno, ok := ref.DevIno()
	if !ok {
		return nil, fmt.Errorf("%w: -samefile: cannot determine device/inode of %q", ErrUnsupported, arg)
	}
	return p.pool.NewLeafSpec(expr.LeafSpec{
		Name: "samefile", Pure: true, Cost: costStat, Prob: 0.05,
		Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
			if err := e.EnsureStat(ctx.NoFollow); err != nil {
				reportEntryError(ctx, e.Path, err)
				return false
			}
			dev, ino, ok := e.Stat.DevIno()
			return ok && dev == refDev && ino == refIno
		},
	}), nil
}

// minTest builds the -?min family: age in whole minutes since now.
func minTest(name string, field byte) func(*Parser) (*expr.Node, error) {
	return func(p *Parser) (*expr.Node, error) {
		arg, err := p.arg(name)
		if err != nil {
			return nil, err
		}
		cmp, n, err := fsutil.ParseCmpInt(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArgument, name, err)
		}
		now := p.now
		return p.pool.NewLeafSpec(expr.LeafSpec{
			Name: name, Pure: true, Cost: costStat, Prob: 0.5,
			Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
				if err := e.EnsureStat(ctx.NoFollow); err != nil {
					reportEntryError(ctx, e.Path, err)
					return false
				}
				t, ok := fieldTime(field, &e.Stat)
				if !ok {
					return false
				}
				age := int64(now.Sub(t) / time.Minute)
				return cmp.Match(age, n)
			},
		}), nil
	}
}

// dayTest builds the -?time family: age in whole 24-hour days.
func dayTest(name string, field byte) func(*Parser) (*expr.Node, error) {
	return func(p *Parser) (*expr.Node, error) {
		arg, err := p.arg(name)
		if err != nil {
			return nil, err
		}
		cmp, n, err := fsutil.ParseCmpInt(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArgument, name, err)
		}
		now := p.now
		return p.pool.NewLeafSpec(expr.LeafSpec{
			Name: name, Pure: true, Cost: costStat, Prob: 0.5,
			Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
				if err := e.EnsureStat(ctx.NoFollow); err != nil {
					reportEntryError(ctx, e.Path, err)
					return false
				}
				t, ok := fieldTime(field, &e.Stat)
				if !ok {
					return false
				}
				age := int64(now.Sub(t) / (24 * time.Hour))
				return cmp.Match(age, n)
			},
		}), nil
	}
}

// newerAlias builds -anewer/-cnewer/-mnewer/-Bnewer as the
// corresponding -newerXm: the tested file's X field compared against
// the reference file's mtime.
func newerAlias(name string, x byte) func(*Parser) (*expr.Node, error) {
	return func(p *Parser) (*expr.Node, error) {
		return p.parseNewerXY(name, x, 'm')
	}
}

func parseUsed(p *Parser) (*expr.Node, error) {
	arg, err := p.arg("-used")
	if err != nil {
		return nil, err
	}
	cmp, n, err := fsutil.ParseCmpInt(arg)
	if err != nil {
		return nil, fmt.Errorf("%w: -used: %v", ErrInvalidArgument, err)
	}
	return p.pool.NewLeafSpec(expr.LeafSpec{
		Name: "used", Pure: true, Cost: costStat, Prob: 0.3,
		Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
			if err := e.EnsureStat(ctx.NoFollow); err != nil {
				reportEntryError(ctx, e.Path, err)
				return false
			}
			at, ok1 := e.Stat.AccessTime()
			ct, ok2 := e.Stat.ChangeTime()
			if !ok1 || !ok2 {
				return false
			}
			days := int64(at.Sub(ct) / (24 * time.Hour))
			return cmp.Match(days, n)
		},
	}), nil
}

func parseHidden(p *Parser) (*expr.Node, error) {
	return p.pool.NewLeafSpec(expr.LeafSpec{
		Name: "hidden", Pure: true, Cost: costFast, Prob: 0.1,
		Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
			name := e.Name()
			return len(name) > 0 && name[0] == '.' && name != "." && name != ".."
		},
	}), nil
}

func parseFstype(p *Parser) (*expr.Node, error) {
	want, err := p.arg("-fstype")
	if err != nil {
		return nil, err
	}
	return p.pool.NewLeafSpec(expr.LeafSpec{
		Name: "fstype", Pure: true, Cost: costStat, Prob: 0.5,
		Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
			got, ok := walk.FSType(e.Path)
			return ok && got == want
		},
	}), nil
}

// accessTest builds -executable/-readable/-writable: a real access(2)
// check against the calling process's credentials.
func accessTest(name string, mode uint32) func(*Parser) (*expr.Node, error) {
	return func(p *Parser) (*expr.Node, error) {
		return p.pool.NewLeafSpec(expr.LeafSpec{
			Name: name, Pure: true, Cost: costStat, Prob: 0.5,
			Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
				return fsutil.Accessible(e.Path, mode)
			},
		}), nil
	}
}
