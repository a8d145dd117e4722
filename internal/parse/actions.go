package parse

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bfswalk/bfs/internal/expr"
	"github.com/bfswalk/bfs/internal/format"
	"github.com/bfswalk/bfs/internal/walk"
)

func init() {
	testOrActionTable["-print"] = func(p *Parser) (*expr.Node, error) {
		p.sawOutputAction = true
		return p.pool.NewLeafSpec(printLeafSpec(nil)), nil
	}
	testOrActionTable["-print0"] = func(p *Parser) (*expr.Node, error) {
		p.sawOutputAction = true
		return p.pool.NewLeafSpec(printTerminatedLeafSpec("print0", nil, "\x00")), nil
	}
	testOrActionTable["-printx"] = func(p *Parser) (*expr.Node, error) {
		p.sawOutputAction = true
		return p.pool.NewLeafSpec(expr.LeafSpec{
			Name: "printx", Cost: costPrint, Prob: 1,
			Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
				fmt.Fprintln(target(ctx, nil), shellQuote(e.Path))
				return true
			},
		}), nil
	}
	testOrActionTable["-printf"] = func(p *Parser) (*expr.Node, error) {
		f, err := p.arg("-printf")
		if err != nil {
			return nil, err
		}
		p.sawOutputAction = true
		return p.pool.NewLeafSpec(printfLeafSpec("printf", nil, f)), nil
	}
	testOrActionTable["-fprint"] = func(p *Parser) (*expr.Node, error) {
		path, err := p.arg("-fprint")
		if err != nil {
			return nil, err
		}
		w, err := p.openSink(path)
		if err != nil {
			return nil, err
		}
		p.sawOutputAction = true
		return p.pool.NewLeafSpec(printLeafSpec(w)), nil
	}
	testOrActionTable["-fprint0"] = func(p *Parser) (*expr.Node, error) {
		path, err := p.arg("-fprint0")
		if err != nil {
			return nil, err
		}
		w, err := p.openSink(path)
		if err != nil {
			return nil, err
		}
		p.sawOutputAction = true
		return p.pool.NewLeafSpec(printTerminatedLeafSpec("fprint0", w, "\x00")), nil
	}
	testOrActionTable["-fprintf"] = func(p *Parser) (*expr.Node, error) {
		path, err := p.arg("-fprintf")
		if err != nil {
			return nil, err
		}
		f, err := p.arg("-fprintf")
		if err != nil {
			return nil, err
		}
		w, err := p.openSink(path)
		if err != nil {
			return nil, err
		}
		p.sawOutputAction = true
		return p.pool.NewLeafSpec(printfLeafSpec("fprintf", w, f)), nil
	}

	testOrActionTable["-ls"] = func(p *Parser) (*expr.Node, error) {
		p.sawOutputAction = true
		return p.pool.NewLeafSpec(lsLeafSpec("ls", nil, p.idcache)), nil
	}
	testOrActionTable["-fls"] = func(p *Parser) (*expr.Node, error) {
		path, err := p.arg("-fls")
		if err != nil {
			return nil, err
		}
		w, err := p.openSink(path)
		if err != nil {
			return nil, err
		}
		p.sawOutputAction = true
		return p.pool.NewLeafSpec(lsLeafSpec("fls", w, p.idcache)), nil
	}

	testOrActionTable["-delete"] = parseDelete
	testOrActionTable["-rm"] = parseDelete

	testOrActionTable["-prune"] = func(p *Parser) (*expr.Node, error) {
		p.sawPrune = true
		return p.pool.NewLeafSpec(expr.LeafSpec{
			Name: "prune", AlwaysTrue: true, Prob: 1, Cost: costFast,
			Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool { ctx.SkipSubtree = true; return true },
		}), nil
	}
	testOrActionTable["-nohidden"] = func(p *Parser) (*expr.Node, error) {
		return p.pool.NewLeafSpec(expr.LeafSpec{
			Name: "nohidden", Cost: costFast, Prob: 0.9,
			Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
				name := e.Name()
				if len(name) > 0 && name[0] == '.' && name != "." && name != ".." {
					ctx.SkipSubtree = true
					return false
				}
				return true
			},
		}), nil
	}

	testOrActionTable["-quit"] = func(p *Parser) (*expr.Node, error) {
		return p.pool.NewLeafSpec(expr.LeafSpec{
			Name: "quit", AlwaysTrue: true, Prob: 1, Cost: costFast,
			Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool { ctx.Stop = true; return true },
		}), nil
	}
	testOrActionTable["-exit"] = parseExit

	testOrActionTable["-exec"] = execTest("exec")
	testOrActionTable["-execdir"] = execTest("execdir")
	testOrActionTable["-ok"] = execTest("ok")
	testOrActionTable["-okdir"] = execTest("okdir")
}

func target(ctx *expr.EvalContext, w io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return ctx.Stdout
}


func printLeafSpec(w io.Writer) expr.LeafSpec {
	return expr.LeafSpec{
		Name: "print", Cost: costPrint, Prob: 1,
		Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
			fmt.Fprintln(target(ctx, w), e.Path)
			return true
		},
	}
}

func printTerminatedLeafSpec(name string, w io.Writer, terminator string) expr.LeafSpec {
	return expr.LeafSpec{
		Name: name, Cost: costPrint, Prob: 1,
		Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
			fmt.Fprint(target(ctx, w), e.Path, terminator)
			return true
		},
	}
}

func printfLeafSpec(name string, w io.Writer, format string) expr.LeafSpec {
	return expr.LeafSpec{
		Name: name, Cost: costPrint, Prob: 1,
		Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
			render := ctx.Format
			if render == nil {
				render = expr.DefaultFormatter
			}
			fmt.Fprint(target(ctx, w), render(format, e))
			return true
		},
	}
}

func lsLeafSpec(name string, w io.Writer, idcache interface {
	Username(uint32) (string, bool)
	Groupname(uint32) (string, bool)
}) expr.LeafSpec {
	return expr.LeafSpec{
		Name: name, Cost: costPrint, Prob: 1,
		Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
			if err := e.EnsureStat(ctx.NoFollow); err != nil {
				reportEntryError(ctx, e.Path, err)
				return false
			}
			fmt.Fprintln(target(ctx, w), format.LongLine(e, idcache))
			return true
		},
	}
}

func parseDelete(p *Parser) (*expr.Node, error) {
	return p.pool.NewLeafSpec(expr.LeafSpec{
		Name: "delete", Cost: costPrint, Prob: 0.95,
		Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
			if err := os.Remove(e.Path); err != nil {
				reportEntryError(ctx, e.Path, err)
				return false
			}
			return true
		},
	}), nil
}

func parseExit(p *Parser) (*expr.Node, error) {
	code := 0
	if tok, ok := p.peek(); ok {
		if n, err := strconv.Atoi(tok); err == nil {
			code = n
			p.advance()
		}
	}
	return p.pool.NewLeafSpec(expr.LeafSpec{
		Name: "exit", AlwaysTrue: true, Prob: 1, Cost: costFast,
		Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
			ctx.Stop = true
			ctx.ExitCode = code
			return true
		},
	}), nil
}

// execTest parses the -exec/-execdir/-ok/-okdir family: tokens up to
// a bare ";" or "+" become argv, with any occurrence of the literal
// token "{}" substituted with the visited entry's path at evaluation
// time. Batched "+" invocation (accumulating many paths into one
// command line) is not modeled; each match still invokes the Execer
// once, per §9's note that this module evaluates one entry at a time.
// -ok/-okdir pass confirm=true to the Execer so the wired
// implementation can prompt before running; the core itself never
// decides whether or how that prompt happens, only which calls need
// one.
func execTest(name string) func(*Parser) (*expr.Node, error) {
	confirm := name == "ok" || name == "okdir"
	return func(p *Parser) (*expr.Node, error) {
		var argv []string
		closed := false
		for {
			tok, ok := p.peek()
			if !ok {
				return nil, fmt.Errorf("%w: -%s: missing terminating ; or +", ErrMissingArgument, name)
			}
			p.advance()
			if tok == ";" || tok == "+" {
				closed = true
				break
			}
			argv = append(argv, tok)
		}
		if !closed || len(argv) == 0 {
			return nil, fmt.Errorf("%w: -%s: empty command", ErrInvalidArgument, name)
		}
		return p.pool.NewLeafSpec(expr.LeafSpec{
			Name: name, Cost: costPrint, Prob: 0.9, ArgvSpan: argv,
			Eval: func(e *walk.Entry, ctx *expr.EvalContext) bool {
				if ctx.Execer == nil {
					reportEntryError(ctx, e.Path, expr.ErrExecUnavailable)
					return false
				}
				resolved := make([]string, len(argv))
				for i, a := range argv {
					resolved[i] = strings.ReplaceAll(a, "{}", e.Path)
				}
				ok, err := ctx.Execer(resolved, e, confirm)
				if err != nil {
					reportEntryError(ctx, e.Path, err)
				}
				return ok
			},
		}), nil
	}
}

// shellQuote wraps s in single quotes whenever it contains a
// character a shell would otherwise treat specially, for -printx.
func shellQuote(s string) string {
	const safe = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_./-"
	needsQuote := s == ""
	for i := 0; i < len(s) && !needsQuote; i++ {
		if !strings.ContainsRune(safe, rune(s[i])) {
			needsQuote = true
		}
	}
	if !needsQuote {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
