package parse

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bfswalk/bfs/internal/cmdline"
	"github.com/bfswalk/bfs/internal/walk"
)

func init() {
	// Global flags (§6): symlink policy, optimizer level, debug
	// channels, regex flavor, search strategy, extra roots, sibling
	// sort.
	optionTable["-P"] = func(p *Parser) error { p.ctx.Symlink = walk.PolicyP; return nil }
	optionTable["-H"] = func(p *Parser) error { p.ctx.Symlink = walk.PolicyH; return nil }
	optionTable["-L"] = func(p *Parser) error { p.ctx.Symlink = walk.PolicyL; return nil }

	optionTable["-O0"] = func(p *Parser) error { p.ctx.OptimizeLevel = 0; return nil }
	optionTable["-O1"] = func(p *Parser) error { p.ctx.OptimizeLevel = 1; return nil }
	optionTable["-O2"] = func(p *Parser) error { p.ctx.OptimizeLevel = 2; return nil }
	optionTable["-O3"] = func(p *Parser) error { p.ctx.OptimizeLevel = 3; return nil }
	optionTable["-O4"] = func(p *Parser) error { p.ctx.OptimizeLevel = 4; return nil }
	optionTable["-Ofast"] = func(p *Parser) error {
		p.ctx.OptimizeLevel = 4
		p.ctx.Fast = true
		return nil
	}

	optionTable["-D"] = func(p *Parser) error {
		name, err := p.arg("-D")
		if err != nil {
			return err
		}
		p.ctx.Debug[cmdline.DebugChannel(name)] = true
		return nil
	}

	optionTable["-E"] = func(p *Parser) error { p.ctx.ExtendedRegex = true; return nil }
	optionTable["-X"] = func(p *Parser) error { p.ctx.XargsSafe = true; return nil }

	optionTable["-S"] = func(p *Parser) error {
		name, err := p.arg("-S")
		if err != nil {
			return err
		}
		switch cmdline.Strategy(name) {
		case cmdline.StrategyBFS, cmdline.StrategyDFS, cmdline.StrategyIDS, cmdline.StrategyEDS:
			p.ctx.Strategy = cmdline.Strategy(name)
		default:
			return fmt.Errorf("%w: -S: unknown strategy %q", ErrInvalidArgument, name)
		}
		return nil
	}

	optionTable["-f"] = func(p *Parser) error {
		path, err := p.arg("-f")
		if err != nil {
			return err
		}
		p.roots = append(p.roots, path)
		return nil
	}

	optionTable["-s"] = func(p *Parser) error { p.ctx.Sort = true; return nil }

	// Positional options (§6): parser/evaluation-time knobs that are
	// conventionally written among the expression tokens, but (like
	// global options) carry no truth value of their own.
	optionTable["-daystart"] = func(p *Parser) error {
		p.ctx.DayStart = true
		y, m, d := p.now.Date()
		p.now = time.Date(y, m, d, 0, 0, 0, 0, p.now.Location())
		return nil
	}
	optionTable["-follow"] = func(p *Parser) error {
		p.ctx.Follow = true
		p.ctx.Symlink = walk.PolicyL
		return nil
	}
	optionTable["-warn"] = func(p *Parser) error { p.ctx.Warn = true; return nil }
	optionTable["-nowarn"] = func(p *Parser) error { p.ctx.Warn = false; return nil }
	optionTable["-regextype"] = func(p *Parser) error {
		t, err := p.arg("-regextype")
		if err != nil {
			return err
		}
		p.ctx.RegexType = t
		return nil
	}
	optionTable["-ignore_readdir_race"] = func(p *Parser) error {
		p.ctx.IgnoreReaddirRace = true
		return nil
	}
	optionTable["-noignore_readdir_race"] = func(p *Parser) error {
		p.ctx.IgnoreReaddirRace = false
		return nil
	}

	// Global options (§6): depth bounds, mount boundary, post-order,
	// color.
	optionTable["-mindepth"] = func(p *Parser) error {
		n, err := intArg(p, "-mindepth")
		if err != nil {
			return err
		}
		p.ctx.MinDepth = n
		return nil
	}
	optionTable["-maxdepth"] = func(p *Parser) error {
		n, err := intArg(p, "-maxdepth")
		if err != nil {
			return err
		}
		p.ctx.MaxDepth = n
		return nil
	}
	optionTable["-mount"] = func(p *Parser) error { p.ctx.Mount = true; return nil }
	optionTable["-xdev"] = func(p *Parser) error { p.ctx.Mount = true; return nil }
	optionTable["-depth"] = func(p *Parser) error { p.ctx.PostOrder = true; return nil }
	optionTable["-color"] = func(p *Parser) error { p.ctx.Color = true; return nil }
	optionTable["-nocolor"] = func(p *Parser) error { p.ctx.Color = false; return nil }
}

func intArg(p *Parser, name string) (int, error) {
	s, err := p.arg(name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidArgument, name, err)
	}
	return n, nil
}
