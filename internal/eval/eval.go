// Package eval adapts a compiled expression tree into a walk.Consumer:
// the traversal engine already decides which of an entry's pre/post
// visits reaches the consumer at all (§4.H), so this package's only
// job is invoking expr.Evaluate once per delivered Entry and
// translating the resulting EvalContext state into a walk.Action.
package eval

import (
	"github.com/bfswalk/bfs/internal/expr"
	"github.com/bfswalk/bfs/internal/walk"
)

// Evaluator runs one compiled tree against every entry a traversal
// delivers, sharing a single EvalContext (and so a single Stop/
// ExitCode/error-reporting state) across the whole run.
type Evaluator struct {
	Root *expr.Node
	Ctx  *expr.EvalContext
}

// New builds an Evaluator over root, to be driven once per entry via
// Consumer.
func New(root *expr.Node, ctx *expr.EvalContext) *Evaluator {
	return &Evaluator{Root: root, Ctx: ctx}
}

// Consumer returns a walk.Consumer bound to this Evaluator: each call
// resets the per-entry half of the context (SkipSubtree), evaluates
// the tree, and maps the result onto a walk.Action.
func (ev *Evaluator) Consumer() walk.Consumer {
	return func(entry *walk.Entry) walk.Action {
		if entry.Type == walk.TypeError {
			if ev.Ctx.ReportError != nil {
				ev.Ctx.ReportError(entry.Path, entry.Err)
			}
			return walk.Continue
		}

		ev.Ctx.SkipSubtree = false
		expr.Evaluate(ev.Root, entry, ev.Ctx)

		switch {
		case ev.Ctx.Stop:
			return walk.Stop
		case ev.Ctx.SkipSubtree:
			return walk.SkipSubtree
		default:
			return walk.Continue
		}
	}
}
