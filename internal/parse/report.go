package parse

import "github.com/bfswalk/bfs/internal/expr"

// reportEntryError surfaces a per-path predicate failure (a stat that
// raced with a deletion, an unreadable reference file, ...) through
// whatever sink the caller wired up, without turning it into a parse
// or evaluation panic.
func reportEntryError(ctx *expr.EvalContext, path string, err error) {
	if ctx.ReportError != nil {
		ctx.ReportError(path, err)
	}
}
