package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bfswalk/bfs/internal/expr"
	"github.com/bfswalk/bfs/internal/walk"
)

func TestConsumerContinuesOnMatch(t *testing.T) {
	pool := expr.NewPool()
	defer pool.Destroy()

	ev := New(expr.TRUE, &expr.EvalContext{})
	action := ev.Consumer()(&walk.Entry{Path: "a"})
	assert.Equal(t, walk.Continue, action)
}

func TestConsumerStopPropagates(t *testing.T) {
	pool := expr.NewPool()
	defer pool.Destroy()

	node := pool.NewLeafSpec(expr.LeafSpec{
		Name: "quit", AlwaysTrue: true, Prob: 1,
		Eval: func(*walk.Entry, *expr.EvalContext) bool {
			return true
		},
	})
	ctx := &expr.EvalContext{}
	ev := New(node, ctx)

	// Simulate -quit's side effect directly through the context, since
	// the test's own leaf doesn't need to duplicate -quit's parseFn.
	node.Eval = func(e *walk.Entry, c *expr.EvalContext) bool {
		c.Stop = true
		return true
	}
	action := ev.Consumer()(&walk.Entry{Path: "a"})
	assert.Equal(t, walk.Stop, action)
}

func TestConsumerSkipSubtreeResetsPerEntry(t *testing.T) {
	pool := expr.NewPool()
	defer pool.Destroy()

	prune := true
	node := pool.NewLeafSpec(expr.LeafSpec{
		Name: "prune", AlwaysTrue: true, Prob: 1,
		Eval: func(e *walk.Entry, c *expr.EvalContext) bool {
			if prune {
				c.SkipSubtree = true
			}
			return true
		},
	})
	ctx := &expr.EvalContext{}
	ev := New(node, ctx)

	action := ev.Consumer()(&walk.Entry{Path: "a"})
	assert.Equal(t, walk.SkipSubtree, action)

	prune = false
	action = ev.Consumer()(&walk.Entry{Path: "b"})
	assert.Equal(t, walk.Continue, action, "SkipSubtree from a prior entry must not leak into the next one")
}

func TestConsumerReportsTraversalErrorsAndContinues(t *testing.T) {
	var reported string
	ctx := &expr.EvalContext{ReportError: func(path string, err error) { reported = path }}
	ev := New(expr.TRUE, ctx)

	action := ev.Consumer()(&walk.Entry{Path: "broken", Type: walk.TypeError})
	require.Equal(t, walk.Continue, action)
	assert.Equal(t, "broken", reported)
}
