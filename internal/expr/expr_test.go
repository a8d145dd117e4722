package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bfswalk/bfs/internal/walk"
)

func leaf(p *Pool, name string, v bool, prob float64) *Node {
	return p.NewLeafSpec(LeafSpec{
		Name: name,
		Pure: true,
		Prob: prob,
		Cost: 1,
		Eval: func(*walk.Entry, *EvalContext) bool { return v },
	})
}

func TestEvaluateShortCircuitsAnd(t *testing.T) {
	p := NewPool()
	defer p.Destroy()

	calledRHS := false
	lhs := leaf(p, "false", false, 0)
	rhs := p.NewLeafSpec(LeafSpec{Name: "rhs", Eval: func(*walk.Entry, *EvalContext) bool {
		calledRHS = true
		return true
	}})
	n := p.NewBinary(OpAnd, lhs, rhs)

	got := Evaluate(n, &walk.Entry{}, &EvalContext{})
	assert.False(t, got)
	assert.False(t, calledRHS, "AND must short-circuit on a false lhs")
}

func TestEvaluateShortCircuitsOr(t *testing.T) {
	p := NewPool()
	defer p.Destroy()

	calledRHS := false
	lhs := leaf(p, "true", true, 1)
	rhs := p.NewLeafSpec(LeafSpec{Name: "rhs", Eval: func(*walk.Entry, *EvalContext) bool {
		calledRHS = true
		return false
	}})
	n := p.NewBinary(OpOr, lhs, rhs)

	got := Evaluate(n, &walk.Entry{}, &EvalContext{})
	assert.True(t, got)
	assert.False(t, calledRHS, "OR must short-circuit on a true lhs")
}

func TestEvaluateCommaEvaluatesBothReturnsRight(t *testing.T) {
	p := NewPool()
	defer p.Destroy()

	lhsRan := false
	lhs := p.NewLeafSpec(LeafSpec{Name: "lhs", Eval: func(*walk.Entry, *EvalContext) bool {
		lhsRan = true
		return false
	}})
	rhs := leaf(p, "rhs", true, 1)
	n := p.NewBinary(OpComma, lhs, rhs)

	got := Evaluate(n, &walk.Entry{}, &EvalContext{})
	assert.True(t, got)
	assert.True(t, lhsRan, "COMMA must evaluate the left side even though it discards the result")
}

func TestEvaluateNotInverts(t *testing.T) {
	p := NewPool()
	defer p.Destroy()

	n := p.NewUnary(leaf(p, "true", true, 1))
	assert.False(t, Evaluate(n, &walk.Entry{}, &EvalContext{}))
}

func TestComposeAndProbabilityAndCost(t *testing.T) {
	p := NewPool()
	defer p.Destroy()

	lhs := leaf(p, "a", true, 0.25)
	lhs.Cost = 2
	rhs := leaf(p, "b", true, 0.5)
	rhs.Cost = 4

	n := p.NewBinary(OpAnd, lhs, rhs)
	assert.InDelta(t, 0.125, n.Prob, 1e-9)
	assert.InDelta(t, 2+0.25*4, n.Cost, 1e-9)
	assert.True(t, n.Pure)
}

func TestComposeOrProbabilityAndCost(t *testing.T) {
	p := NewPool()
	defer p.Destroy()

	lhs := leaf(p, "a", true, 0.25)
	lhs.Cost = 2
	rhs := leaf(p, "b", true, 0.5)
	rhs.Cost = 4

	n := p.NewBinary(OpOr, lhs, rhs)
	want := 0.25 + 0.5 - 0.25*0.5
	assert.InDelta(t, want, n.Prob, 1e-9)
	assert.InDelta(t, 2+(1-0.25)*4, n.Cost, 1e-9)
}

func TestComposeNotInvertsAlwaysFlags(t *testing.T) {
	p := NewPool()
	defer p.Destroy()

	n := p.NewUnary(TRUE)
	assert.True(t, n.AlwaysFalse)
	assert.False(t, n.AlwaysTrue)
	assert.Equal(t, float64(0), n.Prob)
}

func TestSentinelsNeverMutate(t *testing.T) {
	require.Equal(t, float64(1), TRUE.Prob)
	require.Equal(t, float64(0), FALSE.Prob)
	assert.True(t, TRUE.AlwaysTrue)
	assert.True(t, FALSE.AlwaysFalse)
	assert.True(t, Evaluate(TRUE, &walk.Entry{}, &EvalContext{}))
	assert.False(t, Evaluate(FALSE, &walk.Entry{}, &EvalContext{}))
}
