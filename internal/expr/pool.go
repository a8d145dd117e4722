package expr

import (
	"github.com/bfswalk/bfs/internal/arena"
	"github.com/bfswalk/bfs/internal/walk"
)

// Pool owns the arena every Node in one parse+optimize+evaluate
// pipeline is allocated from. There is no per-node Destroy: nodes
// never escape their pipeline, so Pool.Destroy (via the arena's
// Clear/Destroy) is the only reclamation needed, aside from the
// package-level TRUE/FALSE sentinels which live outside any pool.
type Pool struct {
	arena *arena.Arena[Node]
}

// NewPool returns an empty node pool.
func NewPool() *Pool {
	return &Pool{arena: arena.New[Node]()}
}

// Destroy releases every node this pool ever allocated.
func (p *Pool) Destroy() {
	p.arena.Destroy()
}

func (p *Pool) alloc() *Node {
	idx := p.arena.Alloc()
	return p.arena.Get(idx)
}

// LeafSpec bundles the metadata a predicate/action parseFn computes
// for its node, so construction sites don't need a long positional
// call.
type LeafSpec struct {
	Name        string
	Eval        func(*walk.Entry, *EvalContext) bool
	Cost        float64
	Prob        float64
	Pure        bool
	AlwaysTrue  bool
	AlwaysFalse bool
	FileDemand  FileDemand
	ArgvSpan    []string
}

// NewLeafSpec allocates a leaf with fully specified metadata.
func (p *Pool) NewLeafSpec(spec LeafSpec) *Node {
	n := p.alloc()
	*n = Node{
		Name:        spec.Name,
		Eval:        spec.Eval,
		Cost:        spec.Cost,
		Prob:        spec.Prob,
		Pure:        spec.Pure,
		AlwaysTrue:  spec.AlwaysTrue,
		AlwaysFalse: spec.AlwaysFalse,
		FileDemand:  spec.FileDemand,
		ArgvSpan:    spec.ArgvSpan,
	}
	return n
}

// NewUnary builds a NOT node over child, inverting its truth-related
// fields per §3/§4.G's composition rules.
func (p *Pool) NewUnary(child *Node) *Node {
	n := p.alloc()
	*n = Node{
		Op:          OpNot,
		Name:        "not",
		Left:        child,
		Pure:        child.Pure,
		AlwaysTrue:  child.AlwaysFalse,
		AlwaysFalse: child.AlwaysTrue,
		Cost:        child.Cost,
		Prob:        1 - child.Prob,
		FileDemand:  child.FileDemand,
	}
	return n
}

// NewBinary builds an AND/OR/COMMA node over lhs and rhs, composing
// cost and probability per §4.G:
//
//	AND.prob = lhs.prob * rhs.prob
//	OR.prob  = lhs.prob + rhs.prob - lhs.prob*rhs.prob
//	cost     = lhs.cost + pContinue * rhs.cost
//
// where pContinue is lhs.prob for AND (rhs only runs if lhs is true),
// 1-lhs.prob for OR (rhs only runs if lhs is false), and 1 for COMMA
// (rhs always runs).
func (p *Pool) NewBinary(op Op, lhs, rhs *Node) *Node {
	n := p.alloc()
	n.Op = op
	n.Left, n.Right = lhs, rhs
	n.FileDemand = FileDemand{
		Persistent: lhs.FileDemand.Persistent + rhs.FileDemand.Persistent,
		Ephemeral:  lhs.FileDemand.Ephemeral + rhs.FileDemand.Ephemeral,
	}
	switch op {
	case OpAnd:
		n.Name = "and"
		n.Pure = lhs.Pure && rhs.Pure
		n.Prob = lhs.Prob * rhs.Prob
		n.Cost = lhs.Cost + lhs.Prob*rhs.Cost
		n.AlwaysFalse = lhs.AlwaysFalse || rhs.AlwaysFalse
		n.AlwaysTrue = lhs.AlwaysTrue && rhs.AlwaysTrue
	case OpOr:
		n.Name = "or"
		n.Pure = lhs.Pure && rhs.Pure
		n.Prob = lhs.Prob + rhs.Prob - lhs.Prob*rhs.Prob
		n.Cost = lhs.Cost + (1-lhs.Prob)*rhs.Cost
		n.AlwaysTrue = lhs.AlwaysTrue || rhs.AlwaysTrue
		n.AlwaysFalse = lhs.AlwaysFalse && rhs.AlwaysFalse
	case OpComma:
		n.Name = "comma"
		n.Pure = lhs.Pure && rhs.Pure
		n.Prob = rhs.Prob
		n.Cost = lhs.Cost + rhs.Cost
		n.AlwaysTrue = rhs.AlwaysTrue
		n.AlwaysFalse = rhs.AlwaysFalse
	}
	return n
}
