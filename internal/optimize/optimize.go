// Package optimize rewrites an expr.Node tree into an equivalent but
// cheaper-to-evaluate one: constant folding and short-circuit
// elimination, De Morgan transforms that unblock further folding,
// purity-based dead-code elimination, cost-based operand reordering,
// and an optional "fast mode" pass that drops a provably side-effect-
// free whole expression entirely.
package optimize

import (
	"sort"

	"github.com/bfswalk/bfs/internal/expr"
)

// Level selects which rewrite passes run. Levels are cumulative: O2
// implies O1, O3 implies O1+O2, and so on.
type Level int

const (
	O1 Level = iota + 1
	O2
	O3
	O4
)

// Run applies every pass up to level to the tree rooted at n,
// iterating the fold passes to a fixed point (a De Morgan rewrite can
// expose a fold that only becomes visible on the following pass),
// then O2's top-level pure-tail drop, O3 reordering, and O4 fast-mode
// each run exactly once since none of them exposes further
// opportunities for another.
func Run(pool *expr.Pool, n *expr.Node, level Level) *expr.Node {
	for {
		rewritten := foldOnce(pool, n, level)
		if rewritten == n {
			break
		}
		n = rewritten
	}
	if level >= O2 {
		n = dropPureTail(n)
	}
	if level >= O3 {
		n = reorderAll(pool, n)
	}
	if level >= O4 {
		n = fastMode(n)
	}
	return n
}

// dropPureTail applies O2's top-level rule: nothing outside the tree
// ever inspects its overall result (only the actions reached while
// evaluating it have observable effect), so once the root is a binary
// operator whose right operand is pure, that operand contributes
// nothing observable and the whole expression is equivalent to its
// left operand alone. This only holds at the root: an inner node's
// right operand still drives its parent's control flow even when
// pure, so the rule does not recurse past the first operand whose
// right child fails the test.
func dropPureTail(n *expr.Node) *expr.Node {
	for !n.IsLeaf() && n.Right != nil && n.Right.Pure {
		n = n.Left
	}
	return n
}

// foldOnce applies one bottom-up pass of O1/O2 rewrites. It returns n
// itself, unchanged, when no child changed and no rule fired at this
// node - the condition Run's loop uses to detect a fixed point.
func foldOnce(pool *expr.Pool, n *expr.Node, level Level) *expr.Node {
	if n.IsLeaf() {
		return n
	}

	left := foldOnce(pool, n.Left, level)
	var right *expr.Node
	if n.Right != nil {
		right = foldOnce(pool, n.Right, level)
	}

	var simplified *expr.Node
	switch n.Op {
	case expr.OpNot:
		simplified = trySimplifyNot(left)
	case expr.OpAnd:
		simplified = trySimplifyAnd(pool, left, right, level)
	case expr.OpOr:
		simplified = trySimplifyOr(pool, left, right, level)
	case expr.OpComma:
		simplified = trySimplifyComma(left, right, level)
	}
	if simplified != nil {
		return simplified
	}
	return rebuildIfChanged(pool, n, left, right)
}

func rebuildIfChanged(pool *expr.Pool, n, left, right *expr.Node) *expr.Node {
	if left == n.Left && right == n.Right {
		return n
	}
	if right == nil {
		return pool.NewUnary(left)
	}
	return pool.NewBinary(n.Op, left, right)
}

// trySimplifyNot applies: NOT TRUE -> FALSE, NOT FALSE -> TRUE, NOT
// NOT x -> x. Returns nil when none apply.
func trySimplifyNot(child *expr.Node) *expr.Node {
	switch {
	case child == expr.TRUE:
		return expr.FALSE
	case child == expr.FALSE:
		return expr.TRUE
	case child.Op == expr.OpNot:
		return child.Left
	}
	return nil
}

// trySimplifyAnd applies: TRUE AND x -> x, FALSE AND x -> FALSE,
// x AND TRUE -> x, (O2) x AND FALSE -> FALSE when x.pure, and (O1) De
// Morgan unblocking. Returns nil when none apply.
func trySimplifyAnd(pool *expr.Pool, l, r *expr.Node, level Level) *expr.Node {
	if l == expr.FALSE {
		return expr.FALSE
	}
	if l == expr.TRUE {
		return r
	}
	if r == expr.TRUE {
		return l
	}
	if level >= O2 && r == expr.FALSE && l.Pure {
		return expr.FALSE
	}
	if level >= O1 {
		if dm := tryDeMorganAnd(pool, l, r); dm != nil {
			return dm
		}
	}
	return nil
}

// trySimplifyOr applies: TRUE OR x -> TRUE, FALSE OR x -> x, x OR
// FALSE -> x, (O2) x OR TRUE -> TRUE when x.pure, and (O1) De Morgan
// unblocking. Returns nil when none apply.
func trySimplifyOr(pool *expr.Pool, l, r *expr.Node, level Level) *expr.Node {
	if l == expr.TRUE {
		return expr.TRUE
	}
	if l == expr.FALSE {
		return r
	}
	if r == expr.FALSE {
		return l
	}
	if level >= O2 && r == expr.TRUE && l.Pure {
		return expr.TRUE
	}
	if level >= O1 {
		if dm := tryDeMorganOr(pool, l, r); dm != nil {
			return dm
		}
	}
	return nil
}

// trySimplifyComma applies O2's "x , y -> y when x.pure". Returns nil
// when it does not apply.
func trySimplifyComma(l, r *expr.Node, level Level) *expr.Node {
	if level < O2 {
		return nil
	}
	if l.Pure {
		return r
	}
	return nil
}

// tryDeMorganAnd rewrites NOT x AND NOT y -> NOT (x OR y), only
// applicable (and only useful) when both children are already NOT,
// since that is what can unblock a subsequent fold.
func tryDeMorganAnd(pool *expr.Pool, l, r *expr.Node) *expr.Node {
	if l.Op != expr.OpNot || r.Op != expr.OpNot {
		return nil
	}
	inner := pool.NewBinary(expr.OpOr, l.Left, r.Left)
	return pool.NewUnary(inner)
}

func tryDeMorganOr(pool *expr.Pool, l, r *expr.Node) *expr.Node {
	if l.Op != expr.OpNot || r.Op != expr.OpNot {
		return nil
	}
	inner := pool.NewBinary(expr.OpAnd, l.Left, r.Left)
	return pool.NewUnary(inner)
}

// reorderAll applies O3: within each maximal chain of same-operator
// AND/OR nodes, reorder children by ascending cost/(1-prob) (AND) or
// cost/prob (OR), provided every child in the chain is pure. Ties
// preserve source order (sort.SliceStable).
func reorderAll(pool *expr.Pool, n *expr.Node) *expr.Node {
	if n.IsLeaf() {
		return n
	}
	if n.Op == expr.OpAnd || n.Op == expr.OpOr {
		chain := flattenChain(n, n.Op)
		reordered := make([]*expr.Node, len(chain))
		for i, c := range chain {
			reordered[i] = reorderAll(pool, c)
		}
		if allPure(reordered) {
			sortByCost(reordered, n.Op)
		}
		return rebuildChain(pool, n.Op, reordered)
	}
	left := reorderAll(pool, n.Left)
	var right *expr.Node
	if n.Right != nil {
		right = reorderAll(pool, n.Right)
	}
	return rebuildIfChanged(pool, n, left, right)
}

func flattenChain(n *expr.Node, op expr.Op) []*expr.Node {
	if n.Op != op {
		return []*expr.Node{n}
	}
	left := flattenChain(n.Left, op)
	right := flattenChain(n.Right, op)
	return append(left, right...)
}

func rebuildChain(pool *expr.Pool, op expr.Op, nodes []*expr.Node) *expr.Node {
	acc := nodes[0]
	for _, n := range nodes[1:] {
		acc = pool.NewBinary(op, acc, n)
	}
	return acc
}

func allPure(nodes []*expr.Node) bool {
	for _, n := range nodes {
		if !n.Pure {
			return false
		}
	}
	return true
}

func sortByCost(nodes []*expr.Node, op expr.Op) {
	key := func(n *expr.Node) float64 {
		if op == expr.OpAnd {
			denom := 1 - n.Prob
			if denom <= 0 {
				return n.Cost * 1e18
			}
			return n.Cost / denom
		}
		if n.Prob <= 0 {
			return n.Cost * 1e18
		}
		return n.Cost / n.Prob
	}
	sort.SliceStable(nodes, func(i, j int) bool { return key(nodes[i]) < key(nodes[j]) })
}

// fastMode applies O4: if the whole tree is pure and not already
// FALSE, no side effect is observable, so the entire tree is replaced
// with FALSE.
func fastMode(n *expr.Node) *expr.Node {
	if n == expr.FALSE {
		return n
	}
	if n.Pure {
		return expr.FALSE
	}
	return n
}
