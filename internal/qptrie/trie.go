// Package qptrie implements a compressed, nibble-indexed trie over
// byte-string keys: a content-addressed map used for user/group name
// caching, the parser's regex and output-sink caches, and
// cycle-detection (device, inode) sets.
package qptrie

import (
	"bytes"

	"github.com/bfswalk/bfs/internal/arena"
)

// Trie maps byte-string keys to values of type T.
type Trie[T any] struct {
	root    child[T]
	size    int
	classes *arena.Classes
}

// New returns an empty trie that owns each key with its own []byte
// allocation.
func New[T any]() *Trie[T] {
	return &Trie[T]{}
}

// NewPooled returns an empty trie that slab-allocates its leaf keys
// out of classes instead of one make([]byte, n) per Insert, for tries
// churning through many short-lived variable-length keys (e.g. the
// uid/gid name caches).
func NewPooled[T any](classes *arena.Classes) *Trie[T] {
	return &Trie[T]{classes: classes}
}

// Len reports the number of keys currently stored.
func (t *Trie[T]) Len() int {
	return t.size
}

// probe descends the trie following key's nibbles, stopping at the
// first leaf reached. When a tested nibble has no child, the nearest
// existing sibling is taken instead: probe only needs *a*
// representative leaf to compute a mismatch point against, not the
// exact one.
func (t *Trie[T]) probe(key []byte) *Leaf[T] {
	c := t.root
	for !c.isLeaf() {
		n := nibbleAt(key, c.internal.offset)
		slot, _ := c.internal.children.nearestSlot(uint(n))
		c = c.internal.children.items[slot]
	}
	return c.leaf
}

// FindExact returns the leaf whose key equals key exactly.
func (t *Trie[T]) FindExact(key []byte) (*Leaf[T], bool) {
	if t.size == 0 {
		return nil, false
	}
	leaf := t.probe(key)
	if bytes.Equal(leaf.key, key) {
		return leaf, true
	}
	return nil, false
}

// FindPrefix returns the leaf with the longest key that is a prefix
// of key.
func (t *Trie[T]) FindPrefix(key []byte) (*Leaf[T], bool) {
	if t.size == 0 {
		return nil, false
	}
	var best *Leaf[T]
	c := t.root
	for {
		if c.isLeaf() {
			if isPrefixOf(c.leaf.key, key) {
				best = c.leaf
			}
			break
		}
		// Nibble 0 of a node's children is the implicit-NUL branch:
		// a leaf there terminates exactly at this node's offset, so
		// it is a candidate termination point for the prefix search.
		if zc, ok := c.internal.children.get(0); ok && zc.isLeaf() {
			if isPrefixOf(zc.leaf.key, key) {
				best = zc.leaf
			}
		}
		n := nibbleAt(key, c.internal.offset)
		nc, ok := c.internal.children.get(uint(n))
		if !ok {
			break
		}
		c = nc
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

// FindPostfix returns any leaf whose key begins with key.
func (t *Trie[T]) FindPostfix(key []byte) (*Leaf[T], bool) {
	if t.size == 0 {
		return nil, false
	}
	c := t.root
	for !c.isLeaf() {
		if c.internal.offset >= 2*len(key) {
			// Beyond this point every leaf under c already agrees
			// with key on all of key's bytes (the trie invariant:
			// leaves under a node share every nibble below its
			// offset), so further descent can't rule anything out.
			break
		}
		n := nibbleAt(key, c.internal.offset)
		nc, ok := c.internal.children.get(uint(n))
		if !ok {
			return nil, false
		}
		c = nc
	}
	leaf := firstLeaf(c)
	if leaf == nil {
		return nil, false
	}
	if len(leaf.key) >= len(key) && bytes.Equal(leaf.key[:len(key)], key) {
		return leaf, true
	}
	return nil, false
}

func isPrefixOf(candidate, key []byte) bool {
	return len(candidate) <= len(key) && bytes.Equal(key[:len(candidate)], candidate)
}

// First returns the leaf reached by always taking the lowest-nibble
// child. Each byte's low nibble is tested before its high nibble, so
// this is not in general the lexicographically smallest key.
func (t *Trie[T]) First() (*Leaf[T], bool) {
	if t.size == 0 {
		return nil, false
	}
	leaf := firstLeaf(t.root)
	return leaf, leaf != nil
}

// ForEach visits every leaf depth-first, children in ascending nibble
// order. Each byte's low nibble is tested before its high nibble, so
// this is not byte-lexicographic key order.
func (t *Trie[T]) ForEach(fn func(*Leaf[T])) {
	forEach(t.root, fn)
}

func forEach[T any](c child[T], fn func(*Leaf[T])) {
	if c.empty() {
		return
	}
	if c.isLeaf() {
		fn(c.leaf)
		return
	}
	for _, ch := range c.internal.children.items {
		forEach(ch, fn)
	}
}

// mismatchNibble returns the first nibble offset at which a and b
// differ, treating both as implicitly NUL-terminated so that one
// being a prefix of the other still yields a finite mismatch point.
func mismatchNibble(a, b []byte) int {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	limit := 2 * (maxLen + 1)
	for o := 0; o < limit; o++ {
		if nibbleAt(a, o) != nibbleAt(b, o) {
			return o
		}
	}
	return -1
}

// Insert adds key if absent, returning its leaf and whether it was
// newly created.
func (t *Trie[T]) Insert(key []byte) (*Leaf[T], bool) {
	if t.size == 0 {
		leaf := t.newLeaf(key)
		t.root = child[T]{leaf: leaf}
		t.size++
		return leaf, true
	}

	rep := t.probe(key)
	if bytes.Equal(rep.key, key) {
		return rep, false
	}

	mismatch := mismatchNibble(rep.key, key)
	leaf := t.newLeaf(key)
	t.root = insertAt(t.root, key, mismatch, leaf)
	t.size++
	return leaf, true
}

// newLeaf copies key into a fresh leaf, slab-allocating it out of
// classes when the trie was built with NewPooled.
func (t *Trie[T]) newLeaf(key []byte) *Leaf[T] {
	if t.classes == nil {
		return &Leaf[T]{key: append([]byte(nil), key...)}
	}
	h, buf := t.classes.Alloc(len(key))
	copy(buf, key)
	return &Leaf[T]{key: buf, handle: h, pooled: true}
}

func insertAt[T any](c child[T], key []byte, mismatch int, newLeaf *Leaf[T]) child[T] {
	if c.isLeaf() || c.internal.offset > mismatch {
		var repKey []byte
		if c.isLeaf() {
			repKey = c.leaf.key
		} else {
			repKey = firstLeaf(c).key
		}
		node := &internalNode[T]{offset: mismatch, children: newSparse16[child[T]]()}
		node.children.insert(uint(nibbleAt(repKey, mismatch)), c)
		node.children.insert(uint(nibbleAt(key, mismatch)), child[T]{leaf: newLeaf})
		return child[T]{internal: node}
	}

	if c.internal.offset == mismatch {
		c.internal.children.insert(uint(nibbleAt(key, mismatch)), child[T]{leaf: newLeaf})
		return c
	}

	// c.internal.offset < mismatch: key agrees with the trie through
	// this node's tested nibble, so the branch for it must already
	// exist (if it did not, the mismatch point could not be deeper
	// than this offset - the probe would have diverged here instead).
	n := uint(nibbleAt(key, c.internal.offset))
	existing, ok := c.internal.children.get(n)
	if !ok {
		c.internal.children.insert(n, child[T]{leaf: newLeaf})
		return c
	}
	c.internal.children.remove(n)
	c.internal.children.insert(n, insertAt(existing, key, mismatch, newLeaf))
	return c
}

// Remove deletes leaf from the trie, collapsing any internal node
// left with a single child.
func (t *Trie[T]) Remove(leaf *Leaf[T]) bool {
	if t.size == 0 || leaf == nil {
		return false
	}
	newRoot, removed := removeAt(t.root, leaf.key)
	if !removed {
		return false
	}
	t.root = newRoot
	t.size--
	if leaf.pooled {
		t.classes.Free(leaf.handle)
	}
	return true
}

func removeAt[T any](c child[T], key []byte) (child[T], bool) {
	if c.isLeaf() {
		if c.leaf != nil && bytes.Equal(c.leaf.key, key) {
			return child[T]{}, true
		}
		return c, false
	}

	n := uint(nibbleAt(key, c.internal.offset))
	existing, ok := c.internal.children.get(n)
	if !ok {
		return c, false
	}
	updated, removed := removeAt(existing, key)
	if !removed {
		return c, false
	}

	c.internal.children.remove(n)
	if !updated.empty() {
		c.internal.children.insert(n, updated)
	}

	switch c.internal.children.len() {
	case 0:
		return child[T]{}, true
	case 1:
		return c.internal.children.items[0], true
	default:
		return c, true
	}
}
