// Package arena provides typed slab-pool allocators for the expression
// tree, trie, and traversal dirent records.
//
// Elements are addressed by Index within their Arena; expression nodes
// allocated through expr.Pool still link to each other by pointer.
// Clear zeroes every element and resets the arena for reuse, and
// Destroy drops the slabs; neither follows links between elements.
package arena

import "unsafe"

// Index identifies one allocated element within an Arena. The zero
// Index names the first element of the first slab.
type Index struct {
	slab uint32
	pos  uint32
}

// firstSlabBytes is the approximate byte budget of the first slab;
// each subsequent slab doubles the element count of the last.
const firstSlabBytes = 4096

// Arena is a typed slab-pool allocator for T. Allocations live until
// Free, Clear, or Destroy; Free returns an element to a LIFO free
// list so the next Alloc reuses it before any new memory is touched.
type Arena[T any] struct {
	slabs   [][]T
	curSlab int
	curPos  int
	free    []Index
}

// New creates an Arena with one pre-sized slab.
func New[T any]() *Arena[T] {
	a := &Arena[T]{}
	a.slabs = append(a.slabs, make([]T, firstSlabLen[T]()))
	return a
}

func firstSlabLen[T any]() int {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size <= 0 {
		size = 1
	}
	n := firstSlabBytes / size
	if n < 1 {
		n = 1
	}
	return n
}

// Alloc reserves one element and returns its Index. Previously freed
// elements are handed out before any slab memory that has never been
// touched, so newly grown slabs never need an initialization pass of
// their own: the bump cursor simply has not reached them yet.
func (a *Arena[T]) Alloc() Index {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		return idx
	}
	for a.curPos >= len(a.slabs[a.curSlab]) {
		a.curSlab++
		if a.curSlab >= len(a.slabs) {
			last := len(a.slabs[a.curSlab-1])
			a.slabs = append(a.slabs, make([]T, last*2))
		}
		a.curPos = 0
	}
	idx := Index{slab: uint32(a.curSlab), pos: uint32(a.curPos)}
	a.curPos++
	return idx
}

// Get dereferences an Index into a pointer to the live element.
func (a *Arena[T]) Get(idx Index) *T {
	return &a.slabs[idx.slab][idx.pos]
}

// Free returns an element to the free list without releasing slab
// memory. The next Alloc call returns this exact Index (LIFO reuse).
func (a *Arena[T]) Free(idx Index) {
	var zero T
	*a.Get(idx) = zero
	a.free = append(a.free, idx)
}

// Clear rebuilds the free list across every slab so every previously
// allocated element becomes available again, without releasing any
// slab. Subsequent Alloc calls return Indexes within already-grown
// slabs before any new slab is appended.
func (a *Arena[T]) Clear() {
	a.free = a.free[:0]
	a.curSlab = 0
	a.curPos = 0
	for i := range a.slabs {
		var zero T
		for j := range a.slabs[i] {
			a.slabs[i][j] = zero
		}
	}
}

// Destroy releases every slab. The Arena must not be used afterwards
// except via a fresh call to New.
func (a *Arena[T]) Destroy() {
	a.slabs = nil
	a.free = nil
	a.curSlab = 0
	a.curPos = 0
}

// Slabs reports the number of slabs currently backing the arena, for
// tests that assert growth doubles.
func (a *Arena[T]) Slabs() int {
	return len(a.slabs)
}
