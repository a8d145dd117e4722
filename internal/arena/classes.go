package arena

// Classes is the flexible-size companion to Arena: one slab-pool
// bucket per power-of-two byte width, used for variable-length trie
// leaf keys (qptrie.NewPooled) so that near-fixed-size variable
// data still gets slab-backed, free-list reuse instead of one
// make([]byte, n) per node.
type Classes struct {
	buckets []*bucket
}

type bucket struct {
	width   int
	slabs   [][]byte
	curSlab int
	curPos  int
	free    []bucketIndex
}

type bucketIndex struct {
	slab, pos int
}

// Handle identifies one allocation made through Classes.
type Handle struct {
	class int
	idx   bucketIndex
	n     int
}

// NewClasses builds size classes doubling from minWidth to maxWidth
// inclusive (both rounded up to the nearest power of two).
func NewClasses(minWidth, maxWidth int) *Classes {
	w := nextPow2(minWidth)
	max := nextPow2(maxWidth)
	c := &Classes{}
	for w <= max {
		c.buckets = append(c.buckets, &bucket{width: w})
		w *= 2
	}
	return c
}

func nextPow2(n int) int {
	if n < 1 {
		return 1
	}
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

func (c *Classes) classFor(n int) int {
	for i, b := range c.buckets {
		if b.width >= n {
			return i
		}
	}
	return -1
}

func (b *bucket) firstSlabLen() int {
	n := firstSlabBytes / b.width
	if n < 1 {
		n = 1
	}
	return n
}

func (b *bucket) alloc() bucketIndex {
	if n := len(b.free); n > 0 {
		idx := b.free[n-1]
		b.free = b.free[:n-1]
		return idx
	}
	if len(b.slabs) == 0 {
		b.slabs = append(b.slabs, make([]byte, b.firstSlabLen()*b.width))
	}
	for b.curPos >= len(b.slabs[b.curSlab])/b.width {
		b.curSlab++
		if b.curSlab >= len(b.slabs) {
			last := len(b.slabs[b.curSlab-1]) / b.width
			b.slabs = append(b.slabs, make([]byte, last*2*b.width))
		}
		b.curPos = 0
	}
	idx := bucketIndex{slab: b.curSlab, pos: b.curPos}
	b.curPos++
	return idx
}

func (b *bucket) slice(idx bucketIndex) []byte {
	off := idx.pos * b.width
	return b.slabs[idx.slab][off : off+b.width]
}

// Alloc reserves a buffer able to hold n bytes and returns a slice of
// exactly length n backed by it (capacity may exceed n up to the
// bucket's class width).
func (c *Classes) Alloc(n int) (Handle, []byte) {
	class := c.classFor(n)
	if class < 0 {
		// Larger than the largest class: fall back to a direct,
		// unpooled allocation rather than growing the ladder
		// unboundedly for a one-off oversized key.
		return Handle{class: -1, n: n}, make([]byte, n)
	}
	idx := c.buckets[class].alloc()
	return Handle{class: class, idx: idx, n: n}, c.buckets[class].slice(idx)[:n]
}

// Get returns the buffer for a previously allocated Handle.
func (c *Classes) Get(h Handle) []byte {
	if h.class < 0 {
		return nil
	}
	return c.buckets[h.class].slice(h.idx)[:h.n]
}

// Free returns a handle's buffer to its size class's free list.
func (c *Classes) Free(h Handle) {
	if h.class < 0 {
		return
	}
	b := c.buckets[h.class]
	buf := b.slice(h.idx)
	for i := range buf {
		buf[i] = 0
	}
	b.free = append(b.free, h.idx)
}

// Realloc copies an existing allocation into a (possibly new) size
// class able to hold n bytes, and frees the old one.
func (c *Classes) Realloc(h Handle, n int) (Handle, []byte) {
	old := c.Get(h)
	nh, buf := c.Alloc(n)
	copy(buf, old)
	c.Free(h)
	return nh, buf
}
