package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaAllocGrows(t *testing.T) {
	a := New[int]()
	first := a.Slabs()
	require.Equal(t, 1, first)

	n := firstSlabLen[int]()
	for i := 0; i < n; i++ {
		a.Alloc()
	}
	assert.Equal(t, 1, a.Slabs(), "first slab should not be exceeded yet")

	a.Alloc()
	assert.Equal(t, 2, a.Slabs(), "allocating past the first slab grows a second")
}

func TestArenaFreeIsLIFO(t *testing.T) {
	a := New[int]()
	x := a.Alloc()
	y := a.Alloc()
	*a.Get(x) = 1
	*a.Get(y) = 2

	a.Free(y)
	a.Free(x)

	got1 := a.Alloc()
	assert.Equal(t, x, got1, "last freed is first reused")
	got2 := a.Alloc()
	assert.Equal(t, y, got2)
}

func TestArenaClearReusesSlabs(t *testing.T) {
	a := New[int]()
	n := firstSlabLen[int]()
	idxs := make([]Index, 0, n)
	for i := 0; i < n; i++ {
		idxs = append(idxs, a.Alloc())
	}
	slabsBefore := a.Slabs()

	a.Clear()
	for i := 0; i < n; i++ {
		idx := a.Alloc()
		assert.Equal(t, 0, int(idx.slab), "clear reuses the existing slab before growing")
		assert.Equal(t, i, int(idx.pos))
	}
	assert.Equal(t, slabsBefore, a.Slabs(), "clear never allocates a new slab by itself")
}

func TestArenaDestroy(t *testing.T) {
	a := New[int]()
	a.Alloc()
	a.Destroy()
	assert.Equal(t, 0, a.Slabs())
}

func TestClassesRoundTrip(t *testing.T) {
	c := NewClasses(8, 64)

	h1, buf1 := c.Alloc(5)
	copy(buf1, []byte("hello"))

	h2, buf2 := c.Alloc(40)
	copy(buf2, []byte("a variable length leaf key goes here!!!")[:40])

	assert.Equal(t, []byte("hello"), c.Get(h1))
	assert.Len(t, c.Get(h2), 40)

	c.Free(h1)
	h3, buf3 := c.Alloc(5)
	assert.Equal(t, h1, h3, "size-classed free list reuses LIFO within its bucket")
	assert.Equal(t, make([]byte, 5), buf3)
}

func TestClassesRealloc(t *testing.T) {
	c := NewClasses(8, 64)
	h, buf := c.Alloc(4)
	copy(buf, []byte("abcd"))

	h2, buf2 := c.Realloc(h, 20)
	assert.Equal(t, []byte("abcd"), buf2[:4])
	assert.NotEqual(t, h, h2)
}
