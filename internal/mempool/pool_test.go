package mempool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	c byte
	i int
	p *int
}

func TestPool_AllocRelease(t *testing.T) {
	pool := New[record](2)
	assert.Equal(t, 0, pool.NumUsed())
	assert.Equal(t, 0, pool.NumFree())

	s1 := pool.Alloc()
	assert.Equal(t, 1, pool.NumUsed())
	assert.Equal(t, 1, pool.NumFree())

	s2 := pool.Alloc()
	assert.Equal(t, 2, pool.NumUsed())
	assert.Equal(t, 0, pool.NumFree())

	pool.Release(s2)
	assert.Equal(t, 1, pool.NumUsed())
	assert.Equal(t, 1, pool.NumFree())

	s3 := pool.Alloc()
	s4 := pool.Alloc() // second chunk
	assert.Equal(t, 3, pool.NumUsed())
	assert.Equal(t, 1, pool.NumFree())
	assert.Equal(t, 2, pool.NumChunks())

	pool.Release(s1)
	pool.Release(s3)
	pool.Release(s4)
	assert.Equal(t, 0, pool.NumUsed())
	assert.Equal(t, 4, pool.NumFree())
}

func TestPool_ReusesLastReleased(t *testing.T) {
	pool := New[int](4)
	a := pool.Alloc()
	_ = pool.Alloc()
	pool.Release(a)
	assert.Equal(t, a, pool.Alloc(), "free list is LIFO")
}

func TestPool_ValuesZeroedAndStable(t *testing.T) {
	pool := New[record](1)
	h := pool.Alloc()
	p := pool.Get(h)
	p.i = 42

	// Force several more chunks; the first pointer must not move.
	for i := 0; i < 16; i++ {
		pool.Alloc()
	}
	assert.Equal(t, 42, pool.Get(h).i)
	assert.Same(t, p, pool.Get(h))

	pool.Release(h)
	h2 := pool.Alloc()
	require.Equal(t, h, h2)
	assert.Equal(t, 0, pool.Get(h2).i, "released slot is zeroed")
}

func TestPool_DoubleReleasePanics(t *testing.T) {
	pool := New[int](2)
	h := pool.Alloc()
	pool.Release(h)
	assert.Panics(t, func() { pool.Release(h) })
	assert.Panics(t, func() { pool.Release(Nil) })
}

func TestNew_RejectsEmptyChunk(t *testing.T) {
	assert.Panics(t, func() { New[int](0) })
}

func BenchmarkPool_AllocRelease(b *testing.B) {
	pool := New[record](2048)
	hs := make([]Handle, 1024)
	for b.Loop() {
		for i := range hs {
			hs[i] = pool.Alloc()
		}
		for _, h := range hs {
			pool.Release(h)
		}
	}
}
