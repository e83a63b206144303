package hashlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect[V any](h *HashList[V], e Handle) []uint64 {
	var keys []uint64
	for ; e != Nil; e = h.Next(e) {
		keys = append(keys, h.Key(e))
	}
	return keys
}

func TestHashList_InsertFind(t *testing.T) {
	h := New[string](4)
	a := h.Insert(10, "a")
	h.Insert(20, "b")
	h.Insert(1<<32|10, "c") // same low word, different high word

	e, ok := h.Find(10)
	require.True(t, ok)
	assert.Equal(t, a, e)
	assert.Equal(t, "a", h.Val(e))

	e, ok = h.Find(1<<32 | 10)
	require.True(t, ok)
	assert.Equal(t, "c", h.Val(e))

	_, ok = h.Find(30)
	assert.False(t, ok)
	assert.Equal(t, 3, h.Len())
}

func TestHashList_InsertionOrder(t *testing.T) {
	h := New[int](2)
	for _, k := range []uint64{5, 3, 9, 1, 7} {
		h.Insert(k, int(k))
	}
	assert.Equal(t, []uint64{5, 3, 9, 1, 7}, collect(h, h.Entries()))
}

func TestHashList_ClearDetachesGeneration(t *testing.T) {
	h := New[int](8)
	h.Insert(1, 100)
	h.Insert(2, 200)

	old := h.Clear()
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, Nil, h.Entries())
	_, ok := h.Find(1)
	assert.False(t, ok, "detached keys are not visible in the new generation")

	// The new generation may reuse the same keys while the old list is alive.
	h.Insert(1, 111)
	e, ok := h.Find(1)
	require.True(t, ok)
	assert.Equal(t, 111, h.Val(e))

	var vals []int
	for e := old; e != Nil; {
		next := h.Next(e)
		vals = append(vals, h.Val(e))
		h.Delete(e)
		e = next
	}
	assert.Equal(t, []int{100, 200}, vals)
	assert.Equal(t, 1, h.NumAllocated())
	assert.Equal(t, 1, h.Len(), "deleting detached entries leaves the live generation alone")
}

func TestHashList_SetCapacityRehashes(t *testing.T) {
	h := New[int](1)
	for k := uint64(0); k < 100; k++ {
		h.Insert(k, int(k)*2)
	}
	h.SetCapacity(256)
	assert.Equal(t, 256, h.Capacity())
	for k := uint64(0); k < 100; k++ {
		e, ok := h.Find(k)
		require.True(t, ok, "key %d", k)
		assert.Equal(t, int(k)*2, h.Val(e))
	}
	h.SetCapacity(10)
	assert.Equal(t, 256, h.Capacity(), "shrinking is ignored")
	assert.Len(t, collect(h, h.Entries()), 100)
}

func TestHashList_DeleteLive(t *testing.T) {
	h := New[int](1) // single bucket: every key shares a chain
	h.Insert(1, 1)
	mid := h.Insert(2, 2)
	h.Insert(3, 3)

	h.Delete(mid)
	_, ok := h.Find(2)
	assert.False(t, ok)
	assert.Equal(t, []uint64{1, 3}, collect(h, h.Entries()))
	assert.Equal(t, 2, h.Len())

	e, _ := h.Find(3)
	h.Delete(e)
	e, _ = h.Find(1)
	h.Delete(e)
	assert.Equal(t, Nil, h.Entries())
	assert.Equal(t, 0, h.NumAllocated())
}

func TestHashList_SetVal(t *testing.T) {
	h := New[int](4)
	e := h.Insert(7, 1)
	h.SetVal(e, 2)
	got, _ := h.Find(7)
	assert.Equal(t, 2, h.Val(got))
}
