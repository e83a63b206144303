// Package hashlist implements the active-state index used by the decoder: a
// hash map from 64-bit keys to values whose entries also form a list in
// insertion order.
//
// One "generation" of entries is live at a time. Clear detaches the whole
// generation as a list in O(1) with respect to the hash table: buckets carry
// a generation stamp, so stale buckets are recognised lazily instead of being
// rehashed or wiped entry by entry. The detached entries stay readable until
// they are Deleted.
package hashlist

import "github.com/ieee0824/wfstdec/internal/mempool"

// Handle addresses one entry.
type Handle = mempool.Handle

// Nil marks the end of a list.
const Nil = mempool.Nil

const elemChunkSize = 1024

type elem[V any] struct {
	key   uint64
	val   V
	chain Handle // next entry in the same bucket
	next  Handle // next entry in generation order
	prev  Handle
	gen   uint32
}

type bucket struct {
	head Handle
	gen  uint32
}

// HashList maps uint64 keys to values of type V.
// It is not safe for concurrent use.
type HashList[V any] struct {
	pool    *mempool.Pool[elem[V]]
	buckets []bucket
	gen     uint32
	head    Handle
	tail    Handle
	n       int
}

// New creates an index presized to capacity buckets.
func New[V any](capacity int) *HashList[V] {
	if capacity < 1 {
		capacity = 1
	}
	h := &HashList[V]{
		pool: mempool.New[elem[V]](elemChunkSize),
		gen:  1,
		head: Nil,
		tail: Nil,
	}
	h.buckets = newBuckets(capacity)
	return h
}

func newBuckets(n int) []bucket {
	b := make([]bucket, n)
	for i := range b {
		b[i].head = Nil
	}
	return b
}

func mix(key uint64) uint64 {
	key ^= key >> 33
	key *= 0xff51afd7ed558ccd
	key ^= key >> 33
	key *= 0xc4ceb9fe1a85ec53
	key ^= key >> 33
	return key
}

func (h *HashList[V]) bucketOf(key uint64) *bucket {
	b := &h.buckets[mix(key)%uint64(len(h.buckets))]
	if b.gen != h.gen {
		b.head = Nil
		b.gen = h.gen
	}
	return b
}

// Capacity returns the current number of buckets.
func (h *HashList[V]) Capacity() int { return len(h.buckets) }

// Len returns the number of entries in the current generation.
func (h *HashList[V]) Len() int { return h.n }

// SetCapacity grows the bucket array to n and rehashes the live entries.
// Shrinking is a no-op.
func (h *HashList[V]) SetCapacity(n int) {
	if n <= len(h.buckets) {
		return
	}
	h.buckets = newBuckets(n)
	for e := h.head; e != Nil; {
		el := h.pool.Get(e)
		b := h.bucketOf(el.key)
		el.chain = b.head
		b.head = e
		e = el.next
	}
}

// Insert adds key with val to the current generation and returns its handle.
// The caller must make sure key is not already present.
func (h *HashList[V]) Insert(key uint64, val V) Handle {
	e := h.pool.Alloc()
	el := h.pool.Get(e)
	el.key = key
	el.val = val
	el.gen = h.gen

	b := h.bucketOf(key)
	el.chain = b.head
	b.head = e

	el.next = Nil
	el.prev = h.tail
	if h.tail != Nil {
		h.pool.Get(h.tail).next = e
	} else {
		h.head = e
	}
	h.tail = e
	h.n++
	return e
}

// Find looks key up in the current generation.
func (h *HashList[V]) Find(key uint64) (Handle, bool) {
	b := &h.buckets[mix(key)%uint64(len(h.buckets))]
	if b.gen != h.gen {
		return Nil, false
	}
	for e := b.head; e != Nil; {
		el := h.pool.Get(e)
		if el.key == key {
			return e, true
		}
		e = el.chain
	}
	return Nil, false
}

// Clear detaches the current generation and starts an empty one. It returns
// the head of the detached list, in insertion order; walk it with Next and
// hand every entry back with Delete.
func (h *HashList[V]) Clear() Handle {
	detached := h.head
	h.head, h.tail, h.n = Nil, Nil, 0
	h.gen++
	if h.gen == 0 {
		// Stamps wrapped around; old buckets could look current again.
		for i := range h.buckets {
			h.buckets[i] = bucket{head: Nil}
		}
		h.gen = 1
	}
	return detached
}

// Entries returns the head of the current generation in insertion order.
func (h *HashList[V]) Entries() Handle { return h.head }

// Next returns the entry after e in its generation list.
func (h *HashList[V]) Next(e Handle) Handle { return h.pool.Get(e).next }

// Key returns the key stored at e.
func (h *HashList[V]) Key(e Handle) uint64 { return h.pool.Get(e).key }

// Val returns the value stored at e.
func (h *HashList[V]) Val(e Handle) V { return h.pool.Get(e).val }

// SetVal replaces the value stored at e.
func (h *HashList[V]) SetVal(e Handle, v V) { h.pool.Get(e).val = v }

// Delete frees the entry's storage without touching the value it held. A
// detached entry is simply released; a live one is unlinked first. Read Next
// before deleting when walking a list.
func (h *HashList[V]) Delete(e Handle) {
	el := h.pool.Get(e)
	if el.gen == h.gen {
		h.unlink(e, el)
	}
	h.pool.Release(e)
}

func (h *HashList[V]) unlink(e Handle, el *elem[V]) {
	b := &h.buckets[mix(el.key)%uint64(len(h.buckets))]
	if b.head == e {
		b.head = el.chain
	} else {
		for c := b.head; c != Nil; {
			cel := h.pool.Get(c)
			if cel.chain == e {
				cel.chain = el.chain
				break
			}
			c = cel.chain
		}
	}

	if el.prev != Nil {
		h.pool.Get(el.prev).next = el.next
	} else {
		h.head = el.next
	}
	if el.next != Nil {
		h.pool.Get(el.next).prev = el.prev
	} else {
		h.tail = el.prev
	}
	h.n--
}

// NumAllocated reports how many entries, live or detached, hold storage.
func (h *HashList[V]) NumAllocated() int { return h.pool.NumUsed() }
