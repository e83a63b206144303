// Package mempool provides a fixed-element-size allocator that hands out
// integer handles instead of pointers.
//
// Storage grows one chunk at a time and is never given back until the pool
// itself is dropped. Freed slots are chained through an index free list kept
// next to the element, so alloc and release are O(1) amortized.
package mempool

import (
	"fmt"
	"math"
)

// Handle addresses one element of a Pool.
type Handle int32

// Nil is the handle that addresses nothing.
const Nil Handle = -1

type slot[T any] struct {
	val  T
	next Handle // free-list link, meaningful only while the slot is free
	used bool
}

// Pool is a chunked allocator for values of type T.
// A Pool must not be used from more than one goroutine at a time.
type Pool[T any] struct {
	chunkSize int
	chunks    [][]slot[T]
	free      Handle
	numUsed   int
}

// New creates an empty pool that grows by chunkSize elements at a time.
func New[T any](chunkSize int) *Pool[T] {
	if chunkSize < 1 {
		panic(fmt.Sprintf("mempool: chunk size must be >= 1, got %d", chunkSize))
	}
	return &Pool[T]{chunkSize: chunkSize, free: Nil}
}

func (p *Pool[T]) slot(h Handle) *slot[T] {
	i := int(h)
	if h < 0 || i >= len(p.chunks)*p.chunkSize {
		panic(fmt.Sprintf("mempool: handle %d out of range", h))
	}
	return &p.chunks[i/p.chunkSize][i%p.chunkSize]
}

// Alloc returns a handle to a zeroed element.
func (p *Pool[T]) Alloc() Handle {
	if p.free == Nil {
		p.grow()
	}
	h := p.free
	s := p.slot(h)
	p.free = s.next
	s.next = Nil
	s.used = true
	p.numUsed++
	return h
}

func (p *Pool[T]) grow() {
	base := len(p.chunks) * p.chunkSize
	if base+p.chunkSize > math.MaxInt32 {
		panic("mempool: handle space exhausted")
	}
	chunk := make([]slot[T], p.chunkSize)
	p.chunks = append(p.chunks, chunk)
	// Push in reverse so a fresh chunk hands out ascending handles.
	for i := p.chunkSize - 1; i >= 0; i-- {
		chunk[i].next = p.free
		p.free = Handle(base + i)
	}
}

// Release returns the element to the free list. Releasing Nil or an element
// that is already free is a programming error and panics.
func (p *Pool[T]) Release(h Handle) {
	s := p.slot(h)
	if !s.used {
		panic(fmt.Sprintf("mempool: double release of handle %d", h))
	}
	var zero T
	s.val = zero
	s.used = false
	s.next = p.free
	p.free = h
	p.numUsed--
}

// Get returns a pointer to the element. The pointer stays valid for the life
// of the pool since chunks never move; the value does not survive Release.
func (p *Pool[T]) Get(h Handle) *T {
	return &p.slot(h).val
}

// NumUsed reports how many elements are currently allocated.
func (p *Pool[T]) NumUsed() int { return p.numUsed }

// NumFree reports how many allocated-but-unused slots are on the free list.
func (p *Pool[T]) NumFree() int { return len(p.chunks)*p.chunkSize - p.numUsed }

// NumChunks reports how many chunks the pool has grown.
func (p *Pool[T]) NumChunks() int { return len(p.chunks) }
