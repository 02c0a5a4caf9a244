package keyspace

import "sync/atomic"

// DefaultBatchSize is the number of ids reserved per trip to the shared counter
const DefaultBatchSize = 1000

// Counter is the shared high-water mark that every Allocator of a trial
// reserves blocks from. It is the only shared mutable state touched by inserts.
type Counter struct {
	start uint64
	next  atomic.Uint64
	// held is the total size of the blocks allocators are currently drawing from
	held atomic.Uint64
}

// NewCounter creates a counter whose first reservable id is start
func NewCounter(start uint64) *Counter {
	c := &Counter{start: start}
	c.next.Store(start)
	return c
}

// Load returns the current high-water mark. Every id below it has been
// handed out to some allocator (or pre-populated).
func (c *Counter) Load() uint64 {
	return c.next.Load()
}

// Watermark bounds the ids that are expected to exist: the high-water mark
// minus the blocks allocators still hold, never below the starting id.
// Blocks are exhausted roughly in reservation order, so ids below the
// watermark have almost all been inserted.
func (c *Counter) Watermark() uint64 {
	// next is read before held: a block counted in next is already in held
	end := c.next.Load()
	held := c.held.Load()
	if end < c.start+held {
		return c.start
	}
	return end - held
}

// Reserve atomically claims n consecutive ids and returns the first one
func (c *Counter) Reserve(n uint64) uint64 {
	return c.next.Add(n) - n
}

// Allocator hands out ids from a private block, touching the shared
// counter once per batch. Ids are unique across allocators sharing a
// counter and increasing within one allocator, but not globally ordered.
// An Allocator is owned by a single worker.
type Allocator struct {
	counter *Counter
	current uint64
	limit   uint64
	batch   uint64
}

// NewAllocator creates an allocator over counter. A zero batch uses DefaultBatchSize.
func NewAllocator(counter *Counter, batch uint64) *Allocator {
	if batch == 0 {
		batch = DefaultBatchSize
	}
	return &Allocator{
		counter: counter,
		batch:   batch,
	}
}

// Next returns a fresh unique id
func (a *Allocator) Next() uint64 {
	if a.current >= a.limit {
		if a.limit == 0 {
			a.counter.held.Add(a.batch)
		}
		base := a.counter.Reserve(a.batch)
		a.current = base
		a.limit = base + a.batch
	}
	id := a.current
	a.current++
	return id
}

// Remaining reports how many reserved ids are left unused in the local block
func (a *Allocator) Remaining() uint64 {
	return a.limit - a.current
}
