package driver

import (
	"sync/atomic"

	"kvbench/internal/keyspace"
	"kvbench/internal/random"
)

// SharedRunState is the only state workers share during a trial: the
// running flag and the id counter. A fresh one is built for every trial.
type SharedRunState struct {
	running atomic.Bool
	counter *keyspace.Counter
}

func NewSharedRunState(counter *keyspace.Counter) *SharedRunState {
	if counter == nil {
		counter = keyspace.NewCounter(0)
	}
	return &SharedRunState{counter: counter}
}

// Running reports whether workers should keep issuing operations. A worker
// may observe a stale true for at most one iteration after Stop.
func (s *SharedRunState) Running() bool {
	return s.running.Load()
}

func (s *SharedRunState) Start() {
	s.running.Store(true)
}

func (s *SharedRunState) Stop() {
	s.running.Store(false)
}

func (s *SharedRunState) Counter() *keyspace.Counter {
	return s.counter
}

// ThreadContext is owned by exactly one worker while the trial runs and is
// read by aggregation only after join.
type ThreadContext struct {
	ID         int
	Rand       *random.Stream
	Alloc      *keyspace.Allocator
	Operations uint64
	Misses     uint64
}

func newThreadContext(id int, seed uint64, counter *keyspace.Counter, batch uint64) *ThreadContext {
	return &ThreadContext{
		ID:    id,
		Rand:  random.New(seed + uint64(id)),
		Alloc: keyspace.NewAllocator(counter, batch),
	}
}
