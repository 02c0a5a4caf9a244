// Package driver runs the timed multi-threaded load against one container.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"kvbench/internal/affinity"
	"kvbench/internal/container"
	"kvbench/internal/keyspace"
	"kvbench/internal/workload"
)

// DefaultValue is written by every insert and update
const DefaultValue int64 = 100

// ThreadLimit is the most workers a single trial may spawn. Every worker
// holds a locked OS thread, and the runtime aborts past 10000 of those.
const ThreadLimit = 8192

// ErrTooManyThreads is returned when a trial asks for more workers than allowed
var ErrTooManyThreads = errors.New("too many threads")

// DefaultMaxThreads is eight workers per core, at least 64 and at most ThreadLimit
func DefaultMaxThreads() int {
	n := 8 * runtime.NumCPU()
	if n < 64 {
		n = 64
	}
	if n > ThreadLimit {
		n = ThreadLimit
	}
	return n
}

// Options configures a Driver
type Options struct {
	Threads       int
	BatchSize     uint64
	Seed          uint64
	Value         int64
	FailurePolicy FailurePolicy

	// Binder pins each worker; nil means affinity.Noop
	Binder affinity.Binder
	// Cores is the number of cores workers are spread over; 0 means NumCPU
	Cores int

	Logger *slog.Logger
}

// Driver issues operations drawn from a workload mix against an adapter
type Driver struct {
	adapter container.Adapter
	mix     workload.Mix
	opts    Options
	logger  *slog.Logger
}

// Trial holds per-worker contexts after join
type Trial struct {
	Contexts []*ThreadContext
	Elapsed  time.Duration
}

func (t Trial) Operations() []uint64 {
	counts := make([]uint64, len(t.Contexts))
	for i, tc := range t.Contexts {
		counts[i] = tc.Operations
	}
	return counts
}

func (t Trial) Misses() []uint64 {
	misses := make([]uint64, len(t.Contexts))
	for i, tc := range t.Contexts {
		misses[i] = tc.Misses
	}
	return misses
}

func (t Trial) Total() uint64 {
	var total uint64
	for _, tc := range t.Contexts {
		total += tc.Operations
	}
	return total
}

// Unused counts ids that workers reserved but never inserted
func (t Trial) Unused() uint64 {
	var unused uint64
	for _, tc := range t.Contexts {
		unused += tc.Alloc.Remaining()
	}
	return unused
}

func New(adapter container.Adapter, mix workload.Mix, opts Options) *Driver {
	if opts.Threads <= 0 {
		opts.Threads = 1
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = keyspace.DefaultBatchSize
	}
	if opts.Value == 0 {
		opts.Value = DefaultValue
	}
	if opts.Binder == nil {
		opts.Binder = affinity.Noop{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Driver{
		adapter: adapter,
		mix:     mix,
		opts:    opts,
		logger:  logger,
	}
}

// Run releases all workers together, lets them run for duration (or until
// ctx is done), stops them and joins. A cancelled ctx returns the partial
// trial together with ctx.Err().
func (d *Driver) Run(ctx context.Context, state *SharedRunState, duration time.Duration) (Trial, error) {
	crew, err := d.launch(state, func(tc *ThreadContext) {
		var ops uint64
		for state.Running() {
			d.step(state, tc)
			ops++
		}
		tc.Operations = ops
	})
	if err != nil {
		return Trial{}, err
	}

	started := crew.release()

	timer := time.NewTimer(duration)
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
	}
	state.Stop()
	elapsed := time.Since(started)

	if err := crew.group.Wait(); err != nil {
		return Trial{}, err
	}

	trial := Trial{Contexts: crew.contexts, Elapsed: elapsed}
	d.finished(trial)
	return trial, ctx.Err()
}

// RunIterations has every worker perform exactly perThread operations.
// Cancelling ctx stops workers early.
func (d *Driver) RunIterations(ctx context.Context, state *SharedRunState, perThread int) (Trial, error) {
	crew, err := d.launch(state, func(tc *ThreadContext) {
		var ops uint64
		for i := 0; i < perThread && state.Running(); i++ {
			d.step(state, tc)
			ops++
		}
		tc.Operations = ops
	})
	if err != nil {
		return Trial{}, err
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			state.Stop()
		case <-done:
		}
	}()

	started := crew.release()
	err = crew.group.Wait()
	elapsed := time.Since(started)
	state.Stop()
	close(done)

	if err != nil {
		return Trial{}, err
	}
	trial := Trial{Contexts: crew.contexts, Elapsed: elapsed}
	d.finished(trial)
	return trial, ctx.Err()
}

func (d *Driver) finished(trial Trial) {
	d.logger.Debug("workers joined",
		"threads", len(trial.Contexts),
		"operations", trial.Total(),
		"unused_ids", trial.Unused(),
		"elapsed", trial.Elapsed.String())
}

type crew struct {
	state    *SharedRunState
	contexts []*ThreadContext
	group    *errgroup.Group
	start    chan struct{}
}

// release flips running and opens the start barrier
func (c *crew) release() time.Time {
	c.state.Start()
	started := time.Now()
	close(c.start)
	return started
}

// launch spawns pinned workers and blocks until every one of them is bound
// and parked on the start barrier. If any bind fails the rest are released
// without running and the bind error is returned.
func (d *Driver) launch(state *SharedRunState, body func(tc *ThreadContext)) (*crew, error) {
	threads := d.opts.Threads
	if threads > ThreadLimit {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyThreads, threads, ThreadLimit)
	}
	c := &crew{
		state:    state,
		contexts: make([]*ThreadContext, threads),
		group:    new(errgroup.Group),
		start:    make(chan struct{}),
	}

	var (
		ready   sync.WaitGroup
		aborted atomic.Bool
	)
	ready.Add(threads)

	for id := 0; id < threads; id++ {
		tc := newThreadContext(id, d.opts.Seed, state.Counter(), d.opts.BatchSize)
		c.contexts[id] = tc

		c.group.Go(func() error {
			// never unlocked: the goroutine exits locked so the runtime
			// retires the pinned thread instead of reusing it
			runtime.LockOSThread()

			if err := d.bind(tc.ID); err != nil {
				aborted.Store(true)
				ready.Done()
				return err
			}
			ready.Done()

			<-c.start
			if aborted.Load() {
				return nil
			}
			body(tc)
			return nil
		})
	}

	ready.Wait()
	if aborted.Load() {
		close(c.start)
		return nil, c.group.Wait()
	}

	d.logger.Debug("workers ready",
		"threads", threads,
		"workload", d.mix.Config().String())
	return c, nil
}

func (d *Driver) bind(id int) error {
	core := affinity.CoreFor(id, d.opts.Cores)
	err := d.opts.Binder.Bind(core)
	if err == nil {
		return nil
	}
	if !errors.Is(err, affinity.ErrBind) {
		err = fmt.Errorf("%w: %w", affinity.ErrBind, err)
	}
	return fmt.Errorf("worker %d (core %d): %w", id, core, err)
}

// step draws one operation and applies it. Read, update and delete pick a
// key uniformly below the counter's watermark; insert takes a fresh id.
func (d *Driver) step(state *SharedRunState, tc *ThreadContext) {
	op := d.mix.Classify(tc.Rand.NextInRange(100))

	var (
		key int64
		ok  bool
	)
	switch op {
	case workload.OpRead:
		key = int64(tc.Rand.NextInRange(state.counter.Watermark()))
		_, ok = d.adapter.Find(key)
	case workload.OpUpdate:
		key = int64(tc.Rand.NextInRange(state.counter.Watermark()))
		ok, _ = d.adapter.Update(key, d.opts.Value, false)
	case workload.OpInsert:
		key = int64(tc.Alloc.Next())
		ok = d.adapter.Insert(key, d.opts.Value)
	case workload.OpDelete:
		key = int64(tc.Rand.NextInRange(state.counter.Watermark()))
		ok = d.adapter.Erase(key)
	}

	if !ok {
		d.miss(tc, op, key)
	}
}

func (d *Driver) miss(tc *ThreadContext, op workload.Op, key int64) {
	switch d.opts.FailurePolicy {
	case FailureCount:
		tc.Misses++
	case FailureLog:
		tc.Misses++
		d.logger.Debug("operation missed",
			"op", op.String(),
			"key", key,
			"thread", tc.ID)
	}
}
