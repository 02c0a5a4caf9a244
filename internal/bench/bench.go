// Package bench sweeps workload mixes and thread counts over one container.
package bench

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"kvbench/internal/affinity"
	"kvbench/internal/config"
	"kvbench/internal/container"
	"kvbench/internal/driver"
	"kvbench/internal/keyspace"
	"kvbench/internal/logging"
	"kvbench/internal/results"
	"kvbench/internal/workload"
)

// ErrAlreadyRunning is returned when a sweep or trial is already in flight
var ErrAlreadyRunning = errors.New("benchmark is already running")

// Plan describes one sweep
type Plan struct {
	Container string
	Workloads []workload.Config
	Threads   []int
	// MaxThreads caps every trial; 0 means driver.DefaultMaxThreads
	MaxThreads    int
	Duration      time.Duration
	InitialKeys   int
	BatchSize     uint64
	Seed          uint64
	Value         int64
	FailurePolicy driver.FailurePolicy
	Affinity      bool

	// Binder overrides the binder derived from Affinity
	Binder affinity.Binder
}

// DefaultThreadSchedule is 1 followed by multiples of 8 up to 40
func DefaultThreadSchedule() []int {
	return []int{1, 8, 16, 24, 32, 40}
}

// PlanFromConfig builds a plan from the benchmark section of cfg
func PlanFromConfig(cfg *config.Config) (Plan, error) {
	policy, err := driver.ParseFailurePolicy(cfg.Benchmark.FailurePolicy)
	if err != nil {
		return Plan{}, err
	}

	b := cfg.Benchmark
	return Plan{
		Container:     b.Container,
		Workloads:     b.Workloads,
		Threads:       b.Threads,
		MaxThreads:    b.MaxThreads,
		Duration:      b.Duration,
		InitialKeys:   b.InitialKeys,
		BatchSize:     b.BatchSize,
		Seed:          b.Seed,
		Value:         b.Value,
		FailurePolicy: policy,
		Affinity:      b.Affinity,
	}, nil
}

// Recorder receives every finished trial
type Recorder interface {
	Record(result results.RunResult)
}

// Runner executes trials strictly one after another
type Runner struct {
	mu      sync.Mutex
	running bool

	plan      Plan
	factory   container.Factory
	options   container.Options
	reporter  *results.Reporter
	recorders []Recorder
	logger    *logging.Logger
}

func New(plan Plan, factory container.Factory, options container.Options, reporter *results.Reporter, logger *logging.Logger, recorders ...Recorder) *Runner {
	if len(plan.Threads) == 0 {
		plan.Threads = DefaultThreadSchedule()
	}
	if plan.Value == 0 {
		plan.Value = driver.DefaultValue
	}
	if plan.MaxThreads <= 0 {
		plan.MaxThreads = driver.DefaultMaxThreads()
	}
	if logger == nil {
		cfg := logging.ProductionLoggingConfig()
		logger = logging.NewLogger(&cfg)
	}

	return &Runner{
		plan:      plan,
		factory:   factory,
		options:   options,
		reporter:  reporter,
		recorders: recorders,
		logger:    logger,
	}
}

func (r *Runner) Plan() Plan {
	return r.plan
}

func (r *Runner) acquire() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return ErrAlreadyRunning
	}
	r.running = true
	return nil
}

func (r *Runner) release() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

// Run sweeps every workload (outer) across every thread count (inner).
// Cancelling ctx abandons the trial in flight and returns the results
// gathered so far together with ctx.Err().
func (r *Runner) Run(ctx context.Context) ([]results.RunResult, error) {
	if err := r.acquire(); err != nil {
		return nil, err
	}
	defer r.release()

	runID := results.NewRunID()
	ctx = logging.WithRun(ctx, runID, r.plan.Container)

	r.logger.SweepEvent(ctx, "sweep_started", map[string]interface{}{
		"workloads": len(r.plan.Workloads),
		"threads":   r.plan.Threads,
		"duration":  r.plan.Duration.String(),
	})

	out := make([]results.RunResult, 0, len(r.plan.Workloads)*len(r.plan.Threads))
	for _, wl := range r.plan.Workloads {
		for _, threads := range r.plan.Threads {
			if err := ctx.Err(); err != nil {
				r.logger.WarnContext(ctx, "Sweep cancelled", "completed", len(out))
				return out, err
			}

			result, err := r.trial(ctx, runID, wl, threads)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					r.logger.WarnContext(ctx, "Sweep cancelled", "completed", len(out))
					return out, ctxErr
				}
				return out, err
			}
			out = append(out, result)
		}
	}

	r.logger.SweepEvent(ctx, "sweep_finished", map[string]interface{}{
		"trials": len(out),
	})
	return out, nil
}

// RunTrial runs exactly one trial outside of a sweep
func (r *Runner) RunTrial(ctx context.Context, wl workload.Config, threads int) (results.RunResult, error) {
	if err := r.acquire(); err != nil {
		return results.RunResult{}, err
	}
	defer r.release()

	runID := results.NewRunID()
	return r.trial(logging.WithRun(ctx, runID, r.plan.Container), runID, wl, threads)
}

func (r *Runner) trial(ctx context.Context, runID string, wl workload.Config, threads int) (results.RunResult, error) {
	mix, err := workload.NewMix(wl)
	if err != nil {
		return results.RunResult{}, err
	}
	if threads <= 0 {
		return results.RunResult{}, fmt.Errorf("thread count must be positive: %d", threads)
	}
	if threads > r.plan.MaxThreads {
		return results.RunResult{}, fmt.Errorf("%w: %d exceeds %d", driver.ErrTooManyThreads, threads, r.plan.MaxThreads)
	}

	adapter, err := r.factory(r.options)
	if err != nil {
		return results.RunResult{}, fmt.Errorf("failed to create %s container: %w", r.plan.Container, err)
	}
	defer func() {
		if err := adapter.Close(); err != nil {
			r.logger.WarnContext(ctx, "Failed to close container", "error", err)
		}
	}()

	if err := prepopulate(adapter, r.plan.InitialKeys, r.plan.Value); err != nil {
		return results.RunResult{}, err
	}

	state := driver.NewSharedRunState(keyspace.NewCounter(uint64(r.plan.InitialKeys)))
	d := driver.New(adapter, mix, driver.Options{
		Threads:       threads,
		BatchSize:     r.plan.BatchSize,
		Seed:          r.plan.Seed,
		Value:         r.plan.Value,
		FailurePolicy: r.plan.FailurePolicy,
		Binder:        r.binder(),
		Logger:        r.logger.WithContext(ctx).Logger,
	})

	trial, err := d.Run(ctx, state, r.plan.Duration)
	if err != nil {
		return results.RunResult{}, err
	}

	result := results.Aggregate(results.Meta{
		RunID:     runID,
		Container: r.plan.Container,
		Threads:   threads,
		Workload:  wl,
	}, trial.Operations(), trial.Misses(), trial.Elapsed)

	if reporter, ok := adapter.(container.StatsReporter); ok {
		result.ContainerStats = reporter.Stats()
		r.logger.DebugContext(ctx, "Container stats", "stats", result.ContainerStats)
	}

	if r.reporter != nil {
		if err := r.reporter.Report(result); err != nil {
			return results.RunResult{}, err
		}
	}
	for _, rec := range r.recorders {
		rec.Record(result)
	}

	r.logger.Trial(ctx, threads, wl.String(), result.TotalOperations, result.Misses, result.Elapsed, result.MopsPerSec())
	return result, nil
}

func (r *Runner) binder() affinity.Binder {
	if r.plan.Binder != nil {
		return r.plan.Binder
	}
	if r.plan.Affinity {
		return affinity.System{}
	}
	return affinity.Noop{}
}

// prepopulate inserts keys 0..n-1 sequentially before workers start
func prepopulate(adapter container.Adapter, n int, value int64) error {
	for key := 0; key < n; key++ {
		if !adapter.Insert(int64(key), value) {
			return fmt.Errorf("prepopulation failed at key %d", key)
		}
	}
	return nil
}
