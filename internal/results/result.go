// Package results turns per-worker counters into throughput figures and
// writes them out.
package results

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"kvbench/internal/workload"
)

// Meta identifies the trial a result belongs to
type Meta struct {
	RunID     string
	Container string
	Threads   int
	Workload  workload.Config
}

// RunResult is the outcome of one trial. It is not modified after Aggregate.
type RunResult struct {
	RunID           string          `json:"run_id"`
	Container       string          `json:"container"`
	Threads         int             `json:"threads"`
	Workload        workload.Config `json:"workload"`
	TotalOperations uint64          `json:"total_operations"`
	Misses          uint64          `json:"misses"`
	Elapsed         time.Duration   `json:"elapsed_ns"`
	// Throughput is operations per second
	Throughput float64   `json:"throughput"`
	FinishedAt time.Time `json:"finished_at"`
	// ContainerStats is whatever the container reported about itself before close
	ContainerStats map[string]interface{} `json:"container_stats,omitempty"`
}

// NewRunID returns an id shared by every trial of one sweep
func NewRunID() string {
	return uuid.NewString()
}

// Aggregate sums per-worker counters. Throughput is zero when elapsed is
// not positive.
func Aggregate(meta Meta, counts, misses []uint64, elapsed time.Duration) RunResult {
	var total, missed uint64
	for _, c := range counts {
		total += c
	}
	for _, m := range misses {
		missed += m
	}

	var throughput float64
	if elapsed > 0 {
		throughput = float64(total) / elapsed.Seconds()
	}

	return RunResult{
		RunID:           meta.RunID,
		Container:       meta.Container,
		Threads:         meta.Threads,
		Workload:        meta.Workload,
		TotalOperations: total,
		Misses:          missed,
		Elapsed:         elapsed,
		Throughput:      throughput,
		FinishedAt:      time.Now().UTC(),
	}
}

// MopsPerSec is throughput in millions of operations per second
func (r RunResult) MopsPerSec() float64 {
	return r.Throughput / 1e6
}

// Line renders the human-readable report line
func (r RunResult) Line() string {
	return fmt.Sprintf("thread count = %d, read = %d, update = %d, insert = %d, delete = %d, throughput = %.1f M ops",
		r.Threads,
		r.Workload.Percent(workload.OpRead),
		r.Workload.Percent(workload.OpUpdate),
		r.Workload.Percent(workload.OpInsert),
		r.Workload.Percent(workload.OpDelete),
		r.MopsPerSec())
}
