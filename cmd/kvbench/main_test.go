package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kvbench/internal/config"
	"kvbench/internal/workload"
)

func TestApplyFlags(t *testing.T) {
	cfg := config.DefaultConfig()
	err := applyFlags(cfg, options{
		container:   "sharded",
		workloads:   "read-only; 50,0,50,0",
		threads:     "1,2,4",
		duration:    time.Second,
		initialKeys: 0,
		batchSize:   64,
		maxThreads:  8,
	})
	require.NoError(t, err)

	assert.Equal(t, "sharded", cfg.Benchmark.Container)
	assert.Equal(t, []workload.Config{{Read: 100}, {Read: 50, Insert: 50}}, cfg.Benchmark.Workloads)
	assert.Equal(t, []int{1, 2, 4}, cfg.Benchmark.Threads)
	assert.Equal(t, 8, cfg.Benchmark.MaxThreads)
	assert.Equal(t, time.Second, cfg.Benchmark.Duration)
	assert.Equal(t, 0, cfg.Benchmark.InitialKeys)
	assert.Equal(t, uint64(64), cfg.Benchmark.BatchSize)
}

func TestApplyFlags_UnsetKeepsConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	want := *cfg
	require.NoError(t, applyFlags(cfg, options{initialKeys: -1}))
	assert.Equal(t, want.Benchmark, cfg.Benchmark)
}

func TestApplyFlags_Invalid(t *testing.T) {
	tests := []struct {
		name string
		opts options
	}{
		{"unknown container", options{container: "nope", initialKeys: -1}},
		{"bad mix", options{workloads: "50,50,50,0", initialKeys: -1}},
		{"bad threads", options{threads: "1,x", initialKeys: -1}},
		{"zero threads", options{threads: "0", initialKeys: -1}},
		{"threads above max", options{threads: "1,100000", initialKeys: -1}},
		{"max below schedule", options{threads: "1,16", maxThreads: 8, initialKeys: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, applyFlags(config.DefaultConfig(), tt.opts))
		})
	}
}

func TestPrintSummary(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "report.log")
	require.NoError(t, os.WriteFile(path, []byte(
		"thread count = 1, read = 80, update = 0, insert = 20, delete = 0, throughput = 3.5 M ops\n"), 0644))
	assert.NoError(t, printSummary(path))

	empty := filepath.Join(dir, "empty.log")
	require.NoError(t, os.WriteFile(empty, []byte("nothing here\n"), 0644))
	assert.Error(t, printSummary(empty))

	assert.Error(t, printSummary(filepath.Join(dir, "missing.log")))
}
