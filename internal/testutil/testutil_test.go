package testutil

import (
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"kvbench/internal/container"
	"kvbench/internal/workload"
)

func TestTestStorageEngine(t *testing.T) {
	engine := TestStorageEngine(t)

	if !engine.Insert(1, 2) {
		t.Fatal("Failed to insert into test engine")
	}
	AssertKeyValue(t, engine, 1, 2)
}

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()

	if cfg.Benchmark.Affinity {
		t.Error("Expected test config to disable affinity")
	}
	if cfg.Report.LogFile != "" {
		t.Error("Expected test config to write no report file")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected test config to be valid: %v", err)
	}
}

func TestTestLogger(t *testing.T) {
	logger := TestLogger()
	if logger == nil {
		t.Fatal("Expected logger to be created")
	}
	logger.Info("test message")
}

func TestPopulateKeys(t *testing.T) {
	adapter := NewAdapter(t, "mutex")
	PopulateKeys(t, adapter, 100, 7)

	if adapter.Size() != 100 {
		t.Errorf("Expected 100 keys, got %d", adapter.Size())
	}
	AssertKeyValue(t, adapter, 99, 7)
}

func TestRecordingAdapter(t *testing.T) {
	var hooked atomic.Int32
	rec := NewRecordingAdapter(container.NewMutexMap(0))
	rec.Hook = func(op workload.Op, key int64) {
		hooked.Add(1)
	}

	rec.Insert(5, 1)
	rec.Insert(5, 1)
	rec.Find(5)
	rec.Find(6)
	rec.Update(5, 2, false)
	rec.Erase(5)

	counts := rec.Counts()
	want := OpCounts{Finds: 2, FindMisses: 1, Updates: 1, Inserts: 2, InsertFailures: 1, Erases: 1, MaxKey: 6}
	if counts != want {
		t.Errorf("Counts() = %+v, want %+v", counts, want)
	}
	if counts.Total() != 6 {
		t.Errorf("Total() = %d, want 6", counts.Total())
	}
	if hooked.Load() != 6 {
		t.Errorf("Expected hook to run 6 times, got %d", hooked.Load())
	}
}

func TestMockHTTPRequest(t *testing.T) {
	req := MockHTTPRequest(http.MethodGet, "/api/v1/health", "")
	if req.Method != http.MethodGet || req.URL.Path != "/api/v1/health" {
		t.Errorf("Unexpected request: %s %s", req.Method, req.URL.Path)
	}
}

func TestWaitForCondition(t *testing.T) {
	start := time.Now()
	WaitForCondition(t, func() bool {
		return time.Since(start) > 20*time.Millisecond
	}, time.Second, 5*time.Millisecond)
}

func TestWithTimeout(t *testing.T) {
	WithTimeout(t, time.Second, func() {
		time.Sleep(5 * time.Millisecond)
	})
}
