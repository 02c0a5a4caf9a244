package testutil

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"kvbench/internal/config"
	"kvbench/internal/container"
	"kvbench/internal/logging"
	"kvbench/internal/storage"
	"kvbench/internal/workload"
)

// TestStorageEngine creates an in-memory badger engine closed at cleanup
func TestStorageEngine(t *testing.T) *storage.Engine {
	t.Helper()

	engine, err := storage.NewEngine(storage.Config{InMemory: true})
	if err != nil {
		t.Fatalf("Failed to create test storage engine: %v", err)
	}

	t.Cleanup(func() {
		engine.Close()
	})

	return engine
}

// TestConfig returns a configuration that runs short, unpinned trials and
// writes no report file
func TestConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Benchmark.Container = "mutex"
	cfg.Benchmark.Threads = []int{1, 2}
	cfg.Benchmark.Duration = 50 * time.Millisecond
	cfg.Benchmark.Affinity = false
	cfg.Report.LogFile = ""
	cfg.Report.Console = false
	cfg.Logging = logging.TestLoggingConfig()
	cfg.Metrics.Addr = "127.0.0.1:0"
	return cfg
}

// TestLogger creates a test logger with minimal configuration
func TestLogger() *logging.Logger {
	testLogConfig := logging.TestLoggingConfig()
	return logging.NewLogger(&testLogConfig)
}

// NewAdapter builds a named container and closes it at cleanup
func NewAdapter(t *testing.T, name string) container.Adapter {
	t.Helper()

	adapter, err := container.New(name, container.Options{})
	if err != nil {
		t.Fatalf("Failed to create %s container: %v", name, err)
	}

	t.Cleanup(func() {
		adapter.Close()
	})

	return adapter
}

// PopulateKeys inserts keys 0..n-1 with value
func PopulateKeys(t *testing.T, adapter container.Adapter, n int, value int64) {
	t.Helper()

	for key := 0; key < n; key++ {
		if !adapter.Insert(int64(key), value) {
			t.Fatalf("Failed to insert key %d", key)
		}
	}
}

// AssertKeyValue verifies that a key has the expected value
func AssertKeyValue(t *testing.T, adapter container.Adapter, key, expected int64) {
	t.Helper()

	value, ok := adapter.Find(key)
	if !ok {
		t.Fatalf("Expected key %d to exist, but it doesn't", key)
	}
	if value != expected {
		t.Errorf("Expected key %d to have value %d, got %d", key, expected, value)
	}
}

// OpCounts is a snapshot of a RecordingAdapter
type OpCounts struct {
	Finds          uint64
	FindMisses     uint64
	Updates        uint64
	Inserts        uint64
	InsertFailures uint64
	Erases         uint64
	MaxKey         int64
}

func (c OpCounts) Total() uint64 {
	return c.Finds + c.Updates + c.Inserts + c.Erases
}

// RecordingAdapter wraps an adapter and counts every call. Hook, when set,
// runs before each call is delegated.
type RecordingAdapter struct {
	container.Adapter
	Hook func(op workload.Op, key int64)

	finds          atomic.Uint64
	findMisses     atomic.Uint64
	updates        atomic.Uint64
	inserts        atomic.Uint64
	insertFailures atomic.Uint64
	erases         atomic.Uint64
	maxKey         atomic.Int64
}

func NewRecordingAdapter(inner container.Adapter) *RecordingAdapter {
	r := &RecordingAdapter{Adapter: inner}
	r.maxKey.Store(math.MinInt64)
	return r
}

func (r *RecordingAdapter) observe(op workload.Op, key int64) {
	for {
		cur := r.maxKey.Load()
		if key <= cur || r.maxKey.CompareAndSwap(cur, key) {
			break
		}
	}
	if r.Hook != nil {
		r.Hook(op, key)
	}
}

func (r *RecordingAdapter) Find(key int64) (int64, bool) {
	r.observe(workload.OpRead, key)
	r.finds.Add(1)
	v, ok := r.Adapter.Find(key)
	if !ok {
		r.findMisses.Add(1)
	}
	return v, ok
}

func (r *RecordingAdapter) Update(key, value int64, allowInsert bool) (bool, bool) {
	r.observe(workload.OpUpdate, key)
	r.updates.Add(1)
	return r.Adapter.Update(key, value, allowInsert)
}

func (r *RecordingAdapter) Insert(key, value int64) bool {
	r.observe(workload.OpInsert, key)
	r.inserts.Add(1)
	ok := r.Adapter.Insert(key, value)
	if !ok {
		r.insertFailures.Add(1)
	}
	return ok
}

func (r *RecordingAdapter) Erase(key int64) bool {
	r.observe(workload.OpDelete, key)
	r.erases.Add(1)
	return r.Adapter.Erase(key)
}

func (r *RecordingAdapter) Counts() OpCounts {
	return OpCounts{
		Finds:          r.finds.Load(),
		FindMisses:     r.findMisses.Load(),
		Updates:        r.updates.Load(),
		Inserts:        r.inserts.Load(),
		InsertFailures: r.insertFailures.Load(),
		Erases:         r.erases.Load(),
		MaxKey:         r.maxKey.Load(),
	}
}

// AssertHTTPStatus verifies that the HTTP response has the expected status code
func AssertHTTPStatus(t *testing.T, recorder *httptest.ResponseRecorder, expectedStatus int) {
	t.Helper()

	if recorder.Code != expectedStatus {
		t.Errorf("Expected HTTP status %d, got %d", expectedStatus, recorder.Code)
	}
}

// AssertContains verifies that a string contains a substring
func AssertContains(t *testing.T, str, substr string) {
	t.Helper()

	if !strings.Contains(str, substr) {
		t.Errorf("Expected string to contain %s, but it doesn't: %s", substr, str)
	}
}

// MockHTTPRequest creates a mock HTTP request for testing
func MockHTTPRequest(method, url string, body string) *http.Request {
	if body != "" {
		return httptest.NewRequest(method, url, strings.NewReader(body))
	}
	return httptest.NewRequest(method, url, nil)
}

// WithTimeout runs fn and fails the test if it does not return in time
func WithTimeout(t *testing.T, timeout time.Duration, fn func()) {
	t.Helper()

	done := make(chan struct{})

	go func() {
		defer close(done)
		fn()
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatalf("Test timed out after %v", timeout)
	}
}

// WaitForCondition waits for a condition to become true with timeout
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration, checkInterval time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(checkInterval)
	}

	t.Fatalf("Condition not met within timeout %v", timeout)
}
