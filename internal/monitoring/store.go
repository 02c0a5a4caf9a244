package monitoring

import (
	"sync"

	"kvbench/internal/results"
)

// ResultStore keeps every trial result of the process in completion order
type ResultStore struct {
	mu      sync.RWMutex
	results []results.RunResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{}
}

func (s *ResultStore) Record(result results.RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
}

// All returns a copy of the stored results
func (s *ResultStore) All() []results.RunResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]results.RunResult, len(s.results))
	copy(out, s.results)
	return out
}

// Filter returns the results matching a run id and a container. Empty
// arguments match everything.
func (s *ResultStore) Filter(runID, container string) []results.RunResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]results.RunResult, 0, len(s.results))
	for _, r := range s.results {
		if runID != "" && r.RunID != runID {
			continue
		}
		if container != "" && r.Container != container {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (s *ResultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}
