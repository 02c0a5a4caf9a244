package container

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultLRUCapacity bounds the lru adapter when Options.LRUCapacity is unset.
// The cache evicts beyond its capacity, so it must be sized above the key
// space a trial can reach.
const DefaultLRUCapacity = 1 << 24

// LRUMap wraps the mutex-guarded hashicorp LRU cache
type LRUMap struct {
	c *lru.Cache[int64, int64]
}

var _ Adapter = (*LRUMap)(nil)

func NewLRUMap(capacity int) (*LRUMap, error) {
	if capacity <= 0 {
		capacity = DefaultLRUCapacity
	}
	c, err := lru.New[int64, int64](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	return &LRUMap{c: c}, nil
}

func (m *LRUMap) Insert(key, value int64) bool {
	found, _ := m.c.ContainsOrAdd(key, value)
	return !found
}

func (m *LRUMap) Update(key, value int64, allowInsert bool) (bool, bool) {
	if m.c.Contains(key) {
		m.c.Add(key, value)
		return true, false
	}
	if !allowInsert {
		return false, false
	}
	if found, _ := m.c.ContainsOrAdd(key, value); found {
		m.c.Add(key, value)
		return true, false
	}
	return false, true
}

func (m *LRUMap) Find(key int64) (int64, bool) {
	return m.c.Get(key)
}

func (m *LRUMap) Erase(key int64) bool {
	return m.c.Remove(key)
}

func (m *LRUMap) Contains(key int64) bool {
	return m.c.Contains(key)
}

func (m *LRUMap) Size() int {
	return m.c.Len()
}

func (m *LRUMap) Close() error {
	m.c.Purge()
	return nil
}
