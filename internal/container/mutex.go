package container

import "sync"

// MutexMap is a built-in map guarded by one RWMutex. It is the baseline
// every other adapter is compared against.
type MutexMap struct {
	mu sync.RWMutex
	m  map[int64]int64
}

var _ Adapter = (*MutexMap)(nil)

func NewMutexMap(capacity int) *MutexMap {
	if capacity < 0 {
		capacity = 0
	}
	return &MutexMap{m: make(map[int64]int64, capacity)}
}

func (c *MutexMap) Insert(key, value int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.m[key]; ok {
		return false
	}
	c.m[key] = value
	return true
}

func (c *MutexMap) Update(key, value int64, allowInsert bool) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.m[key]; ok {
		c.m[key] = value
		return true, false
	}
	if !allowInsert {
		return false, false
	}
	c.m[key] = value
	return false, true
}

func (c *MutexMap) Find(key int64) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.m[key]
	return v, ok
}

func (c *MutexMap) Erase(key int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.m[key]; !ok {
		return false
	}
	delete(c.m, key)
	return true
}

func (c *MutexMap) Contains(key int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.m[key]
	return ok
}

func (c *MutexMap) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

func (c *MutexMap) Close() error { return nil }
