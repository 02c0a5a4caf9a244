package container

import "github.com/cornelk/hashmap"

// LockFreeHashMap wraps cornelk/hashmap
type LockFreeHashMap struct {
	m *hashmap.Map[int64, int64]
}

var _ Adapter = (*LockFreeHashMap)(nil)

func NewLockFreeHashMap(capacity int) *LockFreeHashMap {
	if capacity > 0 {
		return &LockFreeHashMap{m: hashmap.NewSized[int64, int64](uintptr(capacity))}
	}
	return &LockFreeHashMap{m: hashmap.New[int64, int64]()}
}

func (c *LockFreeHashMap) Insert(key, value int64) bool {
	return c.m.Insert(key, value)
}

// Update checks presence before writing; see HaxMap.Update for the race
func (c *LockFreeHashMap) Update(key, value int64, allowInsert bool) (bool, bool) {
	if _, ok := c.m.Get(key); ok {
		c.m.Set(key, value)
		return true, false
	}
	if !allowInsert {
		return false, false
	}
	if c.m.Insert(key, value) {
		return false, true
	}
	c.m.Set(key, value)
	return true, false
}

func (c *LockFreeHashMap) Find(key int64) (int64, bool) {
	return c.m.Get(key)
}

func (c *LockFreeHashMap) Erase(key int64) bool {
	return c.m.Del(key)
}

func (c *LockFreeHashMap) Contains(key int64) bool {
	_, ok := c.m.Get(key)
	return ok
}

func (c *LockFreeHashMap) Size() int {
	return c.m.Len()
}

func (c *LockFreeHashMap) Close() error { return nil }
