package container

import (
	"sync"
	"sync/atomic"
)

// SyncMap wraps sync.Map. sync.Map has no O(1) length, so the element
// count is tracked next to it.
type SyncMap struct {
	m    sync.Map
	size atomic.Int64
}

var _ Adapter = (*SyncMap)(nil)

func NewSyncMap() *SyncMap {
	return &SyncMap{}
}

func (c *SyncMap) Insert(key, value int64) bool {
	if _, loaded := c.m.LoadOrStore(key, value); loaded {
		return false
	}
	c.size.Add(1)
	return true
}

func (c *SyncMap) Update(key, value int64, allowInsert bool) (bool, bool) {
	for {
		old, ok := c.m.Load(key)
		if !ok {
			if !allowInsert {
				return false, false
			}
			if _, loaded := c.m.LoadOrStore(key, value); !loaded {
				c.size.Add(1)
				return false, true
			}
			continue
		}
		if c.m.CompareAndSwap(key, old, value) {
			return true, false
		}
	}
}

func (c *SyncMap) Find(key int64) (int64, bool) {
	v, ok := c.m.Load(key)
	if !ok {
		return 0, false
	}
	return v.(int64), true
}

func (c *SyncMap) Erase(key int64) bool {
	if _, loaded := c.m.LoadAndDelete(key); !loaded {
		return false
	}
	c.size.Add(-1)
	return true
}

func (c *SyncMap) Contains(key int64) bool {
	_, ok := c.m.Load(key)
	return ok
}

func (c *SyncMap) Size() int {
	return int(c.size.Load())
}

func (c *SyncMap) Close() error { return nil }
