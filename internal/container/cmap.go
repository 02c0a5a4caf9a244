package container

import cmap "github.com/orcaman/concurrent-map/v2"

// ConcurrentMap wraps orcaman/concurrent-map with an fnv shard selector
type ConcurrentMap struct {
	m cmap.ConcurrentMap[int64, int64]
}

var _ Adapter = (*ConcurrentMap)(nil)

func NewConcurrentMap() *ConcurrentMap {
	return &ConcurrentMap{
		m: cmap.NewWithCustomShardingFunction[int64, int64](func(key int64) uint32 {
			return uint32(hashKey(key))
		}),
	}
}

func (c *ConcurrentMap) Insert(key, value int64) bool {
	return c.m.SetIfAbsent(key, value)
}

// Update checks presence before writing; see HaxMap.Update for the race
func (c *ConcurrentMap) Update(key, value int64, allowInsert bool) (bool, bool) {
	if c.m.Has(key) {
		c.m.Set(key, value)
		return true, false
	}
	if !allowInsert {
		return false, false
	}
	if c.m.SetIfAbsent(key, value) {
		return false, true
	}
	c.m.Set(key, value)
	return true, false
}

func (c *ConcurrentMap) Find(key int64) (int64, bool) {
	return c.m.Get(key)
}

func (c *ConcurrentMap) Erase(key int64) bool {
	_, ok := c.m.Pop(key)
	return ok
}

func (c *ConcurrentMap) Contains(key int64) bool {
	return c.m.Has(key)
}

func (c *ConcurrentMap) Size() int {
	return c.m.Count()
}

func (c *ConcurrentMap) Close() error { return nil }
