package container

import "github.com/alphadose/haxmap"

// HaxMap wraps the lock-free haxmap
type HaxMap struct {
	m *haxmap.Map[int64, int64]
}

var _ Adapter = (*HaxMap)(nil)

func NewHaxMap(capacity int) *HaxMap {
	if capacity <= 0 {
		return &HaxMap{m: haxmap.New[int64, int64]()}
	}
	return &HaxMap{m: haxmap.New[int64, int64](uintptr(capacity))}
}

func (c *HaxMap) Insert(key, value int64) bool {
	_, loaded := c.m.GetOrSet(key, value)
	return !loaded
}

// Update checks presence before writing; a delete racing between the two
// steps can resurrect the key. haxmap has no conditional overwrite.
func (c *HaxMap) Update(key, value int64, allowInsert bool) (bool, bool) {
	if _, ok := c.m.Get(key); ok {
		c.m.Set(key, value)
		return true, false
	}
	if !allowInsert {
		return false, false
	}
	if _, loaded := c.m.GetOrSet(key, value); loaded {
		c.m.Set(key, value)
		return true, false
	}
	return false, true
}

func (c *HaxMap) Find(key int64) (int64, bool) {
	return c.m.Get(key)
}

func (c *HaxMap) Erase(key int64) bool {
	_, ok := c.m.GetAndDel(key)
	return ok
}

func (c *HaxMap) Contains(key int64) bool {
	_, ok := c.m.Get(key)
	return ok
}

func (c *HaxMap) Size() int {
	return int(c.m.Len())
}

func (c *HaxMap) Close() error { return nil }
