package container

import "github.com/puzpuzpuz/xsync/v2"

// XsyncMap wraps xsync.MapOf specialised for integer keys
type XsyncMap struct {
	m *xsync.MapOf[int64, int64]
}

var _ Adapter = (*XsyncMap)(nil)

func NewXsyncMap() *XsyncMap {
	return &XsyncMap{m: xsync.NewIntegerMapOf[int64, int64]()}
}

func (c *XsyncMap) Insert(key, value int64) bool {
	_, loaded := c.m.LoadOrStore(key, value)
	return !loaded
}

func (c *XsyncMap) Update(key, value int64, allowInsert bool) (bool, bool) {
	var found, inserted bool
	c.m.Compute(key, func(old int64, loaded bool) (int64, bool) {
		if loaded {
			found = true
			return value, false
		}
		if !allowInsert {
			// deleting an absent key leaves the map untouched
			return old, true
		}
		inserted = true
		return value, false
	})
	return found, inserted
}

func (c *XsyncMap) Find(key int64) (int64, bool) {
	return c.m.Load(key)
}

func (c *XsyncMap) Erase(key int64) bool {
	_, loaded := c.m.LoadAndDelete(key)
	return loaded
}

func (c *XsyncMap) Contains(key int64) bool {
	_, ok := c.m.Load(key)
	return ok
}

func (c *XsyncMap) Size() int {
	return c.m.Size()
}

func (c *XsyncMap) Close() error { return nil }
