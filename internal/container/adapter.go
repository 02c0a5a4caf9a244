// Package container puts concurrent key-value implementations behind the
// single contract the load driver exercises. Adapters are thin: they map
// the contract onto each library's API and never tune the library itself.
package container

// Adapter is a thread-safe int64 → int64 container under test.
// Every method may be called concurrently from many workers.
type Adapter interface {
	// Insert stores key if absent and reports whether it did
	Insert(key, value int64) bool
	// Update overwrites an existing key. When the key is absent it is
	// inserted only if allowInsert is set.
	Update(key, value int64, allowInsert bool) (found, inserted bool)
	// Find returns the value stored under key
	Find(key int64) (int64, bool)
	// Erase removes key and reports whether it was present
	Erase(key int64) bool
	Contains(key int64) bool
	Size() int
	// Close releases external resources; in-process maps return nil
	Close() error
}

// StatsReporter is implemented by adapters that can describe their own
// footprint, such as the badger and redis backends
type StatsReporter interface {
	Stats() map[string]interface{}
}
