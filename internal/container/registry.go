package container

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"kvbench/internal/storage"
)

// ErrUnknownContainer is returned by New for names that are not registered
var ErrUnknownContainer = errors.New("unknown container")

// Options carries the knobs adapters understand. Adapters ignore fields
// that do not apply to them.
type Options struct {
	// Capacity presizes maps that support it
	Capacity int
	// LRUCapacity bounds the lru container; 0 means DefaultLRUCapacity
	LRUCapacity int
	Shards      int
	Badger      storage.Config
	Redis       storage.RedisConfig
}

// Factory builds a fresh, empty adapter
type Factory func(opts Options) (Adapter, error)

var (
	_ Adapter       = (*storage.Engine)(nil)
	_ Adapter       = (*storage.RedisStore)(nil)
	_ StatsReporter = storage.Store(nil)
)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		"mutex": func(opts Options) (Adapter, error) {
			return NewMutexMap(opts.Capacity), nil
		},
		"syncmap": func(Options) (Adapter, error) {
			return NewSyncMap(), nil
		},
		"sharded": func(opts Options) (Adapter, error) {
			return NewShardedMap(opts.Shards), nil
		},
		"xsync": func(Options) (Adapter, error) {
			return NewXsyncMap(), nil
		},
		"haxmap": func(opts Options) (Adapter, error) {
			return NewHaxMap(opts.Capacity), nil
		},
		"cmap": func(Options) (Adapter, error) {
			return NewConcurrentMap(), nil
		},
		"hashmap": func(opts Options) (Adapter, error) {
			return NewLockFreeHashMap(opts.Capacity), nil
		},
		"lru": func(opts Options) (Adapter, error) {
			return NewLRUMap(opts.LRUCapacity)
		},
		"badger": newBadger,
		"redis":  newRedis,
	}
)

func newBadger(opts Options) (Adapter, error) {
	cfg := opts.Badger
	if cfg.DataPath == "" {
		cfg.InMemory = true
	}
	engine, err := storage.NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	return engine, nil
}

func newRedis(opts Options) (Adapter, error) {
	store, err := storage.NewRedisStore(opts.Redis)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Register adds or replaces a named factory
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Lookup returns the factory registered under name
func Lookup(name string) (Factory, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownContainer, name, namesLocked())
	}
	return factory, nil
}

// New builds a fresh adapter by name
func New(name string, opts Options) (Adapter, error) {
	factory, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	adapter, err := factory(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s container: %w", name, err)
	}
	return adapter, nil
}

// Names lists registered containers alphabetically
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
