package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// errExists aborts an insert transaction that found the key already present
var errExists = errors.New("key exists")

// Engine stores int64 pairs in BadgerDB. Each operation is its own
// transaction; a transaction that loses a write conflict is reported as a
// failed operation rather than retried.
type Engine struct {
	db     *badger.DB
	size   atomic.Int64
	stopGC chan struct{}
	once   sync.Once
}

var _ Store = (*Engine)(nil)

type Config struct {
	DataPath   string
	InMemory   bool
	SyncWrites bool
	ValueLogGC bool
	GCInterval time.Duration
}

func NewEngine(config Config) (*Engine, error) {
	opts := badger.DefaultOptions(config.DataPath)

	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}

	opts = opts.WithSyncWrites(config.SyncWrites)
	opts = opts.WithLogger(nil) // Disable badger's default logger

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	engine := &Engine{
		db:     db,
		stopGC: make(chan struct{}),
	}

	if config.ValueLogGC && !config.InMemory {
		interval := config.GCInterval
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go engine.runGC(interval)
	}

	return engine, nil
}

func (e *Engine) Insert(key, value int64) bool {
	err := e.db.Update(func(txn *badger.Txn) error {
		k := encodeKey(key)
		if _, err := txn.Get(k); err == nil {
			return errExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(k, encodeValue(value))
	})
	if err != nil {
		return false
	}
	e.size.Add(1)
	return true
}

func (e *Engine) Update(key, value int64, allowInsert bool) (bool, bool) {
	var found bool
	err := e.db.Update(func(txn *badger.Txn) error {
		k := encodeKey(key)
		_, err := txn.Get(k)
		switch {
		case err == nil:
			found = true
		case errors.Is(err, badger.ErrKeyNotFound):
			if !allowInsert {
				return ErrKeyNotFound
			}
		default:
			return err
		}
		return txn.Set(k, encodeValue(value))
	})
	if err != nil {
		return false, false
	}
	if !found {
		e.size.Add(1)
		return false, true
	}
	return true, false
}

func (e *Engine) Find(key int64) (int64, bool) {
	var value int64
	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(encodeKey(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value, err = decodeValue(val)
			return err
		})
	})
	if err != nil {
		return 0, false
	}
	return value, true
}

func (e *Engine) Erase(key int64) bool {
	err := e.db.Update(func(txn *badger.Txn) error {
		k := encodeKey(key)
		if _, err := txn.Get(k); err != nil {
			return err
		}
		return txn.Delete(k)
	})
	if err != nil {
		return false
	}
	e.size.Add(-1)
	return true
}

func (e *Engine) Contains(key int64) bool {
	err := e.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(encodeKey(key))
		return err
	})
	return err == nil
}

// Size is the number of committed inserts minus committed erases
func (e *Engine) Size() int {
	return int(e.size.Load())
}

func (e *Engine) Close() error {
	e.once.Do(func() { close(e.stopGC) })
	return e.db.Close()
}

func (e *Engine) Stats() map[string]interface{} {
	lsmSize, vlogSize := e.db.Size()

	return map[string]interface{}{
		"tables":     len(e.db.Tables()),
		"lsm_size":   lsmSize,
		"vlog_size":  vlogSize,
		"total_size": lsmSize + vlogSize,
		"keys":       e.Size(),
	}
}

func (e *Engine) runGC(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopGC:
			return
		case <-ticker.C:
		}

		again := true
		for again {
			err := e.db.RunValueLogGC(0.7)
			again = err == nil
		}

		slog.Debug("BadgerDB garbage collection completed")
	}
}
