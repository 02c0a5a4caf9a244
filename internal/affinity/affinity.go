// Package affinity pins the calling OS thread to a CPU core.
package affinity

import (
	"errors"
	"runtime"
)

var (
	// ErrBind wraps any failure to pin a worker to its core
	ErrBind = errors.New("failed to bind thread to core")
	// ErrUnsupported is returned on platforms without thread affinity
	ErrUnsupported = errors.New("thread affinity not supported on this platform")
)

// Binder pins the calling OS thread to the core at index. Callers must
// hold runtime.LockOSThread for the binding to follow the goroutine.
type Binder interface {
	Bind(index int) error
}

// BinderFunc adapts a function to Binder
type BinderFunc func(index int) error

func (f BinderFunc) Bind(index int) error { return f(index) }

// Noop accepts every bind without touching the scheduler
type Noop struct{}

func (Noop) Bind(int) error { return nil }

// CoreFor maps worker id onto one of cores, wrapping around
func CoreFor(id, cores int) int {
	if cores <= 0 {
		cores = runtime.NumCPU()
	}
	if id < 0 {
		id = -id
	}
	return id % cores
}
