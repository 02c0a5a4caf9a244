//go:build !linux

package affinity

import (
	"fmt"
	"runtime"
)

// System reports ErrUnsupported; use Noop to run without pinning
type System struct{}

func (System) Bind(index int) error {
	return fmt.Errorf("%w: %w", ErrBind, ErrUnsupported)
}

// Allowed returns runtime.NumCPU
func Allowed() (int, error) {
	return runtime.NumCPU(), nil
}

// AllowedCPUs returns 0..NumCPU-1
func AllowedCPUs() []int {
	cpus := make([]int, runtime.NumCPU())
	for i := range cpus {
		cpus[i] = i
	}
	return cpus
}
