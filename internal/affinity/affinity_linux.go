//go:build linux

package affinity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// processCPUs is the mask the process started with. It is read once from
// the main thread, before any worker narrows its own thread's mask.
var processCPUs, processErr = readProcessCPUs()

func readProcessCPUs() ([]int, error) {
	var allowed unix.CPUSet
	if err := unix.SchedGetaffinity(0, &allowed); err != nil {
		return nil, err
	}
	return allowedCPUs(&allowed), nil
}

// System binds through sched_setaffinity. Index counts over the cores the
// process is allowed to run on, so container cpusets are respected.
type System struct{}

func (System) Bind(index int) error {
	if processErr != nil {
		return fmt.Errorf("%w: reading allowed cpus: %v", ErrBind, processErr)
	}
	if len(processCPUs) == 0 {
		return fmt.Errorf("%w: no cpus in affinity mask", ErrBind)
	}
	cpu := processCPUs[CoreFor(index, len(processCPUs))]

	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("%w: cpu %d: %v", ErrBind, cpu, err)
	}
	return nil
}

// Allowed returns the number of cores the process may use
func Allowed() (int, error) {
	if processErr != nil {
		return 0, processErr
	}
	return len(processCPUs), nil
}

// AllowedCPUs lists the cpu ids System binds to, in index order
func AllowedCPUs() []int {
	return append([]int(nil), processCPUs...)
}

func allowedCPUs(set *unix.CPUSet) []int {
	n := set.Count()
	cpus := make([]int, 0, n)
	for cpu := 0; len(cpus) < n && cpu < len(set)*64; cpu++ {
		if set.IsSet(cpu) {
			cpus = append(cpus, cpu)
		}
	}
	return cpus
}
