//go:build linux

package affinity

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestSystemBind(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var before unix.CPUSet
	require.NoError(t, unix.SchedGetaffinity(0, &before))
	defer unix.SchedSetaffinity(0, &before)

	require.NoError(t, System{}.Bind(0))

	var after unix.CPUSet
	require.NoError(t, unix.SchedGetaffinity(0, &after))
	assert.Equal(t, 1, after.Count())
}

func TestAllowedCPUs(t *testing.T) {
	var set unix.CPUSet
	set.Zero()
	set.Set(1)
	set.Set(3)
	set.Set(70)

	assert.Equal(t, []int{1, 3, 70}, allowedCPUs(&set))
}

func TestSystemBind_FromNarrowedThread(t *testing.T) {
	cpus := AllowedCPUs()
	if len(cpus) < 2 {
		t.Skip("needs at least two allowed cpus")
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var before unix.CPUSet
	require.NoError(t, unix.SchedGetaffinity(0, &before))
	defer unix.SchedSetaffinity(0, &before)

	// the thread is pinned to cpus[0]; index 1 must still reach cpus[1]
	require.NoError(t, System{}.Bind(0))
	require.NoError(t, System{}.Bind(1))

	var after unix.CPUSet
	require.NoError(t, unix.SchedGetaffinity(0, &after))
	assert.Equal(t, 1, after.Count())
	assert.True(t, after.IsSet(cpus[1]), "expected cpu %d in mask", cpus[1])
}

func TestAllowedMatchesCPUList(t *testing.T) {
	n, err := Allowed()
	require.NoError(t, err)
	assert.Len(t, AllowedCPUs(), n)
}
