package affinity

import (
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoreFor(t *testing.T) {
	tests := []struct {
		id, cores, want int
	}{
		{0, 4, 0},
		{3, 4, 3},
		{4, 4, 0},
		{9, 4, 1},
		{-2, 4, 2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CoreFor(tt.id, tt.cores), "CoreFor(%d, %d)", tt.id, tt.cores)
	}

	got := CoreFor(1000, 0)
	assert.GreaterOrEqual(t, got, 0)
	assert.Less(t, got, runtime.NumCPU())
}

func TestNoop(t *testing.T) {
	var b Binder = Noop{}
	assert.NoError(t, b.Bind(0))
	assert.NoError(t, b.Bind(1<<20))
}

func TestBinderFunc(t *testing.T) {
	var got int
	b := BinderFunc(func(index int) error {
		got = index
		return ErrUnsupported
	})

	err := b.Bind(5)
	assert.Equal(t, 5, got)
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestAllowed(t *testing.T) {
	n, err := Allowed()
	assert.NoError(t, err)
	assert.Greater(t, n, 0)
}
