package container

import (
	"sync/atomic"
	"testing"
)

func setupBenchmarkAdapter(b *testing.B, name string) Adapter {
	b.Helper()
	a, err := New(name, Options{})
	if err != nil {
		b.Fatalf("Failed to create %s: %v", name, err)
	}
	b.Cleanup(func() { a.Close() })
	return a
}

func BenchmarkAdapters_Insert(b *testing.B) {
	for _, name := range inProcess {
		b.Run(name, func(b *testing.B) {
			a := setupBenchmarkAdapter(b, name)
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				if !a.Insert(int64(i), int64(i)) {
					b.Fatalf("Insert(%d) failed", i)
				}
			}
		})
	}
}

func BenchmarkAdapters_Find(b *testing.B) {
	const numKeys = 10000

	for _, name := range inProcess {
		b.Run(name, func(b *testing.B) {
			a := setupBenchmarkAdapter(b, name)
			for key := int64(0); key < numKeys; key++ {
				a.Insert(key, key)
			}
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				if _, ok := a.Find(int64(i % numKeys)); !ok {
					b.Fatalf("Find(%d) missed", i%numKeys)
				}
			}
		})
	}
}

// BenchmarkAdapters_ParallelReadHeavy mixes 90% finds with 10% inserts of
// fresh keys across GOMAXPROCS goroutines
func BenchmarkAdapters_ParallelReadHeavy(b *testing.B) {
	const numKeys = 10000

	for _, name := range inProcess {
		b.Run(name, func(b *testing.B) {
			a := setupBenchmarkAdapter(b, name)
			for key := int64(0); key < numKeys; key++ {
				a.Insert(key, key)
			}
			var next atomic.Int64
			next.Store(numKeys)
			b.ResetTimer()

			b.RunParallel(func(pb *testing.PB) {
				i := 0
				for pb.Next() {
					if i%10 == 9 {
						a.Insert(next.Add(1), 1)
					} else {
						a.Find(int64(i % numKeys))
					}
					i++
				}
			})
		})
	}
}
