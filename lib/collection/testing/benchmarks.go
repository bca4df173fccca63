package testing

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/dObs/lib/collection"
)

// RunListBenchmarks runs all benchmarks for an Observable implementation
func RunListBenchmarks(b *testing.B, name string, factory ListFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Add", func(b *testing.B) {
			benchmarkAdd(b, factory)
		})

		b.Run("AddObserved", func(b *testing.B) {
			benchmarkAddObserved(b, factory)
		})

		b.Run("InsertFront", func(b *testing.B) {
			benchmarkInsertFront(b, factory)
		})

		b.Run("RemoveAt", func(b *testing.B) {
			benchmarkRemoveAt(b, factory)
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, factory)
		})

		b.Run("Snapshot", func(b *testing.B) {
			benchmarkSnapshot(b, factory)
		})

		b.Run("MixedUsage", func(b *testing.B) {
			benchmarkMixedUsage(b, factory)
		})
	})
}

// prefilled creates a list holding 0..n-1
func prefilled(b *testing.B, factory ListFactory, n int) collection.Observable[int] {
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	return factory(b, items...)
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// Parallel appends from many goroutines, every call marshaled to the owner
func benchmarkAdd(b *testing.B, factory ListFactory) {
	l := factory(b)
	ctx := context.Background()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			if err := l.Add(ctx, counter); err != nil {
				b.Error(err)
				return
			}
			counter++
		}
	})
}

// Same as Add, with a listener that does a little work per record
func benchmarkAddObserved(b *testing.B, factory ListFactory) {
	l := factory(b)
	ctx := context.Background()

	var sum atomic.Int64
	b.Cleanup(l.Subscribe(func(_ context.Context, c collection.Change[int]) {
		for _, v := range c.NewItems {
			sum.Add(int64(v))
		}
	}))
	b.Cleanup(l.SubscribeAttributes(func(context.Context, collection.Attribute) {}))

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			if err := l.Add(ctx, counter); err != nil {
				b.Error(err)
				return
			}
			counter++
		}
	})
}

// Inserting at index 0 shifts the whole storage
func benchmarkInsertFront(b *testing.B, factory ListFactory) {
	l := prefilled(b, factory, 1000)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := l.Insert(ctx, 0, i); err != nil {
			b.Fatal(err)
		}
	}
}

// Parallel RemoveAt at the front, refilled when the list runs empty
func benchmarkRemoveAt(b *testing.B, factory ListFactory) {
	numItems := 100000
	if b.N < numItems {
		numItems = b.N
	}
	l := prefilled(b, factory, numItems)
	ctx := context.Background()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			removed, err := l.RemoveAt(ctx, 0)
			if err != nil {
				b.Error(err)
				return
			}
			if !removed {
				_ = l.Add(ctx, 0)
			}
		}
	})
}

// Parallel reads only take the read lock
func benchmarkGet(b *testing.B, factory ListFactory) {
	numItems := 10000
	l := prefilled(b, factory, numItems)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			l.Get(counter % numItems)
			counter++
		}
	})
}

func benchmarkSnapshot(b *testing.B, factory ListFactory) {
	l := prefilled(b, factory, 1000)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = l.Snapshot()
		}
	})
}

// Mix of reads and writes from all goroutines
func benchmarkMixedUsage(b *testing.B, factory ListFactory) {
	numItems := 1000
	l := prefilled(b, factory, numItems)
	ctx := context.Background()

	var counter int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		localCounter := 0
		for pb.Next() {
			idx := int(atomic.AddInt64(&counter, 1)-1) % numItems

			var err error
			switch localCounter % 5 {
			case 0: // Add
				err = l.Add(ctx, idx)
			case 1: // Get
				l.Get(idx)
			case 2: // Remove
				_, err = l.Remove(ctx, idx)
			case 3: // Contains
				l.Contains(idx)
			case 4: // Set
				_, err = l.Set(ctx, idx%max(l.Len(), 1), localCounter)
			}
			if err != nil {
				b.Error(err)
				return
			}
			localCounter++
		}
	})
}
