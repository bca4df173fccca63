package testing

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/ValentinKolb/dObs/lib/collection"
	"golang.org/x/sync/errgroup"
)

// ListFactory creates a list holding items. It should register the
// cleanup of the list with t.
type ListFactory func(t testing.TB, items ...int) collection.Observable[int]

// RunListTests runs the conformance suite for an Observable implementation.
func RunListTests(t *testing.T, name string, factory ListFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Add", func(t *testing.T) {
			testAdd(t, factory)
		})

		t.Run("Insert", func(t *testing.T) {
			testInsert(t, factory)
		})

		t.Run("InsertOutOfRange", func(t *testing.T) {
			testInsertOutOfRange(t, factory)
		})

		t.Run("RemoveAt", func(t *testing.T) {
			testRemoveAt(t, factory)
		})

		t.Run("Remove", func(t *testing.T) {
			testRemove(t, factory)
		})

		t.Run("Set", func(t *testing.T) {
			testSet(t, factory)
		})

		t.Run("Clear", func(t *testing.T) {
			testClear(t, factory)
		})

		t.Run("NotifyReset", func(t *testing.T) {
			testNotifyReset(t, factory)
		})

		t.Run("Attributes", func(t *testing.T) {
			testAttributes(t, factory)
		})

		t.Run("Unsubscribe", func(t *testing.T) {
			testUnsubscribe(t, factory)
		})

		t.Run("ListenerPanic", func(t *testing.T) {
			testListenerPanic(t, factory)
		})

		t.Run("ReentrantListener", func(t *testing.T) {
			testReentrantListener(t, factory)
		})

		t.Run("ConcurrentAdd", func(t *testing.T) {
			testConcurrentAdd(t, factory)
		})

		t.Run("SnapshotIsolation", func(t *testing.T) {
			testSnapshotIsolation(t, factory)
		})

		t.Run("Reads", func(t *testing.T) {
			testReads(t, factory)
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Recorder collects the notifications of one list
type Recorder struct {
	mu         sync.Mutex
	changes    []collection.Change[int]
	attributes []collection.Attribute
}

// Record subscribes a new Recorder to l
func Record(t testing.TB, l collection.Observable[int]) *Recorder {
	r := &Recorder{}
	t.Cleanup(l.Subscribe(func(_ context.Context, c collection.Change[int]) {
		r.mu.Lock()
		r.changes = append(r.changes, c)
		r.mu.Unlock()
	}))
	t.Cleanup(l.SubscribeAttributes(func(_ context.Context, a collection.Attribute) {
		r.mu.Lock()
		r.attributes = append(r.attributes, a)
		r.mu.Unlock()
	}))
	return r
}

// Changes returns the change records received so far
func (r *Recorder) Changes() []collection.Change[int] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.changes)
}

// Attributes returns the attribute notifications received so far
func (r *Recorder) Attributes() []collection.Attribute {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.attributes)
}

// Reset forgets everything received so far
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.changes, r.attributes = nil, nil
	r.mu.Unlock()
}

func expectContent(t *testing.T, l collection.Observable[int], want ...int) {
	t.Helper()
	if got := l.Snapshot(); !slices.Equal(got, want) {
		t.Errorf("Expected content %v, got %v", want, got)
	}
}

func expectChanges(t *testing.T, r *Recorder, want ...collection.Change[int]) {
	t.Helper()
	got := r.Changes()
	if len(got) != len(want) {
		t.Fatalf("Expected %d change records, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i].Action != want[i].Action ||
			!slices.Equal(got[i].NewItems, want[i].NewItems) ||
			!slices.Equal(got[i].OldItems, want[i].OldItems) ||
			got[i].NewIndex != want[i].NewIndex ||
			got[i].OldIndex != want[i].OldIndex {
			t.Errorf("Record %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testAdd(t *testing.T, factory ListFactory) {
	ctx := context.Background()
	l := factory(t, 1, 2)
	r := Record(t, l)

	must(t, l.Add(ctx, 3))

	if !l.Contains(3) {
		t.Errorf("Expected list to contain 3 after Add")
	}
	if l.Len() != 3 {
		t.Errorf("Expected Len 3 after Add, got %d", l.Len())
	}
	expectContent(t, l, 1, 2, 3)
	expectChanges(t, r, collection.Change[int]{Action: collection.ActionAdd, NewItems: []int{3}, NewIndex: -1, OldIndex: -1})
}

func testInsert(t *testing.T, factory ListFactory) {
	ctx := context.Background()
	l := factory(t, 10, 20, 30)
	r := Record(t, l)

	for _, tc := range []struct{ index, item int }{{0, 1}, {2, 2}, {5, 3}} {
		must(t, l.Insert(ctx, tc.index, tc.item))
		if got := l.IndexOf(tc.item); got != tc.index {
			t.Errorf("Expected %d at index %d, got %d", tc.item, tc.index, got)
		}
	}
	expectContent(t, l, 1, 10, 2, 20, 30, 3)

	// negative index clamps to the front
	must(t, l.Insert(ctx, -4, 0))
	expectContent(t, l, 0, 1, 10, 2, 20, 30, 3)

	expectChanges(t, r,
		collection.Change[int]{Action: collection.ActionAdd, NewItems: []int{1}, NewIndex: 0, OldIndex: -1},
		collection.Change[int]{Action: collection.ActionAdd, NewItems: []int{2}, NewIndex: 2, OldIndex: -1},
		collection.Change[int]{Action: collection.ActionAdd, NewItems: []int{3}, NewIndex: 5, OldIndex: -1},
		collection.Change[int]{Action: collection.ActionAdd, NewItems: []int{0}, NewIndex: 0, OldIndex: -1},
	)
}

func testInsertOutOfRange(t *testing.T, factory ListFactory) {
	ctx := context.Background()
	l := factory(t, 1, 2)
	r := Record(t, l)

	err := l.Insert(ctx, 3, 9)
	if !errors.Is(err, collection.ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange, got %v", err)
	}
	expectContent(t, l, 1, 2)
	expectChanges(t, r)
	if attrs := r.Attributes(); len(attrs) != 0 {
		t.Errorf("Expected no attribute notifications, got %v", attrs)
	}
}

func testRemoveAt(t *testing.T, factory ListFactory) {
	ctx := context.Background()

	empty := factory(t)
	re := Record(t, empty)
	for _, i := range []int{0, -1, 5} {
		removed, err := empty.RemoveAt(ctx, i)
		must(t, err)
		if removed {
			t.Errorf("RemoveAt(%d) on an empty list should report false", i)
		}
	}
	if empty.Len() != 0 {
		t.Errorf("Expected empty list to stay empty, got Len %d", empty.Len())
	}
	expectChanges(t, re)

	l := factory(t, 1, 2, 3)
	r := Record(t, l)
	for _, i := range []int{3, 100, -1} {
		removed, err := l.RemoveAt(ctx, i)
		must(t, err)
		if removed {
			t.Errorf("RemoveAt(%d) out of range should report false", i)
		}
	}
	expectContent(t, l, 1, 2, 3)
	expectChanges(t, r)
	if attrs := r.Attributes(); len(attrs) != 0 {
		t.Errorf("Expected no attribute notifications for no-ops, got %v", attrs)
	}

	removed, err := l.RemoveAt(ctx, 1)
	must(t, err)
	if !removed {
		t.Errorf("RemoveAt(1) should report true")
	}
	expectContent(t, l, 1, 3)
	expectChanges(t, r, collection.Change[int]{Action: collection.ActionRemove, OldItems: []int{2}, NewIndex: -1, OldIndex: 1})
}

func testRemove(t *testing.T, factory ListFactory) {
	ctx := context.Background()
	l := factory(t, 5, 6, 7, 6)
	r := Record(t, l)

	removed, err := l.Remove(ctx, 6)
	must(t, err)
	if !removed {
		t.Errorf("Remove of a present item should report true")
	}
	expectContent(t, l, 5, 7, 6)

	removed, err = l.Remove(ctx, 42)
	must(t, err)
	if removed {
		t.Errorf("Remove of an absent item should report false")
	}
	expectContent(t, l, 5, 7, 6)

	expectChanges(t, r, collection.Change[int]{Action: collection.ActionRemove, OldItems: []int{6}, NewIndex: -1, OldIndex: 1})
}

func testSet(t *testing.T, factory ListFactory) {
	ctx := context.Background()
	l := factory(t, 1, 2, 3)
	r := Record(t, l)

	ok, err := l.Set(ctx, 1, 20)
	must(t, err)
	if !ok {
		t.Errorf("Set in range should report true")
	}
	ok, err = l.Set(ctx, 3, 40)
	must(t, err)
	if ok {
		t.Errorf("Set out of range should report false")
	}

	expectContent(t, l, 1, 20, 3)
	expectChanges(t, r, collection.Change[int]{Action: collection.ActionReplace, NewItems: []int{20}, OldItems: []int{2}, NewIndex: 1, OldIndex: 1})
}

func testClear(t *testing.T, factory ListFactory) {
	ctx := context.Background()
	l := factory(t, 1, 2, 3, 4)
	r := Record(t, l)

	must(t, l.Clear(ctx))

	if l.Len() != 0 {
		t.Errorf("Expected empty list after Clear, got Len %d", l.Len())
	}
	expectChanges(t, r, collection.Change[int]{Action: collection.ActionReset, NewIndex: -1, OldIndex: -1})
}

func testNotifyReset(t *testing.T, factory ListFactory) {
	ctx := context.Background()
	l := factory(t, 1)
	r := Record(t, l)

	must(t, l.NotifyReset(ctx))
	must(t, l.NotifyReset(ctx))

	reset := collection.Change[int]{Action: collection.ActionReset, NewIndex: -1, OldIndex: -1}
	expectChanges(t, r, reset, reset)
	expectContent(t, l, 1)
	if attrs := r.Attributes(); len(attrs) != 0 {
		t.Errorf("NotifyReset should not notify attributes, got %v", attrs)
	}
}

func testAttributes(t *testing.T, factory ListFactory) {
	ctx := context.Background()
	l := factory(t)
	r := Record(t, l)

	must(t, l.Add(ctx, 1))
	want := []collection.Attribute{collection.AttrCount, collection.AttrHasItems}
	if got := r.Attributes(); !slices.Equal(got, want) {
		t.Errorf("Expected %v after Add, got %v", want, got)
	}

	r.Reset()
	_, err := l.Set(ctx, 0, 2)
	must(t, err)
	if got := r.Attributes(); len(got) != 0 {
		t.Errorf("Set does not change the count, got %v", got)
	}
}

func testUnsubscribe(t *testing.T, factory ListFactory) {
	ctx := context.Background()
	l := factory(t)

	var mu sync.Mutex
	calls := 0
	unsubscribe := l.Subscribe(func(context.Context, collection.Change[int]) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	must(t, l.Add(ctx, 1))
	unsubscribe()
	must(t, l.Add(ctx, 2))
	unsubscribe() // twice is harmless

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("Expected 1 call before unsubscribe, got %d", calls)
	}
}

func testListenerPanic(t *testing.T, factory ListFactory) {
	ctx := context.Background()
	l := factory(t)

	t.Cleanup(l.Subscribe(func(context.Context, collection.Change[int]) {
		panic("faulty listener")
	}))
	t.Cleanup(l.SubscribeAttributes(func(context.Context, collection.Attribute) {
		panic("faulty attribute listener")
	}))
	r := Record(t, l)

	must(t, l.Add(ctx, 1))
	must(t, l.Add(ctx, 2))

	expectContent(t, l, 1, 2)
	expectChanges(t, r,
		collection.Change[int]{Action: collection.ActionAdd, NewItems: []int{1}, NewIndex: -1, OldIndex: -1},
		collection.Change[int]{Action: collection.ActionAdd, NewItems: []int{2}, NewIndex: -1, OldIndex: -1},
	)
	if got := len(r.Attributes()); got != 4 {
		t.Errorf("Expected 4 attribute notifications despite the faulty listener, got %d", got)
	}
}

func testReentrantListener(t *testing.T, factory ListFactory) {
	ctx := context.Background()
	l := factory(t)

	var errMu sync.Mutex
	var listenerErr error
	t.Cleanup(l.Subscribe(func(ctx context.Context, c collection.Change[int]) {
		if c.Action != collection.ActionAdd || c.NewItems[0] != 1 {
			return
		}
		// the owner context makes this run inline
		err := l.Add(ctx, 2)
		errMu.Lock()
		listenerErr = err
		errMu.Unlock()
	}))
	r := Record(t, l)

	must(t, l.Add(ctx, 1))

	errMu.Lock()
	must(t, listenerErr)
	errMu.Unlock()
	expectContent(t, l, 1, 2)

	// records of the nested Add wait until every listener has seen the outer one
	expectChanges(t, r,
		collection.Change[int]{Action: collection.ActionAdd, NewItems: []int{1}, NewIndex: -1, OldIndex: -1},
		collection.Change[int]{Action: collection.ActionAdd, NewItems: []int{2}, NewIndex: -1, OldIndex: -1},
	)
}

func testConcurrentAdd(t *testing.T, factory ListFactory) {
	const (
		rounds  = 20
		writers = 64
	)

	for round := 0; round < rounds; round++ {
		l := factory(t)
		r := Record(t, l)

		g, ctx := errgroup.WithContext(context.Background())
		for i := 0; i < writers; i++ {
			g.Go(func() error {
				return l.Add(ctx, i)
			})
		}
		must(t, g.Wait())

		if l.Len() != writers {
			t.Fatalf("Round %d: expected Len %d, got %d", round, writers, l.Len())
		}

		seen := make(map[int]int, writers)
		for _, v := range l.Snapshot() {
			seen[v]++
		}
		for i := 0; i < writers; i++ {
			if seen[i] != 1 {
				t.Fatalf("Round %d: item %d present %d times", round, i, seen[i])
			}
		}

		changes := r.Changes()
		if len(changes) != writers {
			t.Fatalf("Round %d: expected %d records, got %d", round, writers, len(changes))
		}
		// records arrive in exactly the order the items were stored
		for i, c := range changes {
			want, _ := l.Get(i)
			if c.Action != collection.ActionAdd || c.NewItems[0] != want {
				t.Fatalf("Round %d: record %d is %v, storage holds %d there", round, i, c, want)
			}
		}
	}
}

func testSnapshotIsolation(t *testing.T, factory ListFactory) {
	l := factory(t, 1, 2, 3, 4, 5)

	var seen []int
	for i, v := range l.All() {
		seen = append(seen, v)
		if i == 1 {
			done := make(chan error)
			go func() {
				ctx := context.Background()
				if err := l.Add(ctx, 6); err != nil {
					done <- err
					return
				}
				_, err := l.RemoveAt(ctx, 0)
				done <- err
			}()
			must(t, <-done)
		}
	}

	if !slices.Equal(seen, []int{1, 2, 3, 4, 5}) {
		t.Errorf("Iteration should see the snapshot taken at its start, got %v", seen)
	}
	expectContent(t, l, 2, 3, 4, 5, 6)
}

func testReads(t *testing.T, factory ListFactory) {
	l := factory(t, 4, 5, 6)

	if v, ok := l.Get(2); !ok || v != 6 {
		t.Errorf("Expected Get(2) = 6, got %d (%t)", v, ok)
	}
	if _, ok := l.Get(3); ok {
		t.Errorf("Expected Get(3) to report false")
	}
	if _, ok := l.Get(-1); ok {
		t.Errorf("Expected Get(-1) to report false")
	}

	dst := make([]int, 5)
	if n := l.CopyTo(dst, 1); n != 3 {
		t.Errorf("Expected CopyTo to copy 3 elements, copied %d", n)
	}
	if !slices.Equal(dst, []int{0, 4, 5, 6, 0}) {
		t.Errorf("Unexpected CopyTo result %v", dst)
	}

	snapshot := l.Snapshot()
	snapshot[0] = 99
	if v, _ := l.Get(0); v != 4 {
		t.Errorf("Snapshot must be a copy, list changed to %d", v)
	}
}
