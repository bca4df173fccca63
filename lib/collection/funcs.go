package collection

import (
	"cmp"
	"context"
	"slices"
)

// UpdateByKey upserts items by key.
//
// For every incoming item: if no element shares its key, it is appended (Add
// record); if one does and differs from the item, it is replaced at its index
// (Replace record); equal elements are skipped. The first element of the list
// wins when several share a key. Change records are only built while at least
// one change listener is subscribed, the mutation is always applied. key runs
// on the owner under the write lock and must not call back into the list.
func UpdateByKey[T comparable, K comparable](ctx context.Context, l *List[T], items []T, key func(T) K) error {
	return l.mutate(ctx, false, func(s Storage[T], b *batch[T]) error {
		b.silent = !l.events.hasChangeListeners()

		index := make(map[K]int, s.Len())
		for i := 0; i < s.Len(); i++ {
			k := key(s.Get(i))
			if _, ok := index[k]; !ok {
				index[k] = i
			}
		}

		for _, item := range items {
			k := key(item)
			i, ok := index[k]
			if !ok {
				if err := s.Insert(s.Len(), item); err != nil {
					return err
				}
				index[k] = s.Len() - 1
				b.record(addChange(item))
				continue
			}

			old := s.Get(i)
			if old == item {
				continue
			}
			s.Set(i, item)
			b.record(replaceChange(item, old, i))
		}

		b.counted = true
		return nil
	})
}

// SortOrdered sorts a list of ordered elements ascending
func SortOrdered[T cmp.Ordered](ctx context.Context, l *List[T], opts ...MutateOption) error {
	return l.Sort(ctx, cmp.Compare[T], opts...)
}

// BinarySearchOrdered searches a list sorted ascending for target
func BinarySearchOrdered[T cmp.Ordered](l *List[T], target T) (int, bool) {
	return slices.BinarySearch(l.Snapshot(), target)
}

// Select projects a snapshot of l through fn
func Select[T comparable, R any](l *List[T], fn func(T) R) []R {
	items := l.Snapshot()
	result := make([]R, len(items))
	for i, item := range items {
		result[i] = fn(item)
	}
	return result
}

// WhereSelect projects the elements satisfying pred through fn
func WhereSelect[T comparable, R any](l *List[T], pred func(T) bool, fn func(T) R) []R {
	var result []R
	for _, item := range l.Snapshot() {
		if pred(item) {
			result = append(result, fn(item))
		}
	}
	return result
}
