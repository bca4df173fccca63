package collection

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

// Read accessors never dispatch. They take the read lock, copy what they
// need, release the lock and only then run caller code on the copy. The copy
// may be stale by the time the caller sees it, but it is never torn.

// Len returns the number of elements
func (l *List[T]) Len() int {
	var n int
	l.lock.read(func() { n = l.storage.Len() })
	return n
}

// HasItems reports whether the list is not empty
func (l *List[T]) HasItems() bool {
	return l.Len() > 0
}

// Get returns the element at index, or false if index is out of range
func (l *List[T]) Get(index int) (item T, ok bool) {
	l.lock.read(func() {
		if index >= 0 && index < l.storage.Len() {
			item, ok = l.storage.Get(index), true
		}
	})
	return item, ok
}

// Contains reports whether an element equal to item exists
func (l *List[T]) Contains(item T) bool {
	return l.IndexOf(item) >= 0
}

// IndexOf returns the index of the first element equal to item, or -1
func (l *List[T]) IndexOf(item T) int {
	i := -1
	l.lock.read(func() { i = l.storage.IndexOf(item) })
	return i
}

// Snapshot returns a copy of all elements
func (l *List[T]) Snapshot() []T {
	var items []T
	l.lock.read(func() { items = l.storage.Clone() })
	return items
}

// CopyTo copies the elements into dst starting at dst[at]
// and returns how many were copied.
func (l *List[T]) CopyTo(dst []T, at int) int {
	var n int
	l.lock.read(func() { n = l.storage.CopyTo(dst, at) })
	return n
}

// Find returns the first element satisfying pred
func (l *List[T]) Find(pred func(T) bool) (T, bool) {
	items := l.Snapshot()
	if i := slices.IndexFunc(items, pred); i >= 0 {
		return items[i], true
	}
	var zero T
	return zero, false
}

// ForEach calls fn for every element of a snapshot
func (l *List[T]) ForEach(fn func(T)) {
	for _, item := range l.Snapshot() {
		fn(item)
	}
}

// Where returns the elements satisfying pred
func (l *List[T]) Where(pred func(T) bool) []T {
	var result []T
	for _, item := range l.Snapshot() {
		if pred(item) {
			result = append(result, item)
		}
	}
	return result
}

// All iterates over index and element of a snapshot taken when iteration starts
func (l *List[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, item := range l.Snapshot() {
			if !yield(i, item) {
				return
			}
		}
	}
}

// Values iterates over the elements of a snapshot taken when iteration starts
func (l *List[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, item := range l.Snapshot() {
			if !yield(item) {
				return
			}
		}
	}
}

// BinarySearch searches a sorted list for target using cmp.
// The list must be sorted consistently with cmp, otherwise the result is undefined.
func (l *List[T]) BinarySearch(target T, cmp func(a, b T) int) (int, bool) {
	return slices.BinarySearchFunc(l.Snapshot(), target, cmp)
}

// String joins the elements with the configured separator
func (l *List[T]) String() string {
	items := l.Snapshot()
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = fmt.Sprint(item)
	}
	return strings.Join(parts, *l.separator.Load())
}
