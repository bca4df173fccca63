package collection

import (
	"slices"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Storage is the ordered sequence backing a List.
//
// A List only calls Storage while holding its lock in the right mode and
// validates indices before Get, Set and RemoveAt, so implementations need no
// synchronization of their own. Insert is the exception: it performs its own
// bounds check and must leave the storage untouched when it fails.
type Storage[T comparable] interface {
	// Len returns the number of elements.
	Len() int
	// Get returns the element at i.
	Get(i int) T
	// Set overwrites the element at i.
	Set(i int, v T)
	// Insert inserts values at i, shifting later elements up.
	// An i outside [0, Len] returns an error matching ErrIndexOutOfRange.
	Insert(i int, values ...T) error
	// RemoveAt removes and returns the element at i.
	RemoveAt(i int) T
	// IndexOf returns the index of the first element equal to v, or -1.
	IndexOf(v T) int
	// IndexFunc returns the index of the first element satisfying pred, or -1.
	IndexFunc(pred func(T) bool) int
	// Clone returns a copy of all elements.
	Clone() []T
	// CopyTo copies elements into dst starting at dst[at] and returns the number copied.
	CopyTo(dst []T, at int) int
	// Reset replaces all elements with a copy of items.
	Reset(items []T)
	// Sort sorts the elements stably by cmp.
	Sort(cmp func(a, b T) int)
}

// --------------------------------------------------------------------------
// Slice implementation
// --------------------------------------------------------------------------

// SliceStorage is the default Storage, a plain Go slice
type SliceStorage[T comparable] struct {
	items []T
}

// NewSliceStorage creates a storage holding a copy of items
func NewSliceStorage[T comparable](items ...T) *SliceStorage[T] {
	return &SliceStorage[T]{items: slices.Clone(items)}
}

func (s *SliceStorage[T]) Len() int { return len(s.items) }

func (s *SliceStorage[T]) Get(i int) T { return s.items[i] }

func (s *SliceStorage[T]) Set(i int, v T) { s.items[i] = v }

func (s *SliceStorage[T]) Insert(i int, values ...T) error {
	if i < 0 || i > len(s.items) {
		return errIndexOutOfRange(i, len(s.items))
	}
	s.items = slices.Insert(s.items, i, values...)
	return nil
}

func (s *SliceStorage[T]) RemoveAt(i int) T {
	v := s.items[i]
	s.items = slices.Delete(s.items, i, i+1)
	return v
}

func (s *SliceStorage[T]) IndexOf(v T) int { return slices.Index(s.items, v) }

func (s *SliceStorage[T]) IndexFunc(pred func(T) bool) int { return slices.IndexFunc(s.items, pred) }

func (s *SliceStorage[T]) Clone() []T { return slices.Clone(s.items) }

func (s *SliceStorage[T]) CopyTo(dst []T, at int) int {
	if at < 0 || at > len(dst) {
		return 0
	}
	return copy(dst[at:], s.items)
}

func (s *SliceStorage[T]) Reset(items []T) { s.items = slices.Clone(items) }

func (s *SliceStorage[T]) Sort(cmp func(a, b T) int) { slices.SortStableFunc(s.items, cmp) }

var _ Storage[int] = (*SliceStorage[int])(nil)
