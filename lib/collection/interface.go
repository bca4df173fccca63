package collection

import (
	"context"
	"iter"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Ordered is the index-based surface of a list.
// Writes return an error only if the owner could not run them (closed
// dispatcher, cancelled context) or if storage rejected an index.
type Ordered[T comparable] interface {
	// Len returns the number of elements.
	Len() int
	// Get returns the element at i, false if i is out of range.
	Get(i int) (T, bool)
	// IndexOf returns the index of the first element equal to v, or -1.
	IndexOf(v T) int
	// Contains reports whether an element equal to v exists.
	Contains(v T) bool
	// Snapshot returns a copy of all elements.
	Snapshot() []T
	// All iterates over a snapshot.
	All() iter.Seq2[int, T]
	// CopyTo copies the elements into dst at offset at.
	CopyTo(dst []T, at int) int

	// Add appends v.
	Add(ctx context.Context, v T) error
	// Insert inserts v at i.
	Insert(ctx context.Context, i int, v T) error
	// Set overwrites the element at i, false if i is out of range.
	Set(ctx context.Context, i int, v T) (bool, error)
	// RemoveAt removes the element at i, false if i is out of range.
	RemoveAt(ctx context.Context, i int) (bool, error)
	// Remove removes the first element equal to v, false if there is none.
	Remove(ctx context.Context, v T) (bool, error)
	// Clear removes all elements.
	Clear(ctx context.Context) error
}

// Observable is an Ordered list that reports its changes
type Observable[T comparable] interface {
	Ordered[T]

	// Subscribe registers a change listener and returns its unsubscribe func.
	Subscribe(fn ChangeListener[T]) (unsubscribe func())
	// SubscribeAttributes registers an attribute listener and returns its unsubscribe func.
	SubscribeAttributes(fn AttributeListener) (unsubscribe func())
	// NotifyReset emits a Reset record without changing the list.
	NotifyReset(ctx context.Context) error
}

var _ Observable[int] = (*List[int])(nil)
