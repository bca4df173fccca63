// Package untyped adapts a typed list to a surface that takes and returns any.
//
// It exists for callers that only know element types at runtime, such as
// generic tooling or bindings to dynamic data. The adapter has one policy for
// values of the wrong dynamic type: writes are rejected with an error matching
// collection.ErrTypeMismatch, reads treat the value as not present. It never
// panics and never drops a write silently.
package untyped

import (
	"context"
	"fmt"

	"github.com/ValentinKolb/dObs/lib/collection"
)

// List is the untyped view of a collection.Ordered
type List struct {
	add      func(ctx context.Context, v any) (int, error)
	insert   func(ctx context.Context, i int, v any) error
	set      func(ctx context.Context, i int, v any) (bool, error)
	remove   func(ctx context.Context, v any) error
	indexOf  func(v any) int
	get      func(i int) (any, bool)
	snapshot func() []any
	length   func() int
	elemType string
}

// Wrap returns an untyped view of l. Every call goes to l.
func Wrap[T comparable](l collection.Ordered[T]) *List {
	var zero T
	elemType := fmt.Sprintf("%T", zero)

	mismatch := func(v any) error {
		return collection.NewError(collection.RetCTypeMismatch, fmt.Sprintf("expected %s, got %T", elemType, v))
	}

	return &List{
		elemType: elemType,
		add: func(ctx context.Context, v any) (int, error) {
			item, ok := v.(T)
			if !ok {
				return -1, mismatch(v)
			}
			if err := l.Add(ctx, item); err != nil {
				return -1, err
			}
			return l.Len() - 1, nil
		},
		insert: func(ctx context.Context, i int, v any) error {
			item, ok := v.(T)
			if !ok {
				return mismatch(v)
			}
			return l.Insert(ctx, i, item)
		},
		set: func(ctx context.Context, i int, v any) (bool, error) {
			item, ok := v.(T)
			if !ok {
				return false, mismatch(v)
			}
			return l.Set(ctx, i, item)
		},
		remove: func(ctx context.Context, v any) error {
			item, ok := v.(T)
			if !ok {
				return mismatch(v)
			}
			removed, err := l.Remove(ctx, item)
			if err != nil {
				return err
			}
			if !removed {
				return collection.NewError(collection.RetCNotFound, fmt.Sprintf("%v not in list", v))
			}
			return nil
		},
		indexOf: func(v any) int {
			item, ok := v.(T)
			if !ok {
				return -1
			}
			return l.IndexOf(item)
		},
		get: func(i int) (any, bool) {
			item, ok := l.Get(i)
			if !ok {
				return nil, false
			}
			return item, true
		},
		snapshot: func() []any {
			items := l.Snapshot()
			out := make([]any, len(items))
			for i, item := range items {
				out[i] = item
			}
			return out
		},
		length: l.Len,
	}
}

// ElemType names the dynamic type the list accepts
func (u *List) ElemType() string { return u.elemType }

// Len returns the number of elements
func (u *List) Len() int { return u.length() }

// Add appends v and returns its index. The index is read after the call
// returned and may be off if other goroutines mutate the list concurrently.
func (u *List) Add(ctx context.Context, v any) (int, error) { return u.add(ctx, v) }

// Insert inserts v at i
func (u *List) Insert(ctx context.Context, i int, v any) error { return u.insert(ctx, i, v) }

// Set overwrites the element at i, false if i is out of range
func (u *List) Set(ctx context.Context, i int, v any) (bool, error) { return u.set(ctx, i, v) }

// Remove removes the first element equal to v.
// An absent element returns an error matching collection.ErrNotFound.
func (u *List) Remove(ctx context.Context, v any) error { return u.remove(ctx, v) }

// Contains reports whether v is in the list. A value of the wrong type never is.
func (u *List) Contains(v any) bool { return u.indexOf(v) >= 0 }

// IndexOf returns the index of v, or -1. A value of the wrong type is never found.
func (u *List) IndexOf(v any) int { return u.indexOf(v) }

// Get returns the element at i, false if i is out of range
func (u *List) Get(i int) (any, bool) { return u.get(i) }

// CopyTo copies the elements into dst starting at dst[at] and returns how many were copied
func (u *List) CopyTo(dst []any, at int) int {
	if at < 0 || at > len(dst) {
		return 0
	}
	return copy(dst[at:], u.snapshot())
}
