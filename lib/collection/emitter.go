package collection

import (
	"cmp"
	"context"
	"runtime/debug"
	"slices"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// ChangeListener receives every change record of a list, on the owner goroutine.
// ctx belongs to the owner: mutating the same list with it runs inline.
type ChangeListener[T any] func(ctx context.Context, c Change[T])

// AttributeListener is told when a derived attribute such as AttrCount may have changed
type AttributeListener func(ctx context.Context, attr Attribute)

type subscription[L any] struct {
	id uint64
	fn L
}

// emitter owns the listener registries of one list.
// Listeners fire in subscription order; a panicking listener is isolated
// from the others and from the list.
type emitter[T any] struct {
	name    string
	onError func(error)

	nextID     atomic.Uint64
	changes    *xsync.MapOf[uint64, ChangeListener[T]]
	attributes *xsync.MapOf[uint64, AttributeListener]
}

func newEmitter[T any](name string, onError func(error)) *emitter[T] {
	return &emitter[T]{
		name:       name,
		onError:    onError,
		changes:    xsync.NewMapOf[uint64, ChangeListener[T]](),
		attributes: xsync.NewMapOf[uint64, AttributeListener](),
	}
}

func (e *emitter[T]) subscribe(fn ChangeListener[T]) func() {
	id := e.nextID.Add(1)
	e.changes.Store(id, fn)
	return func() { e.changes.Delete(id) }
}

func (e *emitter[T]) subscribeAttributes(fn AttributeListener) func() {
	id := e.nextID.Add(1)
	e.attributes.Store(id, fn)
	return func() { e.attributes.Delete(id) }
}

func (e *emitter[T]) hasChangeListeners() bool {
	return e.changes.Size() > 0
}

// emit delivers records in order; each record reaches every listener before the next one
func (e *emitter[T]) emit(ctx context.Context, records []Change[T]) {
	if len(records) == 0 {
		return
	}
	listeners := ordered(e.changes)
	for _, c := range records {
		for _, l := range listeners {
			e.call(l.id, func() { l.fn(ctx, c) })
		}
	}
}

func (e *emitter[T]) emitAttributes(ctx context.Context, attrs ...Attribute) {
	listeners := ordered(e.attributes)
	for _, attr := range attrs {
		for _, l := range listeners {
			e.call(l.id, func() { l.fn(ctx, attr) })
		}
	}
}

// call runs one listener and reports a panic to the error handler
func (e *emitter[T]) call(id uint64, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.report(&ListenerError{List: e.name, Listener: id, Value: r, Stack: debug.Stack()})
		}
	}()
	fn()
}

func (e *emitter[T]) report(err *ListenerError) {
	if e.onError == nil {
		return
	}
	defer func() { _ = recover() }()
	e.onError(err)
}

// ordered snapshots a registry sorted by subscription id
func ordered[L any](m *xsync.MapOf[uint64, L]) []subscription[L] {
	subs := make([]subscription[L], 0, m.Size())
	m.Range(func(id uint64, fn L) bool {
		subs = append(subs, subscription[L]{id: id, fn: fn})
		return true
	})
	slices.SortFunc(subs, func(a, b subscription[L]) int { return cmp.Compare(a.id, b.id) })
	return subs
}
