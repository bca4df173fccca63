package collection

import (
	"context"
	"runtime/debug"
	"sync/atomic"

	"github.com/ValentinKolb/dObs/lib/common"
	"github.com/ValentinKolb/dObs/lib/dispatch"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
)

// Logger is the logger of the collection package
var Logger = logger.GetLogger(common.LoggerCollection)

// List is an ordered, change-observable list that is safe for concurrent use.
//
// All storage mutation and all listener calls happen on the owner of the
// list's dispatcher. Mutating methods block until the owner has applied the
// change and notified every listener. Read methods take a read lock and work
// on a snapshot; they never dispatch.
type List[T comparable] struct {
	cfg        config
	storage    Storage[T]
	lock       rwLock
	events     *emitter[T]
	metrics    *listMetrics
	dispatcher dispatch.Dispatcher
	priority   atomic.Uint32
	separator  atomic.Pointer[string]

	// set when the list started its own loop
	loop *dispatch.Loop

	// owner only, see publish
	publishing bool
	queue      []*batch[T]
}

// New creates an empty list
func New[T comparable](opts ...Option) *List[T] {
	return NewWithStorage[T](NewSliceStorage[T](), opts...)
}

// From creates a list holding a copy of items
func From[T comparable](items []T, opts ...Option) *List[T] {
	return NewWithStorage[T](NewSliceStorage(items...), opts...)
}

// NewWithStorage creates a list on top of s. The list takes ownership of s;
// it must not be used by anyone else afterwards.
func NewWithStorage[T comparable](s Storage[T], opts ...Option) *List[T] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.name == "" {
		cfg.name = uuid.NewString()[:8]
	}

	l := &List[T]{
		cfg:     cfg,
		storage: s,
		events:  newEmitter[T](cfg.name, cfg.errorHandler),
	}
	l.priority.Store(uint32(cfg.priority))
	l.separator.Store(&cfg.separator)
	l.metrics = newListMetrics(cfg.metricsSet, cfg.name, l.Len)

	if cfg.dispatcher != nil {
		l.dispatcher = cfg.dispatcher
	} else {
		loopOpts := []dispatch.LoopOption{dispatch.WithName(cfg.name)}
		if cfg.metricsSet != nil {
			loopOpts = append(loopOpts, dispatch.WithMetrics(cfg.metricsSet))
		}
		l.loop = dispatch.NewLoop(loopOpts...)
		l.loop.Start()
		l.dispatcher = l.loop
	}

	Logger.Debugf("list %s: created with %d items (own loop: %t)", cfg.name, s.Len(), l.loop != nil)
	return l
}

// Name returns the list name
func (l *List[T]) Name() string { return l.cfg.name }

// Dispatcher returns the owner of the list
func (l *List[T]) Dispatcher() dispatch.Dispatcher { return l.dispatcher }

// Priority returns the priority the list dispatches its work with
func (l *List[T]) Priority() dispatch.Priority { return dispatch.Priority(l.priority.Load()) }

// SetPriority changes the priority of work dispatched after the call
func (l *List[T]) SetPriority(p dispatch.Priority) { l.priority.Store(uint32(p)) }

// SetSeparator changes the separator String puts between elements
func (l *List[T]) SetSeparator(sep string) { l.separator.Store(&sep) }

// Close stops the loop the list started for itself.
// A dispatcher passed with WithDispatcher is left running.
func (l *List[T]) Close() {
	if l.loop != nil {
		l.loop.Close()
		Logger.Debugf("list %s: closed", l.cfg.name)
	}
}

// --------------------------------------------------------------------------
// Subscriptions
// --------------------------------------------------------------------------

// Subscribe registers fn for change records and returns a func that removes it
func (l *List[T]) Subscribe(fn ChangeListener[T]) (unsubscribe func()) {
	return l.events.subscribe(fn)
}

// SubscribeAttributes registers fn for attribute notifications
// and returns a func that removes it
func (l *List[T]) SubscribeAttributes(fn AttributeListener) (unsubscribe func()) {
	return l.events.subscribeAttributes(fn)
}

// --------------------------------------------------------------------------
// Mutation core
// --------------------------------------------------------------------------

// batch collects the outcome of one locked phase
type batch[T comparable] struct {
	records []Change[T]
	silent  bool // drop records, see WithoutNotify
	counted bool // Count and HasItems listeners must be told
	changed bool // storage was modified, recorded or not
}

func (b *batch[T]) record(c Change[T]) {
	b.changed = true
	if !b.silent {
		b.records = append(b.records, c)
	}
}

// partial turns the batch of a locked phase that failed after modifying
// storage into what listeners must still be told. Suppressed records become
// one Reset.
func (b *batch[T]) partial() {
	b.counted = true
	if b.silent {
		b.records = []Change[T]{resetChange[T]()}
	}
}

type lockedFunc[T comparable] func(s Storage[T], b *batch[T]) error

// mutate runs fn on the owner under the write lock, then publishes the batch
// on the owner outside the lock. If fn fails or panics, whatever it applied
// before is still published and the error is returned.
func (l *List[T]) mutate(ctx context.Context, silent bool, fn lockedFunc[T]) error {
	return l.dispatcher.Dispatch(ctx, l.Priority(), func(ctx context.Context) error {
		b := &batch[T]{silent: silent}
		var err error
		l.lock.write(func() {
			err = runLocked(l.storage, b, fn)
		})
		if err != nil {
			if !b.changed {
				return err
			}
			b.partial()
		}
		l.publish(ctx, b)
		return err
	})
}

func runLocked[T comparable](s Storage[T], b *batch[T], fn lockedFunc[T]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &dispatch.PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn(s, b)
}

// publish delivers b after every batch published before it. A listener that
// mutates the list inline publishes while an earlier batch is still being
// delivered; its batch is queued, so all listeners see records in the order
// they were applied.
func (l *List[T]) publish(ctx context.Context, b *batch[T]) {
	l.queue = append(l.queue, b)
	if l.publishing {
		return
	}
	l.publishing = true
	defer func() {
		l.publishing = false
		l.queue = nil
	}()

	for len(l.queue) > 0 {
		next := l.queue[0]
		l.queue = l.queue[1:]
		l.deliver(ctx, next)
	}
}

func (l *List[T]) deliver(ctx context.Context, b *batch[T]) {
	for _, c := range b.records {
		l.metrics.observe(c.Action)
	}
	l.events.emit(ctx, b.records)
	if b.counted {
		l.events.emitAttributes(ctx, AttrCount, AttrHasItems)
	}
}

// --------------------------------------------------------------------------
// Add & Insert
// --------------------------------------------------------------------------

// Add appends item
func (l *List[T]) Add(ctx context.Context, item T) error {
	return l.mutate(ctx, false, func(s Storage[T], b *batch[T]) error {
		if err := s.Insert(s.Len(), item); err != nil {
			return err
		}
		b.record(addChange(item))
		b.counted = true
		return nil
	})
}

// AddRange appends items, emitting one Add record per item in order
func (l *List[T]) AddRange(ctx context.Context, items []T, opts ...MutateOption) error {
	mc := newMutateConfig(opts)
	return l.mutate(ctx, mc.silent, func(s Storage[T], b *batch[T]) error {
		if err := s.Insert(s.Len(), items...); err != nil {
			return err
		}
		for _, item := range items {
			b.record(addChange(item))
		}
		b.counted = len(items) > 0
		return nil
	})
}

// Insert inserts item at index. A negative index inserts at the front.
// An index beyond Len fails with an error matching ErrIndexOutOfRange and
// leaves the list unchanged.
func (l *List[T]) Insert(ctx context.Context, index int, item T) error {
	index = max(index, 0)
	return l.mutate(ctx, false, func(s Storage[T], b *batch[T]) error {
		if err := s.Insert(index, item); err != nil {
			return err
		}
		b.record(insertChange(item, index))
		b.counted = true
		return nil
	})
}

// GetOrInsert returns the first element satisfying pred, or inserts item at
// index and returns it. pred runs on the owner under the write lock and must
// not call back into the list.
func (l *List[T]) GetOrInsert(ctx context.Context, pred func(T) bool, index int, item T) (T, error) {
	index = max(index, 0)
	var result T
	err := l.mutate(ctx, false, func(s Storage[T], b *batch[T]) error {
		if i := s.IndexFunc(pred); i >= 0 {
			result = s.Get(i)
			return nil
		}
		if err := s.Insert(index, item); err != nil {
			return err
		}
		result = item
		b.record(insertChange(item, index))
		b.counted = true
		return nil
	})
	return result, err
}

// --------------------------------------------------------------------------
// Remove
// --------------------------------------------------------------------------

// RemoveAt removes the element at index.
// An index out of range is a no-op: false, no record, no attribute notification.
func (l *List[T]) RemoveAt(ctx context.Context, index int) (bool, error) {
	var removed bool
	err := l.mutate(ctx, false, func(s Storage[T], b *batch[T]) error {
		if index < 0 || index >= s.Len() {
			return nil
		}
		item := s.RemoveAt(index)
		b.record(removeChange(item, index))
		b.counted = true
		removed = true
		return nil
	})
	return removed, err
}

// Remove removes the first element equal to item and reports whether there was one
func (l *List[T]) Remove(ctx context.Context, item T) (bool, error) {
	var removed bool
	err := l.mutate(ctx, false, func(s Storage[T], b *batch[T]) error {
		i := s.IndexOf(item)
		if i < 0 {
			return nil
		}
		s.RemoveAt(i)
		b.record(removeChange(item, i))
		b.counted = true
		removed = true
		return nil
	})
	return removed, err
}

// RemoveRange removes the first occurrence of every item that is present,
// in argument order, and returns how many were removed.
func (l *List[T]) RemoveRange(ctx context.Context, items []T, opts ...MutateOption) (int, error) {
	mc := newMutateConfig(opts)
	var n int
	err := l.mutate(ctx, mc.silent, func(s Storage[T], b *batch[T]) error {
		for _, item := range items {
			i := s.IndexOf(item)
			if i < 0 {
				continue
			}
			s.RemoveAt(i)
			b.record(removeChange(item, i))
			n++
		}
		b.counted = n > 0
		return nil
	})
	return n, err
}

// --------------------------------------------------------------------------
// Replace & Move
// --------------------------------------------------------------------------

// Replace overwrites the first element equal to oldItem with newItem.
// If oldItem is absent, newItem is appended and an Add record is emitted instead.
func (l *List[T]) Replace(ctx context.Context, oldItem, newItem T) error {
	return l.mutate(ctx, false, func(s Storage[T], b *batch[T]) error {
		if i := s.IndexOf(oldItem); i >= 0 {
			s.Set(i, newItem)
			b.record(replaceChange(newItem, oldItem, i))
		} else {
			if err := s.Insert(s.Len(), newItem); err != nil {
				return err
			}
			b.record(addChange(newItem))
		}
		b.counted = true
		return nil
	})
}

// Set overwrites the element at index and emits a Replace record.
// An index out of range is a no-op returning false.
func (l *List[T]) Set(ctx context.Context, index int, item T) (bool, error) {
	var ok bool
	err := l.mutate(ctx, false, func(s Storage[T], b *batch[T]) error {
		if index < 0 || index >= s.Len() {
			return nil
		}
		old := s.Get(index)
		s.Set(index, item)
		b.record(replaceChange(item, old, index))
		ok = true
		return nil
	})
	return ok, err
}

// Move moves the first element equal to item to newIndex.
// It returns false if item is absent, and an error matching ErrIndexOutOfRange
// if newIndex is outside [0, Len-1].
func (l *List[T]) Move(ctx context.Context, item T, newIndex int) (bool, error) {
	var moved bool
	err := l.mutate(ctx, false, func(s Storage[T], b *batch[T]) error {
		i := s.IndexOf(item)
		if i < 0 {
			return nil
		}
		if err := move(s, b, i, newIndex); err != nil {
			return err
		}
		moved = true
		return nil
	})
	return moved, err
}

// MoveAt moves the element at oldIndex to newIndex.
// It returns false if oldIndex is out of range, and an error matching
// ErrIndexOutOfRange if newIndex is outside [0, Len-1].
func (l *List[T]) MoveAt(ctx context.Context, oldIndex, newIndex int) (bool, error) {
	var moved bool
	err := l.mutate(ctx, false, func(s Storage[T], b *batch[T]) error {
		if oldIndex < 0 || oldIndex >= s.Len() {
			return nil
		}
		if err := move(s, b, oldIndex, newIndex); err != nil {
			return err
		}
		moved = true
		return nil
	})
	return moved, err
}

// move removes the element at from and reinserts it at to.
// The count does not change, so attribute listeners are not told.
func move[T comparable](s Storage[T], b *batch[T], from, to int) error {
	if to < 0 || to >= s.Len() {
		return errIndexOutOfRange(to, s.Len()-1)
	}
	item := s.RemoveAt(from)
	if err := s.Insert(to, item); err != nil {
		b.record(removeChange(item, from))
		return err
	}
	b.record(moveChange(item, to, from))
	return nil
}

// --------------------------------------------------------------------------
// Reset class
// --------------------------------------------------------------------------

// Clear removes every element and emits one Reset record
func (l *List[T]) Clear(ctx context.Context) error {
	return l.reset(ctx, nil)
}

// ReplaceAll replaces the content with items and emits one Reset record
func (l *List[T]) ReplaceAll(ctx context.Context, items []T) error {
	return l.reset(ctx, items)
}

// ClearAndAdd replaces the content with item and emits one Reset record
func (l *List[T]) ClearAndAdd(ctx context.Context, item T) error {
	return l.reset(ctx, []T{item})
}

// ClearAndAddRange replaces the content with items and emits one Reset record
func (l *List[T]) ClearAndAddRange(ctx context.Context, items []T) error {
	return l.reset(ctx, items)
}

func (l *List[T]) reset(ctx context.Context, items []T) error {
	return l.mutate(ctx, false, func(s Storage[T], b *batch[T]) error {
		s.Reset(items)
		b.record(resetChange[T]())
		b.counted = true
		return nil
	})
}

// Sort sorts the list stably by cmp and emits a Reset record unless
// WithoutNotify is given.
func (l *List[T]) Sort(ctx context.Context, cmp func(a, b T) int, opts ...MutateOption) error {
	mc := newMutateConfig(opts)
	return l.mutate(ctx, mc.silent, func(s Storage[T], b *batch[T]) error {
		// recorded first, a panicking cmp may leave the order changed
		b.record(resetChange[T]())
		s.Sort(cmp)
		return nil
	})
}

// NotifyReset emits a Reset record without touching the list.
// Every call emits one record.
func (l *List[T]) NotifyReset(ctx context.Context) error {
	return l.dispatcher.Dispatch(ctx, l.Priority(), func(ctx context.Context) error {
		l.publish(ctx, &batch[T]{records: []Change[T]{resetChange[T]()}})
		return nil
	})
}
