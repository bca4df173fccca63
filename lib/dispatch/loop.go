package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dObs/lib/util"
	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"
)

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// LoopOption configures a Loop
type LoopOption func(*Loop)

// WithName sets the name used in logs and metric labels.
// Defaults to a random short id.
func WithName(name string) LoopOption {
	return func(l *Loop) { l.name = name }
}

// WithMetrics registers the loop instruments in set
func WithMetrics(set *metrics.Set) LoopOption {
	return func(l *Loop) { l.metricsSet = set }
}

// --------------------------------------------------------------------------
// Task
// --------------------------------------------------------------------------

const (
	taskPending int32 = iota
	taskRunning
	taskCancelled
)

// task is one Dispatch call waiting for the owner
type task struct {
	ctx      context.Context
	fn       Work
	priority Priority
	seq      uint64
	enqueued time.Time

	// pending -> running (owner) or pending -> cancelled (caller), never both
	state atomic.Int32
	done  chan error
}

// rank orders tasks by priority (highest first) and sequence number (oldest first).
// Priorities above PriorityHigh rank as PriorityHigh.
func (t *task) rank() uint64 {
	p := min(t.priority, maxPriority)
	return uint64(maxPriority-p)<<56 | (t.seq & (1<<56 - 1))
}

// ownerToken marks a context as belonging to work run by one loop.
// It is invalidated once that work returns.
type ownerToken struct {
	loop   *Loop
	active atomic.Bool
}

type ownerKey struct{}

// --------------------------------------------------------------------------
// Loop
// --------------------------------------------------------------------------

// Loop is a Dispatcher whose owner is the goroutine calling Run.
type Loop struct {
	name       string
	metricsSet *metrics.Set

	inbox   *util.LockFreeMPSC[*task]
	pending *util.MapHeap[*task] // owned by the Run goroutine
	seq     atomic.Uint64

	inbound atomic.Int64 // pushed to the inbox, not yet received by the owner
	queued  atomic.Int64 // accepted, not yet started or discarded

	// serializes inbox pushes against Close
	mu sync.RWMutex

	running atomic.Bool
	done    chan struct{}

	dispatched *metrics.Counter
	inlined    *metrics.Counter
	waitTime   *metrics.Histogram
}

// NewLoop creates a loop. It executes nothing until Run or Start is called.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		inbox:   util.NewLockFreeMPSC[*task](),
		pending: util.NewMapHeap[*task](),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.name == "" {
		l.name = uuid.NewString()[:8]
	}

	if l.metricsSet != nil {
		l.dispatched = l.metricsSet.GetOrCreateCounter(fmt.Sprintf(`dobs_dispatch_total{loop=%q}`, l.name))
		l.inlined = l.metricsSet.GetOrCreateCounter(fmt.Sprintf(`dobs_dispatch_inline_total{loop=%q}`, l.name))
		l.waitTime = l.metricsSet.GetOrCreateHistogram(fmt.Sprintf(`dobs_dispatch_wait_seconds{loop=%q}`, l.name))
		l.metricsSet.GetOrCreateGauge(fmt.Sprintf(`dobs_dispatch_pending{loop=%q}`, l.name), func() float64 {
			return float64(l.queued.Load())
		})
	}
	return l
}

// Name returns the loop name
func (l *Loop) Name() string { return l.name }

// Pending returns the number of accepted calls the owner has not started yet
func (l *Loop) Pending() int { return int(l.queued.Load()) }

// Done is closed once the loop has stopped and will run no more work
func (l *Loop) Done() <-chan struct{} { return l.done }

// IsOwner reports whether ctx was handed out by this loop to work that is still running
func (l *Loop) IsOwner(ctx context.Context) bool {
	token, ok := ctx.Value(ownerKey{}).(*ownerToken)
	return ok && token.loop == l && token.active.Load()
}

// Dispatch runs fn on the owner goroutine and returns its error.
// It blocks until fn has completed, or until ctx is done before fn was started.
func (l *Loop) Dispatch(ctx context.Context, p Priority, fn Work) error {
	if l.IsOwner(ctx) {
		if l.inlined != nil {
			l.inlined.Inc()
		}
		return runWork(ctx, fn)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t := &task{
		ctx:      ctx,
		fn:       fn,
		priority: p,
		seq:      l.seq.Add(1),
		enqueued: time.Now(),
		done:     make(chan error, 1),
	}
	if !l.push(t) {
		return ErrClosed
	}
	if l.dispatched != nil {
		l.dispatched.Inc()
	}

	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		if t.state.CompareAndSwap(taskPending, taskCancelled) {
			return ctx.Err()
		}
		// the owner already started the work, it runs to completion
		return <-t.done
	}
}

func (l *Loop) push(t *task) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.inbox.IsClosed() {
		return false
	}
	l.inbound.Add(1)
	if !l.inbox.Push(t) {
		l.inbound.Add(-1)
		return false
	}
	l.queued.Add(1)
	return true
}

// Start runs the loop on a new goroutine.
// It does nothing if the loop is already running or closed.
func (l *Loop) Start() {
	if !l.running.CompareAndSwap(false, true) {
		Logger.Warningf("loop %s: start ignored, already running or closed", l.name)
		return
	}
	go func() {
		_ = l.run(context.Background())
	}()
}

// Run makes the calling goroutine the owner and executes work until the loop
// is closed and every accepted call has been handled. Cancelling ctx closes
// the loop; Run then drains and returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		if l.isClosed() {
			return ErrClosed
		}
		return ErrAlreadyRunning
	}
	return l.run(ctx)
}

func (l *Loop) run(ctx context.Context) error {
	defer close(l.done)
	Logger.Debugf("loop %s: started", l.name)

	var runErr error
	recv := l.inbox.Recv()
	stop := ctx.Done()

	for recv != nil || l.pending.Len() > 0 {
		if l.pending.Len() == 0 {
			select {
			case t, ok := <-recv:
				if !ok {
					recv = nil
					continue
				}
				l.inbound.Add(-1)
				l.schedule(t)
			case <-stop:
				stop = nil
				runErr = ctx.Err()
				l.Close()
				continue
			}
		}

		recv = l.collect(recv)
		if t, ok := l.pending.PopMin(); ok {
			l.execute(t)
		}
	}

	Logger.Debugf("loop %s: stopped", l.name)
	return runErr
}

// collect moves every call already pushed to the inbox into the pending heap
// so that priorities apply across all of them.
func (l *Loop) collect(recv <-chan *task) <-chan *task {
	for recv != nil && l.inbound.Load() > 0 {
		t, ok := <-recv
		if !ok {
			return nil
		}
		l.inbound.Add(-1)
		l.schedule(t)
	}
	return recv
}

func (l *Loop) schedule(t *task) {
	l.pending.AddItem(t.seq, t.rank(), t)
}

func (l *Loop) execute(t *task) {
	l.queued.Add(-1)
	if !t.state.CompareAndSwap(taskPending, taskRunning) {
		// the caller gave up before the work started
		return
	}
	if l.waitTime != nil {
		l.waitTime.UpdateDuration(t.enqueued)
	}

	token := &ownerToken{loop: l}
	token.active.Store(true)
	ctx := context.WithValue(context.WithoutCancel(t.ctx), ownerKey{}, token)

	err := runWork(ctx, t.fn)
	token.active.Store(false)

	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		Logger.Warningf("loop %s: recovered panic in work: %v", l.name, panicErr.Value)
	}
	t.done <- err
}

// Close stops accepting work. Work accepted before Close still runs.
// If the loop was never started, accepted work is rejected with ErrClosed.
// Close does not wait; use Done for that.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.inbox.IsClosed() {
		l.mu.Unlock()
		return
	}
	l.inbox.Close()
	l.mu.Unlock()

	if l.running.CompareAndSwap(false, true) {
		for t := range l.inbox.Recv() {
			l.inbound.Add(-1)
			l.queued.Add(-1)
			if t.state.CompareAndSwap(taskPending, taskCancelled) {
				t.done <- ErrClosed
			}
		}
		close(l.done)
	}
}

func (l *Loop) isClosed() bool {
	return l.inbox.IsClosed()
}

// runWork runs fn and turns a panic into a *PanicError
func runWork(ctx context.Context, fn Work) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn(ctx)
}

var _ Dispatcher = (*Loop)(nil)
