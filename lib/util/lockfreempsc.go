// Package util provides a lock-free Multi-Producer Single-Consumer (MPSC) queue implementation.
//
// Features and Guarantees:
//
//   - Lock-Free: producers only use atomic operations, even under high contention
//   - Unbounded Size: the queue grows as needed, limited only by available memory
//   - Thread-Safe writes: any number of goroutines may Push() concurrently
//   - Single Consumer: exactly one goroutine consumes values via the Recv() channel
//   - Per-Producer FIFO: values pushed by one goroutine are received in push order.
//     Across producers the order is decided by which Push completes first.
package util

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// node is a single element of the linked list backing the queue
type node[T any] struct {
	value T
	next  atomic.Pointer[node[T]]
}

// LockFreeMPSC is a lock-free multi-producer single-consumer queue.
// A forwarding goroutine moves values from the linked list to the Recv() channel.
type LockFreeMPSC[T any] struct {
	head   atomic.Pointer[node[T]]
	tail   atomic.Pointer[node[T]]
	out    chan T
	closed atomic.Bool

	// wakes the forwarder when the list runs dry
	mu   sync.Mutex
	cond *sync.Cond
}

// NewLockFreeMPSC creates a new queue and starts its forwarding goroutine
func NewLockFreeMPSC[T any]() *LockFreeMPSC[T] {
	sentinel := &node[T]{}

	q := &LockFreeMPSC[T]{
		out: make(chan T),
	}
	q.cond = sync.NewCond(&q.mu)

	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	go q.forward()

	return q
}

// Push appends a value to the queue.
// Returns false if the queue is closed.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (q *LockFreeMPSC[T]) Push(value T) bool {
	if q.closed.Load() {
		return false
	}

	n := &node[T]{value: value}

	var spins uint8
	for {
		tail := q.tail.Load()
		next := tail.next.Load()

		if next == nil {
			if tail.next.CompareAndSwap(nil, n) {
				// a failed CAS here means another producer already advanced the tail
				q.tail.CompareAndSwap(tail, n)

				q.mu.Lock()
				q.cond.Signal()
				q.mu.Unlock()
				return true
			}
		} else {
			// help a producer that linked its node but has not moved the tail yet
			q.tail.CompareAndSwap(tail, next)
		}

		// spin briefly under contention, then yield
		if spins < 8 {
			spins++
			for i := 0; i < 1<<spins; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// forward moves values from the linked list to the output channel
// until the queue is closed and empty.
func (q *LockFreeMPSC[T]) forward() {
	defer close(q.out)

	var zero T
	for {
		head := q.head.Load()
		next := head.next.Load()

		if next != nil {
			value := next.value
			q.head.Store(next)

			q.out <- value

			// release the reference held by the new sentinel
			next.value = zero
			continue
		}

		if q.closed.Load() {
			return
		}

		q.mu.Lock()
		if q.head.Load().next.Load() == nil && !q.closed.Load() {
			q.cond.Wait()
		}
		q.mu.Unlock()
	}
}

// Recv returns the receive-only channel of the queue.
// The channel is closed once the queue is closed and every pushed value was delivered.
func (q *LockFreeMPSC[T]) Recv() <-chan T {
	return q.out
}

// Close stops further pushes. Values already pushed are still delivered.
//
// Pushes racing with Close may or may not be accepted; callers that need a
// hard cut-off must serialize Push and Close themselves.
func (q *LockFreeMPSC[T]) Close() {
	q.closed.Store(true)

	q.mu.Lock()
	q.cond.Signal()
	q.mu.Unlock()
}

// IsClosed returns true if the queue is closed.
func (q *LockFreeMPSC[T]) IsClosed() bool {
	return q.closed.Load()
}
