// Package dispatch runs work on a single owner goroutine.
//
// A Dispatcher records one owner and can marshal a unit of work onto it. The
// caller blocks until the work has completed and receives its error, so every
// call is synchronous from the caller's point of view. When the caller already
// is the owner the work runs inline, on the caller's stack, without queueing.
//
// Ownership:
//
//	Go has no goroutine identity, so ownership travels on the context. Work run
//	by a Loop receives a context carrying an owner marker for that loop. Passing
//	this context back into Dispatch (directly or through a List that uses the
//	loop) runs the nested work inline instead of deadlocking on the loop that is
//	busy running the caller. The marker is only valid while the work it was
//	handed to is running; a context that outlives its work is treated as a
//	foreign caller again. The context must not be handed to other goroutines
//	while the work is running. Work that dispatches onto its own loop with an
//	unrelated context, e.g. context.Background(), blocks forever.
//
// Scheduling:
//
//	Pending work is ordered by Priority first (PriorityHigh before PriorityIdle)
//	and by arrival within one priority. Producers push into a lock-free MPSC
//	queue (util.LockFreeMPSC); the owner drains it into a map-backed heap
//	(util.MapHeap) and always executes the minimum.
//
// Cancellation:
//
//	If the caller's context is done before the owner starts the work, the work
//	is skipped and Dispatch returns ctx.Err(). Once started, the work runs to
//	completion with a context that is no longer cancelled by the caller, and
//	Dispatch waits for its result.
//
// Failures:
//
//	A panic inside work is recovered on the goroutine that ran it and returned
//	to the caller as a *PanicError. A closed loop rejects new work with ErrClosed.
//
// Usage Example:
//
//	loop := dispatch.NewLoop(dispatch.WithName("ui"))
//	go func() { _ = loop.Run(ctx) }()
//	defer loop.Close()
//
//	n, err := dispatch.Invoke(ctx, loop, dispatch.PriorityNormal, func(ctx context.Context) (int, error) {
//	    return compute(), nil
//	})
package dispatch
