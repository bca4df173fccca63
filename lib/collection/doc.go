// Package collection provides List, an ordered list that can be mutated from
// any goroutine and reports every change to its listeners on one owner
// goroutine.
//
// Core Functionality:
//   - Add, Insert, Remove, Replace, Move, Set and their range variants
//   - Reset-class operations (Clear, ReplaceAll, ClearAndAdd, ClearAndAddRange, Sort)
//   - Keyed upsert (UpdateByKey) and locked lookup-or-insert (GetOrInsert)
//   - Snapshot-based reads: Get, Find, Where, All, Values, Select, BinarySearch
//   - Change and attribute listeners with per-listener panic isolation
//
// Architecture:
//
//	A List owns a Storage, a reader/writer lock and two listener registries,
//	and delegates to a dispatch.Dispatcher whose owner goroutine does all
//	mutation and notification. Every mutating call runs in two phases on the
//	owner:
//
//	  1. Locked phase: under the write lock, validate the arguments against the
//	     current content, apply the change and collect its change records.
//	     Validation failures end the call here with a result value and no records.
//	     A failure or panic after storage was modified still publishes what was
//	     applied (one Reset if its records were suppressed) and then returns the
//	     error, a panic as a *dispatch.PanicError.
//	  2. Notification phase: after the lock is released, fire every record in
//	     production order, then AttrCount and AttrHasItems if the call could
//	     have changed the number of elements.
//
//	Because the owner runs one call at a time and the write lock serializes
//	storage access, listeners observe records in exactly the order the
//	mutations were applied. Callers that are not the owner block until both
//	phases are done. Listeners get the owner context; calling back into the
//	list with it runs inline instead of deadlocking. The nested call returns
//	once its change is applied; its records are queued and delivered after
//	every listener has seen the records of the outer call.
//
// Edge-case policy:
//
//	RemoveAt, Set and MoveAt with an index out of range, and Remove, Move with
//	an absent item, are no-ops that return false. Insert and GetOrInsert clamp a
//	negative index to 0 but reject an index beyond Len with an error matching
//	ErrIndexOutOfRange. Move and MoveAt reject a target index outside
//	[0, Len-1] the same way. Replace with an absent old item appends the new
//	item and emits an Add record.
//
// Listener failures:
//
//	A listener that panics is recovered. The panic never reaches the list, the
//	owner or the other listeners. It is handed to the WithErrorHandler hook as a
//	*ListenerError if one is set and dropped otherwise. The package does not
//	log listener failures.
//
// Locking constraints:
//
//	The lock is not reentrant. Code that runs while it is held (the predicate of
//	GetOrInsert, the key func of UpdateByKey, comparison funcs of Sort) must not
//	call back into the same list. Predicates and selectors of read accessors run
//	on a snapshot after the lock was released and may do anything.
//
// Usage Example:
//
//	list := collection.New[string](collection.WithName("todo"))
//	defer list.Close()
//
//	unsubscribe := list.Subscribe(func(ctx context.Context, c collection.Change[string]) {
//	    fmt.Println(c)
//	})
//	defer unsubscribe()
//
//	_ = list.Add(ctx, "write docs")
//	_, _ = list.Remove(ctx, "write docs")
package collection
