// Package testing provides standardised tests and benchmarks for
// list implementations that satisfy the collection.Observable interface.
//
// The package contains:
//   - suite: tests for the ordering, notification and concurrency contract of an Observable
//   - benchmarks: throughput of common list operations, single and multi goroutine
//
// The factory decides which dispatcher the list runs on, so the same suite
// can check a list with its own loop, lists sharing one loop, or a list whose
// owner is a goroutine the test controls.
//
// Example usage:
//
//	factory := func(t testing.TB, items ...int) collection.Observable[int] {
//		l := collection.From(items)
//		t.Cleanup(l.Close)
//		return l
//	}
//
//	// Running the standard test suite
//	cltesting.RunListTests(t, "OwnLoop", factory)
//
//	// Running performance benchmarks
//	cltesting.RunListBenchmarks(b, "OwnLoop", factory)
package testing
