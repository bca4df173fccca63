// Package util provides the low-level building blocks used by the dispatch
// loop and the command line tools.
//
// The package contains:
//   - lockfreempsc: A lock-free Multi-Producer Single-Consumer (MPSC) queue, used as the inbox of an owner loop
//   - mapheap: A keyed min-heap, used to order pending work by priority and arrival
//   - statistics: Summary statistics and a fairness score for sample sets
//
// None of these types know about lists or change notifications; they can be
// reused by any component that funnels work from many goroutines into one.
package util
