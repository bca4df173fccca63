// Package util
//
// This file provides a min-heap of keyed values ordered by a uint64 rank.
//
// It combines a binary heap with a map so that an entry can be found by key
// and re-ranked in place: O(log n) AddItem, PopMin and rank updates.
//
// The dispatch loop stores pending work here, keyed by sequence number and
// ranked by (priority, sequence), so the most urgent and oldest work is popped first.
//
// Concurrency: MapHeap is not thread-safe. It is meant to be owned by a single goroutine.
package util

import (
	"container/heap"
	"strconv"
)

// heapItem is one entry of the heap
type heapItem[V any] struct {
	Key   uint64
	Rank  uint64
	Value V
	index int // maintained by container/heap
}

func (i *heapItem[V]) String() string {
	return "{Key: " + strconv.FormatUint(i.Key, 10) + ", Rank: " + strconv.FormatUint(i.Rank, 10) + "}"
}

// MapHeap is a min-heap by rank with key-based access
type MapHeap[V any] struct {
	items    []*heapItem[V]
	itemsMap map[uint64]*heapItem[V]
}

// NewMapHeap creates an empty heap
func NewMapHeap[V any]() *MapHeap[V] {
	return &MapHeap[V]{
		items:    make([]*heapItem[V], 0),
		itemsMap: make(map[uint64]*heapItem[V]),
	}
}

// Len is part of heap.Interface
func (h *MapHeap[V]) Len() int { return len(h.items) }

// Less is part of heap.Interface
func (h *MapHeap[V]) Less(i, j int) bool {
	return h.items[i].Rank < h.items[j].Rank
}

// Swap is part of heap.Interface
func (h *MapHeap[V]) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].index = i
	h.items[j].index = j
}

// Push is part of heap.Interface, use AddItem instead
func (h *MapHeap[V]) Push(x any) {
	item := x.(*heapItem[V])
	item.index = len(h.items)
	h.items = append(h.items, item)
	h.itemsMap[item.Key] = item
}

// Pop is part of heap.Interface, use PopMin instead
func (h *MapHeap[V]) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	h.items = old[:n-1]
	delete(h.itemsMap, item.Key)
	return item
}

// AddItem adds a value under key, or re-ranks the existing entry for key
func (h *MapHeap[V]) AddItem(key, rank uint64, value V) {
	if item, exists := h.itemsMap[key]; exists {
		item.Rank = rank
		item.Value = value
		heap.Fix(h, item.index)
		return
	}
	heap.Push(h, &heapItem[V]{Key: key, Rank: rank, Value: value})
}

// PopMin removes and returns the value with the lowest rank
func (h *MapHeap[V]) PopMin() (V, bool) {
	if len(h.items) == 0 {
		var zero V
		return zero, false
	}
	item := heap.Pop(h).(*heapItem[V])
	return item.Value, true
}
