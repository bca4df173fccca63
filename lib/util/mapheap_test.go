package util

import (
	"sort"
	"testing"
)

func TestNewMapHeap(t *testing.T) {
	mh := NewMapHeap[string]()

	if mh.Len() != 0 {
		t.Errorf("New heap should be empty, but has length %d", mh.Len())
	}
	if _, ok := mh.PopMin(); ok {
		t.Error("PopMin on empty heap should return ok=false")
	}
}

func TestAddItem(t *testing.T) {
	mh := NewMapHeap[string]()

	mh.AddItem(1, 100, "a")
	mh.AddItem(2, 200, "b")
	mh.AddItem(3, 50, "c")

	if mh.Len() != 3 {
		t.Errorf("Heap should have 3 items, but has %d", mh.Len())
	}

	v, ok := mh.PopMin()
	if !ok || v != "c" {
		t.Errorf("Expected min item to be c, got %q (ok=%t)", v, ok)
	}
}

func TestReRank(t *testing.T) {
	mh := NewMapHeap[string]()

	mh.AddItem(1, 100, "a")
	mh.AddItem(2, 200, "b")
	mh.AddItem(1, 300, "a2")

	if mh.Len() != 2 {
		t.Errorf("Re-ranking must not add an item, heap has %d", mh.Len())
	}

	v, _ := mh.PopMin()
	if v != "b" {
		t.Errorf("Expected b, got %s", v)
	}
	v, _ = mh.PopMin()
	if v != "a2" {
		t.Errorf("Expected re-ranked value a2, got %s", v)
	}
}

func TestPopOrder(t *testing.T) {
	mh := NewMapHeap[uint64]()

	items := []struct {
		key  uint64
		rank uint64
	}{
		{5, 50}, {3, 30}, {1, 10}, {4, 40}, {2, 20},
	}
	for _, item := range items {
		mh.AddItem(item.key, item.rank, item.key)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].rank < items[j].rank })

	for i, expected := range items {
		v, ok := mh.PopMin()
		if !ok {
			t.Fatalf("Heap empty after %d items", i)
		}
		if v != expected.key {
			t.Errorf("Pop %d: expected key %d, got %d", i, expected.key, v)
		}
		if mh.Len() != len(items)-i-1 {
			t.Errorf("Pop %d: expected %d items left, got %d", i, len(items)-i-1, mh.Len())
		}
	}

	if mh.Len() != 0 {
		t.Errorf("Heap should be empty after popping all items, has %d items", mh.Len())
	}
}
