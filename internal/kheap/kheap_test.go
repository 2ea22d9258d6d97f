package kheap

import "testing"

func TestAllocReturnsDistinctNonOverlappingBlocks(t *testing.T) {
	h := New(1 << 16)
	a, err := h.Alloc(32)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	b, err := h.Alloc(32)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	a[0] = 1
	if b[0] == 1 {
		t.Fatal("Alloc returned overlapping blocks")
	}
}

func TestFreeRecyclesBlockToSameClass(t *testing.T) {
	h := New(1 << 12) // bump room remains; the free list is tried before the bump region
	a, err := h.Alloc(64)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	h.Free(a, 64)
	b, err := h.Alloc(64)
	if err != nil {
		t.Fatalf("Alloc after Free: %v", err)
	}
	if &a[0] != &b[0] {
		t.Error("Free'd block was not recycled by the next same-class Alloc")
	}
}

func TestAllocExhaustsArena(t *testing.T) {
	h := New(64)
	if _, err := h.Alloc(16); err != nil {
		t.Fatalf("first Alloc: %v", err)
	}
	if _, err := h.Alloc(16); err != nil {
		t.Fatalf("second Alloc: %v", err)
	}
	if _, err := h.Alloc(16); err != nil {
		t.Fatalf("third Alloc: %v", err)
	}
	if _, err := h.Alloc(16); err != nil {
		t.Fatalf("fourth Alloc: %v", err)
	}
	if _, err := h.Alloc(16); err != OutOfMemory {
		t.Errorf("Alloc past arena capacity = %v, want OutOfMemory", err)
	}
}

func TestAllocTooLargeReturnsOutOfMemory(t *testing.T) {
	h := New(1 << 16)
	if _, err := h.Alloc(1 << 21); err != OutOfMemory {
		t.Errorf("Alloc(oversized) = %v, want OutOfMemory", err)
	}
}

func TestFreeOfForeignBlockPanics(t *testing.T) {
	h := New(1 << 12)
	other := make([]byte, 16)
	defer func() {
		if recover() == nil {
			t.Error("Free of a foreign block did not panic")
		}
	}()
	h.Free(other, 16)
}
