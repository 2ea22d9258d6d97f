package memset

import (
	"testing"

	"rvkernel/internal/frame"
	"rvkernel/internal/pagetable"
)

func setup(t *testing.T) {
	t.Helper()
	frame.Init(0, 4096)
}

func TestInsertFramedAreaAndRemove(t *testing.T) {
	setup(t)
	ms, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	lo, hi := uint64(0x1000), uint64(0x4000)
	if err := ms.InsertFramedArea(lo, hi, pagetable.PTE_R|pagetable.PTE_W|pagetable.PTE_U, SecStack); err != nil {
		t.Fatalf("InsertFramedArea: %v", err)
	}
	if len(ms.Areas) != 1 {
		t.Fatalf("expected 1 area, got %d", len(ms.Areas))
	}
	pa, ok := ms.Pt.Translate(lo + 8)
	if !ok {
		t.Fatalf("expected lo to be mapped")
	}
	_ = pa

	if e := ms.RemoveAreaWithStartVpn(lo / PGSIZE); e != 0 {
		t.Fatalf("RemoveAreaWithStartVpn: %v", e)
	}
	if len(ms.Areas) != 0 {
		t.Fatalf("expected area removed")
	}
	if _, ok := ms.Pt.Translate(lo + 8); ok {
		t.Fatalf("expected unmapped after removal")
	}
}

func TestOverlappingAreaPanics(t *testing.T) {
	setup(t)
	ms, _ := New()
	if err := ms.InsertFramedArea(0, 0x2000, pagetable.PTE_R, SecData); err != nil {
		t.Fatalf("InsertFramedArea: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on overlapping area")
		}
	}()
	ms.InsertFramedArea(0x1000, 0x3000, pagetable.PTE_R, SecData)
}

func TestFromExistedUserCopiesBytesNotCOW(t *testing.T) {
	setup(t)
	ms, _ := New()
	if err := ms.InsertFramedArea(0, PGSIZE, pagetable.PTE_R|pagetable.PTE_W|pagetable.PTE_U, SecData); err != nil {
		t.Fatalf("InsertFramedArea: %v", err)
	}
	pa, _ := ms.Pt.Translate(0)
	page := frame.Dmap(frame.Ppn_t(pa / PGSIZE))
	page[0] = 0x42

	child, err := FromExistedUser(ms)
	if err != nil {
		t.Fatalf("FromExistedUser: %v", err)
	}
	defer child.Drop()
	defer ms.Drop()

	cpa, _ := child.Pt.Translate(0)
	if cpa == pa {
		t.Fatalf("child shares parent's physical page; fork must copy, not share")
	}
	cpage := frame.Dmap(frame.Ppn_t(cpa / PGSIZE))
	if cpage[0] != 0x42 {
		t.Fatalf("expected copied byte 0x42, got %#x", cpage[0])
	}

	page[0] = 0x99
	if cpage[0] != 0x42 {
		t.Fatalf("child page changed after parent write; fork is not independent")
	}
}
