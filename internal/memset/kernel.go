package memset

import "rvkernel/internal/pagetable"

// KernelLayout describes the boundaries the linker script would normally
// provide (text/rodata/data+bss ranges) plus the MMIO windows to map,
// supplied by cmd/kernel at boot.
type KernelLayout struct {
	TextLo, TextHi     uint64
	RodataLo, RodataHi uint64
	DataLo, DataHi     uint64 // covers bss too
	MemEnd             uint64 // end of physical RAM to identity-map R+W
	TrampolinePpn      uint64
	MMIO               []MMIOWindow
}

// MMIOWindow is one device register window to identity-map R+W.
type MMIOWindow struct {
	Lo, Hi uint64
	Name   string
}

// NewKernel builds the kernel's own address space: identity maps for
// text(R+X), rodata(R), data+bss(R+W), the rest of physical RAM(R+W), and
// every MMIO window(R+W), plus the trampoline mapped at the top of virtual
// memory pointing at the trap-entry code. Per spec.md section 4.3's first
// constructor.
func NewKernel(layout KernelLayout) (*MemSet_t, error) {
	ms, err := New()
	if err != nil {
		return nil, err
	}
	steps := []struct {
		lo, hi uint64
		perm   pagetable.Perm_t
		sec    Section_t
	}{
		{layout.TextLo, layout.TextHi, pagetable.PTE_R | pagetable.PTE_X, SecText},
		{layout.RodataLo, layout.RodataHi, pagetable.PTE_R, SecRodata},
		{layout.DataLo, layout.DataHi, pagetable.PTE_R | pagetable.PTE_W, SecData},
		{layout.DataHi, layout.MemEnd, pagetable.PTE_R | pagetable.PTE_W, SecHeap},
	}
	for _, s := range steps {
		if s.hi <= s.lo {
			continue
		}
		if err := ms.InsertIdentityArea(s.lo, s.hi, s.perm, s.sec); err != nil {
			return nil, err
		}
	}
	for _, w := range layout.MMIO {
		if err := ms.InsertIdentityArea(w.Lo, w.Hi, pagetable.PTE_R|pagetable.PTE_W, SecDevice); err != nil {
			return nil, err
		}
	}
	if err := ms.InsertNoAllocArea(TrampolineVA, TrampolineVA+PGSIZE, layout.TrampolinePpn,
		pagetable.PTE_R|pagetable.PTE_X, SecTrampoline); err != nil {
		return nil, err
	}
	return ms, nil
}
