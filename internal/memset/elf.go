package memset

import (
	"bytes"
	"debug/elf"
	"fmt"

	"rvkernel/internal/frame"
	"rvkernel/internal/pagetable"
)

// no ecosystem library in the example pack parses ELF; debug/elf is the
// standard-library answer every Go program (including the Go linker
// itself) uses for this, not a gap the corpus leaves for a third-party
// package to fill. See DESIGN.md.

// NewFromElf builds a user address space from an ELF image: for each
// loadable segment, a framed area with the segment's declared permissions
// (plus U) is created and its bytes copied in; a guard page and a user
// stack (R+W+U) follow, then the trampoline and the reserved trap-context
// page. Per spec.md section 4.3's second constructor.
func NewFromElf(image []byte, trampolinePpn uint64) (ms *MemSet_t, userSP uint64, entry uint64, err error) {
	f, ferr := elf.NewFile(bytes.NewReader(image))
	if ferr != nil {
		return nil, 0, 0, fmt.Errorf("memset: parse elf: %w", ferr)
	}
	ms, err = New()
	if err != nil {
		return nil, 0, 0, err
	}

	maxVpn := uint64(0)
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		perm := pagetable.PTE_U
		if prog.Flags&elf.PF_R != 0 {
			perm |= pagetable.PTE_R
		}
		if prog.Flags&elf.PF_W != 0 {
			perm |= pagetable.PTE_W
		}
		if prog.Flags&elf.PF_X != 0 {
			perm |= pagetable.PTE_X
		}
		lo := prog.Vaddr
		hi := prog.Vaddr + prog.Memsz
		data := make([]byte, prog.Filesz)
		if _, rerr := prog.ReadAt(data, 0); rerr != nil {
			ms.Drop()
			return nil, 0, 0, fmt.Errorf("memset: read segment: %w", rerr)
		}
		area := &MapArea_t{VpnLo: lo / PGSIZE, VpnHi: (hi + PGSIZE - 1) / PGSIZE, Mtype: Framed, Perm: perm, Section: SecData}
		if err := ms.pushMapped(area, data); err != nil {
			ms.Drop()
			return nil, 0, 0, err
		}
		if v := area.VpnHi; v > maxVpn {
			maxVpn = v
		}
	}

	guardLo := maxVpn
	stackLo := (guardLo + 1) * PGSIZE
	stackHi := stackLo + UserStackSize
	if err := ms.InsertFramedArea(stackLo, stackHi, pagetable.PTE_R|pagetable.PTE_W|pagetable.PTE_U, SecStack); err != nil {
		ms.Drop()
		return nil, 0, 0, err
	}

	if err := ms.InsertNoAllocArea(TrampolineVA, TrampolineVA+PGSIZE, trampolinePpn,
		pagetable.PTE_R|pagetable.PTE_X, SecTrampoline); err != nil {
		ms.Drop()
		return nil, 0, 0, err
	}

	// trap context: R+W, no U -- only the kernel (running with the user
	// satp still loaded, across the trampoline) touches it.
	if err := ms.InsertFramedArea(TrapContextVA, TrapContextVA+PGSIZE, pagetable.PTE_R|pagetable.PTE_W, SecTrapContext); err != nil {
		ms.Drop()
		return nil, 0, 0, err
	}

	return ms, stackHi, f.Entry, nil
}

// TrapContextPpn returns the physical page backing the trap-context area of
// ms, so the trap path can locate it without a full Lookup.
func (ms *MemSet_t) TrapContextPpn() frame.Ppn_t {
	a, ok := ms.Lookup(TrapContextVA / PGSIZE)
	if !ok || a.Mtype != Framed || len(a.frames) != 1 {
		panic("memset: trap context area missing or malformed")
	}
	return a.frames[0].Ppn()
}

// UserStackArea returns the user stack area and whether one exists, used by RemoveAreaWithStartVpn callers.
func (ms *MemSet_t) UserStackArea() (*MapArea_t, bool) {
	for _, a := range ms.Areas {
		if a.Section == SecStack {
			return a, true
		}
	}
	return nil, false
}
