// Package pagetable implements the SV39 three-level page table described in
// spec.md section 4.2. Each table level occupies one physical frame; the
// table owns the frames holding its intermediate nodes and releases them
// when dropped, mirroring the ownership discipline of the teacher kernel's
// Pmap_t (mem/mem.go) generalized from x86-64's four levels to SV39's three.
package pagetable

import (
	"rvkernel/internal/abi"
	"rvkernel/internal/frame"
)

const (
	PGSHIFT = 12
	PGSIZE  = 1 << PGSHIFT
	// VPN index width and entry count per table level.
	PTEBITS    = 9
	PTEPERPAGE = 1 << PTEBITS
	PTEMASK    = PTEPERPAGE - 1
)

// Pte_t is one SV39 page table entry.
type Pte_t uint64

// PTE flag bits, SV39 layout (V/R/W/X/U/G/A/D occupy bits 0..7; bits 10..53
// hold the PPN).
const (
	PTE_V Pte_t = 1 << 0 // valid
	PTE_R Pte_t = 1 << 1 // readable
	PTE_W Pte_t = 1 << 2 // writable
	PTE_X Pte_t = 1 << 3 // executable
	PTE_U Pte_t = 1 << 4 // user-accessible
	PTE_G Pte_t = 1 << 5 // global
	PTE_A Pte_t = 1 << 6 // accessed
	PTE_D Pte_t = 1 << 7 // dirty

	pteFlagsMask = (1 << 10) - 1
	ppnShift     = 10
)

// Perm_t is the R/W/X/U subset of PTE flags callers pass to Map.
type Perm_t = Pte_t

// Vpn_t is a virtual page number: a 64-bit virtual address shifted right by
// PGSHIFT and truncated to SV39's 27 usable bits (39 - 12).
type Vpn_t uint64

func vpnIndex(vpn Vpn_t, level int) uint64 {
	return (uint64(vpn) >> (PTEBITS * level)) & PTEMASK
}

func ptePpn(pte Pte_t) frame.Ppn_t {
	return frame.Ppn_t(pte >> ppnShift)
}

func mkPte(ppn frame.Ppn_t, flags Pte_t) Pte_t {
	return Pte_t(ppn)<<ppnShift | (flags & pteFlagsMask)
}

// page is the in-kernel view of one table-level frame: 512 PTEs.
type page [PTEPERPAGE]Pte_t

// frameView dereferences a physical page as a *page through the kernel's
// direct map (frame.Dmap's unsafe.Pointer cast, generalized to the PTE
// element type by frame.ArenaView).
func frameView(ppn frame.Ppn_t) *page {
	return frame.ArenaView[page](ppn)
}

// PageTable_t is one SV39 address space's root page table plus the frames
// backing every intermediate node it owns.
type PageTable_t struct {
	root  frame.FrameHandle
	owned []frame.FrameHandle // intermediate (level-2, level-1) table frames
}

// New allocates a fresh, empty root table.
func New() (*PageTable_t, error) {
	root, err := frame.Global().Alloc()
	if err != nil {
		return nil, err
	}
	clearPage(root.Ppn())
	return &PageTable_t{root: root}, nil
}

func clearPage(ppn frame.Ppn_t) {
	p := frameView(ppn)
	for i := range p {
		p[i] = 0
	}
}

// walk finds the level-0 PTE slot for vpn, allocating intermediate tables
// along the way if alloc is true. It returns nil if the walk would require
// allocation but alloc is false.
func (pt *PageTable_t) walk(vpn Vpn_t, alloc bool) *Pte_t {
	ppn := pt.root.Ppn()
	for level := 2; level > 0; level-- {
		p := frameView(ppn)
		idx := vpnIndex(vpn, level)
		pte := &p[idx]
		if *pte&PTE_V == 0 {
			if !alloc {
				return nil
			}
			h, err := frame.Global().Alloc()
			if err != nil {
				return nil
			}
			clearPage(h.Ppn())
			pt.owned = append(pt.owned, h)
			*pte = mkPte(h.Ppn(), PTE_V)
		}
		ppn = ptePpn(*pte)
	}
	p := frameView(ppn)
	return &p[vpnIndex(vpn, 0)]
}

// Map installs a leaf mapping vpn -> ppn with the given R/W/X/U permission
// bits. It fails with EEXIST if a valid entry is already there, per
// spec.md's "map fails if the entry is already valid".
func (pt *PageTable_t) Map(vpn Vpn_t, ppn frame.Ppn_t, perm Perm_t) abi.Err_t {
	pte := pt.walk(vpn, true)
	if pte == nil {
		return -abi.ENOMEM
	}
	if *pte&PTE_V != 0 {
		return -abi.EEXIST
	}
	*pte = mkPte(ppn, perm|PTE_V)
	return 0
}

// Unmap clears the leaf mapping for vpn. It fails with EINVAL if there is no
// valid entry, per spec.md's "unmap fails if invalid".
func (pt *PageTable_t) Unmap(vpn Vpn_t) abi.Err_t {
	pte := pt.walk(vpn, false)
	if pte == nil || *pte&PTE_V == 0 {
		return -abi.EINVAL
	}
	*pte = 0
	return 0
}

// Translate resolves a virtual address to its mapped physical address. ok is
// false if no valid leaf mapping covers va.
func (pt *PageTable_t) Translate(va uint64) (pa uint64, ok bool) {
	vpn := Vpn_t(va >> PGSHIFT)
	pte := pt.walk(vpn, false)
	if pte == nil || *pte&PTE_V == 0 {
		return 0, false
	}
	off := va & (PGSIZE - 1)
	return ptePpn(*pte).Pa() | off, true
}

// PteFlags returns the flag bits of vpn's leaf entry and whether it exists.
func (pt *PageTable_t) PteFlags(vpn Vpn_t) (Pte_t, bool) {
	pte := pt.walk(vpn, false)
	if pte == nil || *pte&PTE_V == 0 {
		return 0, false
	}
	return *pte & pteFlagsMask, true
}

// SetFlags overwrites the flag bits of vpn's leaf entry in place without
// touching the PPN.
func (pt *PageTable_t) SetFlags(vpn Vpn_t, flags Pte_t) abi.Err_t {
	pte := pt.walk(vpn, false)
	if pte == nil || *pte&PTE_V == 0 {
		return -abi.EINVAL
	}
	*pte = mkPte(ptePpn(*pte), flags|PTE_V)
	return 0
}

const (
	satpModeSv39 = uint64(8) << 60
)

// Token returns the SATP value that activates this table: mode bits 8
// (Sv39) in the top nibble and the root frame number in the low 44 bits.
func (pt *PageTable_t) Token() uint64 {
	return satpModeSv39 | uint64(pt.root.Ppn())
}

// RootPpn returns the physical page number of the root table.
func (pt *PageTable_t) RootPpn() frame.Ppn_t { return pt.root.Ppn() }

// Drop releases every frame this table owns: every intermediate node and
// finally the root, per spec.md's "the table owns the frames holding
// intermediate nodes; dropping it returns them."
func (pt *PageTable_t) Drop() {
	for i := range pt.owned {
		pt.owned[i].Free()
	}
	pt.owned = nil
	pt.root.Free()
}
