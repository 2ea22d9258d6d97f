// Package memset builds SV39 address spaces out of map areas, per spec.md
// section 4.3. It is the Go-native, RISC-V-retargeted generalization of the
// teacher kernel's Vm_t/Vmregion_t (vm/as.go): the permission and ownership
// model is the same (framed areas own their pages; identity/linear areas do
// not), the virtual memory layout is SV39's.
package memset

import (
	"sort"

	"rvkernel/internal/abi"
	"rvkernel/internal/frame"
	"rvkernel/internal/pagetable"
)

const PGSIZE = pagetable.PGSIZE

// MapType_t enumerates how a MapArea's pages are backed, per spec.md's data
// model: identity, framed per-page allocation, linear offset, or a
// caller-provided physical range with no kernel-owned allocation.
type MapType_t int

const (
	Identity MapType_t = iota
	Framed
	Linear
	NoAlloc
)

// Section_t tags a MapArea with the purpose it serves, purely for
// diagnostics (panic messages, /proc-style introspection).
type Section_t int

const (
	SecText Section_t = iota
	SecRodata
	SecData
	SecBss
	SecStack
	SecGuard
	SecDevice
	SecTrampoline
	SecTrapContext
	SecHeap
)

// MapArea_t is one [VpnLo, VpnHi) range of an address space.
type MapArea_t struct {
	VpnLo, VpnHi uint64 // page numbers, half-open
	Mtype        MapType_t
	Perm         pagetable.Perm_t // R/W/X/U bits only
	Section      Section_t
	// LinearOffset is ppn - vpn for Linear areas (signed, but ppn/vpn are
	// both small enough in this address space that uint64 wraparound
	// arithmetic is exact).
	LinearOffset uint64
	// frames backs Framed areas: one handle per mapped page, in vpn order.
	frames []frame.FrameHandle
	// fixedPpn backs NoAlloc areas: the caller-provided, not-owned, base ppn.
	fixedPpn uint64
}

func (m *MapArea_t) npages() int { return int(m.VpnHi - m.VpnLo) }

// MemSet_t is an address space: an ordered, non-overlapping set of map
// areas plus the page table that realizes them.
type MemSet_t struct {
	Areas []*MapArea_t
	Pt    *pagetable.PageTable_t
}

// New allocates an empty address space with a fresh root page table.
func New() (*MemSet_t, error) {
	pt, err := pagetable.New()
	if err != nil {
		return nil, err
	}
	return &MemSet_t{Pt: pt}, nil
}

// overlaps reports whether [lo, hi) intersects any existing area, the
// invariant spec.md requires areas never violate.
func (ms *MemSet_t) overlaps(lo, hi uint64) bool {
	for _, a := range ms.Areas {
		if lo < a.VpnHi && a.VpnLo < hi {
			return true
		}
	}
	return false
}

func vpnRange(loVA, hiVA uint64) (lo, hi uint64) {
	lo = loVA / PGSIZE
	hi = (hiVA + PGSIZE - 1) / PGSIZE
	return
}

// pushMapped inserts area into Areas (kept sorted by VpnLo for
// RemoveAreaWithStartVpn's lookup) and installs its page table entries.
func (ms *MemSet_t) pushMapped(area *MapArea_t, data []byte) error {
	if ms.overlaps(area.VpnLo, area.VpnHi) {
		panic("memset: overlapping map area")
	}
	switch area.Mtype {
	case Framed:
		for i := 0; i < area.npages(); i++ {
			h, err := frame.Global().Alloc()
			if err != nil {
				return err
			}
			area.frames = append(area.frames, h)
			vpn := area.VpnLo + uint64(i)
			if e := ms.Pt.Map(pagetable.Vpn_t(vpn), h.Ppn(), area.Perm|pagetable.PTE_V); e != 0 {
				return errFromAbi(e)
			}
		}
	case Identity:
		for i := 0; i < area.npages(); i++ {
			vpn := area.VpnLo + uint64(i)
			if e := ms.Pt.Map(pagetable.Vpn_t(vpn), frame.Ppn_t(vpn), area.Perm|pagetable.PTE_V); e != 0 {
				return errFromAbi(e)
			}
		}
	case Linear:
		for i := 0; i < area.npages(); i++ {
			vpn := area.VpnLo + uint64(i)
			ppn := vpn - area.LinearOffset
			if e := ms.Pt.Map(pagetable.Vpn_t(vpn), frame.Ppn_t(ppn), area.Perm|pagetable.PTE_V); e != 0 {
				return errFromAbi(e)
			}
		}
	case NoAlloc:
		for i := 0; i < area.npages(); i++ {
			vpn := area.VpnLo + uint64(i)
			ppn := area.fixedPpn + uint64(i)
			if e := ms.Pt.Map(pagetable.Vpn_t(vpn), frame.Ppn_t(ppn), area.Perm|pagetable.PTE_V); e != 0 {
				return errFromAbi(e)
			}
		}
	}
	if data != nil {
		ms.copyIn(area, data)
	}
	ms.Areas = append(ms.Areas, area)
	sort.Slice(ms.Areas, func(i, j int) bool { return ms.Areas[i].VpnLo < ms.Areas[j].VpnLo })
	return nil
}

func (ms *MemSet_t) copyIn(area *MapArea_t, data []byte) {
	off := 0
	for i := 0; i < area.npages() && off < len(data); i++ {
		vpn := area.VpnLo + uint64(i)
		pa, ok := ms.Pt.Translate(vpn * PGSIZE)
		if !ok {
			panic("memset: copyIn onto unmapped page")
		}
		page := frame.Dmap(frame.Ppn_t(pa / PGSIZE))
		n := copy(page[:], data[off:])
		off += n
	}
}

func errFromAbi(e abi.Err_t) error { return errCode(e) }

type errCode abi.Err_t

func (e errCode) Error() string { return "memset: page table op failed" }

// InsertFramedArea rounds [lo, hi) to page boundaries, allocates frames, and
// maps them with perm, per spec.md's insert_framed_area.
func (ms *MemSet_t) InsertFramedArea(loVA, hiVA uint64, perm pagetable.Perm_t, sec Section_t) error {
	lo, hi := vpnRange(loVA, hiVA)
	area := &MapArea_t{VpnLo: lo, VpnHi: hi, Mtype: Framed, Perm: perm, Section: sec}
	return ms.pushMapped(area, nil)
}

// InsertIdentityArea maps [lo, hi) 1:1 to physical memory, used for the
// kernel's own text/data/heap ranges.
func (ms *MemSet_t) InsertIdentityArea(loVA, hiVA uint64, perm pagetable.Perm_t, sec Section_t) error {
	lo, hi := vpnRange(loVA, hiVA)
	area := &MapArea_t{VpnLo: lo, VpnHi: hi, Mtype: Identity, Perm: perm, Section: sec}
	return ms.pushMapped(area, nil)
}

// InsertNoAllocArea maps [lo, hi) onto the caller-supplied physical range
// starting at ppn, without the kernel taking ownership of those frames
// (spec.md's "no-alloc, map to provided physical range"). Used for the
// trampoline page.
func (ms *MemSet_t) InsertNoAllocArea(loVA, hiVA uint64, ppn uint64, perm pagetable.Perm_t, sec Section_t) error {
	lo, hi := vpnRange(loVA, hiVA)
	area := &MapArea_t{VpnLo: lo, VpnHi: hi, Mtype: NoAlloc, Perm: perm, Section: sec, fixedPpn: ppn}
	return ms.pushMapped(area, nil)
}

// RemoveAreaWithStartVpn removes exactly the area whose first page equals
// vpn, releasing its frames if it owned any.
func (ms *MemSet_t) RemoveAreaWithStartVpn(vpn uint64) abi.Err_t {
	for i, a := range ms.Areas {
		if a.VpnLo != vpn {
			continue
		}
		for p := a.VpnLo; p < a.VpnHi; p++ {
			ms.Pt.Unmap(pagetable.Vpn_t(p))
		}
		for j := range a.frames {
			a.frames[j].Free()
		}
		ms.Areas = append(ms.Areas[:i], ms.Areas[i+1:]...)
		return 0
	}
	return -abi.EINVAL
}

// Activate writes the SATP CSR to switch the MMU to this address space and
// flushes stale translations. On real hardware this executes `csrw satp,
// token; sfence.vma`; hosted here it just records the token as "active" so
// tests can assert the right table was selected.
func (ms *MemSet_t) Activate() {
	lastActivatedToken = ms.Pt.Token()
}

var lastActivatedToken uint64

// LastActivatedToken exposes the most recently activated SATP value, purely
// for tests and diagnostics.
func LastActivatedToken() uint64 { return lastActivatedToken }

// Drop releases every framed area's pages and then the page table itself,
// satisfying spec.md's "dropping the address space frees all framed pages
// it owns."
func (ms *MemSet_t) Drop() {
	for _, a := range ms.Areas {
		for j := range a.frames {
			a.frames[j].Free()
		}
	}
	ms.Areas = nil
	ms.Pt.Drop()
}

// FromExistedUser duplicates every framed area of other by fresh allocation
// and byte copy. This is explicitly not copy-on-write (spec.md section 4.3):
// fork always pays the full copy at fork time.
func FromExistedUser(other *MemSet_t) (*MemSet_t, error) {
	ms, err := New()
	if err != nil {
		return nil, err
	}
	for _, a := range other.Areas {
		switch a.Mtype {
		case Framed:
			na := &MapArea_t{VpnLo: a.VpnLo, VpnHi: a.VpnHi, Mtype: Framed, Perm: a.Perm, Section: a.Section}
			if err := ms.pushMapped(na, nil); err != nil {
				ms.Drop()
				return nil, err
			}
			for i, h := range a.frames {
				src := frame.Dmap(h.Ppn())
				dst := frame.Dmap(na.frames[i].Ppn())
				copy(dst[:], src[:])
			}
		case NoAlloc:
			na := &MapArea_t{VpnLo: a.VpnLo, VpnHi: a.VpnHi, Mtype: NoAlloc, Perm: a.Perm, Section: a.Section, fixedPpn: a.fixedPpn}
			if err := ms.pushMapped(na, nil); err != nil {
				ms.Drop()
				return nil, err
			}
		default:
			panic("memset: unexpected area type in user address space")
		}
	}
	return ms, nil
}

// Lookup returns the area covering virtual page vpn, if any.
func (ms *MemSet_t) Lookup(vpn uint64) (*MapArea_t, bool) {
	for _, a := range ms.Areas {
		if vpn >= a.VpnLo && vpn < a.VpnHi {
			return a, true
		}
	}
	return nil, false
}
