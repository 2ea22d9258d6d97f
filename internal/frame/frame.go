// Package frame implements the physical frame allocator described in
// spec.md section 4.1: a high-water-mark bump allocator backed by a
// free-list stack of returned frames, grounded on the bump/freelist design
// of the teacher kernel's Physmem_t (mem/mem.go).
package frame

import (
	"fmt"
	"sync"

	"rvkernel/internal/abi"
)

const PGSHIFT = 12
const PGSIZE = 1 << PGSHIFT

// Ppn_t is a physical page number (a physical address shifted right by
// PGSHIFT).
type Ppn_t uint64

// Pa returns the physical address of the start of this page.
func (p Ppn_t) Pa() uint64 {
	return uint64(p) << PGSHIFT
}

// OutOfMemory is returned when neither the free list nor the bump region can
// satisfy an allocation.
var OutOfMemory = fmt.Errorf("frame allocator: %w", errOOM{})

type errOOM struct{}

func (errOOM) Error() string { return "out of physical frames" }

// Allocator_t is the single-instance, process-wide physical frame allocator.
// It owns the range [startppn, endppn) of physical pages.
type Allocator_t struct {
	mu       sync.Mutex
	startppn Ppn_t
	endppn   Ppn_t
	current  Ppn_t // high-water mark; frames in [current, endppn) are untouched
	free     []Ppn_t
}

// global is the single instance referenced by FrameHandle.Drop and by
// callers that do not carry an explicit allocator handle, mirroring the
// teacher's package-level Physmem variable.
var global *Allocator_t

// Init constructs the allocator over [startppn, endppn) and installs it as
// the global allocator. It also (re)sizes the direct-map arena backing
// Dmap so every ppn in range has addressable storage.
func Init(startppn, endppn Ppn_t) *Allocator_t {
	a := &Allocator_t{startppn: startppn, endppn: endppn, current: startppn}
	global = a
	initArena(endppn)
	return a
}

// FrameHandle owns exactly one physical frame. Dropping it (calling Free)
// returns the frame to the allocator it came from. The zero value is not a
// valid handle.
type FrameHandle struct {
	a   *Allocator_t
	ppn Ppn_t
	// zeroed records whether the frame content was already cleared so a
	// caller that re-zeroes on every fault does not pay the cost twice.
	zeroed bool
}

// Ppn returns the handle's physical page number.
func (h FrameHandle) Ppn() Ppn_t { return h.ppn }

// Free returns the frame to its allocator's free list. Free is idempotent
// only if called once; calling it twice double-frees, which is a kernel bug
// and panics, matching spec.md's invariant that a frame is referenced by
// exactly one holder.
func (h *FrameHandle) Free() {
	if h.a == nil {
		panic("frame: double free or use of zero FrameHandle")
	}
	h.a.dealloc(h.ppn)
	h.a = nil
}

// Alloc hands out one physical frame, preferring the free list over the
// bump region as spec.md section 4.1 requires.
func (a *Allocator_t) Alloc() (FrameHandle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ppn, ok := a.allocLocked()
	if !ok {
		return FrameHandle{}, OutOfMemory
	}
	return FrameHandle{a: a, ppn: ppn}, nil
}

func (a *Allocator_t) allocLocked() (Ppn_t, bool) {
	if n := len(a.free); n > 0 {
		ppn := a.free[n-1]
		a.free = a.free[:n-1]
		return ppn, true
	}
	if a.current >= a.endppn {
		return 0, false
	}
	ppn := a.current
	a.current++
	return ppn, true
}

// AllocContig allocates n physically contiguous frames. Per spec.md section
// 4.1, contiguity is only guaranteed from the bump region, so this never
// consults the free list: a free-list frame could be interspersed with
// frames still above the mark.
func (a *Allocator_t) AllocContig(n int) ([]FrameHandle, error) {
	if n <= 0 {
		panic("frame: AllocContig needs n > 0")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current+Ppn_t(n) > a.endppn {
		return nil, OutOfMemory
	}
	out := make([]FrameHandle, n)
	for i := 0; i < n; i++ {
		out[i] = FrameHandle{a: a, ppn: a.current}
		a.current++
	}
	return out, nil
}

func (a *Allocator_t) dealloc(ppn Ppn_t) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.free = append(a.free, ppn)
}

// Global returns the process-wide allocator installed by Init, or nil if
// Init has not run yet.
func Global() *Allocator_t { return global }

// MustAlloc allocates from the global allocator or panics with an
// invariant-violation style message; used by boot-time code for which
// running out of memory before user space even starts is unrecoverable.
func MustAlloc() FrameHandle {
	h, err := global.Alloc()
	if err != nil {
		panic("frame: out of memory during boot")
	}
	return h
}

// AsErr converts an allocation failure into the kernel's Err_t convention
// for syscall paths that can legitimately fail with resource exhaustion.
func AsErr(err error) abi.Err_t {
	if err != nil {
		return -abi.ENOMEM
	}
	return 0
}
