package frame

import "unsafe"

// The real kernel maps all of physical memory once into a fixed kernel
// virtual window (the "direct map", spec.md's Vdirect in the teacher
// kernel's mem/dmap.go) and reaches any physical page through an
// unsafe.Pointer cast of that window, never through a per-page mapping.
// Hosted here (no physical RAM to map), the window is backed by a plain Go
// slice grown to cover every frame the allocator knows about; the cast
// technique below is exactly the teacher's.
var dmapArena []byte

func initArena(endppn Ppn_t) {
	need := int(endppn) * PGSIZE
	if len(dmapArena) < need {
		grown := make([]byte, need)
		copy(grown, dmapArena)
		dmapArena = grown
	}
}

// Dmap returns a direct-mapped byte view of the physical page ppn.
func Dmap(ppn Ppn_t) *[PGSIZE]byte {
	off := int(ppn) * PGSIZE
	return (*[PGSIZE]byte)(unsafe.Pointer(&dmapArena[off]))
}

// arenaView is a convenience used by packages (pagetable) that want to view
// a frame as an array of some fixed-width element T rather than raw bytes.
func arenaView[T any](ppn Ppn_t) *T {
	off := int(ppn) * PGSIZE
	return (*T)(unsafe.Pointer(&dmapArena[off]))
}

// ArenaView exports arenaView for other packages.
func ArenaView[T any](ppn Ppn_t) *T {
	return arenaView[T](ppn)
}
