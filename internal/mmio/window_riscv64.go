//go:build riscv64

package mmio

import "unsafe"

// realWindow reads and writes physical addresses directly. Every device
// window is identity-mapped R+W into the kernel's own page table (see
// internal/memset.NewKernel's MMIO loop), so base+offset is already a
// valid kernel virtual address.
type realWindow struct {
	base uint64
}

func newWindow(base uint64) Window_i { return &realWindow{base: base} }

func (w *realWindow) Read32(offset uint64) uint32 {
	p := (*uint32)(unsafe.Pointer(uintptr(w.base + offset)))
	return *p
}

func (w *realWindow) Write32(offset uint64, v uint32) {
	p := (*uint32)(unsafe.Pointer(uintptr(w.base + offset)))
	*p = v
}
