//go:build !riscv64

package mmio

import "sync"

// fakeWindow backs a device's registers with a plain map, keyed by
// offset, for `go test` on non-riscv64 hosts. Drivers built against
// Window_i exercise their register-bit-twiddling logic against this the
// same way they would against real hardware.
type fakeWindow struct {
	mu   sync.Mutex
	base uint64
	regs map[uint64]uint32
}

func newWindow(base uint64) Window_i {
	return &fakeWindow{base: base, regs: make(map[uint64]uint32)}
}

func (w *fakeWindow) Read32(offset uint64) uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.regs[offset]
}

func (w *fakeWindow) Write32(offset uint64, v uint32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.regs[offset] = v
}
