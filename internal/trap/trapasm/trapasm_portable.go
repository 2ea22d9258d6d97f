//go:build !riscv64

package trapasm

import "rvkernel/internal/trap"

// EntryAddr has no meaning off riscv64: there is no stvec to program. It
// exists so cmd/kernel's boot sequence compiles identically on both
// targets; portable builds never call it.
func EntryAddr() uintptr { return 0 }

// TrapReturn has no real privilege transition to perform on a portable
// build -- there is no sret, no satp, nothing outside the Go process to
// return into. cmd/kernel's portable build (used for go test, per
// internal/mmio and internal/sched's existing !riscv64 stubs) never calls
// it; it exists only so callers type-check identically on both targets.
func TrapReturn(cx *trap.TrapContext_t, userSatp uint64) {
	panic("trapasm: TrapReturn is not meaningful on a portable build")
}

// FirstRunTrampolinePC mirrors the riscv64 build's trampoline address.
// Zero is a harmless placeholder here: the portable scheduler
// (arch_portable.go) never dereferences Context_t.Ra, it only uses
// Context_t identity for bookkeeping.
func FirstRunTrampolinePC() uint64 { return 0 }

// HandlerPC mirrors the riscv64 build's signature so cmd/kernel type-checks
// identically on both targets; the portable scheduler never invokes the result.
func HandlerPC(fn func(*trap.TrapContext_t)) uint64 { return 0 }

// WriteStvec, ReadScause, and ReadStval have no CSRs to touch off
// riscv64; cmd/kernel's portable build never calls them.
func WriteStvec(addr uintptr) {}
func ReadScause() uint64      { return 0 }
func ReadStval() uint64       { return 0 }
