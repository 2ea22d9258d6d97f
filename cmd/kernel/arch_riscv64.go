//go:build riscv64

package main

import (
	"unsafe"

	"rvkernel/internal/memset"
	"rvkernel/internal/proc"
	"rvkernel/internal/sched"
	"rvkernel/internal/trap"
	"rvkernel/internal/trap/trapasm"
)

// kernelMemSet is the kernel's own address space, built once at boot and
// kept alive for the process lifetime (NewKernel's layout is never torn
// down).
var kernelMemSet *memset.MemSet_t

// kernelTrampolinePpn returns the physical page trapEntry runs from. A
// real rCore-tutorial build places the trampoline in its own linker
// section so it can compute a fixed physical address; this repo has no
// custom linker script, so trapEntry instead runs at whatever address the
// Go linker placed it, identity-mapped like the rest of the kernel image
// (the heap range [0, memEnd) that buildKernelMemSet requests already
// covers it) rather
// than specially remapped to the high TrampolineVA every user address
// space reserves. The sret in TrapReturn still lands in the same
// physical page regardless of which user satp was active, which is the
// property spec.md's trampoline invariant actually requires.
func kernelTrampolinePpn() uint64 {
	return uint64(uintptr(unsafe.Pointer(&trapEntrySentinel))) >> 12
}

var trapEntrySentinel byte

// kernelSatp returns the SATP token for the kernel's own page table.
func kernelSatp() uint64 {
	return kernelMemSet.Pt.Token()
}

// buildKernelMemSet constructs the kernel's own address space. A real
// rCore-tutorial build gets its text/rodata/data boundaries from linker
// symbols (stext/etext/srodata/... in linker.ld); this repo has no custom
// linker script to provide those, so it maps physical memory up to
// memEnd R+W wholesale rather than section-by-section -- coarser than
// spec.md's per-section permission model, but the identity-map/MMIO/
// trampoline structure NewKernel builds is otherwise unchanged.
func buildKernelMemSet(memEnd uint64, mmio []memset.MMIOWindow) error {
	ms, err := memset.NewKernel(memset.KernelLayout{
		DataHi:        0,
		MemEnd:        memEnd,
		TrampolinePpn: kernelTrampolinePpn(),
		MMIO:          mmio,
	})
	if err != nil {
		return err
	}
	kernelMemSet = ms
	return nil
}

var (
	trapDeps         trap.Deps
	deliverSignalsFn func(th *proc.Tcb_t, tf *trap.TrapContext_t) bool
)

// installTrapDeps stashes the dependencies handleFromTrampoline needs:
// trap.Deps for HandleUserTrap's dispatch, and the signal-delivery check
// internal/syscall's Dispatcher_t performs on the way back to user mode.
func installTrapDeps(deps trap.Deps, deliver func(th *proc.Tcb_t, tf *trap.TrapContext_t) bool) {
	trapDeps = deps
	deliverSignalsFn = deliver
}

// installTrapVector programs stvec with trapEntry's address and returns
// handleFromTrampoline's linked address, for every thread's trap context
// to jump back into once it has switched to the kernel stack and page
// table.
func installTrapVector() uint64 {
	trapasm.WriteStvec(trapasm.EntryAddr())
	return trapasm.HandlerPC(handleFromTrampoline)
}

// handleFromTrampoline is TrapContext_t.TrapHandler: trapEntry (__alltraps)
// jumps here after saving the user register file and switching to the
// kernel stack/page table, per original_source/os/src/trap/mod.rs's
// trap_handler. It decodes the trap, dispatches it, optionally starts a
// signal handler for the main thread, and resumes user execution through
// TrapReturn -- it never returns to its caller in the ordinary Go sense,
// matching trap_handler's own "never returns, the next instruction after
// __restore is in user mode" shape.
func handleFromTrampoline(cx *trap.TrapContext_t) {
	scause := trapasm.ReadScause()
	stval := trapasm.ReadStval()
	trap.HandleUserTrap(cx, scause, stval, trapDeps)

	cur, _ := sched.Default().Current().(*proc.Tcb_t)
	if cur != nil && cur.Tid == 0 && deliverSignalsFn != nil {
		deliverSignalsFn(cur, cx)
	}

	var satp uint64
	if cur != nil {
		satp = cur.Process.MemSet.Pt.Token()
	} else {
		satp = kernelSatp()
	}
	trapasm.TrapReturn(cx, satp)
}
