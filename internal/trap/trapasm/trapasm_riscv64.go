//go:build riscv64

package trapasm

import (
	"reflect"

	"rvkernel/internal/trap"
)

// TrapReturn resumes cx in user mode under userSatp. Implemented in
// trapasm_riscv64.s as the __restore half of the trampoline.
//
//go:noescape
func TrapReturn(cx *trap.TrapContext_t, userSatp uint64)

// EntryAddr returns the address of the raw trap vector (__alltraps'
// equivalent), for cmd/kernel to write into stvec once at boot. The
// trampoline is built to run identically mapped at the same virtual
// address in every address space (spec.md section 4.7), so this address
// stays valid across every satp switch TrapReturn performs.
func EntryAddr() uintptr {
	return trapEntryAddr()
}

func trapEntryAddr() uintptr

// FirstRunTrampolinePC returns the address of the assembly stub a freshly
// created thread's sched.Context_t.Ra is pointed at so its very first
// __switch lands in user mode instead of Go code, per internal/proc's
// newThread.
func FirstRunTrampolinePC() uint64 {
	return uint64(firstRunTrampolineAddr())
}

func firstRunTrampolineAddr() uintptr

// HandlerPC returns fn's entry program counter for storing in
// trap.TrapContext_t.TrapHandler, where trapEntry's __alltraps half jumps
// once it has switched to the kernel stack and page table. A literal
// bare-metal boot would need its own minimal g0/stack-growth setup in
// place before this jump is safe, since fn is an ordinary Go function
// expecting the Go runtime's calling convention; cmd/kernel's boot
// sequence performs that setup first (see its own doc comment) rather
// than this package reimplementing goroutine bring-up.
func HandlerPC(fn func(*trap.TrapContext_t)) uint64 {
	return uint64(reflect.ValueOf(fn).Pointer())
}

// WriteStvec installs addr as the trap vector, per mod.rs's init() writing
// TRAMPOLINE into stvec.
func WriteStvec(addr uintptr)

// ReadScause and ReadStval return the cause and faulting value of the
// trap that is currently being handled, read once per trap by
// cmd/kernel's trap handler before it calls internal/trap.HandleUserTrap.
func ReadScause() uint64
func ReadStval() uint64
