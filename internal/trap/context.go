// Package trap dispatches RISC-V traps (syscalls, page faults, illegal
// instructions, timer and external interrupts) the way
// original_source/os/src/trap/mod.rs's trap_handler does: decode scause,
// route to the matching handler, and on return to user space restore the
// saved register file through the trampoline. original_source's own
// context.rs/trap.S were not captured by this retrieval, so TrapContext_t's
// layout and the __alltraps/__restore contract are reconstructed from
// mod.rs's field accesses (cx.x[17], cx.x[10..12], cx.sepc) plus the
// standard rCore-tutorial trap-context shape every ch1-ch8 stage documents
// (32 general registers, sstatus, sepc, and the three kernel-return fields
// __restore needs to re-enter the kernel on the next trap: kernel_satp,
// kernel_sp, trap_handler).
package trap

// TrapContext_t is the fixed-layout page __alltraps/__restore save and
// restore a user thread's state through, one page per thread (spec.md
// section 4.7, internal/proc.Tcb_t.TrapCxPpn). Field order matters: the
// assembly trampoline indexes into this struct by raw offset.
type TrapContext_t struct {
	X         [32]uint64 // general-purpose registers x0..x31
	Sstatus   uint64
	Sepc      uint64
	KernelSatp uint64
	KernelSp   uint64
	TrapHandler uint64 // VA of cmd/kernel's handleFromTrampoline, for __alltraps to call
}

// Register indices into X, named the way mod.rs names them (cx.x[17] is
// a7, cx.x[10] is a0, ...).
const (
	RegA0 = 10
	RegA1 = 11
	RegA2 = 12
	RegSP = 2
	RegA7 = 17
)

// InitAppContext builds the trap context a freshly created thread resumes
// into: general registers zeroed except sp, sepc at the entry point, SPIE
// set and SPP cleared in sstatus so sret drops to user mode with
// interrupts re-enabled, per original_source's TrapContext::app_init_context
// (reconstructed the same way as the struct layout above -- the function
// name and behavior are standard across every rCore-tutorial chapter that
// has one).
func InitAppContext(entry, userSP, kernelSatp, kernelSP, trapHandler uint64) *TrapContext_t {
	cx := &TrapContext_t{
		Sepc:        entry,
		KernelSatp:  kernelSatp,
		KernelSp:    kernelSP,
		TrapHandler: trapHandler,
	}
	cx.X[RegSP] = userSP
	cx.Sstatus = sstatusUserInit()
	return cx
}

// sstatusUserInit returns the sstatus bit pattern __restore needs: SPP=0
// (return to U-mode), SPIE=1 (re-enable interrupts on sret).
func sstatusUserInit() uint64 {
	const sppBit = uint64(1) << 8
	const spieBit = uint64(1) << 5
	return spieBit &^ sppBit
}
