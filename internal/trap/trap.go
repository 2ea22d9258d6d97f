package trap

import "rvkernel/internal/abi"

// Deps are the handlers HandleUserTrap and HandleKernelTrap dispatch into, injected by cmd/kernel at
// boot the way internal/fsobj's Stdout_t/Stdin_t take a ByteSink_i/
// ByteSource_i rather than importing the UART driver directly -- it keeps
// this package free of a hard dependency on internal/syscall,
// internal/proc, and internal/timer, all of which it would otherwise need
// just to compile.
type Deps struct {
	// Syscall dispatches tf's pending syscall (a7 in tf.X[RegA7], arguments
	// in tf.X[RegA0..RegA2]) and returns the value to store in a0. Called
	// with sepc already advanced past ecall, per mod.rs's
	// "jump to next instruction anyway" comment.
	Syscall func(tf *TrapContext_t) uint64
	// RaiseSignal queues sig for delivery to the current thread's process,
	// per current_add_signal.
	RaiseSignal func(sig abi.Sig_t)
	// TimerTick runs set_next_trigger + check_timer's wakeup sweep.
	TimerTick func()
	// ExternalInterrupt services a PLIC-claimed device interrupt.
	ExternalInterrupt func()
}

// HandleUserTrap dispatches a trap taken from user mode, per mod.rs's
// trap_handler. It mutates tf in place (advancing sepc past a syscall,
// writing the syscall result into a0) and returns the Cause_t it decoded,
// so the caller (the kernel's trap-return path) can decide whether to
// deliver a pending signal before returning to user space.
func HandleUserTrap(tf *TrapContext_t, scause, stval uint64, deps Deps) Cause_t {
	cause := Decode(scause)
	switch cause {
	case CauseUserEnvCall:
		tf.Sepc += 4
		tf.X[RegA0] = deps.Syscall(tf)
	case CauseMemoryFault:
		deps.RaiseSignal(abi.SIGSEGV)
	case CauseIllegalInstruction:
		deps.RaiseSignal(abi.SIGILL)
	case CauseTimerInterrupt:
		deps.TimerTick()
	case CauseExternalInterrupt:
		deps.ExternalInterrupt()
	default:
		panic("trap: unsupported trap from user mode")
	}
	return cause
}

// HandleKernelTrap dispatches a trap taken while already running in
// supervisor mode, per mod.rs's trap_from_kernel: only timer and external
// interrupts are legal here (a fault or illegal instruction inside the
// kernel itself is a kernel bug). Unlike HandleUserTrap it never reschedules
// -- "do not schedule now", per the original comment.
func HandleKernelTrap(scause uint64, deps Deps) Cause_t {
	cause := Decode(scause)
	switch cause {
	case CauseTimerInterrupt:
		deps.TimerTick()
	case CauseExternalInterrupt:
		deps.ExternalInterrupt()
	default:
		panic("trap: unsupported trap from kernel mode")
	}
	return cause
}
