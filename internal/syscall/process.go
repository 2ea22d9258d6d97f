package syscall

import (
	"rvkernel/internal/abi"
	"rvkernel/internal/frame"
	"rvkernel/internal/proc"
	"rvkernel/internal/trap"
	"rvkernel/internal/upath"
)

// sysExit retires th; if th is the main thread (tid 0) the whole process
// exits, per task.rs's exit_current_and_run_next/sys_exit. Either way the
// caller abandons this thread permanently by blocking it and never waking
// it -- see internal/sched's arch_portable.go for why that never-returns on
// real hardware even though it falls through on the portable test build.
func (d *Dispatcher_t) sysExit(th *proc.Tcb_t, p *proc.Pcb_t, code int32) int64 {
	proc.ExitThread(th, int(code))
	if th.Tid == 0 {
		proc.Exit(p, int(code))
	}
	d.Proc.BlockCurrentAndRunNext()
	return 0
}

func (d *Dispatcher_t) sysYield() int64 {
	d.Proc.SuspendCurrentAndRunNext()
	return 0
}

func (d *Dispatcher_t) sysGetTime() int64 {
	return int64(d.NowMillis())
}

// sysFork duplicates p, patches the child's trap context so it returns 0
// from fork (the parent's own return value is the child's pid, written by
// Dispatch's toRet(childPid) from this function's return), and enqueues
// the child thread, per task.rs's fork()/sys_fork.
func (d *Dispatcher_t) sysFork(p *proc.Pcb_t) int64 {
	child, err := proc.Fork(p)
	if err != nil {
		return -int64(abi.ENOMEM)
	}
	childMain := child.Threads[0]
	frame.ArenaView[trap.TrapContext_t](childMain.TrapCxPpn).X[trap.RegA0] = 0
	d.Proc.AddReady(childMain)
	return int64(child.Pid)
}

// sysExec reads path's file, discards the caller's other threads along
// with its old address space, and rebuilds the main thread's trap context
// at the new entry point, per task.rs's exec().
func (d *Dispatcher_t) sysExec(th *proc.Tcb_t, p *proc.Pcb_t, pathVA uint64) int64 {
	path, perr := readCString(p.MemSet, pathVA)
	if perr != 0 {
		return -int64(perr)
	}
	if clean := upath.Clean(path); !upath.Valid(clean) {
		return -int64(abi.ENOENT)
	}
	image, rerr := d.ReadWholeFile(path)
	if rerr != 0 {
		return -int64(rerr)
	}
	entry, userSP, err := proc.Exec(p, image)
	if err != nil {
		return -int64(abi.ENOMEM)
	}
	main := p.Threads[0]
	cx := trap.InitAppContext(entry, userSP, proc.KernelSatp(), main.KstackHi, proc.TrapHandlerPC())
	*frame.ArenaView[trap.TrapContext_t](main.TrapCxPpn) = *cx
	return 0
}

// sysWaitpid mirrors task.rs's sys_waitpid: -1 ("no such child") ESRCH,
// WouldBlock ("child exists, still running"), or the reaped pid with the
// exit code written to exitCodeVA.
func (d *Dispatcher_t) sysWaitpid(p *proc.Pcb_t, pid abi.Pid_t, exitCodeVA uint64) int64 {
	reaped, code, err := proc.WaitPid(p, pid)
	if err == abi.Err_t(abi.WouldBlock) {
		return int64(abi.WouldBlock)
	}
	if err == abi.ESRCH {
		return -1
	}
	if err != 0 {
		return -int64(err)
	}
	if exitCodeVA != 0 {
		var buf [4]byte
		buf[0] = byte(code)
		buf[1] = byte(code >> 8)
		buf[2] = byte(code >> 16)
		buf[3] = byte(code >> 24)
		if werr := writeUser(p.MemSet, exitCodeVA, buf[:]); werr != 0 {
			return -int64(werr)
		}
	}
	return int64(reaped)
}

func (d *Dispatcher_t) sysKill(pid abi.Pid_t, sig abi.Sig_t) int64 {
	target, ok := proc.Lookup(pid)
	if !ok {
		return -int64(abi.ESRCH)
	}
	if sig > 31 {
		return -int64(abi.EINVAL)
	}
	target.SigPending.Add(sig)
	return 0
}

func (d *Dispatcher_t) sysSigaction(p *proc.Pcb_t, signum int32, actionVA, oldActionVA uint64) int64 {
	if signum < 0 || signum >= 32 {
		return -int64(abi.EINVAL)
	}
	sig := abi.Sig_t(signum)
	if sig == abi.SIGKILL || sig == abi.SIGSTOP {
		return -int64(abi.EPERM)
	}
	prev := p.Sigactions[signum]
	if oldActionVA != 0 {
		var buf [24]byte // Handler (8) + Mask (4, padded to 8) + Flags (4, padded to 8)
		putUint64(buf[0:8], uint64(prev.Handler))
		putUint64(buf[8:16], uint64(prev.Mask))
		putUint64(buf[16:24], uint64(prev.Flags))
		if err := writeUser(p.MemSet, oldActionVA, buf[:]); err != 0 {
			return -int64(err)
		}
	}
	if actionVA != 0 {
		raw, err := readUser(p.MemSet, actionVA, 24)
		if err != 0 {
			return -int64(err)
		}
		p.Sigactions[signum] = abi.Sigaction_t{
			Handler: uintptr(getUint64(raw[0:8])),
			Mask:    abi.Sigset_t(getUint64(raw[8:16])),
			Flags:   abi.SigactionFlags(getUint64(raw[16:24])),
		}
	}
	return 0
}

func (d *Dispatcher_t) sysSigprocmask(p *proc.Pcb_t, mask abi.Sigset_t) int64 {
	old := p.SigMask
	p.SigMask = mask
	return int64(old)
}

// sysSigreturn restores th's trap context from the backup DeliverSignals
// stashed before entering the handler, and restores the process's signal
// mask to what it was before the handler's own mask was applied, per
// spec.md section 4.9. Mirrors original_source/os/src/task/mod.rs's
// sys_sigreturn: the syscall's "result" is a0 of the restored frame, not
// a fresh return code, since execution is resuming mid-interrupted-flow
// rather than returning from this call in the normal sense.
func (d *Dispatcher_t) sysSigreturn(th *proc.Tcb_t, tf *trap.TrapContext_t) int64 {
	if th.SavedTrapCx == nil {
		return -int64(abi.EINVAL)
	}
	saved := th.SavedTrapCx
	th.SavedTrapCx = nil
	th.Process.SigMask = th.Process.SavedSigMask
	th.Process.CurrentSignal = 0
	*tf = *saved
	return int64(int32(tf.X[trap.RegA0]))
}

// DeliverSignals checks th's process for a deliverable pending signal and
// applies it to tf, per spec.md section 4.4's "On return to user, process
// pending signals on the main thread only" and section 4.9's bitset/
// single-active-handler model. Only ever called for the main thread
// (tid 0); callers skip it for every other thread. Returns true if the
// process terminated as a result (a lethal default-disposition signal),
// in which case the caller must not resume tf at all.
func (d *Dispatcher_t) DeliverSignals(th *proc.Tcb_t, tf *trap.TrapContext_t) bool {
	p := th.Process
	if p.CurrentSignal != 0 {
		return false // a handler is already running; no nesting.
	}
	deliverable := p.SigPending &^ p.SigMask
	sig, ok := deliverable.Lowest()
	if !ok {
		return false
	}
	p.SigPending.Del(sig)
	act := p.Sigactions[sig]
	switch act.Handler {
	case abi.SIG_IGN:
		return false
	case abi.SIG_DFL:
		if !abi.Lethal(sig) {
			return false
		}
		proc.Exit(p, -int(sig))
		return true
	default:
		backup := *tf
		th.SavedTrapCx = &backup
		p.SavedSigMask = p.SigMask
		p.SigMask |= act.Mask
		p.CurrentSignal = sig
		tf.Sepc = uint64(act.Handler)
		tf.X[trap.RegA0] = uint64(sig)
		return false
	}
}

func getUint64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
