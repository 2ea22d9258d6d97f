// Package syscall is the single entry point every system call passes
// through, dispatched by a7/a0-a2 exactly as
// original_source/os/src/syscall/mod.rs's syscall() function does, with
// each syscall implemented in its own sys_-named function across this
// package's files the same way mod.rs splits fs.rs/process.rs/sync.rs/
// thread.rs.
package syscall

import (
	"rvkernel/internal/abi"
	"rvkernel/internal/proc"
	"rvkernel/internal/sched"
	"rvkernel/internal/trap"
)

// Dispatcher_t holds the hooks this package needs from the rest of the
// kernel: the processor to find the calling thread, the filesystem to
// resolve open/exec paths, and a clock for get_time/times. Injected the
// same way internal/trap.Deps and internal/fsobj's console types are, so
// this package does not need to import internal/easyfs or a concrete
// driver directly.
type Dispatcher_t struct {
	Proc *sched.Processor_t

	// OpenFile resolves path under flags to an open file description, for
	// sys_open.
	OpenFile func(path string, flags uint32) (OpenFile_i, abi.Err_t)
	// ReadWholeFile reads an entire file's contents for sys_exec to load
	// as an ELF image.
	ReadWholeFile func(path string) ([]byte, abi.Err_t)
	// NowMillis returns milliseconds since boot, for sys_get_time/
	// sys_times.
	NowMillis func() uint64
	// AddTimer schedules th to be woken at expireMs, for sys_sleep.
	AddTimer func(expireMs uint64, th *proc.Tcb_t)
}

// OpenFile_i is the subset of fsobj.Fdops_i sys_open needs; declared here
// rather than importing fsobj's concrete type to keep the dependency
// direction the same as the rest of this package's injected hooks. In
// practice callers pass an *fsobj.InodeFile_t, which already satisfies
// this (and fsobj.Fdops_i).
type OpenFile_i interface {
	Read(buf []byte) (int, abi.Err_t)
	Write(buf []byte) (int, abi.Err_t)
	Close() abi.Err_t
	Reopen() abi.Err_t
	Readable() bool
	Writable() bool
}

func (d *Dispatcher_t) current() *proc.Tcb_t {
	t, ok := d.Proc.Current().(*proc.Tcb_t)
	if !ok {
		panic("syscall: current task is not a *proc.Tcb_t")
	}
	return t
}

// toRet packs a signed kernel return value (matching the isize the
// original syscalls return) into the uint64 trap.HandleUserTrap writes to
// a0.
func toRet(v int64) uint64 { return uint64(v) }

func errRet(e abi.Err_t) uint64 { return toRet(-int64(e)) }

// Dispatch resolves and executes the syscall named by tf's a7, per
// mod.rs's match on syscall_id. It is meant to be used as
// internal/trap.Deps.Syscall.
func (d *Dispatcher_t) Dispatch(tf *trap.TrapContext_t) uint64 {
	th := d.current()
	p := th.Process
	a0, a1, a2 := tf.X[trap.RegA0], tf.X[trap.RegA1], tf.X[trap.RegA2]

	switch tf.X[trap.RegA7] {
	case abi.SYS_DUP:
		return toRet(d.sysDup(p, int(a0)))
	case abi.SYS_OPEN:
		return toRet(d.sysOpen(p, a0, uint32(a1)))
	case abi.SYS_CLOSE:
		return toRet(d.sysClose(p, int(a0)))
	case abi.SYS_PIPE:
		return toRet(d.sysPipe(p, a0))
	case abi.SYS_READ:
		return toRet(d.sysRead(p, int(a0), a1, int(a2)))
	case abi.SYS_WRITE:
		return toRet(d.sysWrite(p, int(a0), a1, int(a2)))
	case abi.SYS_EXIT:
		return toRet(d.sysExit(th, p, int32(a0)))
	case abi.SYS_SLEEP:
		return toRet(d.sysSleep(th, a0))
	case abi.SYS_YIELD:
		return toRet(d.sysYield())
	case abi.SYS_KILL:
		return toRet(d.sysKill(abi.Pid_t(int64(a0)), abi.Sig_t(a1)))
	case abi.SYS_SIGACTION:
		return toRet(d.sysSigaction(p, int32(a0), a1, a2))
	case abi.SYS_SIGPROCMASK:
		return toRet(d.sysSigprocmask(p, abi.Sigset_t(a0)))
	case abi.SYS_SIGRETURN:
		return toRet(d.sysSigreturn(th, tf))
	case abi.SYS_GET_TIME:
		return toRet(d.sysGetTime())
	case abi.SYS_GETPID:
		return toRet(int64(p.Pid))
	case abi.SYS_FORK:
		return toRet(d.sysFork(p))
	case abi.SYS_EXEC:
		return toRet(d.sysExec(th, p, a0))
	case abi.SYS_WAITPID:
		return toRet(d.sysWaitpid(p, abi.Pid_t(int64(a0)), a1))
	case abi.SYS_THREAD_CREATE:
		return toRet(d.sysThreadCreate(p, a0, a1))
	case abi.SYS_GETTID:
		return toRet(int64(th.Tid))
	case abi.SYS_WAITTID:
		return toRet(d.sysWaittid(p, abi.Tid_t(int64(a0))))
	case abi.SYS_MUTEX_CREATE:
		return toRet(int64(p.Sync.CreateMutex()))
	case abi.SYS_MUTEX_LOCK:
		return toRet(d.sysMutexLock(p, int(a0)))
	case abi.SYS_MUTEX_UNLOCK:
		return toRet(d.sysMutexUnlock(p, int(a0)))
	case abi.SYS_SEM_CREATE:
		return toRet(int64(p.Sync.CreateSemaphore(int(a0))))
	case abi.SYS_SEM_UP:
		return toRet(d.sysSemUp(p, int(a0)))
	case abi.SYS_SEM_DOWN:
		return toRet(d.sysSemDown(p, int(a0)))
	case abi.SYS_COND_CREATE:
		return toRet(int64(p.Sync.CreateCondvar()))
	case abi.SYS_COND_SIGNAL:
		return toRet(d.sysCondSignal(p, int(a0)))
	case abi.SYS_COND_WAIT:
		return toRet(d.sysCondWait(p, int(a0), int(a1)))
	case abi.SYS_TIMES:
		return toRet(d.sysGetTime())
	default:
		panic("syscall: unsupported syscall number")
	}
}
