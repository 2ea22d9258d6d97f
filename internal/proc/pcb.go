// Package proc implements the process and thread control blocks of
// spec.md section 4.7: process creation from an ELF image, fork's
// deep-copy address-space duplication, exec's in-place replacement, and
// the parent/child exit-code/zombie/reparent-to-init protocol, plus the
// per-thread resources (kernel stack, trap context, user stack) a process's
// threads need to share one address space. Grounded on
// original_source/os/src/task/task.rs (TaskControlBlock/Inner), pid.rs
// (PidAllocator, kernel_stack_position) and id.rs (RecycleAllocator,
// TaskUserRes), generalized from biscuit's single Proc_t (proc/proc.go)
// which bundles what task.rs splits into process- and thread-level state.
package proc

import (
	"sync"

	"rvkernel/internal/abi"
	"rvkernel/internal/frame"
	"rvkernel/internal/fsobj"
	"rvkernel/internal/memset"
	"rvkernel/internal/sched"
	"rvkernel/internal/trap"
	"rvkernel/internal/trap/trapasm"
)

var (
	pidAlloc    = NewRecycleAllocator()
	kstackAlloc = NewRecycleAllocator()

	tableMu  sync.Mutex
	pidTable = map[abi.Pid_t]*Pcb_t{}
)

// InitPid is the pid reserved for the first process; spec.md section 4.7
// reparents orphaned children to it, mirroring id.rs's IDLE_PID convention
// generalized to "the well-known root of the process tree" rather than an
// idle-task sentinel.
const InitPid abi.Pid_t = 1

// Pcb_t is a process control block: the address space, file descriptor
// table, and process-tree bookkeeping shared by every thread of the
// process. Per task.rs's TaskControlBlockInner, generalized to hold a
// slice of threads instead of exactly one.
type Pcb_t struct {
	mu sync.Mutex

	Pid    abi.Pid_t
	Parent *Pcb_t
	Children []*Pcb_t

	MemSet        *memset.MemSet_t
	TrampolinePpn uint64

	Fdtable []*fsobj.Fd_t

	Threads []*Tcb_t
	tidAlloc *RecycleAllocator

	Sync SyncObjects_t

	Sigactions [32]abi.Sigaction_t
	SigMask    abi.Sigset_t
	SigPending abi.Sigset_t

	// CurrentSignal is the signal number a user handler is currently
	// running for (0 means none), and SavedSigMask is the mask to
	// restore once sigreturn unwinds it, per spec.md section 4.9's
	// "nested user handlers not supported".
	CurrentSignal abi.Sig_t
	SavedSigMask  abi.Sigset_t

	ExitCode int
	IsZombie bool
}

func register(p *Pcb_t) {
	tableMu.Lock()
	pidTable[p.Pid] = p
	tableMu.Unlock()
}

// Lookup returns the process with the given pid, if it still exists.
func Lookup(pid abi.Pid_t) (*Pcb_t, bool) {
	tableMu.Lock()
	defer tableMu.Unlock()
	p, ok := pidTable[pid]
	return p, ok
}

func allocKstack() (slot int, lo, hi uint64) {
	slot = kstackAlloc.Alloc()
	lo, hi = memset.KstackRange(slot)
	return
}

// newThread allocates a fresh kernel stack slot and trap-context frame for
// a thread joining p, maps both into p's address space, and returns it
// added to p.Threads but not yet scheduled.
func (p *Pcb_t) newThread(entry, userSP uint64) (*Tcb_t, error) {
	tid := abi.Tid_t(p.tidAlloc.Alloc())
	slot, klo, khi := allocKstack()

	t := &Tcb_t{
		Process:       p,
		Tid:           tid,
		kstackSlot:    slot,
		KstackLo:      klo,
		KstackHi:      khi,
		UserStackBase: userSP,
	}

	// A thread beyond the first needs its own trap-context page; the main
	// thread (tid 0) reuses the one NewFromElf already mapped at
	// memset.TrapContextVA, per id.rs's TaskUserRes allocating
	// trap_cx_ppn only for threads it creates after the first.
	if tid == 0 {
		t.TrapCxPpn = p.MemSet.TrapContextPpn()
	} else {
		h, err := frame.Global().Alloc()
		if err != nil {
			p.tidAlloc.Dealloc(int(tid))
			kstackAlloc.Dealloc(slot)
			return nil, err
		}
		t.TrapCxPpn = h.Ppn()
	}

	cx := trap.InitAppContext(entry, userSP, kernelSatp, t.KstackHi, trapHandlerPC)
	*frame.ArenaView[trap.TrapContext_t](t.TrapCxPpn) = *cx

	// The scheduler's __switch never runs a freshly created thread's
	// kernel code -- there is none, its kernel stack is still raw memory.
	// Instead its Context_t.Ra points at trapasm's first-run trampoline,
	// which finds the trap-context physical address and user satp stashed
	// in the two callee-saved slots __switch would otherwise restore into
	// s0/s1, and falls straight into __restore without ever having been
	// "called" in the Go sense. Per id.rs's goto_restore/TaskContext
	// contract, reconstructed the same way as internal/trap's layout.
	t.ctx.Ra = uintptr(trapasm.FirstRunTrampolinePC())
	t.ctx.Sp = uintptr(t.KstackHi)
	t.ctx.S[0] = uintptr(t.TrapCxPpn.Pa())
	t.ctx.S[1] = uintptr(p.MemSet.Pt.Token())

	p.Threads = append(p.Threads, t)
	return t, nil
}

// kernelSatp and trapHandlerPC are the two pieces of boot-time state every
// thread's initial trap context needs and which cmd/kernel alone knows:
// the kernel's own page table token (so __restore's matching trap can
// switch back into it) and the address cmd/kernel's handleFromTrampoline
// was linked at.
// SetKernelContext must run once before the first call to NewInitProc.
var (
	kernelSatp    uint64
	trapHandlerPC uint64
)

func SetKernelContext(satp uint64, handlerPC uint64) {
	kernelSatp = satp
	trapHandlerPC = handlerPC
}

// KernelSatp and TrapHandlerPC expose the values SetKernelContext stashed,
// for internal/syscall's sysExec to rebuild a trap context with -- exec
// needs the exact same two values newThread used originally.
func KernelSatp() uint64    { return kernelSatp }
func TrapHandlerPC() uint64 { return trapHandlerPC }

// NewInitProc builds the first process from an ELF image: address space,
// fd table defaulting to stdin/stdout/stdout (task.rs's new() seeds
// fd_table with three duplicate stdout entries; spec.md section 6 instead
// calls for a real Stdin_t at fd 0), and one main thread (tid 0) ready to
// run.
func NewInitProc(elfImage []byte, trampolinePpn uint64, stdin fsobj.Fdops_i, stdout fsobj.Fdops_i) (*Pcb_t, error) {
	ms, userSP, entry, err := memset.NewFromElf(elfImage, trampolinePpn)
	if err != nil {
		return nil, err
	}

	p := &Pcb_t{
		Pid:           abi.Pid_t(pidAlloc.Alloc()),
		TrampolinePpn: trampolinePpn,
		MemSet:        ms,
		tidAlloc:      NewRecycleAllocator(),
	}
	p.Fdtable = []*fsobj.Fd_t{
		{Fops: stdin, Perms: fsobj.FD_READ},
		{Fops: stdout, Perms: fsobj.FD_WRITE},
		{Fops: stdout, Perms: fsobj.FD_WRITE},
	}

	t, err := p.newThread(entry, userSP)
	if err != nil {
		ms.Drop()
		return nil, err
	}
	t.SetStatus(sched.Ready)

	register(p)
	return p, nil
}

// Fork duplicates parent into a new child process: a byte-for-byte copy of
// the address space (memset.FromExistedUser, never copy-on-write, per
// spec.md section 4.3's explicit invariant), a Copyfd'd fd table, and a
// single main thread whose trap-context page is copied verbatim from the
// parent's so the child resumes at the same program counter with a zero
// return value once the caller patches a0, per task.rs's fork().
func Fork(parent *Pcb_t) (*Pcb_t, error) {
	parent.mu.Lock()
	defer parent.mu.Unlock()

	ms, err := memset.FromExistedUser(parent.MemSet)
	if err != nil {
		return nil, err
	}

	child := &Pcb_t{
		Pid:           abi.Pid_t(pidAlloc.Alloc()),
		Parent:        parent,
		TrampolinePpn: parent.TrampolinePpn,
		MemSet:        ms,
		tidAlloc:      NewRecycleAllocator(),
		SigMask:       parent.SigMask,
		Sigactions:    parent.Sigactions,
	}

	for _, fd := range parent.Fdtable {
		if fd == nil {
			child.Fdtable = append(child.Fdtable, nil)
			continue
		}
		nfd, ferr := fsobj.Copyfd(fd)
		if ferr != 0 {
			ms.Drop()
			pidAlloc.Dealloc(int(child.Pid))
			return nil, errFromAbi(ferr)
		}
		child.Fdtable = append(child.Fdtable, nfd)
	}

	main := parent.Threads[0]
	ct, err := child.newThread(0, main.UserStackBase)
	if err != nil {
		ms.Drop()
		pidAlloc.Dealloc(int(child.Pid))
		return nil, err
	}
	copy(frame.Dmap(ct.TrapCxPpn)[:], frame.Dmap(main.TrapCxPpn)[:])
	ct.SetStatus(sched.Ready)

	parent.Children = append(parent.Children, child)
	register(child)
	return child, nil
}

// Exec replaces p's address space and main thread in place with a fresh
// ELF image, per task.rs's exec(): the pid, fd table, and parent/children
// links survive; everything address-space-shaped does not. Non-main
// threads do not survive exec (spec.md's thread group dissolves on exec,
// matching POSIX and rCore-tutorial ch8's single-thread-post-exec model).
// Exec returns the new entry point and user stack top so the caller (the
// syscall layer, which owns internal/trap.TrapContext_t) can rebuild the
// main thread's trap context; Exec itself leaves the trap context page
// untouched.
func Exec(p *Pcb_t, elfImage []byte) (entry, userSP uint64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ms, userSP, entry, err := memset.NewFromElf(elfImage, p.TrampolinePpn)
	if err != nil {
		return 0, 0, err
	}

	old := p.MemSet
	p.MemSet = ms
	old.Drop()

	main := p.Threads[0]
	p.Threads = p.Threads[:1]
	main.UserStackBase = userSP
	main.TrapCxPpn = ms.TrapContextPpn()
	main.ExitCode = 0
	main.Exited = false
	return entry, userSP, nil
}

// Exit marks p a zombie with the given exit code, releases its address
// space (fd table and children bookkeeping stay until a parent reaps it
// with WaitPid), and reparents every surviving child to InitPid, per
// task.rs's exit semantics and spec.md section 4.7's orphan rule.
func Exit(p *Pcb_t, code int) {
	p.mu.Lock()
	p.ExitCode = code
	p.IsZombie = true
	children := p.Children
	p.Children = nil
	ms := p.MemSet
	p.MemSet = nil
	p.mu.Unlock()

	if ms != nil {
		ms.Drop()
	}

	initProc, hasInit := Lookup(InitPid)
	for _, c := range children {
		c.mu.Lock()
		c.Parent = nil
		c.mu.Unlock()
		if !hasInit {
			continue
		}
		c.mu.Lock()
		c.Parent = initProc
		c.mu.Unlock()
		initProc.mu.Lock()
		initProc.Children = append(initProc.Children, c)
		initProc.mu.Unlock()
	}
}

// WaitPid looks for a zombie child matching pid (-1 matches any child),
// reaps the first one found, and returns (child pid, exit code, 0). If pid
// names a real child that has not exited yet it returns (0, 0,
// abi.WouldBlock) the caller retries after blocking; if no matching child
// exists at all it returns an ESRCH error, per spec.md section 4.7 and
// task.rs's sys_waitpid.
func WaitPid(parent *Pcb_t, pid abi.Pid_t) (abi.Pid_t, int, abi.Err_t) {
	parent.mu.Lock()
	defer parent.mu.Unlock()

	found := false
	for i, c := range parent.Children {
		if pid != -1 && c.Pid != pid {
			continue
		}
		found = true
		c.mu.Lock()
		zombie := c.IsZombie
		code := c.ExitCode
		c.mu.Unlock()
		if !zombie {
			continue
		}
		parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
		tableMu.Lock()
		delete(pidTable, c.Pid)
		tableMu.Unlock()
		pidAlloc.Dealloc(int(c.Pid))
		return c.Pid, code, 0
	}
	if !found {
		return 0, 0, abi.ESRCH
	}
	return 0, 0, abi.Err_t(abi.WouldBlock)
}

// ThreadCreate starts a new thread inside p at entry with user stack top
// userStackTop, returning its Tcb_t. Grounded on id.rs's TaskUserRes allocation path used by
// sys_thread_create.
func ThreadCreate(p *Pcb_t, entry, userStackTop uint64) (*Tcb_t, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.newThread(entry, userStackTop)
}

// WaitTid reaps thread tid of p once it has exited, returning its exit
// code; returns abi.WouldBlock if it exists but has not exited, ESRCH if
// no such thread exists. The main thread (tid 0) can never be reaped this
// way -- only Exit/WaitPid retires the whole process, per id.rs's
// "tid 0 is special" comment on TaskUserRes.
func WaitTid(p *Pcb_t, tid abi.Tid_t) (int, abi.Err_t) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if tid == 0 {
		return 0, abi.EINVAL
	}
	for i, t := range p.Threads {
		if t.Tid != tid {
			continue
		}
		if !t.Exited {
			return 0, abi.Err_t(abi.WouldBlock)
		}
		code := t.ExitCode
		p.Threads = append(p.Threads[:i], p.Threads[i+1:]...)
		p.tidAlloc.Dealloc(int(tid))
		kstackAlloc.Dealloc(t.kstackSlot)
		return code, 0
	}
	return 0, abi.ESRCH
}

// ExitThread marks t exited with the given code without tearing down the
// process; the process itself only exits when its main thread does (the
// trap/syscall layer enforces that by routing tid-0 exits through Exit
// instead).
func ExitThread(t *Tcb_t, code int) {
	t.ExitCode = code
	t.Exited = true
}

func errFromAbi(e abi.Err_t) error { return errCode(e) }

type errCode abi.Err_t

func (e errCode) Error() string { return "proc: operation failed" }
