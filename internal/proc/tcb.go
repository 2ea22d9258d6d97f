package proc

import (
	"rvkernel/internal/abi"
	"rvkernel/internal/frame"
	"rvkernel/internal/sched"
	"rvkernel/internal/trap"
)

// Tcb_t is a thread control block: one schedulable unit within a process.
// It generalizes original_source/os/src/task/task.rs's TaskControlBlock
// split across a process (Pcb_t, below) and a thread (this type), the way
// original_source/os/src/task/id.rs's TaskUserRes separates per-thread
// user-stack/trap-context/kstack resources from the process-wide
// MemorySet/fd_table/children that task.rs bundled together for the
// single-threaded-process case.
type Tcb_t struct {
	Process *Pcb_t
	Tid     abi.Tid_t

	kstackSlot        int
	KstackLo, KstackHi uint64

	// TrapCxPpn is the physical page backing this thread's trap context,
	// one page per thread inside the shared process address space, per
	// id.rs's TaskUserRes (trap_cx_ppn is thread-local even though
	// memory_set is shared).
	TrapCxPpn     frame.Ppn_t
	UserStackBase uint64

	ctx      sched.Context_t
	status   sched.Status_t
	ExitCode int
	Exited   bool

	// SavedTrapCx backs up this thread's trap context while a signal
	// handler runs on the main thread, per spec.md section 4.9; nil
	// whenever no handler is in flight. Only ever populated for tid 0,
	// since signals are delivered to the main thread only.
	SavedTrapCx *trap.TrapContext_t
}

func (t *Tcb_t) Context() *sched.Context_t  { return &t.ctx }
func (t *Tcb_t) SetStatus(s sched.Status_t) { t.status = s }
func (t *Tcb_t) Status() sched.Status_t     { return t.status }

var _ sched.Task = (*Tcb_t)(nil)
