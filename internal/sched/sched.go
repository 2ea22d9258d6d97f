package sched

import "sync"

// Status_t is a task's scheduling state, per spec.md section 4.8.
type Status_t int

const (
	Ready Status_t = iota
	Running
	Blocked
)

func (s Status_t) String() string {
	switch s {
	case Ready:
		return "Ready"
	case Running:
		return "Running"
	case Blocked:
		return "Blocked"
	default:
		return "?"
	}
}

// Task is the subset of a TCB the scheduler needs: its saved context and
// its status. internal/proc's Tcb_t implements this; sched does not import
// proc; proc imports sched.
type Task interface {
	Context() *Context_t
	SetStatus(Status_t)
	Status() Status_t
}

// Processor_t is the per-CPU scheduling state: the currently running task
// and the idle context control returns to between tasks. spec.md allows
// exactly one of these (SMP is a non-goal).
type Processor_t struct {
	mu      sync.Mutex
	ready   []Task // FIFO: index 0 is the head
	current Task
	idle    Context_t
}

var cpu0 = &Processor_t{}

// Default returns the single system-wide processor.
func Default() *Processor_t { return cpu0 }

// AddReady appends t to the tail of the ready queue and marks it Ready.
func (p *Processor_t) AddReady(t Task) {
	t.SetStatus(Ready)
	p.mu.Lock()
	p.ready = append(p.ready, t)
	p.mu.Unlock()
}

// Fetch pops and returns the task at the head of the ready queue. Per
// spec.md section 9's resolved Open Question, Fetch returns the popped
// task, not just a bool.
func (p *Processor_t) Fetch() (Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.ready) == 0 {
		return nil, false
	}
	t := p.ready[0]
	p.ready = p.ready[1:]
	return t, true
}

// Current returns the task currently installed as running on this
// processor, or nil if none.
func (p *Processor_t) Current() Task { return p.current }

// ReadyLen reports the number of tasks waiting in the ready queue; used by
// diagnostics and tests.
func (p *Processor_t) ReadyLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ready)
}

// Run is the scheduler's main loop, per spec.md section 4.8: pop a task,
// mark it Running, switch into it, and when control returns to the idle
// context (via Schedule), go back to the top. limit bounds the number of
// iterations so tests and a graceful shutdown path can stop it; pass a
// negative limit to run forever (the real boot path does this).
func (p *Processor_t) Run(limit int) {
	for i := 0; limit < 0 || i < limit; i++ {
		t, ok := p.Fetch()
		if !ok {
			continue // spin; a real kernel would WFI here
		}
		t.SetStatus(Running)
		p.current = t
		archSwitch(&p.idle, t.Context())
		p.current = nil
	}
}

// schedule switches from ctx back to this processor's idle context,
// returning control to the call site in Run that originally switched into
// the task owning ctx.
func (p *Processor_t) schedule(ctx *Context_t) {
	archSwitch(ctx, &p.idle)
}

// Schedule is the exported form of schedule, used by synchronization
// primitives that already performed the status-change bookkeeping via
// BlockCurrentNoSched and need to switch out after releasing an external
// lock.
func (p *Processor_t) Schedule(ctx *Context_t) {
	p.schedule(ctx)
}

// SuspendCurrentAndRunNext moves the current task to Ready, enqueues it,
// and switches to idle.
func (p *Processor_t) SuspendCurrentAndRunNext() {
	cur := p.current
	if cur == nil {
		panic("sched: SuspendCurrentAndRunNext with no current task")
	}
	p.AddReady(cur)
	p.schedule(cur.Context())
}

// BlockCurrentAndRunNext moves the current task to Blocked and switches to
// idle without enqueueing it. Some other path (a wakeup) must eventually
// re-enqueue it.
func (p *Processor_t) BlockCurrentAndRunNext() {
	cur := p.current
	if cur == nil {
		panic("sched: BlockCurrentAndRunNext with no current task")
	}
	cur.SetStatus(Blocked)
	p.schedule(cur.Context())
}

// BlockCurrentNoSched marks the current task Blocked and returns its saved
// context pointer without switching. The caller can then release an
// external lock and call Schedule(ctx) itself, making "enqueue as a waiter"
// and "release the lock" atomic with respect to a concurrent signal/wakeup
// -- the wait-no-sched pattern condition variables rely on (spec.md
// sections 4.9 and 9).
func (p *Processor_t) BlockCurrentNoSched() *Context_t {
	cur := p.current
	if cur == nil {
		panic("sched: BlockCurrentNoSched with no current task")
	}
	cur.SetStatus(Blocked)
	return cur.Context()
}

// WakeupTask marks t Ready and enqueues it. Waking a task that is not
// Blocked is a kernel bug and panics.
func (p *Processor_t) WakeupTask(t Task) {
	if t.Status() != Blocked {
		panic("sched: waking a task that was not Blocked")
	}
	p.AddReady(t)
}

// WithCurrent installs t as the processor's current task for the duration
// of fn, without performing a context switch, and restores the previous
// current task afterward. Callers running as t execute fn on their own
// goroutine stack, so no stack transfer is needed; this is how
// internal/ksync's primitives exercise "which task is current" behavior
// against the portable (non-riscv64) build, where archSwitch never really
// transfers control (see arch_portable.go).
func (p *Processor_t) WithCurrent(t Task, fn func()) {
	prev := p.current
	p.current = t
	fn()
	p.current = prev
}
