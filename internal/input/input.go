// Package input implements the keyboard/mouse event queues spec.md's MMIO
// table reserves PLIC sources 5 and 6 for but the distillation otherwise
// drops; supplemented per SPEC_FULL.md section 12 from
// original_source/os/src/drivers/input/mod.rs's VirtIOInputWrapper. Each
// device is a small ring of pending u64-packed events drained by a
// yield-driven read loop, exposed to user space as an Event-style fd (internal/fsobj) rather than
// a bespoke syscall.
package input

import "sync"

// Device_i is what a registered input device exposes to a PLIC handler
// and to the fd layer: an IRQ callback that drains the driver's hardware
// queue, and a blocking read of one packed event.
type Device_i interface {
	// HandleIRQ is called from the PLIC dispatch table (internal/plic)
	// when this device's interrupt source is claimed; it pulls every
	// pending hardware event into the software queue, where a waiting
	// ReadEvent finds it on its next poll.
	HandleIRQ()
	// ReadEvent blocks (via the injected yield) until an event is queued,
	// then pops and returns it.
	ReadEvent() uint64
	// IsEmpty reports whether the software queue currently holds no
	// unprocessed events.
	IsEmpty() bool
}

// PopFunc pulls one raw event word from the underlying hardware queue, or
// reports false once it is drained; injected so this package does not
// need a concrete virtio-input driver to be exercised or tested.
type PopFunc func() (uint64, bool)

// Queue_t is a Device_i backed by a plain ring and a yield-driven wait
// loop -- the same cooperative-wakeup shape internal/fsobj's Pipe_t and
// Event_t use in place of condvar.rs's wait_no_sched/schedule dance, since
// this kernel's single-threaded critical sections make a full condvar
// unnecessary for what is, underneath, just a FIFO of words.
type Queue_t struct {
	mu     sync.Mutex
	events []uint64
	pop    PopFunc
	yield  func()
}

// NewQueue builds a Device_i that drains pop on every HandleIRQ and blocks
// ReadEvent callers via yield while empty.
func NewQueue(pop PopFunc, yield func()) *Queue_t {
	return &Queue_t{pop: pop, yield: yield}
}

func (q *Queue_t) HandleIRQ() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		ev, ok := q.pop()
		if !ok {
			break
		}
		q.events = append(q.events, ev)
	}
}

func (q *Queue_t) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events) == 0
}

func (q *Queue_t) ReadEvent() uint64 {
	for {
		q.mu.Lock()
		if len(q.events) > 0 {
			ev := q.events[0]
			q.events = q.events[1:]
			q.mu.Unlock()
			return ev
		}
		q.mu.Unlock()
		q.yield()
	}
}

// PackEvent folds an input event's type/code/value triple into the u64
// shape original_source's handle_irq builds (event_type<<48 |
// code<<32 | value), so a fd Read of 8 bytes round-trips the event.
func PackEvent(evType, code uint16, value uint32) uint64 {
	return uint64(evType)<<48 | uint64(code)<<32 | uint64(value)
}
