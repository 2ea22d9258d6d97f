package fsobj

import "rvkernel/internal/abi"

// Event_t is the counting eventfd variant, grounded on
// original_source/os/src/fs/eventfd.rs's Eventfd: a single counter read
// and written as a big-endian uint32, read blocking (by yielding) while
// the counter is zero unless opened non-blocking, per spec.md section
// 12's "eventfd and pipe support both read and write" resolution of the
// source's divergent drafts.
type Event_t struct {
	count     uint32
	semaphore bool // EventSemaphore mode: read returns 1 and decrements once.
	nonBlock  bool
	yield     func()
}

// NewEvent constructs an eventfd with the given initial count and mode
// flags, per eventfd.rs's eventfd_create/EventfdFlags.
func NewEvent(initial uint32, semaphore, nonBlock bool, yield func()) *Event_t {
	return &Event_t{count: initial, semaphore: semaphore, nonBlock: nonBlock, yield: yield}
}

func (e *Event_t) Readable() bool { return true }
func (e *Event_t) Writable() bool { return true }
func (e *Event_t) Close() abi.Err_t  { return 0 }
func (e *Event_t) Reopen() abi.Err_t { return 0 }

// Read writes the 4-byte big-endian counter value into buf (exactly 4
// bytes; a shorter buf is truncated), per eventfd.rs's read: in semaphore
// mode the value is always 1 and the counter decrements by one, otherwise
// the full counter value is returned and reset to 0.
func (e *Event_t) Read(buf []byte) (int, abi.Err_t) {
	for e.count == 0 {
		if e.nonBlock {
			return 0, 0
		}
		e.yield()
	}
	var out uint32
	if e.semaphore {
		out = 1
		e.count--
	} else {
		out = e.count
		e.count = 0
	}
	var bytes [4]byte
	bytes[0] = byte(out >> 24)
	bytes[1] = byte(out >> 16)
	bytes[2] = byte(out >> 8)
	bytes[3] = byte(out)
	n := copy(buf, bytes[:])
	return n, 0
}

// Write adds buf's big-endian uint32 value to the counter (buf must be
// exactly 4 bytes), per eventfd.rs's write. A blocked Read notices the
// new count on its next yield-driven poll, the same cooperative wakeup
// Pipe_t uses instead of an explicit wait queue.
func (e *Event_t) Write(buf []byte) (int, abi.Err_t) {
	if len(buf) != 4 {
		return 0, abi.EINVAL
	}
	add := uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
	e.count += add
	return 4, 0
}
