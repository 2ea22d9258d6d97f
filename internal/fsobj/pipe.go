package fsobj

import "rvkernel/internal/abi"

// ringBufferSize matches original_source/os/src/fs/pipe.rs's
// RING_BUFFER_SIZE.
const ringBufferSize = 32

type ringStatus int

const (
	ringEmpty ringStatus = iota
	ringFull
	ringNormal
)

// pipeRing is the shared backing buffer of a pipe pair, per pipe.rs's
// PipeRingBuffer. Both ends only ever run one at a time (this kernel's
// single cooperative CPU never preempts mid-call), so no lock guards it --
// the same assumption original_source/os/src/fs/pipe.rs's UPSafeCell
// documents as "unique processor, safe cell".
type pipeRing struct {
	arr           [ringBufferSize]byte
	head, tail    int
	status        ringStatus
	writeEndsOpen int
}

func newPipeRing() *pipeRing {
	return &pipeRing{status: ringEmpty, writeEndsOpen: 1}
}

func (r *pipeRing) availableRead() int {
	switch {
	case r.status == ringEmpty:
		return 0
	case r.tail > r.head:
		return r.tail - r.head
	default:
		return r.tail + ringBufferSize - r.head
	}
}

func (r *pipeRing) availableWrite() int {
	if r.status == ringFull {
		return 0
	}
	return ringBufferSize - r.availableRead()
}

func (r *pipeRing) writeByte(b byte) {
	r.status = ringNormal
	r.arr[r.tail] = b
	r.tail = (r.tail + 1) % ringBufferSize
	if r.tail == r.head {
		r.status = ringFull
	}
}

func (r *pipeRing) readByte() byte {
	r.status = ringNormal
	b := r.arr[r.head]
	r.head = (r.head + 1) % ringBufferSize
	if r.head == r.tail {
		r.status = ringEmpty
	}
	return b
}

// Pipe_t is one end (read or write) of a pipe, sharing a pipeRing with its
// counterpart, per pipe.rs's Pipe/make_pipe.
type Pipe_t struct {
	readable bool
	writable bool
	ring     *pipeRing
	yield    func() // suspend-current-and-run-next, injected to avoid an
	// import cycle with internal/sched from a package internal/sched
	// itself does not depend on.
}

// MakePipe returns (read end, write end) sharing one ring buffer. yield
// suspends the calling task and returns control to the scheduler; pass
// sched.Default().SuspendCurrentAndRunNext.
func MakePipe(yield func()) (*Pipe_t, *Pipe_t) {
	ring := newPipeRing()
	read := &Pipe_t{readable: true, ring: ring, yield: yield}
	write := &Pipe_t{writable: true, ring: ring, yield: yield}
	return read, write
}

func (p *Pipe_t) Readable() bool { return p.readable }
func (p *Pipe_t) Writable() bool { return p.writable }

// Read copies from the ring buffer into buf, blocking (by yielding) while
// the buffer is empty and a write end remains open; it returns fewer
// bytes than len(buf) only once every write end has closed.
func (p *Pipe_t) Read(buf []byte) (int, abi.Err_t) {
	if !p.readable {
		return 0, abi.EINVAL
	}
	want := len(buf)
	read := 0
	for read < want {
		avail := p.ring.availableRead()
		if avail == 0 {
			if p.ring.writeEndsOpen == 0 {
				return read, 0
			}
			p.yield()
			continue
		}
		for i := 0; i < avail && read < want; i++ {
			buf[read] = p.ring.readByte()
			read++
		}
	}
	return read, 0
}

// Write copies buf into the ring buffer, blocking (by yielding) while the
// buffer is full.
func (p *Pipe_t) Write(buf []byte) (int, abi.Err_t) {
	if !p.writable {
		return 0, abi.EINVAL
	}
	want := len(buf)
	written := 0
	for written < want {
		avail := p.ring.availableWrite()
		if avail == 0 {
			p.yield()
			continue
		}
		for i := 0; i < avail && written < want; i++ {
			p.ring.writeByte(buf[written])
			written++
		}
	}
	return written, 0
}

func (p *Pipe_t) Close() abi.Err_t {
	if p.writable {
		p.ring.writeEndsOpen--
	}
	return 0
}

func (p *Pipe_t) Reopen() abi.Err_t {
	if p.writable {
		p.ring.writeEndsOpen++
	}
	return 0
}
