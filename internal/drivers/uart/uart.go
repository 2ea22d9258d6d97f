// Package uart drives the ns16550a-compatible UART at MMIO base
// 0x1000_0000 (spec.md section 6), directly grounded on
// original_source/os/src/drivers/chardev/ns16550a.rs's register layout
// (RBR/THR share offset 0, IER at 1, LSR at 5) and its two-tier shape: a
// raw register accessor (NS16550aRaw) plus a buffered wrapper
// (NS16550a) that queues bytes pulled off the wire by an interrupt
// handler and wakes blocked readers. internal/fsobj's Stdin_t/Stdout_t
// are built against this package's ByteSink_i/ByteSource_i-shaped
// methods rather than importing it directly.
package uart

import "rvkernel/internal/mmio"

// Register byte offsets for the "without DLAB" register view, per
// ns16550a.rs's ReadWithoutDLAB/WriteWithoutDLAB structs.
const (
	regRBR = 0 // receiver buffer (read)
	regTHR = 0 // transmitter holding (write)
	regIER = 1 // interrupt enable
	regLSR = 5 // line status
)

const (
	lsrDataAvailable = 1 << 0
	lsrThrEmpty      = 1 << 5
)

const (
	ierRxAvailable = 1 << 0
)

// Uart_t is a buffered UART: HandleIRQ drains the hardware FIFO into a
// software ring, and ReadByte blocks (via the injected yield) while that
// ring is empty, per ns16550a.rs's NS16550a/NS16550aInner.
type Uart_t struct {
	win mmio.Window_i
	buf []byte
	yield func()
}

// New wraps the UART register window at base and enables the
// receive-available interrupt, per ns16550a.rs's init().
func New(base uint64, yield func()) *Uart_t {
	u := &Uart_t{win: mmio.New(base), yield: yield}
	u.win.Write32(regIER, ierRxAvailable)
	return u
}

// WriteByte busy-waits on THR_EMPTY and writes one byte, per
// NS16550aRaw::write.
func (u *Uart_t) WriteByte(b byte) error {
	for u.win.Read32(regLSR)&lsrThrEmpty == 0 {
	}
	u.win.Write32(regTHR, uint32(b))
	return nil
}

// rawRead returns one byte and true if the line status register reports
// data available, per NS16550aRaw::read, or (0, false) otherwise.
func (u *Uart_t) rawRead() (byte, bool) {
	if u.win.Read32(regLSR)&lsrDataAvailable == 0 {
		return 0, false
	}
	return byte(u.win.Read32(regRBR)), true
}

// HandleIRQ drains every byte currently available in hardware into the
// software ring, per NS16550a::handle_irq. Registered against PLIC source
// 10 (spec.md section 6) via internal/plic.Register.
func (u *Uart_t) HandleIRQ() {
	for {
		b, ok := u.rawRead()
		if !ok {
			break
		}
		u.buf = append(u.buf, b)
	}
}

// ReadByte blocks by yielding while the software ring is empty, then pops
// and returns the oldest buffered byte, per NS16550a::read.
func (u *Uart_t) ReadByte() (byte, error) {
	for len(u.buf) == 0 {
		u.yield()
	}
	b := u.buf[0]
	u.buf = u.buf[1:]
	return b, nil
}
