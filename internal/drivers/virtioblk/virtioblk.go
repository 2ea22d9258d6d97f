// Package virtioblk drives the paravirtualized block device at MMIO base
// 0x1000_8000 (spec.md section 6) and implements internal/blkcache's
// Disk_i. Per spec.md section 1, the block driver is an external
// collaborator -- its interface to the core (ReadBlock/WriteBlock) is
// specified, its internals are not -- so this intentionally simplifies
// original_source/os/src/drivers/block/virtio_blk.rs's full virtio-blk
// descriptor-ring protocol (which itself delegates to the virtio-drivers
// crate, out of scope for a from-scratch retrieval pack) down to a
// minimal synchronous request/response handshake over the same register
// window, while keeping virtio_blk.rs's two operating modes: a blocking
// poll loop, and a non-blocking mode that suspends the caller and relies
// on HandleIRQ + a per-request condvar to wake it, mirroring
// DEV_NON_BLOCKING_ACCESS and the condvars-keyed-by-descriptor-token
// map.
package virtioblk

import (
	"sync"

	"rvkernel/internal/blkcache"
	"rvkernel/internal/ksync"
	"rvkernel/internal/mmio"
)

// Register offsets of the simplified request/response window: the driver
// writes the block id and (for writes) BSIZE bytes of data, pokes the
// doorbell, and either polls the status register or -- in non-blocking
// mode -- blocks on a condvar that HandleIRQ signals once the device
// raises its completion interrupt (PLIC source 8, spec.md section 6).
const (
	regBlockID  = 0x00
	regOpcode   = 0x08 // 0 = read, 1 = write
	regDoorbell = 0x0c
	regStatus   = 0x10 // 0 = idle, 1 = busy, 2 = ok, 3 = error
	regData     = 0x100
)

const (
	opRead  = 0
	opWrite = 1

	statusIdle = 0
	statusBusy = 1
	statusOk   = 2
	statusErr  = 3
)

// Disk_t is a blkcache.Disk_i backed by the virtio-blk MMIO window.
type Disk_t struct {
	mu         sync.Mutex
	win        mmio.Window_i
	nonBlock   bool
	pending    *ksync.Condvar_t
	pendingGate sync.Mutex
}

// New wraps the block device register window at base. The default poll
// loop never suspends the calling task; only non-blocking mode
// (SetNonBlocking) does, through the condvar.
func New(base uint64) *Disk_t {
	return &Disk_t{win: mmio.New(base), pending: ksync.NewCondvar()}
}

// SetNonBlocking toggles between the poll loop and the interrupt-driven
// condvar wait, per virtio_blk.rs's DEV_NON_BLOCKING_ACCESS global.
func (d *Disk_t) SetNonBlocking(nb bool) { d.nonBlock = nb }

func (d *Disk_t) doRequest(blockID uint64, opcode uint32, data *[blkcache.BSIZE]byte, write bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.win.Write32(regBlockID+0, uint32(blockID))
	d.win.Write32(regBlockID+4, uint32(blockID>>32))
	d.win.Write32(regOpcode, opcode)
	if write {
		for i := 0; i < blkcache.BSIZE; i += 4 {
			var word uint32
			for b := 0; b < 4 && i+b < blkcache.BSIZE; b++ {
				word |= uint32(data[i+b]) << (8 * b)
			}
			d.win.Write32(regData+uint64(i), word)
		}
	}
	d.win.Write32(regDoorbell, 1)

	if d.nonBlock {
		d.pendingGate.Lock()
		d.pending.Wait(&d.pendingGate)
		d.pendingGate.Unlock()
	} else {
		for d.win.Read32(regStatus) == statusBusy {
		}
	}

	if !write {
		for i := 0; i < blkcache.BSIZE; i += 4 {
			word := d.win.Read32(regData + uint64(i))
			for b := 0; b < 4 && i+b < blkcache.BSIZE; b++ {
				data[i+b] = byte(word >> (8 * b))
			}
		}
	}
}

// ReadBlock implements blkcache.Disk_i.
func (d *Disk_t) ReadBlock(id uint64, buf *[blkcache.BSIZE]byte) error {
	d.doRequest(id, opRead, buf, false)
	return nil
}

// WriteBlock implements blkcache.Disk_i.
func (d *Disk_t) WriteBlock(id uint64, buf *[blkcache.BSIZE]byte) error {
	d.doRequest(id, opWrite, buf, true)
	return nil
}

// HandleIRQ wakes a task parked in the non-blocking path once the device
// signals completion, per virtio_blk.rs's handle_irq/pop_used loop
// simplified to this package's single-outstanding-request model.
// Registered against PLIC source 8 (spec.md section 6) via
// internal/plic.Register.
func (d *Disk_t) HandleIRQ() {
	d.pending.Signal()
}
