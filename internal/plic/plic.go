// Package plic drives the platform-level interrupt controller, directly
// grounded on original_source/os/src/drivers/plic.rs: it exposes the same
// priority/enable/threshold/claim/complete registers at the same byte
// offsets, generalized from Rust's unsafe raw-pointer reads/writes to
// Go's internal/mmio.Window_i.
package plic

import "rvkernel/internal/mmio"

// TargetPriority selects which privilege level's interrupt context to
// address, per the PLIC spec's per-hart-per-mode context numbering.
type TargetPriority int

const (
	Machine TargetPriority = iota
	Supervisor
)

// supportedPriorities is the number of TargetPriority contexts per hart.
const supportedPriorities = 2

// Plic_t is one platform-level interrupt controller instance.
type Plic_t struct {
	win mmio.Window_i
}

// New wraps the PLIC register window starting at base.
func New(base uint64) *Plic_t {
	return &Plic_t{win: mmio.New(base)}
}

func contextID(hartID int, target TargetPriority) int {
	return hartID*supportedPriorities + int(target)
}

func priorityOffset(intrSourceID int) uint64 {
	if intrSourceID <= 0 || intrSourceID > 132 {
		panic("plic: interrupt source id out of range")
	}
	return uint64(intrSourceID) * 4
}

func enableOffset(hartID int, target TargetPriority, intrSourceID int) (reg uint64, shift uint) {
	id := contextID(hartID, target)
	regID, regShift := intrSourceID/32, intrSourceID%32
	return 0x2000 + 0x80*uint64(id) + 0x4*uint64(regID), uint(regShift)
}

func thresholdOffset(hartID int, target TargetPriority) uint64 {
	id := contextID(hartID, target)
	return 0x20_0000 + 0x1000*uint64(id)
}

func claimCompleteOffset(hartID int, target TargetPriority) uint64 {
	id := contextID(hartID, target)
	return 0x20_0004 + 0x1000*uint64(id)
}

// SetPriority assigns a 0-7 priority to an interrupt source. Priority 0
// means "never interrupt".
func (p *Plic_t) SetPriority(intrSourceID int, priority uint32) {
	if priority >= 8 {
		panic("plic: priority must be 0-7")
	}
	p.win.Write32(priorityOffset(intrSourceID), priority)
}

// GetPriority reads an interrupt source's configured priority.
func (p *Plic_t) GetPriority(intrSourceID int) uint32 {
	return p.win.Read32(priorityOffset(intrSourceID)) & 7
}

// Enable unmasks intrSourceID for the given hart/privilege context.
func (p *Plic_t) Enable(hartID int, target TargetPriority, intrSourceID int) {
	reg, shift := enableOffset(hartID, target, intrSourceID)
	p.win.Write32(reg, p.win.Read32(reg)|(1<<shift))
}

// Disable masks intrSourceID for the given hart/privilege context.
func (p *Plic_t) Disable(hartID int, target TargetPriority, intrSourceID int) {
	reg, shift := enableOffset(hartID, target, intrSourceID)
	p.win.Write32(reg, p.win.Read32(reg)&^(1<<shift))
}

// SetThreshold sets the minimum priority this hart/context will notice.
func (p *Plic_t) SetThreshold(hartID int, target TargetPriority, threshold uint32) {
	if threshold >= 8 {
		panic("plic: threshold must be 0-7")
	}
	p.win.Write32(thresholdOffset(hartID, target), threshold)
}

// GetThreshold reads the hart/context's current threshold.
func (p *Plic_t) GetThreshold(hartID int, target TargetPriority) uint32 {
	return p.win.Read32(thresholdOffset(hartID, target)) & 7
}

// Claim reads the claim register, returning the id of the highest-priority
// pending interrupt source (0 if none), and marks it in-service.
func (p *Plic_t) Claim(hartID int, target TargetPriority) uint32 {
	return p.win.Read32(claimCompleteOffset(hartID, target))
}

// Complete signals that intrSourceID has finished being serviced.
func (p *Plic_t) Complete(hartID int, target TargetPriority, intrSourceID uint32) {
	p.win.Write32(claimCompleteOffset(hartID, target), intrSourceID)
}

// Handler_f services one claimed interrupt source.
type Handler_f func()

// dispatch is the IRQ source -> registered driver table, per
// original_source/os/src/drivers/plic.rs's static irq_handler match (the
// retrieval's copy of plic.rs breaks off mid-enable_ptr before reaching
// the dispatch match arm; this keeps the same "table keyed by source id"
// shape spec.md section 12 calls for instead of hardcoding a switch over
// just the two sources the distillation mentions).
var dispatch = map[uint32]Handler_f{}

// Register installs handler to run when source is claimed by HandleExternal.
// Interrupt source ids are the ones spec.md section 6's MMIO table lists:
// 5 keyboard, 6 mouse, 8 block, 10 UART.
func Register(source uint32, handler Handler_f) {
	dispatch[source] = handler
}

// HandleExternal claims the highest-priority pending source for
// hart/target, dispatches to its registered handler if any, and marks it
// complete, per internal/trap's Deps.ExternalInterrupt seam.
func (p *Plic_t) HandleExternal(hartID int, target TargetPriority) {
	source := p.Claim(hartID, target)
	if source == 0 {
		return
	}
	if h, ok := dispatch[source]; ok {
		h()
	}
	p.Complete(hartID, target, source)
}
