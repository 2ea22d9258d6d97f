package trap

// Cause_t classifies a decoded scause value, mirroring the match arms of
// original_source/os/src/trap/mod.rs's trap_handler (itself built on the
// `riscv` crate's scause::Trap/Exception/Interrupt enums, which carry the
// RISC-V privileged spec's standard exception/interrupt codes -- reproduced
// here as plain constants since this module has no equivalent crate to
// import).
type Cause_t int

const (
	CauseUnknown Cause_t = iota
	CauseUserEnvCall
	CauseMemoryFault // Store/Load/Instruction (page) fault, any of the six variants
	CauseIllegalInstruction
	CauseTimerInterrupt
	CauseExternalInterrupt
)

const interruptBit = uint64(1) << 63

// Standard RISC-V privileged-spec exception codes (scause with the
// interrupt bit clear).
const (
	excInstructionFault     = 1
	excIllegalInstruction   = 2
	excLoadFault            = 5
	excStoreFault           = 7
	excUserEnvCall          = 8
	excInstructionPageFault = 12
	excLoadPageFault        = 13
	excStorePageFault       = 15
)

// Standard interrupt codes (scause with the interrupt bit set).
const (
	intSupervisorTimer    = 5
	intSupervisorExternal = 9
)

// Decode classifies a raw scause CSR value into a Cause_t, per mod.rs's
// match on scause.cause().
func Decode(scause uint64) Cause_t {
	code := scause &^ interruptBit
	if scause&interruptBit != 0 {
		switch code {
		case intSupervisorTimer:
			return CauseTimerInterrupt
		case intSupervisorExternal:
			return CauseExternalInterrupt
		default:
			return CauseUnknown
		}
	}
	switch code {
	case excUserEnvCall:
		return CauseUserEnvCall
	case excIllegalInstruction:
		return CauseIllegalInstruction
	case excInstructionFault, excInstructionPageFault,
		excLoadFault, excLoadPageFault,
		excStoreFault, excStorePageFault:
		return CauseMemoryFault
	default:
		return CauseUnknown
	}
}
