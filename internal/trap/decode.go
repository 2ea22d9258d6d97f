package trap

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/arch/riscv64/riscv64asm"
)

// DescribeIllegalInstruction turns the raw encoding SBI implementations
// place in stval on an illegal-instruction trap into a human-readable
// mnemonic for the kill message klog prints, using
// golang.org/x/arch/riscv64/riscv64asm since biscuit (an x86 kernel) has no
// RISC-V disassembler of its own for this retrieval to draw on. stval
// populating the raw instruction bits on IllegalInstruction is
// implementation-defined by the RISC-V privileged spec; stval==0 falls back
// to "unknown instruction" rather than guessing.
func DescribeIllegalInstruction(stval uint64) string {
	if stval == 0 {
		return "unknown instruction"
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(stval))
	inst, err := riscv64asm.Decode(buf[:])
	if err != nil {
		return fmt.Sprintf("undecodable encoding %#08x", uint32(stval))
	}
	return inst.String()
}
