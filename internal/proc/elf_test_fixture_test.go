package proc

import "encoding/binary"

// buildMinimalElf hand-assembles the smallest ELF64 executable
// debug/elf.NewFile will parse: one PT_LOAD segment holding data at
// vaddr (page-aligned), no section headers. Good enough for
// memset.NewFromElf, which only ever looks at PT_LOAD program headers.
func buildMinimalElf(entry, vaddr uint64, data []byte) []byte {
	const ehdrSize = 64
	const phdrSize = 56

	buf := make([]byte, ehdrSize+phdrSize+len(data))
	le := binary.LittleEndian

	copy(buf[0:4], []byte{0x7f, 'E', 'L', 'F'})
	buf[4] = 2 // ELFCLASS64
	buf[5] = 1 // ELFDATA2LSB
	buf[6] = 1 // EV_CURRENT
	le.PutUint16(buf[16:18], 2)   // e_type = ET_EXEC
	le.PutUint16(buf[18:20], 243) // e_machine = EM_RISCV
	le.PutUint32(buf[20:24], 1)   // e_version
	le.PutUint64(buf[24:32], entry)
	le.PutUint64(buf[32:40], ehdrSize) // e_phoff
	le.PutUint64(buf[40:48], 0)        // e_shoff
	le.PutUint32(buf[48:52], 0)        // e_flags
	le.PutUint16(buf[52:54], ehdrSize)
	le.PutUint16(buf[54:56], phdrSize)
	le.PutUint16(buf[56:58], 1) // e_phnum
	le.PutUint16(buf[58:60], 0)
	le.PutUint16(buf[60:62], 0)
	le.PutUint16(buf[62:64], 0)

	ph := buf[ehdrSize : ehdrSize+phdrSize]
	le.PutUint32(ph[0:4], 1)  // p_type = PT_LOAD
	le.PutUint32(ph[4:8], 7)  // p_flags = PF_R|PF_W|PF_X
	le.PutUint64(ph[8:16], ehdrSize+phdrSize)
	le.PutUint64(ph[16:24], vaddr)
	le.PutUint64(ph[24:32], vaddr)
	le.PutUint64(ph[32:40], uint64(len(data)))
	le.PutUint64(ph[40:48], uint64(len(data)))
	le.PutUint64(ph[48:56], 0x1000)

	copy(buf[ehdrSize+phdrSize:], data)
	return buf
}
