package syscall

import (
	"rvkernel/internal/abi"
	"rvkernel/internal/frame"
	"rvkernel/internal/memset"
)

// Crossing the user/kernel address-space boundary one page at a time,
// per original_source/os/src/mm/page_table.rs's translated_byte_buffer /
// translated_str (the syscall layer is the only place in this repo that
// needs to read or write memory through someone else's page table).

// readUser copies n bytes starting at the user virtual address va out of
// ms into a fresh kernel buffer.
func readUser(ms *memset.MemSet_t, va uint64, n int) ([]byte, abi.Err_t) {
	out := make([]byte, n)
	if err := copyUser(ms, va, out, false); err != 0 {
		return nil, err
	}
	return out, 0
}

// writeUser copies data into ms starting at the user virtual address va.
func writeUser(ms *memset.MemSet_t, va uint64, data []byte) abi.Err_t {
	return copyUser(ms, va, data, true)
}

// copyUser walks buf a page at a time, translating va through ms's page
// table for each page crossed; toUser selects the copy direction.
func copyUser(ms *memset.MemSet_t, va uint64, buf []byte, toUser bool) abi.Err_t {
	off := 0
	for off < len(buf) {
		pa, ok := ms.Pt.Translate(va + uint64(off))
		if !ok {
			return abi.EFAULT
		}
		pageOff := int(pa % memset.PGSIZE)
		avail := int(memset.PGSIZE) - pageOff
		chunk := len(buf) - off
		if chunk > avail {
			chunk = avail
		}
		page := frame.Dmap(frame.Ppn_t(pa / memset.PGSIZE))
		if toUser {
			copy(page[pageOff:pageOff+chunk], buf[off:off+chunk])
		} else {
			copy(buf[off:off+chunk], page[pageOff:pageOff+chunk])
		}
		off += chunk
	}
	return 0
}

// readCString reads a NUL-terminated string starting at the user virtual
// address va, one byte at a time (paths and argv entries are short enough
// that the per-byte Translate cost does not matter), per
// original_source's translated_str.
func readCString(ms *memset.MemSet_t, va uint64) (string, abi.Err_t) {
	var out []byte
	for i := 0; i < 4096; i++ {
		b, err := readUser(ms, va+uint64(i), 1)
		if err != 0 {
			return "", err
		}
		if b[0] == 0 {
			return string(out), 0
		}
		out = append(out, b[0])
	}
	return "", abi.ENAMETOOLONG
}
