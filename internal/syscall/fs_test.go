package syscall

import (
	"testing"

	"rvkernel/internal/abi"
	"rvkernel/internal/sched"
)

func TestPutUint64GetUint64RoundTrip(t *testing.T) {
	var buf [8]byte
	const want = uint64(0x0102030405060708)
	putUint64(buf[:], want)
	if got := getUint64(buf[:]); got != want {
		t.Errorf("getUint64(putUint64(%#x)) = %#x", want, got)
	}
}

func TestSysOpenRejectsDotDotPath(t *testing.T) {
	p := newTestProc(t, buildMinimalElf(0x1000, 0x1000, []byte{0, 0, 0, 0}))
	d := &Dispatcher_t{Proc: sched.Default()}
	d.OpenFile = func(path string, flags uint32) (OpenFile_i, abi.Err_t) {
		t.Fatalf("OpenFile called with %q, want sysOpen to reject the path first", path)
		return nil, 0
	}

	const pathVA = 0x1100
	if err := writeUser(p.MemSet, pathVA, []byte("..\x00")); err != 0 {
		t.Fatalf("writeUser: %d", err)
	}

	if got := d.sysOpen(p, pathVA, abi.O_RDONLY); got != -int64(abi.ENOENT) {
		t.Errorf("sysOpen(\"..\") = %d, want %d", got, -int64(abi.ENOENT))
	}
}
