package syscall

import (
	"encoding/binary"
	"testing"

	"rvkernel/internal/abi"
	"rvkernel/internal/fsobj"
	"rvkernel/internal/frame"
	"rvkernel/internal/proc"
	"rvkernel/internal/sched"
	"rvkernel/internal/trap"
)

// buildMinimalElf hand-assembles the smallest ELF64 image
// memset.NewFromElf will parse: one PT_LOAD segment at a page-aligned
// vaddr, no section headers.
func buildMinimalElf(entry, vaddr uint64, data []byte) []byte {
	const ehdrSize = 64
	const phdrSize = 56

	buf := make([]byte, ehdrSize+phdrSize+len(data))
	le := binary.LittleEndian

	copy(buf[0:4], []byte{0x7f, 'E', 'L', 'F'})
	buf[4] = 2
	buf[5] = 1
	buf[6] = 1
	le.PutUint16(buf[16:18], 2)
	le.PutUint16(buf[18:20], 243)
	le.PutUint32(buf[20:24], 1)
	le.PutUint64(buf[24:32], entry)
	le.PutUint64(buf[32:40], ehdrSize)
	le.PutUint64(buf[40:48], 0)
	le.PutUint32(buf[48:52], 0)
	le.PutUint16(buf[52:54], ehdrSize)
	le.PutUint16(buf[54:56], phdrSize)
	le.PutUint16(buf[56:58], 1)
	le.PutUint16(buf[58:60], 0)
	le.PutUint16(buf[60:62], 0)
	le.PutUint16(buf[62:64], 0)

	ph := buf[ehdrSize : ehdrSize+phdrSize]
	le.PutUint32(ph[0:4], 1)
	le.PutUint32(ph[4:8], 7)
	le.PutUint64(ph[8:16], ehdrSize+phdrSize)
	le.PutUint64(ph[16:24], vaddr)
	le.PutUint64(ph[24:32], vaddr)
	le.PutUint64(ph[32:40], uint64(len(data)))
	le.PutUint64(ph[40:48], uint64(len(data)))
	le.PutUint64(ph[48:56], 0x1000)

	copy(buf[ehdrSize+phdrSize:], data)
	return buf
}

// newTestProc builds a one-thread process running the given ELF image,
// the same way cmd/kernel's boot() builds the init process.
func newTestProc(t *testing.T, image []byte) *proc.Pcb_t {
	t.Helper()
	frame.Init(0, 4096)
	p, err := proc.NewInitProc(image, 0, &fsobj.Stdin_t{}, &fsobj.Stdout_t{})
	if err != nil {
		t.Fatalf("NewInitProc: %v", err)
	}
	return p
}

// TestSysExecThreadsBootKernelContext is a regression test for a bug
// where sysExec hardcoded the kernel satp and trap-handler PC passed to
// trap.InitAppContext to 0 instead of the values cmd/kernel installs via
// proc.SetKernelContext -- the same two values newThread already used
// correctly. A process that exec'd would trap into address 0 on its next
// syscall or interrupt.
func TestSysExecThreadsBootKernelContext(t *testing.T) {
	const wantSatp = 0xdead0000
	const wantHandlerPC = 0xbeef1000
	proc.SetKernelContext(wantSatp, wantHandlerPC)

	const vaddr = 0x1000
	p := newTestProc(t, buildMinimalElf(vaddr, vaddr, []byte{0, 0, 0, 0}))

	cpu := sched.Default()
	th := p.Threads[0]
	d := &Dispatcher_t{Proc: cpu}

	second := buildMinimalElf(vaddr, vaddr, []byte{1, 2, 3, 4})
	d.ReadWholeFile = func(path string) ([]byte, abi.Err_t) { return second, 0 }

	const pathVA = vaddr + 0x100
	if err := writeUser(p.MemSet, pathVA, []byte("dummy\x00")); err != 0 {
		t.Fatalf("writeUser: %d", err)
	}

	var ret int64
	cpu.WithCurrent(th, func() {
		ret = d.sysExec(th, p, pathVA)
	})
	if ret != 0 {
		t.Fatalf("sysExec returned %d, want 0", ret)
	}

	main := p.Threads[0]
	cx := frame.ArenaView[trap.TrapContext_t](main.TrapCxPpn)
	if cx.KernelSatp != wantSatp {
		t.Errorf("KernelSatp = %#x, want %#x", cx.KernelSatp, wantSatp)
	}
	if cx.TrapHandler != wantHandlerPC {
		t.Errorf("TrapHandler = %#x, want %#x", cx.TrapHandler, wantHandlerPC)
	}
}
