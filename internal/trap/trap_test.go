package trap

import (
	"testing"

	"rvkernel/internal/abi"
)

func TestDecodeClassifiesExceptionsAndInterrupts(t *testing.T) {
	cases := []struct {
		scause uint64
		want   Cause_t
	}{
		{excUserEnvCall, CauseUserEnvCall},
		{excIllegalInstruction, CauseIllegalInstruction},
		{excLoadPageFault, CauseMemoryFault},
		{excStoreFault, CauseMemoryFault},
		{excInstructionFault, CauseMemoryFault},
		{interruptBit | intSupervisorTimer, CauseTimerInterrupt},
		{interruptBit | intSupervisorExternal, CauseExternalInterrupt},
		{99, CauseUnknown},
	}
	for _, c := range cases {
		if got := Decode(c.scause); got != c.want {
			t.Errorf("Decode(%#x) = %v, want %v", c.scause, got, c.want)
		}
	}
}

func TestHandleUserTrapSyscallAdvancesSepcAndStoresResult(t *testing.T) {
	tf := &TrapContext_t{Sepc: 0x1000}
	tf.X[RegA7] = 64 // SYS_WRITE
	called := false
	deps := Deps{
		Syscall: func(got *TrapContext_t) uint64 {
			called = true
			if got.Sepc != 0x1004 {
				t.Fatalf("expected sepc advanced before syscall dispatch, got %#x", got.Sepc)
			}
			return 42
		},
	}
	cause := HandleUserTrap(tf, excUserEnvCall, 0, deps)
	if cause != CauseUserEnvCall {
		t.Fatalf("expected CauseUserEnvCall, got %v", cause)
	}
	if !called {
		t.Fatalf("expected Syscall to be invoked")
	}
	if tf.X[RegA0] != 42 {
		t.Fatalf("expected a0 = 42, got %d", tf.X[RegA0])
	}
}

func TestHandleUserTrapMemoryFaultRaisesSIGSEGV(t *testing.T) {
	tf := &TrapContext_t{}
	var got abi.Sig_t
	deps := Deps{RaiseSignal: func(sig abi.Sig_t) { got = sig }}
	HandleUserTrap(tf, excLoadPageFault, 0x4000, deps)
	if got != abi.SIGSEGV {
		t.Fatalf("expected SIGSEGV, got %v", got)
	}
}

func TestHandleUserTrapIllegalInstructionRaisesSIGILL(t *testing.T) {
	tf := &TrapContext_t{}
	var got abi.Sig_t
	deps := Deps{RaiseSignal: func(sig abi.Sig_t) { got = sig }}
	HandleUserTrap(tf, excIllegalInstruction, 0, deps)
	if got != abi.SIGILL {
		t.Fatalf("expected SIGILL, got %v", got)
	}
}

func TestHandleUserTrapTimerInterruptCallsTimerTick(t *testing.T) {
	tf := &TrapContext_t{}
	ticked := false
	deps := Deps{TimerTick: func() { ticked = true }}
	cause := HandleUserTrap(tf, interruptBit|intSupervisorTimer, 0, deps)
	if cause != CauseTimerInterrupt || !ticked {
		t.Fatalf("expected timer tick dispatched")
	}
}

func TestHandleKernelTrapRejectsNonInterruptCauses(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on unsupported kernel-mode trap")
		}
	}()
	HandleKernelTrap(excUserEnvCall, Deps{})
}

func TestInitAppContextSetsEntrySPAndSstatus(t *testing.T) {
	cx := InitAppContext(0x2000, 0x3000, 0x8000_0000, 0x9000, 0xabcd)
	if cx.Sepc != 0x2000 {
		t.Fatalf("expected sepc = entry")
	}
	if cx.X[RegSP] != 0x3000 {
		t.Fatalf("expected sp set to userSP")
	}
	if cx.KernelSatp != 0x8000_0000 || cx.KernelSp != 0x9000 || cx.TrapHandler != 0xabcd {
		t.Fatalf("expected kernel-return fields preserved")
	}
	const spieBit = uint64(1) << 5
	const sppBit = uint64(1) << 8
	if cx.Sstatus&spieBit == 0 {
		t.Fatalf("expected SPIE set")
	}
	if cx.Sstatus&sppBit != 0 {
		t.Fatalf("expected SPP clear (return to U-mode)")
	}
}

func TestDescribeIllegalInstructionHandlesZeroStval(t *testing.T) {
	if got := DescribeIllegalInstruction(0); got != "unknown instruction" {
		t.Fatalf("got %q", got)
	}
}
