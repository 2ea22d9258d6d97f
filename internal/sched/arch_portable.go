//go:build !riscv64

package sched

// This kernel never runs hosted: every non-riscv64 build (in practice, `go
// test` on whatever machine built this repo) exists only to exercise the
// pure bookkeeping half of the scheduler -- ready-queue FIFO order, the
// Running/Ready/Blocked state machine, the mutex/condvar wait-no-sched
// protocol -- none of which requires an actual register-level stack
// transfer. So the portable build's "switch" is a bookkeeping no-op: it
// records which Context_t is logically current and returns immediately,
// letting the calling goroutine fall straight through Schedule() back to
// its caller, as if the switched-to context had itself immediately
// switched back. Real concurrent execution of kernel threads only exists on
// riscv64 hardware via switch_riscv64.s.
func init() {
	archSwitch = switchContextPortable
}

var currentContext *Context_t

func switchContextPortable(from, to *Context_t) {
	currentContext = to
}
