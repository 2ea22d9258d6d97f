//go:build !riscv64

package main

import (
	"rvkernel/internal/memset"
	"rvkernel/internal/proc"
	"rvkernel/internal/trap"
)

// On a portable build there is no hardware to vector traps from; cmd/kernel
// still links (so `go vet`/`go build ./...` cover this package) but boot's
// scheduler loop never actually takes a trap, since nothing calls
// sysYield/ecall from real user-mode code here. These stand in for the
// riscv64 build's equivalents so boot's call sites don't need a build tag
// of their own.
func kernelTrampolinePpn() uint64                                     { return 0 }
func kernelSatp() uint64                                              { return 0 }
func installTrapVector() uint64                                       { return 0 }
func buildKernelMemSet(memEnd uint64, mmio []memset.MMIOWindow) error { return nil }

func installTrapDeps(trap.Deps, func(th *proc.Tcb_t, tf *trap.TrapContext_t) bool) {}
