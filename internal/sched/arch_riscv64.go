//go:build riscv64

package sched

func switchContextAsm(from, to *Context_t)

func init() {
	archSwitch = switchContextAsm
}
