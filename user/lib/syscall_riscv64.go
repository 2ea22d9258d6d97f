//go:build riscv64

package lib

// rawSyscall is implemented in syscall_riscv64.s: it loads id into a7 and
// arg0..arg2 into a0..a2 and executes ECALL, the same register
// convention internal/trap.RegA7/RegA0..RegA2 decode on the kernel side.
func rawSyscall(id uint64, arg0, arg1, arg2 uint64) int64
