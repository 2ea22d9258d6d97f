// Command kernel is the boot entry point: it loads boot.yaml, sets up
// logging, builds the kernel's own address space and device windows, opens
// the Easy-FS image, loads the init process, and runs the scheduler, per
// spec.md section 6's boot sequence. Everything it wires together lives in
// internal/*; this file is purely composition, the way
// original_source/os/src/main.rs's rust_main is purely composition over
// the same subsystems.
package main

import (
	"flag"
	"fmt"
	"os"

	"rvkernel/internal/abi"
	"rvkernel/internal/blkcache"
	"rvkernel/internal/config"
	"rvkernel/internal/diag"
	"rvkernel/internal/drivers/uart"
	"rvkernel/internal/drivers/virtioblk"
	"rvkernel/internal/easyfs"
	"rvkernel/internal/fsobj"
	"rvkernel/internal/klog"
	"rvkernel/internal/memset"
	"rvkernel/internal/plic"
	"rvkernel/internal/proc"
	"rvkernel/internal/sched"
	"rvkernel/internal/syscall"
	"rvkernel/internal/timer"
	"rvkernel/internal/trap"
)

// Device MMIO bases and PLIC interrupt source numbers, per spec.md
// section 6's memory map.
const (
	uartBase  = 0x1000_0000
	blkBase   = 0x1000_8000
	plicBase  = 0x0c00_0000
	uartIRQ   = 10
	blkIRQ    = 8
	hartID    = 0
	threshold = 0
)

func main() {
	cfgPath := flag.String("config", "boot.yaml", "boot configuration file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kernel: load config: %v\n", err)
		os.Exit(1)
	}
	klog.SetLevel(klog.ParseLevel(cfg.LogLevel))

	if err := boot(cfg); err != nil {
		diag.Halt(os.Stderr, err.Error())
	}
}

// boot wires every subsystem together and starts the scheduler. Split out
// of main so the error path can go through diag.Halt's post-mortem
// profile rather than a bare os.Exit.
func boot(cfg config.Boot) error {
	klog.Info("boot", "starting: mem=%d disk=%q init=%q tick=%dHz",
		cfg.MemorySizeBytes, cfg.DiskImagePath, cfg.InitProcPath, cfg.TickHz)

	mmio := []memset.MMIOWindow{
		{Lo: uartBase, Hi: uartBase + 0x1000, Name: "uart"},
		{Lo: blkBase, Hi: blkBase + 0x1000, Name: "virtioblk"},
		{Lo: plicBase, Hi: plicBase + 0x40_0000, Name: "plic"},
	}
	if err := buildKernelMemSet(cfg.MemorySizeBytes, mmio); err != nil {
		return fmt.Errorf("build kernel address space: %w", err)
	}

	blk := virtioblk.New(blkBase)
	efs, err := easyfs.Open(blockDiskAdapter{blk})
	if err != nil {
		return fmt.Errorf("mount easyfs: %w", err)
	}
	root := easyfs.RootInode(efs)

	plicDev := plic.New(plicBase)
	plicDev.SetPriority(uartIRQ, 1)
	plicDev.SetPriority(blkIRQ, 1)
	plicDev.Enable(hartID, plic.Supervisor, uartIRQ)
	plicDev.Enable(hartID, plic.Supervisor, blkIRQ)
	plicDev.SetThreshold(hartID, plic.Supervisor, threshold)

	cpu := sched.Default()
	console := uart.New(uartBase, func() { cpu.SuspendCurrentAndRunNext() })
	plic.Register(uartIRQ, console.HandleIRQ)
	plic.Register(blkIRQ, blk.HandleIRQ)

	stdin := &fsobj.Stdin_t{Source: console}
	stdout := &fsobj.Stdout_t{Sink: console}

	wheel := timer.New()
	bootMillis := uint64(0)

	initImage, errno := readWholeFile(root, cfg.InitProcPath)
	if errno != 0 {
		return fmt.Errorf("read init program %q: errno %d", cfg.InitProcPath, errno)
	}

	// installTrapVector programs stvec with trapEntry's address and
	// returns handleFromTrampoline's address for every thread's trap
	// context to jump back into; on a portable build neither is
	// meaningful (see arch_portable.go).
	trapHandlerPC := installTrapVector()
	proc.SetKernelContext(kernelSatp(), trapHandlerPC)

	initProc, err := proc.NewInitProc(initImage, kernelTrampolinePpn(), stdin, stdout)
	if err != nil {
		return fmt.Errorf("start init process: %w", err)
	}
	for _, t := range initProc.Threads {
		cpu.AddReady(t)
	}

	dispatcher := &syscall.Dispatcher_t{
		Proc: cpu,
		OpenFile: func(path string, flags uint32) (syscall.OpenFile_i, abi.Err_t) {
			ino := root.Find(trimLeadingSlash(path))
			if ino == nil {
				return nil, abi.ENOENT
			}
			return fsobj.NewInodeFile(ino), 0
		},
		ReadWholeFile: func(path string) ([]byte, abi.Err_t) {
			buf, errno := readWholeFile(root, path)
			if errno != 0 {
				return nil, abi.ENOENT
			}
			return buf, 0
		},
		NowMillis: func() uint64 { return bootMillis },
		AddTimer: func(expireMs uint64, th *proc.Tcb_t) { wheel.AddTimer(expireMs, th) },
	}

	trapDeps := trap.Deps{
		Syscall:     dispatcher.Dispatch,
		RaiseSignal: func(sig abi.Sig_t) { raiseSignalOnCurrent(cpu, sig) },
		TimerTick: func() {
			bootMillis += uint64(1000 / cfg.TickHz)
			wheel.CheckTimer(bootMillis, func(t sched.Task) { cpu.WakeupTask(t) })
		},
		ExternalInterrupt: func() { plicDev.HandleExternal(hartID, plic.Supervisor) },
	}
	installTrapDeps(trapDeps, dispatcher.DeliverSignals)

	klog.Info("boot", "init process pid=%d threads=%d", initProc.Pid, len(initProc.Threads))

	cpu.Run(-1)
	return nil
}

// blockDiskAdapter adapts virtioblk.Disk_t to blkcache.Disk_i -- they
// already match method-for-method; the named adapter just documents the
// seam rather than relying on structural typing silently.
type blockDiskAdapter struct {
	*virtioblk.Disk_t
}

var _ blkcache.Disk_i = blockDiskAdapter{}

func trimLeadingSlash(path string) string {
	for len(path) > 0 && path[0] == '/' {
		path = path[1:]
	}
	return path
}

func readWholeFile(root *easyfs.Inode_t, path string) ([]byte, int) {
	ino := root.Find(trimLeadingSlash(path))
	if ino == nil {
		return nil, 1
	}
	buf := make([]byte, ino.GetInodeSize())
	ino.ReadAt(0, buf)
	return buf, 0
}

// raiseSignalOnCurrent queues sig for the currently running thread's
// process, mirroring original_source's current_add_signal; only
// internal/syscall's sysKill sent a pending signal before this, faults and
// illegal instructions now reach the same path.
func raiseSignalOnCurrent(cpu *sched.Processor_t, sig abi.Sig_t) {
	t, ok := cpu.Current().(*proc.Tcb_t)
	if !ok {
		return
	}
	t.Process.SigPending.Add(sig)
}
