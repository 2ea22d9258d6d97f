package proc

import (
	"testing"

	"rvkernel/internal/abi"
	"rvkernel/internal/frame"
	"rvkernel/internal/fsobj"
	"rvkernel/internal/memset"
	"rvkernel/internal/pagetable"
	"rvkernel/internal/sched"
)

func setup(t *testing.T) {
	t.Helper()
	frame.Init(0, 4096)
	pidAlloc = NewRecycleAllocator()
	kstackAlloc = NewRecycleAllocator()
	tableMu.Lock()
	pidTable = map[abi.Pid_t]*Pcb_t{}
	tableMu.Unlock()
}

// barePcb builds a minimal process with a one-page data area and a trap
// context area, standing in for memset.NewFromElf's output so tests don't
// need to synthesize a real ELF image.
func barePcb(t *testing.T) *Pcb_t {
	t.Helper()
	ms, err := memset.New()
	if err != nil {
		t.Fatalf("memset.New: %v", err)
	}
	if err := ms.InsertFramedArea(0x1000, 0x2000, pagetable.PTE_R|pagetable.PTE_W|pagetable.PTE_U, memset.SecData); err != nil {
		t.Fatalf("data area: %v", err)
	}
	if err := ms.InsertFramedArea(memset.TrapContextVA, memset.TrapContextVA+memset.PGSIZE, pagetable.PTE_R|pagetable.PTE_W, memset.SecTrapContext); err != nil {
		t.Fatalf("trap context area: %v", err)
	}

	p := &Pcb_t{
		Pid:      abi.Pid_t(pidAlloc.Alloc()),
		MemSet:   ms,
		tidAlloc: NewRecycleAllocator(),
	}
	stdin := &fsobj.Stdin_t{}
	stdout := &fsobj.Stdout_t{}
	p.Fdtable = []*fsobj.Fd_t{
		{Fops: stdin, Perms: fsobj.FD_READ},
		{Fops: stdout, Perms: fsobj.FD_WRITE},
		{Fops: stdout, Perms: fsobj.FD_WRITE},
	}
	mainT, err := p.newThread(0, 0x3000)
	if err != nil {
		t.Fatalf("newThread: %v", err)
	}
	mainT.SetStatus(sched.Ready)
	register(p)
	return p
}

func TestNewThreadAllocatesDistinctKernelStacks(t *testing.T) {
	setup(t)
	p := barePcb(t)
	t2, err := ThreadCreate(p, 0x1000, 0x5000)
	if err != nil {
		t.Fatalf("ThreadCreate: %v", err)
	}
	if t2.Tid == p.Threads[0].Tid {
		t.Fatalf("expected distinct tid")
	}
	if t2.KstackLo == p.Threads[0].KstackLo {
		t.Fatalf("expected distinct kernel stacks")
	}
	if t2.TrapCxPpn == p.Threads[0].TrapCxPpn {
		t.Fatalf("expected distinct trap context pages for non-main threads")
	}
}

func TestForkProducesIndependentAddressSpace(t *testing.T) {
	setup(t)
	parent := barePcb(t)

	child, err := Fork(parent)
	if err != nil {
		t.Fatalf("Fork: %v", err)
	}
	if child.Pid == parent.Pid {
		t.Fatalf("expected distinct pid")
	}
	if len(parent.Children) != 1 || parent.Children[0] != child {
		t.Fatalf("expected child linked into parent.Children")
	}
	if child.MemSet == parent.MemSet {
		t.Fatalf("expected fork to copy the address space, not share it")
	}

	// Writing through the parent's mapping must not show up in the
	// child's -- fork is a deep copy, never copy-on-write.
	pa, ok := parent.MemSet.Pt.Translate(0x1000)
	if !ok {
		t.Fatalf("expected parent page mapped")
	}
	frame.Dmap(frame.Ppn_t(pa / memset.PGSIZE))[0] = 0x42

	cpa, ok := child.MemSet.Pt.Translate(0x1000)
	if !ok {
		t.Fatalf("expected child page mapped")
	}
	if frame.Dmap(frame.Ppn_t(cpa / memset.PGSIZE))[0] == 0x42 {
		t.Fatalf("fork must not alias the parent's frames")
	}
}

func TestForkCopiesFdTableIndependently(t *testing.T) {
	setup(t)
	parent := barePcb(t)
	child, err := Fork(parent)
	if err != nil {
		t.Fatalf("Fork: %v", err)
	}
	if len(child.Fdtable) != len(parent.Fdtable) {
		t.Fatalf("expected matching fd table length")
	}
	if &child.Fdtable[0] == &parent.Fdtable[0] {
		t.Fatalf("expected distinct fd slices")
	}
}

func TestExitReparentsChildrenToInit(t *testing.T) {
	setup(t)
	pidAlloc.Alloc() // burn pid 0 so the next allocation lands on InitPid (1)
	initP := barePcb(t)
	if initP.Pid != InitPid {
		t.Fatalf("test setup assumption broken: expected init pid %d, got %d", InitPid, initP.Pid)
	}

	parent := barePcb(t)
	child, err := Fork(parent)
	if err != nil {
		t.Fatalf("Fork: %v", err)
	}

	Exit(parent, 7)

	if !parent.IsZombie || parent.ExitCode != 7 {
		t.Fatalf("expected parent zombie with exit code 7")
	}
	if parent.MemSet != nil {
		t.Fatalf("expected address space dropped on exit")
	}
	if child.Parent != initP {
		t.Fatalf("expected orphan reparented to init")
	}
	found := false
	for _, c := range initP.Children {
		if c == child {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected init.Children to include the orphan")
	}
}

func TestWaitPidReapsZombieChild(t *testing.T) {
	setup(t)
	parent := barePcb(t)
	child, err := Fork(parent)
	if err != nil {
		t.Fatalf("Fork: %v", err)
	}

	if _, _, e := WaitPid(parent, child.Pid); e != abi.Err_t(abi.WouldBlock) {
		t.Fatalf("expected WouldBlock before exit, got %d", e)
	}

	Exit(child, 3)
	pid, code, e := WaitPid(parent, child.Pid)
	if e != 0 || pid != child.Pid || code != 3 {
		t.Fatalf("WaitPid: pid=%d code=%d err=%d", pid, code, e)
	}
	if len(parent.Children) != 0 {
		t.Fatalf("expected child removed from parent.Children after reaping")
	}
}

func TestWaitPidUnknownPidReturnsESRCH(t *testing.T) {
	setup(t)
	parent := barePcb(t)
	if _, _, e := WaitPid(parent, 9999); e != abi.ESRCH {
		t.Fatalf("expected ESRCH, got %d", e)
	}
}

func TestWaitTidReapsExitedThread(t *testing.T) {
	setup(t)
	p := barePcb(t)
	th, err := ThreadCreate(p, 0x1000, 0x5000)
	if err != nil {
		t.Fatalf("ThreadCreate: %v", err)
	}

	if _, e := WaitTid(p, th.Tid); e != abi.Err_t(abi.WouldBlock) {
		t.Fatalf("expected WouldBlock before the thread exits, got %d", e)
	}

	ExitThread(th, 11)
	code, e := WaitTid(p, th.Tid)
	if e != 0 || code != 11 {
		t.Fatalf("WaitTid: code=%d err=%d", code, e)
	}
	if len(p.Threads) != 1 {
		t.Fatalf("expected thread removed from p.Threads after reaping")
	}
}

func TestWaitTidRejectsMainThread(t *testing.T) {
	setup(t)
	p := barePcb(t)
	if _, e := WaitTid(p, p.Threads[0].Tid); e != abi.EINVAL {
		t.Fatalf("expected EINVAL for tid 0, got %d", e)
	}
}

func TestSyncObjectHandlesAreDistinctAndResolve(t *testing.T) {
	setup(t)
	p := barePcb(t)
	id1 := p.Sync.CreateMutex()
	id2 := p.Sync.CreateMutex()
	if id1 == id2 {
		t.Fatalf("expected distinct handles")
	}
	if _, ok := p.Sync.Mutex(id1); !ok {
		t.Fatalf("expected handle %d to resolve", id1)
	}
}
