package proc

import "testing"

func TestExecReplacesAddressSpaceAndCollapsesThreads(t *testing.T) {
	setup(t)
	p := barePcb(t)
	if _, err := ThreadCreate(p, 0x1000, 0x5000); err != nil {
		t.Fatalf("ThreadCreate: %v", err)
	}
	if len(p.Threads) != 2 {
		t.Fatalf("test setup assumption broken: expected 2 threads before exec")
	}
	oldMemSet := p.MemSet

	const vaddr = 0x1000
	image := buildMinimalElf(vaddr, vaddr, []byte{0, 0, 0, 0})
	entry, userSP, err := Exec(p, image)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if entry != vaddr {
		t.Errorf("entry = %#x, want %#x", entry, vaddr)
	}
	if userSP == 0 {
		t.Error("Exec returned a zero user stack pointer")
	}
	if len(p.Threads) != 1 {
		t.Errorf("len(p.Threads) = %d, want 1 after exec", len(p.Threads))
	}
	if p.MemSet == oldMemSet {
		t.Error("Exec did not replace the address space")
	}
}
