package blkcache

import "testing"

func TestGetReturnsSameEntry(t *testing.T) {
	c := New(NewMemDisk(), 4)
	e1, err := c.Get(3)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	e2, err := c.Get(3)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if e1 != e2 {
		t.Fatalf("expected same entry for repeated Get of block 3")
	}
	e1.Release()
	e2.Release()
}

func TestModifySetsDirtyAndSyncWritesBack(t *testing.T) {
	disk := NewMemDisk()
	c := New(disk, 4)
	e, _ := c.Get(1)
	e.Modify(0, func(buf []byte) { buf[0] = 0x7a })
	if disk.WriteCount() != 0 {
		t.Fatalf("expected no write-back before sync")
	}
	if err := c.SyncAll(); err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if disk.WriteCount() != 1 {
		t.Fatalf("expected 1 block written back, got %d", disk.WriteCount())
	}
	e.Release()

	var buf [BSIZE]byte
	disk.ReadBlock(1, &buf)
	if buf[0] != 0x7a {
		t.Fatalf("expected written byte to persist, got %#x", buf[0])
	}
}

func TestEvictionRespectsCapacityAndRefcount(t *testing.T) {
	disk := NewMemDisk()
	c := New(disk, 2)
	e1, _ := c.Get(1)
	_, _ = c.Get(2)
	// blocks 1 and 2 both stay pinned (neither handle is released), so the
	// third Get finds nothing evictable and the cache grows past capacity.
	_, _ = c.Get(3)
	if c.Len() > 3 {
		t.Fatalf("cache grew unexpectedly: %d entries", c.Len())
	}
	e1.Release()
}

func TestDirtyEvictionWritesBack(t *testing.T) {
	disk := NewMemDisk()
	c := New(disk, 1)
	e1, _ := c.Get(1)
	e1.Modify(0, func(buf []byte) { buf[0] = 9 })
	e1.Release() // refcount 0, now evictable

	if _, err := c.Get(2); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if disk.WriteCount() != 1 {
		t.Fatalf("expected dirty block 1 written back on eviction, got %d writes", disk.WriteCount())
	}
}
