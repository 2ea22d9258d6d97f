package main

import (
	"testing"

	"rvkernel/internal/blkcache"
	"rvkernel/internal/easyfs"
)

func TestTrimLeadingSlash(t *testing.T) {
	cases := []struct{ path, want string }{
		{"/initproc", "initproc"},
		{"initproc", "initproc"},
		{"//initproc", "initproc"},
		{"", ""},
	}
	for _, c := range cases {
		if got := trimLeadingSlash(c.path); got != c.want {
			t.Errorf("trimLeadingSlash(%q) = %q, want %q", c.path, got, c.want)
		}
	}
}

type memDisk struct{ blocks map[uint64]*[easyfs.BSIZE]byte }

func newMemDisk() *memDisk { return &memDisk{blocks: make(map[uint64]*[easyfs.BSIZE]byte)} }

func (d *memDisk) ReadBlock(id uint64, buf *[easyfs.BSIZE]byte) error {
	if b, ok := d.blocks[id]; ok {
		*buf = *b
	} else {
		*buf = [easyfs.BSIZE]byte{}
	}
	return nil
}

func (d *memDisk) WriteBlock(id uint64, buf *[easyfs.BSIZE]byte) error {
	cp := *buf
	d.blocks[id] = &cp
	return nil
}

var _ blkcache.Disk_i = (*memDisk)(nil)

func TestReadWholeFileFindsAndReadsByAbsolutePath(t *testing.T) {
	efs, err := easyfs.Create(newMemDisk(), 2048, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	root := easyfs.RootInode(efs)
	ino, err := root.Create("initproc")
	if err != nil {
		t.Fatalf("Create(initproc): %v", err)
	}
	want := []byte("program bytes")
	if _, err := ino.WriteAt(0, want); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	got, code := readWholeFile(root, "/initproc")
	if code != 0 {
		t.Fatalf("readWholeFile returned error code %d", code)
	}
	if string(got) != string(want) {
		t.Errorf("readWholeFile = %q, want %q", got, want)
	}
}

func TestReadWholeFileMissingReturnsErrorCode(t *testing.T) {
	efs, err := easyfs.Create(newMemDisk(), 2048, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	root := easyfs.RootInode(efs)

	_, code := readWholeFile(root, "/nope")
	if code != 1 {
		t.Errorf("readWholeFile(missing) code = %d, want 1", code)
	}
}
