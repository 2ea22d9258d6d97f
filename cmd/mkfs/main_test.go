package main

import (
	"os"
	"path/filepath"
	"testing"

	"rvkernel/internal/blkcache"
)

func TestHostFileReadWriteBlockRoundTrips(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "img")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	defer f.Close()
	h := hostFile{f}

	var want [blkcache.BSIZE]byte
	for i := range want {
		want[i] = byte(i)
	}
	if err := h.WriteBlock(3, &want); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}

	var got [blkcache.BSIZE]byte
	if err := h.ReadBlock(3, &got); err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if got != want {
		t.Error("ReadBlock did not return what WriteBlock wrote")
	}

	var zero [blkcache.BSIZE]byte
	if err := h.ReadBlock(0, &zero); err != nil {
		t.Fatalf("ReadBlock(0): %v", err)
	}
	if zero != [blkcache.BSIZE]byte{} {
		t.Error("ReadBlock of an untouched block returned non-zero bytes")
	}
}

func TestPackFormatsImageAndCopiesBinaries(t *testing.T) {
	binDir := t.TempDir()
	const payload = "fake riscv64 elf bytes"
	if err := os.WriteFile(filepath.Join(binDir, "initproc"), []byte(payload), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	imgPath := filepath.Join(t.TempDir(), "fs.img")
	if err := pack(imgPath, 2048, 1, binDir, []string{"initproc"}); err != nil {
		t.Fatalf("pack: %v", err)
	}

	info, err := os.Stat(imgPath)
	if err != nil {
		t.Fatalf("Stat image: %v", err)
	}
	if info.Size() != 2048*blkcache.BSIZE {
		t.Errorf("image size = %d, want %d", info.Size(), 2048*blkcache.BSIZE)
	}
}

func TestPackFailsOnMissingBinary(t *testing.T) {
	imgPath := filepath.Join(t.TempDir(), "fs.img")
	if err := pack(imgPath, 2048, 1, t.TempDir(), []string{"nonexistent"}); err == nil {
		t.Fatal("pack succeeded despite a missing source binary")
	}
}
