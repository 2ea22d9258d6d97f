// Command mkfs packs the demo programs under user/cmd/* into an Easy-FS
// disk image cmd/kernel can boot from, the Go shape of
// original_source/easy-fs-fuse/src/main.rs's easy_fs_pack: create a
// sparse host file, format it with internal/easyfs, then copy each
// program's already-built binary in as a root-directory file.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
	"golang.org/x/tools/go/packages"

	"rvkernel/internal/blkcache"
	"rvkernel/internal/config"
	"rvkernel/internal/easyfs"
)

func main() {
	cfgPath := flag.String("config", "boot.yaml", "boot configuration file (for the output image path)")
	userDir := flag.String("userdir", "user/cmd", "directory of user/cmd/* packages to discover")
	binDir := flag.String("bindir", "", "directory of already cross-compiled riscv64 ELF binaries, one per discovered package name (defaults to -userdir)")
	totalBlocks := flag.Uint("blocks", 16*2048, "total blocks in the image (512 bytes each)")
	inodeBitmapBlocks := flag.Uint("inode-bitmap-blocks", 1, "blocks dedicated to the inode bitmap")
	flag.Parse()

	if *binDir == "" {
		*binDir = *userDir
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mkfs: load config: %v\n", err)
		os.Exit(1)
	}

	names, err := discoverPrograms(*userDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mkfs: discover user/cmd programs: %v\n", err)
		os.Exit(1)
	}

	if err := pack(cfg.DiskImagePath, *totalBlocks, *inodeBitmapBlocks, *binDir, names); err != nil {
		fmt.Fprintf(os.Stderr, "mkfs: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("mkfs: packed %d program(s) into %s\n", len(names), cfg.DiskImagePath)
}

// discoverPrograms loads every package under dir/... and returns the
// base name of each buildable `package main`, the way a real image
// builder enumerates what it embeds instead of hardcoding a file list
// (SPEC_FULL.md's grounding for golang.org/x/tools/go/packages in this
// command).
func discoverPrograms(dir string) ([]string, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles,
		Dir:  dir,
	}
	pkgs, err := packages.Load(cfg, "./...")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, pkg := range pkgs {
		if pkg.Name != "main" {
			continue
		}
		for _, e := range pkg.Errors {
			return nil, fmt.Errorf("%s: %v", pkg.PkgPath, e)
		}
		names = append(names, filepath.Base(pkg.PkgPath))
	}
	return names, nil
}

// pack formats a fresh image at path and copies binDir/<name> in for
// each discovered name, per easy_fs_pack's create-then-copy shape.
func pack(path string, totalBlocks, inodeBitmapBlocks uint, binDir string, names []string) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create image: %w", err)
	}
	defer f.Close()

	if err := unix.Ftruncate(int(f.Fd()), int64(totalBlocks)*int64(blkcache.BSIZE)); err != nil {
		return fmt.Errorf("preallocate sparse image: %w", err)
	}

	efs, err := easyfs.Create(hostFile{f}, uint32(totalBlocks), uint32(inodeBitmapBlocks))
	if err != nil {
		return fmt.Errorf("format easy-fs: %w", err)
	}
	root := easyfs.RootInode(efs)

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(binDir, name))
		if err != nil {
			return fmt.Errorf("read built binary for %q: %w", name, err)
		}
		ino, err := root.Create(name)
		if err != nil {
			return fmt.Errorf("create %q in image: %w", name, err)
		}
		if _, err := ino.WriteAt(0, data); err != nil {
			return fmt.Errorf("write %q into image: %w", name, err)
		}
	}
	return nil
}

// hostFile adapts an *os.File to blkcache.Disk_i, reading and writing
// fixed BSIZE blocks at their byte offset, the Go shape of
// easy-fs-fuse's BlockFile.
type hostFile struct {
	f *os.File
}

func (h hostFile) ReadBlock(id uint64, buf *[blkcache.BSIZE]byte) error {
	_, err := h.f.ReadAt(buf[:], int64(id)*blkcache.BSIZE)
	return err
}

func (h hostFile) WriteBlock(id uint64, buf *[blkcache.BSIZE]byte) error {
	_, err := h.f.WriteAt(buf[:], int64(id)*blkcache.BSIZE)
	return err
}

var _ blkcache.Disk_i = hostFile{}
