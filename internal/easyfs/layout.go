// Package easyfs implements the bitmap-allocated inode+data filesystem of
// spec.md section 4.6 ("Easy-FS"): a superblock describing five fixed
// regions, inode and data bitmaps scanned for the first clear bit, and
// inodes addressed through direct, single-indirect, and double-indirect
// block pointers. The on-disk layout and allocation formulas follow
// original_source/easy-fs/src/efs.rs (the Rust original this spec distills
// from); the block-field read/write idiom generalizes the teacher kernel's
// Superblock_t (fs/super.go), which reads/writes fixed int32 slots of a
// cached block's bytes rather than a marshaled struct.
package easyfs

import "rvkernel/internal/blkcache"

const BSIZE = blkcache.BSIZE

// blockBits is the number of bits a single bitmap block can track.
const blockBits = BSIZE * 8

// DiskInode field widths, per spec.md section 3: size + 28 direct block
// numbers + one single-indirect pointer + one double-indirect pointer +
// type, all u32.
const (
	DirectCount    = 28
	Indirect1Count = BSIZE / 4 // pointers per indirect block
	Indirect2Count = Indirect1Count * Indirect1Count

	DirectBound    = DirectCount
	Indirect1Bound = DirectBound + Indirect1Count
	Indirect2Bound = Indirect1Bound + Indirect2Count

	diskInodeSize = 4 + DirectCount*4 + 4 + 4 + 4 // size + direct[] + indirect1 + indirect2 + type
)

// InodeType_t distinguishes file and directory inodes.
type InodeType_t uint32

const (
	TypeFile InodeType_t = 0
	TypeDir  InodeType_t = 1
)

// DirEntrySize is the fixed width of one directory entry: a 28-byte
// nul-padded name plus a 4-byte inode id, per spec.md section 6.
const (
	NameLengthLimit = 27
	DirEntrySize    = 28 + 4
)

func ceilDiv(a, b uint32) uint32 { return (a + b - 1) / b }
