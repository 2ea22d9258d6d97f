package easyfs

import (
	"fmt"
	"sync"

	"rvkernel/internal/blkcache"
)

// inodesPerBlock is how many 128-byte DiskInode records fit in one block.
const inodesPerBlock = BSIZE / diskInodeSize

// EasyFileSystem_t owns the block cache and the two bitmaps, and knows the
// byte layout derived by Create/Open. Grounded directly on
// original_source/easy-fs/src/efs.rs's EasyFileSystem: its create()/open()
// formulas are followed exactly, since spec.md itself does not spell out
// the bitmap-sizing arithmetic.
type EasyFileSystem_t struct {
	mu sync.Mutex

	Cache *blkcache.Cache

	InodeBitmap Bitmap_t
	DataBitmap  Bitmap_t

	inodeAreaStartBlock uint32
	dataAreaStartBlock  uint32
}

// Create formats a fresh filesystem image of totalBlocks blocks, dedicating
// inodeBitmapBlocks blocks to the inode bitmap, and returns the mounted
// filesystem with inode 0 initialized as the root directory.
func Create(disk blkcache.Disk_i, totalBlocks, inodeBitmapBlocks uint32) (*EasyFileSystem_t, error) {
	cache := blkcache.New(disk, blkcache.Capacity)

	inodeBitmap := Bitmap_t{startBlock: 1, numBlocks: inodeBitmapBlocks}
	inodeNum := inodeBitmap.Maximum()
	inodeAreaBlocks := ceilDiv(inodeNum*diskInodeSize, BSIZE)
	inodeTotalBlocks := inodeBitmapBlocks + inodeAreaBlocks
	if totalBlocks < 1+inodeTotalBlocks {
		return nil, fmt.Errorf("easyfs: totalBlocks too small for inode area")
	}
	dataTotalBlocks := totalBlocks - 1 - inodeTotalBlocks
	dataBitmapBlocks := (dataTotalBlocks + 4096) / 4097
	dataAreaBlocks := dataTotalBlocks - dataBitmapBlocks

	dataBitmap := Bitmap_t{
		startBlock: 1 + inodeBitmapBlocks + inodeAreaBlocks,
		numBlocks:  dataBitmapBlocks,
	}

	efs := &EasyFileSystem_t{
		Cache:               cache,
		InodeBitmap:         inodeBitmap,
		DataBitmap:          dataBitmap,
		inodeAreaStartBlock: 1 + inodeBitmapBlocks,
		dataAreaStartBlock:  1 + inodeTotalBlocks + dataBitmapBlocks,
	}

	for i := uint32(0); i < totalBlocks; i++ {
		e, err := cache.Get(uint64(i))
		if err != nil {
			return nil, err
		}
		e.Modify(0, func(buf []byte) {
			for j := range buf {
				buf[j] = 0
			}
		})
		e.Release()
	}

	sbEntry, err := cache.Get(0)
	if err != nil {
		return nil, err
	}
	sbEntry.Modify(0, func(buf []byte) {
		sb := Superblock_t{Data: buf}
		sb.Initialize(totalBlocks, inodeBitmapBlocks, inodeAreaBlocks, dataBitmapBlocks, dataAreaBlocks)
	})
	sbEntry.Release()

	rootID, err := efs.AllocInode()
	if err != nil {
		return nil, err
	}
	if rootID != 0 {
		return nil, fmt.Errorf("easyfs: root inode must be id 0, got %d", rootID)
	}
	blockID, off := efs.DiskInodePos(0)
	rEntry, err := cache.Get(uint64(blockID))
	if err != nil {
		return nil, err
	}
	rEntry.Modify(off, func(buf []byte) {
		di := DiskInode_t{Data: buf[:diskInodeSize]}
		di.Initialize(TypeDir)
	})
	rEntry.Release()

	if err := cache.SyncAll(); err != nil {
		return nil, err
	}
	return efs, nil
}

// Open mounts an existing filesystem image, reading its layout back from
// the on-disk superblock.
func Open(disk blkcache.Disk_i) (*EasyFileSystem_t, error) {
	cache := blkcache.New(disk, blkcache.Capacity)
	sbEntry, err := cache.Get(0)
	if err != nil {
		return nil, err
	}
	defer sbEntry.Release()

	var efs *EasyFileSystem_t
	var badMagic bool
	sbEntry.Read(0, func(buf []byte) {
		sb := Superblock_t{Data: buf}
		if !sb.IsValid() {
			badMagic = true
			return
		}
		inodeTotalBlocks := sb.InodeBitmapBlocks() + sb.InodeAreaBlocks()
		efs = &EasyFileSystem_t{
			Cache:               cache,
			InodeBitmap:         Bitmap_t{startBlock: 1, numBlocks: sb.InodeBitmapBlocks()},
			DataBitmap:          Bitmap_t{startBlock: 1 + inodeTotalBlocks, numBlocks: sb.DataBitmapBlocks()},
			inodeAreaStartBlock: 1 + sb.InodeBitmapBlocks(),
			dataAreaStartBlock:  1 + inodeTotalBlocks + sb.DataBitmapBlocks(),
		}
	})
	if badMagic {
		return nil, fmt.Errorf("easyfs: bad superblock magic")
	}
	return efs, nil
}

// DiskInodePos resolves inode id to its (block id, byte offset within that
// block) location.
func (efs *EasyFileSystem_t) DiskInodePos(inodeID uint32) (uint32, int) {
	blockID := efs.inodeAreaStartBlock + inodeID/inodesPerBlock
	off := int(inodeID%inodesPerBlock) * diskInodeSize
	return blockID, off
}

// DataBlockID maps a data-bitmap-relative block index to its absolute block
// id in the data area.
func (efs *EasyFileSystem_t) DataBlockID(dataBlockIdx uint32) uint32 {
	return efs.dataAreaStartBlock + dataBlockIdx
}

// AllocInode allocates and returns a fresh inode id.
func (efs *EasyFileSystem_t) AllocInode() (uint32, error) {
	efs.mu.Lock()
	defer efs.mu.Unlock()
	bit, err := efs.InodeBitmap.Alloc(efs.Cache)
	if err != nil {
		return 0, err
	}
	if bit < 0 {
		return 0, fmt.Errorf("easyfs: inode bitmap exhausted")
	}
	return uint32(bit), nil
}

// AllocData allocates one fresh data block and returns its absolute block
// id.
func (efs *EasyFileSystem_t) AllocData() (uint32, error) {
	efs.mu.Lock()
	defer efs.mu.Unlock()
	bit, err := efs.DataBitmap.Alloc(efs.Cache)
	if err != nil {
		return 0, err
	}
	if bit < 0 {
		return 0, fmt.Errorf("easyfs: data bitmap exhausted")
	}
	return efs.DataBlockID(uint32(bit)), nil
}

// AllocDataN allocates n fresh data blocks.
func (efs *EasyFileSystem_t) AllocDataN(n uint32) ([]uint32, error) {
	out := make([]uint32, 0, n)
	for i := uint32(0); i < n; i++ {
		id, err := efs.AllocData()
		if err != nil {
			for _, already := range out {
				efs.DeallocData(already)
			}
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// DeallocData zeroes and frees a previously-allocated absolute data block
// id.
func (efs *EasyFileSystem_t) DeallocData(blockID uint32) error {
	efs.mu.Lock()
	defer efs.mu.Unlock()
	e, err := efs.Cache.Get(uint64(blockID))
	if err != nil {
		return err
	}
	e.Modify(0, func(buf []byte) {
		for i := range buf {
			buf[i] = 0
		}
	})
	e.Release()
	return efs.DataBitmap.Dealloc(efs.Cache, int(blockID-efs.dataAreaStartBlock))
}
