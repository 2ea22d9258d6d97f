package easyfs

import "rvkernel/internal/kutil"

// Magic identifies a valid Easy-FS superblock.
const Magic uint32 = 0x3b800001

// superblockFields indexes the u32 slots of block 0, in the order spec.md
// section 3 lists them: magic, total blocks, inode-bitmap blocks,
// inode-area blocks, data-bitmap blocks, data-area blocks.
const (
	sbMagic = iota
	sbTotalBlocks
	sbInodeBitmapBlocks
	sbInodeAreaBlocks
	sbDataBitmapBlocks
	sbDataAreaBlocks
)

func fieldr(data []byte, slot int) uint32 {
	return uint32(kutil.Readn(data, 4, slot*4))
}

func fieldw(data []byte, slot int, v uint32) {
	kutil.Writen(data, 4, slot*4, int(v))
}

// Superblock_t is a thin view over block 0's bytes, in the teacher kernel's
// fs/super.go accessor style.
type Superblock_t struct {
	Data []byte
}

func (sb *Superblock_t) Magic() uint32            { return fieldr(sb.Data, sbMagic) }
func (sb *Superblock_t) TotalBlocks() uint32       { return fieldr(sb.Data, sbTotalBlocks) }
func (sb *Superblock_t) InodeBitmapBlocks() uint32 { return fieldr(sb.Data, sbInodeBitmapBlocks) }
func (sb *Superblock_t) InodeAreaBlocks() uint32   { return fieldr(sb.Data, sbInodeAreaBlocks) }
func (sb *Superblock_t) DataBitmapBlocks() uint32  { return fieldr(sb.Data, sbDataBitmapBlocks) }
func (sb *Superblock_t) DataAreaBlocks() uint32    { return fieldr(sb.Data, sbDataAreaBlocks) }

func (sb *Superblock_t) IsValid() bool { return sb.Magic() == Magic }

// Initialize writes every field of a fresh superblock.
func (sb *Superblock_t) Initialize(totalBlocks, inodeBitmapBlocks, inodeAreaBlocks, dataBitmapBlocks, dataAreaBlocks uint32) {
	fieldw(sb.Data, sbMagic, Magic)
	fieldw(sb.Data, sbTotalBlocks, totalBlocks)
	fieldw(sb.Data, sbInodeBitmapBlocks, inodeBitmapBlocks)
	fieldw(sb.Data, sbInodeAreaBlocks, inodeAreaBlocks)
	fieldw(sb.Data, sbDataBitmapBlocks, dataBitmapBlocks)
	fieldw(sb.Data, sbDataAreaBlocks, dataAreaBlocks)
}
