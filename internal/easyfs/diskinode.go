package easyfs

import (
	"rvkernel/internal/blkcache"
	"rvkernel/internal/kutil"
)

// DiskInode field byte offsets within its 128-byte on-disk record, per
// spec.md section 3: size, direct[28], indirect1, indirect2, type.
const (
	offSize       = 0
	offDirect     = 4
	offIndirect1  = offDirect + DirectCount*4
	offIndirect2  = offIndirect1 + 4
	offType       = offIndirect2 + 4
)

// DiskInode_t is a view over one 128-byte inode record within a cached
// inode-area block, addressed the way the teacher kernel's block-field
// accessors address fixed slots of a cached block (fs/super.go), rather
// than through a marshaled struct.
type DiskInode_t struct {
	Data []byte // 128-byte slice into the owning Entry's buffer
}

func (d *DiskInode_t) Size() uint32 { return uint32(kutil.Readn(d.Data, 4, offSize)) }
func (d *DiskInode_t) setSize(v uint32) { kutil.Writen(d.Data, 4, offSize, int(v)) }

func (d *DiskInode_t) Type() InodeType_t {
	return InodeType_t(kutil.Readn(d.Data, 4, offType))
}
func (d *DiskInode_t) setType(t InodeType_t) { kutil.Writen(d.Data, 4, offType, int(t)) }

func (d *DiskInode_t) IsDir() bool  { return d.Type() == TypeDir }
func (d *DiskInode_t) IsFile() bool { return d.Type() == TypeFile }

func (d *DiskInode_t) direct(i int) uint32 {
	return uint32(kutil.Readn(d.Data, 4, offDirect+i*4))
}
func (d *DiskInode_t) setDirect(i int, v uint32) {
	kutil.Writen(d.Data, 4, offDirect+i*4, int(v))
}
func (d *DiskInode_t) indirect1() uint32     { return uint32(kutil.Readn(d.Data, 4, offIndirect1)) }
func (d *DiskInode_t) setIndirect1(v uint32) { kutil.Writen(d.Data, 4, offIndirect1, int(v)) }
func (d *DiskInode_t) indirect2() uint32     { return uint32(kutil.Readn(d.Data, 4, offIndirect2)) }
func (d *DiskInode_t) setIndirect2(v uint32) { kutil.Writen(d.Data, 4, offIndirect2, int(v)) }

// Initialize zeroes a fresh inode and sets its type.
func (d *DiskInode_t) Initialize(t InodeType_t) {
	for i := range d.Data {
		d.Data[i] = 0
	}
	d.setType(t)
}

// DataBlocks returns the number of data blocks currently allocated to hold
// Size() bytes.
func (d *DiskInode_t) DataBlocks() uint32 { return dataBlocksForSize(d.Size()) }

func dataBlocksForSize(size uint32) uint32 { return ceilDiv(size, BSIZE) }

// TotalBlocks returns DataBlocks() plus the indirect index blocks needed to
// address them.
func TotalBlocks(size uint32) uint32 {
	data := dataBlocksForSize(size)
	total := data
	if data > DirectBound {
		total++ // indirect1 index block
	}
	if data > Indirect1Bound {
		// indirect2 index block plus one indirect1 block per 128 pointers
		total += 1 + ceilDiv(data-Indirect1Bound, Indirect1Count)
	}
	return total
}

// blockIDAt resolves the data block id backing the blockIdx'th block (0
// based) of this inode's data, walking direct, then single-indirect, then
// double-indirect pointers as spec.md section 3 describes.
func (d *DiskInode_t) blockIDAt(cache *blkcache.Cache, blockIdx uint32) uint32 {
	switch {
	case blockIdx < DirectBound:
		return d.direct(int(blockIdx))
	case blockIdx < Indirect1Bound:
		idx := blockIdx - DirectBound
		return readIndirectEntry(cache, d.indirect1(), idx)
	case blockIdx < Indirect2Bound:
		idx := blockIdx - Indirect1Bound
		l1 := idx / Indirect1Count
		l2 := idx % Indirect1Count
		mid := readIndirectEntry(cache, d.indirect2(), l1)
		return readIndirectEntry(cache, mid, l2)
	default:
		panic("easyfs: block index out of range")
	}
}

func readIndirectEntry(cache *blkcache.Cache, blockID uint32, idx uint32) uint32 {
	e, err := cache.Get(uint64(blockID))
	if err != nil {
		panic(err)
	}
	defer e.Release()
	var v uint32
	e.Read(0, func(buf []byte) {
		v = uint32(kutil.Readn(buf, 4, int(idx)*4))
	})
	return v
}

func writeIndirectEntry(cache *blkcache.Cache, blockID uint32, idx uint32, v uint32) {
	e, err := cache.Get(uint64(blockID))
	if err != nil {
		panic(err)
	}
	defer e.Release()
	e.Modify(0, func(buf []byte) {
		kutil.Writen(buf, 4, int(idx)*4, int(v))
	})
}

// ReadAt copies into buf the inode's bytes starting at offset off, returning
// the number of bytes actually read (bounded by Size()).
func (d *DiskInode_t) ReadAt(cache *blkcache.Cache, off int, buf []byte) int {
	size := int(d.Size())
	if off >= size {
		return 0
	}
	end := off + len(buf)
	if end > size {
		end = size
	}
	read := 0
	startBlock := off / BSIZE
	for blk := startBlock; off+read < end; blk++ {
		blockEnd := (blk + 1) * BSIZE
		if blockEnd > end {
			blockEnd = end
		}
		n := blockEnd - (off + read)
		inBlockOff := (off + read) % BSIZE

		id := d.blockIDAt(cache, uint32(blk))
		e, err := cache.Get(uint64(id))
		if err != nil {
			panic(err)
		}
		e.Read(inBlockOff, func(src []byte) {
			copy(buf[read:read+n], src[:n])
		})
		e.Release()
		read += n
	}
	return read
}

// WriteAt writes buf into the inode's bytes starting at offset off. The
// caller must have already grown the inode (IncreaseSize) to cover
// off+len(buf); WriteAt never allocates.
func (d *DiskInode_t) WriteAt(cache *blkcache.Cache, off int, buf []byte) int {
	size := int(d.Size())
	end := off + len(buf)
	if end > size {
		end = size
	}
	if off >= end {
		return 0
	}
	written := 0
	startBlock := off / BSIZE
	for blk := startBlock; off+written < end; blk++ {
		blockEnd := (blk + 1) * BSIZE
		if blockEnd > end {
			blockEnd = end
		}
		n := blockEnd - (off + written)
		inBlockOff := (off + written) % BSIZE

		id := d.blockIDAt(cache, uint32(blk))
		e, err := cache.Get(uint64(id))
		if err != nil {
			panic(err)
		}
		e.Modify(inBlockOff, func(dst []byte) {
			copy(dst[:n], buf[written:written+n])
		})
		e.Release()
		written += n
	}
	return written
}

// IncreaseSize grows the inode to newSize, allocating newly-needed data and
// index blocks from newBlocks (a pre-allocated pool of block ids, produced
// by EasyFileSystem_t.AllocData), in the order direct, indirect1 index,
// indirect1 leaves, indirect2 index, indirect2 level-1 indices, indirect2
// leaves -- mirroring efs.rs's increase_size.
func (d *DiskInode_t) IncreaseSize(cache *blkcache.Cache, newSize uint32, newBlocks []uint32) {
	cur := d.DataBlocks()
	d.setSize(newSize)
	want := d.DataBlocks()

	pool := newBlocks
	take := func() uint32 {
		v := pool[0]
		pool = pool[1:]
		return v
	}

	// direct
	for cur < want && cur < DirectBound {
		d.setDirect(int(cur), take())
		cur++
	}
	if want <= DirectBound {
		return
	}

	// indirect1 index block
	if d.indirect1() == 0 {
		d.setIndirect1(take())
	}
	for cur < want && cur < Indirect1Bound {
		writeIndirectEntry(cache, d.indirect1(), cur-DirectBound, take())
		cur++
	}
	if want <= Indirect1Bound {
		return
	}

	// indirect2 index block
	if d.indirect2() == 0 {
		d.setIndirect2(take())
	}
	for cur < want {
		idx := cur - Indirect1Bound
		l1 := idx / Indirect1Count
		l2 := idx % Indirect1Count
		if l2 == 0 {
			mid := readIndirectEntry(cache, d.indirect2(), l1)
			if mid == 0 {
				writeIndirectEntry(cache, d.indirect2(), l1, take())
			}
		}
		mid := readIndirectEntry(cache, d.indirect2(), l1)
		writeIndirectEntry(cache, mid, l2, take())
		cur++
	}
}

// Clear frees every data and index block owned by this inode, shrinks it to
// size zero, and returns the freed block ids for the caller to return to the
// data bitmap.
func (d *DiskInode_t) Clear(cache *blkcache.Cache) []uint32 {
	var freed []uint32
	data := d.DataBlocks()

	directN := data
	if directN > DirectBound {
		directN = DirectBound
	}
	for i := uint32(0); i < directN; i++ {
		freed = append(freed, d.direct(int(i)))
		d.setDirect(int(i), 0)
	}

	if data > DirectBound {
		i1 := d.indirect1()
		n := data - DirectBound
		if n > Indirect1Count {
			n = Indirect1Count
		}
		for i := uint32(0); i < n; i++ {
			freed = append(freed, readIndirectEntry(cache, i1, i))
		}
		freed = append(freed, i1)
		d.setIndirect1(0)
	}

	if data > Indirect1Bound {
		i2 := d.indirect2()
		n := data - Indirect1Bound
		fullL1 := n / Indirect1Count
		rem := n % Indirect1Count
		totalL1 := fullL1
		if rem > 0 {
			totalL1++
		}
		for l1 := uint32(0); l1 < totalL1; l1++ {
			mid := readIndirectEntry(cache, i2, l1)
			count := Indirect1Count
			if l1 == totalL1-1 && rem > 0 {
				count = int(rem)
			}
			for l2 := 0; l2 < count; l2++ {
				freed = append(freed, readIndirectEntry(cache, mid, uint32(l2)))
			}
			freed = append(freed, mid)
		}
		freed = append(freed, i2)
		d.setIndirect2(0)
	}

	d.setSize(0)
	return freed
}
