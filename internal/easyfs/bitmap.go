package easyfs

import (
	"encoding/binary"

	"rvkernel/internal/blkcache"
)

// wordsPerBlock is the number of 64-bit words a bitmap block is treated as,
// per spec.md's "a contiguous run of blocks treated as a packed array of
// 64-bit words".
const wordsPerBlock = BSIZE / 8

// Bitmap_t scans a contiguous run of blocks, starting at startBlock, for
// the first clear bit.
type Bitmap_t struct {
	startBlock uint32
	numBlocks  uint32
}

// Maximum returns the number of bits this bitmap can track.
func (b *Bitmap_t) Maximum() uint32 { return b.numBlocks * blockBits }

func readWord(buf []byte, word int) uint64 {
	return binary.LittleEndian.Uint64(buf[word*8:])
}

func writeWord(buf []byte, word int, v uint64) {
	binary.LittleEndian.PutUint64(buf[word*8:], v)
}

// Alloc scans for the first clear bit, sets it, and returns its absolute
// bit index, or -1 if the bitmap is full.
func (b *Bitmap_t) Alloc(cache *blkcache.Cache) (int, error) {
	for blk := uint32(0); blk < b.numBlocks; blk++ {
		e, err := cache.Get(uint64(b.startBlock + blk))
		if err != nil {
			return -1, err
		}
		found := -1
		var word int
		var bitInWord int
		e.Read(0, func(buf []byte) {
			for w := 0; w < wordsPerBlock; w++ {
				v := readWord(buf, w)
				if v == ^uint64(0) {
					continue
				}
				for bit := 0; bit < 64; bit++ {
					if v&(1<<uint(bit)) == 0 {
						word, bitInWord = w, bit
						found = w*64 + bit
						return
					}
				}
			}
		})
		if found < 0 {
			e.Release()
			continue
		}
		e.Modify(0, func(buf []byte) {
			v := readWord(buf, word)
			v |= 1 << uint(bitInWord)
			writeWord(buf, word, v)
		})
		e.Release()
		return int(blk)*blockBits + found, nil
	}
	return -1, nil
}

// Dealloc clears the bit at absolute index bit.
func (b *Bitmap_t) Dealloc(cache *blkcache.Cache, bit int) error {
	blk := uint32(bit) / blockBits
	off := uint32(bit) % blockBits
	word := int(off / 64)
	bitInWord := int(off % 64)
	e, err := cache.Get(uint64(b.startBlock + blk))
	if err != nil {
		return err
	}
	defer e.Release()
	e.Modify(0, func(buf []byte) {
		v := readWord(buf, word)
		if v&(1<<uint(bitInWord)) == 0 {
			panic("easyfs: deallocating a bit that was already clear")
		}
		v &^= 1 << uint(bitInWord)
		writeWord(buf, word, v)
	})
	return nil
}
