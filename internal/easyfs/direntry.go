package easyfs

import (
	"bytes"

	"golang.org/x/text/unicode/norm"
)

// DirEntry_t is one 28-byte-name + 4-byte-inode-id directory entry, per
// spec.md section 6. Names are normalized to NFC before being stored so
// that visually-identical names compare equal regardless of how the caller
// composed them -- the teacher kernel has no analogous concern since it
// never stores user-chosen Unicode names, so this is grounded in
// golang.org/x/text rather than in teacher code.
type DirEntry_t struct {
	Name  string
	Inode uint32
}

// Encode serializes the entry into a DirEntrySize-byte record.
func (e DirEntry_t) Encode() [DirEntrySize]byte {
	var out [DirEntrySize]byte
	name := norm.NFC.String(e.Name)
	nb := []byte(name)
	if len(nb) > NameLengthLimit {
		nb = nb[:NameLengthLimit]
	}
	copy(out[:NameLengthLimit+1], nb)
	out[NameLengthLimit+1] = 0
	out[28] = byte(e.Inode)
	out[29] = byte(e.Inode >> 8)
	out[30] = byte(e.Inode >> 16)
	out[31] = byte(e.Inode >> 24)
	return out
}

// DecodeDirEntry parses a DirEntrySize-byte record.
func DecodeDirEntry(raw []byte) DirEntry_t {
	nameBytes := raw[:28]
	if i := bytes.IndexByte(nameBytes, 0); i >= 0 {
		nameBytes = nameBytes[:i]
	}
	inode := uint32(raw[28]) | uint32(raw[29])<<8 | uint32(raw[30])<<16 | uint32(raw[31])<<24
	return DirEntry_t{Name: string(nameBytes), Inode: inode}
}

// EntryAt reads the idx'th directory entry from data, a reader over the
// directory inode's full contents.
func EntryAt(data []byte, idx int) DirEntry_t {
	off := idx * DirEntrySize
	return DecodeDirEntry(data[off : off+DirEntrySize])
}

// EntryCount reports how many directory entries fit in a directory of the
// given byte size.
func EntryCount(size uint32) int { return int(size) / DirEntrySize }
