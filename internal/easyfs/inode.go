package easyfs

import (
	"fmt"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// Inode_t is a handle onto one on-disk inode's (block id, byte offset)
// location, generalized from original_source/easy-fs/src/vfs.rs's Inode,
// itself grounded on the teacher kernel's fs/super.go block-field idiom for
// reading/writing through the shared block cache rather than an owned
// buffer.
type Inode_t struct {
	mu sync.Mutex

	blockID uint32
	offset  int
	fs      *EasyFileSystem_t
}

// NewInode wraps the inode at (blockID, offset).
func NewInode(blockID uint32, offset int, fs *EasyFileSystem_t) *Inode_t {
	return &Inode_t{blockID: blockID, offset: offset, fs: fs}
}

// RootInode returns a handle onto the filesystem's root directory, inode
// id 0.
func RootInode(fs *EasyFileSystem_t) *Inode_t {
	blockID, off := fs.DiskInodePos(0)
	return NewInode(blockID, off, fs)
}

func (ino *Inode_t) withDisk(f func(d *DiskInode_t)) {
	e, err := ino.fs.Cache.Get(uint64(ino.blockID))
	if err != nil {
		panic(err)
	}
	defer e.Release()
	e.Modify(ino.offset, func(buf []byte) {
		d := DiskInode_t{Data: buf[:diskInodeSize]}
		f(&d)
	})
}

func (ino *Inode_t) readDisk(f func(d *DiskInode_t)) {
	e, err := ino.fs.Cache.Get(uint64(ino.blockID))
	if err != nil {
		panic(err)
	}
	defer e.Release()
	e.Read(ino.offset, func(buf []byte) {
		d := DiskInode_t{Data: buf[:diskInodeSize]}
		f(&d)
	})
}

// GetInodeSize returns the inode's current byte size.
func (ino *Inode_t) GetInodeSize() uint32 {
	ino.mu.Lock()
	defer ino.mu.Unlock()
	var sz uint32
	ino.readDisk(func(d *DiskInode_t) { sz = d.Size() })
	return sz
}

// IsDir reports whether this inode is a directory.
func (ino *Inode_t) IsDir() bool {
	ino.mu.Lock()
	defer ino.mu.Unlock()
	var isDir bool
	ino.readDisk(func(d *DiskInode_t) { isDir = d.IsDir() })
	return isDir
}

func (ino *Inode_t) readAllLocked() []byte {
	var size uint32
	ino.readDisk(func(d *DiskInode_t) { size = d.Size() })
	buf := make([]byte, size)
	ino.readDisk(func(d *DiskInode_t) { d.ReadAt(ino.fs.Cache, 0, buf) })
	return buf
}

// Ls lists the names of every entry in this directory.
func (ino *Inode_t) Ls() []string {
	ino.mu.Lock()
	defer ino.mu.Unlock()
	data := ino.readAllLocked()
	n := EntryCount(uint32(len(data)))
	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		names = append(names, EntryAt(data, i).Name)
	}
	return names
}

// Find looks up name in this directory and returns a handle onto it, or
// nil if not present.
func (ino *Inode_t) Find(name string) *Inode_t {
	name = norm.NFC.String(name)
	ino.mu.Lock()
	defer ino.mu.Unlock()
	data := ino.readAllLocked()
	n := EntryCount(uint32(len(data)))
	for i := 0; i < n; i++ {
		e := EntryAt(data, i)
		if e.Name == name {
			blockID, off := ino.fs.DiskInodePos(e.Inode)
			return NewInode(blockID, off, ino.fs)
		}
	}
	return nil
}

func (ino *Inode_t) increaseSizeLocked(newSize uint32) error {
	var cur uint32
	ino.readDisk(func(d *DiskInode_t) { cur = d.Size() })
	if newSize <= cur {
		return nil
	}
	curBlocks := TotalBlocks(cur)
	newBlocks := TotalBlocks(newSize)
	need := newBlocks - curBlocks
	if need == 0 {
		ino.withDisk(func(d *DiskInode_t) { d.IncreaseSize(ino.fs.Cache, newSize, nil) })
		return nil
	}
	pool, err := ino.fs.AllocDataN(need)
	if err != nil {
		return err
	}
	ino.withDisk(func(d *DiskInode_t) { d.IncreaseSize(ino.fs.Cache, newSize, pool) })
	return nil
}

func (ino *Inode_t) appendEntry(entry DirEntry_t) error {
	var size uint32
	ino.readDisk(func(d *DiskInode_t) { size = d.Size() })
	newSize := size + DirEntrySize
	if err := ino.increaseSizeLocked(newSize); err != nil {
		return err
	}
	enc := entry.Encode()
	ino.withDisk(func(d *DiskInode_t) { d.WriteAt(ino.fs.Cache, int(size), enc[:]) })
	return nil
}

func (ino *Inode_t) createChild(name string, t InodeType_t) (*Inode_t, error) {
	name = norm.NFC.String(name)
	ino.mu.Lock()
	defer ino.mu.Unlock()

	data := ino.readAllLocked()
	n := EntryCount(uint32(len(data)))
	for i := 0; i < n; i++ {
		if EntryAt(data, i).Name == name {
			return nil, fmt.Errorf("easyfs: %q already exists", name)
		}
	}

	newID, err := ino.fs.AllocInode()
	if err != nil {
		return nil, err
	}
	blockID, off := ino.fs.DiskInodePos(newID)
	e, err := ino.fs.Cache.Get(uint64(blockID))
	if err != nil {
		return nil, err
	}
	e.Modify(off, func(buf []byte) {
		d := DiskInode_t{Data: buf[:diskInodeSize]}
		d.Initialize(t)
	})
	e.Release()

	if err := ino.appendEntry(DirEntry_t{Name: name, Inode: newID}); err != nil {
		return nil, err
	}
	return NewInode(blockID, off, ino.fs), nil
}

// Create creates an empty regular file named name in this directory.
func (ino *Inode_t) Create(name string) (*Inode_t, error) { return ino.createChild(name, TypeFile) }

// CreateDir creates an empty subdirectory named name in this directory.
func (ino *Inode_t) CreateDir(name string) (*Inode_t, error) { return ino.createChild(name, TypeDir) }

// ReadAt reads into buf starting at offset off, returning the number of
// bytes read.
func (ino *Inode_t) ReadAt(off int, buf []byte) int {
	ino.mu.Lock()
	defer ino.mu.Unlock()
	n := 0
	ino.readDisk(func(d *DiskInode_t) { n = d.ReadAt(ino.fs.Cache, off, buf) })
	return n
}

// WriteAt writes buf starting at offset off, growing the inode as needed,
// and returns the number of bytes written.
func (ino *Inode_t) WriteAt(off int, buf []byte) (int, error) {
	ino.mu.Lock()
	defer ino.mu.Unlock()
	need := uint32(off + len(buf))
	if err := ino.increaseSizeLocked(need); err != nil {
		return 0, err
	}
	n := 0
	ino.withDisk(func(d *DiskInode_t) { n = d.WriteAt(ino.fs.Cache, off, buf) })
	return n, nil
}

// Clear truncates this inode to size zero, returning its data blocks to
// the free pool.
func (ino *Inode_t) Clear() {
	ino.mu.Lock()
	defer ino.mu.Unlock()
	var freed []uint32
	ino.withDisk(func(d *DiskInode_t) { freed = d.Clear(ino.fs.Cache) })
	for _, id := range freed {
		ino.fs.DeallocData(id)
	}
}
