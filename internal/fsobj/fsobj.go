// Package fsobj implements the open-file-descriptor variants a process
// can hold: regular inode files, pipes, and the console stdin/stdout
// streams, dispatched through a common Fdops_i interface. The dispatch
// shape generalizes biscuit's fd.Fd_t/fdops.Fdops_i pair (biscuit's own
// fdops package carries only a go.mod in this retrieval, so the interface
// itself is inferred from fd.go's Reopen/Close usage plus spec.md's
// syscall surface); the pipe implementation follows
// original_source/os/src/fs/pipe.rs's ring buffer and blocking
// read/write loop.
package fsobj

import (
	"rvkernel/internal/abi"
	"rvkernel/internal/easyfs"
)

// Fdops_i is the operations every open file description variant
// implements, dispatched from internal/syscall's read/write/close
// handlers.
type Fdops_i interface {
	Read(buf []byte) (int, abi.Err_t)
	Write(buf []byte) (int, abi.Err_t)
	Close() abi.Err_t
	Reopen() abi.Err_t
	Readable() bool
	Writable() bool
}

// Fd_t is an open file descriptor: operations plus permission bits, per
// biscuit's fd.Fd_t.
type Fd_t struct {
	Fops  Fdops_i
	Perms int
}

const (
	FD_READ  = 0x1
	FD_WRITE = 0x2
)

// Copyfd duplicates fd by reopening its underlying object, per
// biscuit's fd.Copyfd.
func Copyfd(fd *Fd_t) (*Fd_t, abi.Err_t) {
	nfd := &Fd_t{}
	*nfd = *fd
	if err := nfd.Fops.Reopen(); err != 0 {
		return nil, err
	}
	return nfd, 0
}

// InodeFile_t is a regular-file or directory descriptor backed by an
// Easy-FS inode, with its own read/write cursor.
type InodeFile_t struct {
	Inode *easyfs.Inode_t
	off   int
}

func NewInodeFile(ino *easyfs.Inode_t) *InodeFile_t {
	return &InodeFile_t{Inode: ino}
}

func (f *InodeFile_t) Read(buf []byte) (int, abi.Err_t) {
	n := f.Inode.ReadAt(f.off, buf)
	f.off += n
	return n, 0
}

func (f *InodeFile_t) Write(buf []byte) (int, abi.Err_t) {
	n, err := f.Inode.WriteAt(f.off, buf)
	if err != nil {
		return 0, abi.EIO
	}
	f.off += n
	return n, 0
}

func (f *InodeFile_t) Close() abi.Err_t  { return 0 }
func (f *InodeFile_t) Reopen() abi.Err_t { return 0 }
func (f *InodeFile_t) Readable() bool    { return true }
func (f *InodeFile_t) Writable() bool    { return true }

// Seek sets the cursor to the absolute offset off; no syscall calls it.
func (f *InodeFile_t) Seek(off int) { f.off = off }
func (f *InodeFile_t) Tell() int    { return f.off }
