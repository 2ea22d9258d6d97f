package syscall

import (
	"rvkernel/internal/abi"
	"rvkernel/internal/fsobj"
	"rvkernel/internal/proc"
	"rvkernel/internal/upath"
)

// allocFd finds the lowest free slot in p.Fdtable for fd, reusing a nil
// entry before growing the table, per original_source's
// ProcessControlBlockInner::alloc_fd.
func allocFd(p *proc.Pcb_t, fd *fsobj.Fd_t) int {
	for i, cur := range p.Fdtable {
		if cur == nil {
			p.Fdtable[i] = fd
			return i
		}
	}
	p.Fdtable = append(p.Fdtable, fd)
	return len(p.Fdtable) - 1
}

func lookupFd(p *proc.Pcb_t, fd int) (*fsobj.Fd_t, abi.Err_t) {
	if fd < 0 || fd >= len(p.Fdtable) || p.Fdtable[fd] == nil {
		return nil, abi.EBADF
	}
	return p.Fdtable[fd], 0
}

func (d *Dispatcher_t) sysDup(p *proc.Pcb_t, fd int) int64 {
	old, err := lookupFd(p, fd)
	if err != 0 {
		return -int64(err)
	}
	nfd, ferr := fsobj.Copyfd(old)
	if ferr != 0 {
		return -int64(ferr)
	}
	return int64(allocFd(p, nfd))
}

func (d *Dispatcher_t) sysOpen(p *proc.Pcb_t, pathVA uint64, flags uint32) int64 {
	path, err := readCString(p.MemSet, pathVA)
	if err != 0 {
		return -int64(err)
	}
	if clean := upath.Clean(path); !upath.Valid(clean) {
		return -int64(abi.ENOENT)
	}
	f, oerr := d.OpenFile(path, flags)
	if oerr != 0 {
		return -int64(oerr)
	}
	perms := 0
	if flags&abi.O_WRONLY == 0 || flags&abi.O_RDWR != 0 {
		perms |= fsobj.FD_READ
	}
	if flags&(abi.O_WRONLY|abi.O_RDWR) != 0 {
		perms |= fsobj.FD_WRITE
	}
	return int64(allocFd(p, &fsobj.Fd_t{Fops: f, Perms: perms}))
}

func (d *Dispatcher_t) sysClose(p *proc.Pcb_t, fd int) int64 {
	f, err := lookupFd(p, fd)
	if err != 0 {
		return -int64(err)
	}
	f.Fops.Close()
	p.Fdtable[fd] = nil
	return 0
}

func (d *Dispatcher_t) sysPipe(p *proc.Pcb_t, fdsVA uint64) int64 {
	yield := func() { d.Proc.SuspendCurrentAndRunNext() }
	read, write := fsobj.MakePipe(yield)
	rfd := allocFd(p, &fsobj.Fd_t{Fops: read, Perms: fsobj.FD_READ})
	wfd := allocFd(p, &fsobj.Fd_t{Fops: write, Perms: fsobj.FD_WRITE})

	var buf [16]byte
	putUint64(buf[0:8], uint64(rfd))
	putUint64(buf[8:16], uint64(wfd))
	if err := writeUser(p.MemSet, fdsVA, buf[:]); err != 0 {
		return -int64(err)
	}
	return 0
}

func (d *Dispatcher_t) sysRead(p *proc.Pcb_t, fd int, bufVA uint64, n int) int64 {
	f, err := lookupFd(p, fd)
	if err != 0 {
		return -int64(err)
	}
	if !f.Fops.Readable() {
		return -int64(abi.EBADF)
	}
	buf := make([]byte, n)
	got, rerr := f.Fops.Read(buf)
	if rerr != 0 {
		return -int64(rerr)
	}
	if werr := writeUser(p.MemSet, bufVA, buf[:got]); werr != 0 {
		return -int64(werr)
	}
	return int64(got)
}

func (d *Dispatcher_t) sysWrite(p *proc.Pcb_t, fd int, bufVA uint64, n int) int64 {
	f, err := lookupFd(p, fd)
	if err != 0 {
		return -int64(err)
	}
	if !f.Fops.Writable() {
		return -int64(abi.EBADF)
	}
	buf, rerr := readUser(p.MemSet, bufVA, n)
	if rerr != 0 {
		return -int64(rerr)
	}
	put, werr := f.Fops.Write(buf)
	if werr != 0 {
		return -int64(werr)
	}
	return int64(put)
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
