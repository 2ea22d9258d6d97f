package fsobj

import "rvkernel/internal/abi"

// inputDevice is the subset of internal/input.Device_i this file's fd
// wrapper needs; declared locally rather than imported to keep fsobj free
// of a hard dependency on internal/input, the same seam ByteSink_i/
// ByteSource_i give the console driver.
type inputDevice interface {
	ReadEvent() uint64
}

// InputFile_t exposes a keyboard/mouse event queue as a read-only fd: each
// Read of 8 bytes yields one little-endian-packed event word, per
// spec.md section 12's "two more Event-style fds" for PLIC sources 5/6.
type InputFile_t struct {
	Device inputDevice
}

func NewInputFile(dev inputDevice) *InputFile_t { return &InputFile_t{Device: dev} }

func (f *InputFile_t) Read(buf []byte) (int, abi.Err_t) {
	if len(buf) < 8 {
		return 0, abi.EINVAL
	}
	ev := f.Device.ReadEvent()
	for i := 0; i < 8; i++ {
		buf[i] = byte(ev >> (8 * uint(i)))
	}
	return 8, 0
}

func (f *InputFile_t) Write([]byte) (int, abi.Err_t) { return 0, abi.EINVAL }
func (f *InputFile_t) Close() abi.Err_t               { return 0 }
func (f *InputFile_t) Reopen() abi.Err_t              { return 0 }
func (f *InputFile_t) Readable() bool                 { return true }
func (f *InputFile_t) Writable() bool                 { return false }
