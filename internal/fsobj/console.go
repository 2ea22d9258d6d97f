package fsobj

import "rvkernel/internal/abi"

// ByteSink_i and ByteSource_i are the minimal surfaces Stdout_t/Stdin_t
// need from the console driver, letting internal/fsobj stay independent
// of internal/drivers/uart; cmd/kernel wires the real UART in at boot.
type ByteSink_i interface {
	WriteByte(b byte) error
}

type ByteSource_i interface {
	ReadByte() (byte, error) // blocks until a byte is available
}

// Stdout_t writes every byte of a Write call to the console.
type Stdout_t struct {
	Sink ByteSink_i
}

func (s *Stdout_t) Read([]byte) (int, abi.Err_t) { return 0, abi.EINVAL }

func (s *Stdout_t) Write(buf []byte) (int, abi.Err_t) {
	for _, b := range buf {
		if err := s.Sink.WriteByte(b); err != nil {
			return 0, abi.EIO
		}
	}
	return len(buf), 0
}

func (s *Stdout_t) Close() abi.Err_t  { return 0 }
func (s *Stdout_t) Reopen() abi.Err_t { return 0 }
func (s *Stdout_t) Readable() bool    { return false }
func (s *Stdout_t) Writable() bool    { return true }

// Stdin_t reads bytes from the console one at a time, blocking (via the
// driver's ReadByte) until input is available.
type Stdin_t struct {
	Source ByteSource_i
}

func (s *Stdin_t) Read(buf []byte) (int, abi.Err_t) {
	for i := range buf {
		b, err := s.Source.ReadByte()
		if err != nil {
			return i, abi.EIO
		}
		buf[i] = b
	}
	return len(buf), 0
}

func (s *Stdin_t) Write([]byte) (int, abi.Err_t) { return 0, abi.EINVAL }
func (s *Stdin_t) Close() abi.Err_t              { return 0 }
func (s *Stdin_t) Reopen() abi.Err_t             { return 0 }
func (s *Stdin_t) Readable() bool                { return true }
func (s *Stdin_t) Writable() bool                { return false }
