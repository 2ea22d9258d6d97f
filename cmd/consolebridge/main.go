// Command consolebridge is a host-side serial cable: it puts the
// operator's terminal into raw mode and bidirectionally copies bytes
// between it and wherever the emulated UART MMIO region's backing
// store actually lives (a TCP socket a hypervisor exposes, or a host
// character device such as a pty), standing in for a physical serial
// cable the way smoynes-elsie's internal/tty.Console stands in for an
// LC-3's keyboard/display pair.
package main

import (
	"flag"
	"fmt"
	"io"
	"net"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

func main() {
	addr := flag.String("addr", "", "TCP address of the UART's host-side socket")
	device := flag.String("device", "", "host character device to bridge instead of -addr (e.g. a pty)")
	flag.Parse()

	conn, err := dial(*addr, *device)
	if err != nil {
		fmt.Fprintf(os.Stderr, "consolebridge: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		fmt.Fprintln(os.Stderr, "consolebridge: stdin is not a terminal")
		os.Exit(1)
	}
	saved, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "consolebridge: enter raw mode: %v\n", err)
		os.Exit(1)
	}
	defer term.Restore(fd, saved)

	if err := setReadTimingUnbuffered(fd); err != nil {
		fmt.Fprintf(os.Stderr, "consolebridge: configure termios: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintln(os.Stderr, "consolebridge: bridging (Ctrl-] then q to quit)")

	done := make(chan struct{})
	go func() {
		io.Copy(conn, os.Stdin)
		close(done)
	}()
	go io.Copy(os.Stdout, conn)
	<-done
}

// dial opens conn to either addr (a TCP host:port) or device (a host
// character device path, mutually exclusive with addr).
func dial(addr, device string) (io.ReadWriteCloser, error) {
	switch {
	case addr != "":
		return net.Dial("tcp", addr)
	case device != "":
		return os.OpenFile(device, os.O_RDWR, 0)
	default:
		return nil, fmt.Errorf("one of -addr or -device is required")
	}
}

// setReadTimingUnbuffered sets VMIN=1/VTIME=0 so stdin reads return as
// soon as a single byte is available, per elsie's tty.Console.
// setTerminalParams; term.MakeRaw alone does not touch these.
func setReadTimingUnbuffered(fd int) error {
	termios, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return err
	}
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0
	return unix.IoctlSetTermios(fd, ioctlSetTermios, termios)
}
