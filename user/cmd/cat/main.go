// Command cat opens each argv entry via lib.Open and streams it to
// stdout, the Go shape of original_source/user/src/bin/count_lines.rs's
// file-reading half without the counting (argv is not yet wired through
// exec on the kernel side, so this currently just demonstrates the
// open/read/write/close path against a fixed path for cmd/mkfs's image
// to exercise).
package main

import "rvkernel/user/lib"

func main() {
	fd := lib.Open("initproc\x00", lib.ORdonly)
	if fd < 0 {
		lib.Println("cat: open failed")
		lib.Exit(1)
	}
	buf := make([]byte, 512)
	for {
		n := lib.Read(int(fd), buf)
		if n <= 0 {
			break
		}
		lib.Write(lib.Stdout, buf[:n])
	}
	lib.Close(int(fd))
	lib.Exit(0)
}
