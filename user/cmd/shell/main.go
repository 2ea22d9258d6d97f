// Command shell is a minimal line-reading command launcher, the Go
// shape of original_source/user/src/bin/user_shell.rs: read one
// character at a time from stdin, echo it, and on a newline fork+exec
// the accumulated line as a program name, then wait for it to exit.
package main

import "rvkernel/user/lib"

const (
	lf = 0x0a
	cr = 0x0d
	bs = 0x08
	dl = 0x7f
)

func main() {
	lib.Println("rvkernel user shell")
	lib.Print("&>> ")

	var line []byte
	var c [1]byte
	for {
		if n := lib.Read(lib.Stdin, c[:]); n != 1 {
			continue
		}
		switch c[0] {
		case lf, cr:
			lib.Println("")
			if len(line) > 0 {
				runLine(string(line))
				line = line[:0]
			}
			lib.Print("&>> ")
		case bs, dl:
			if len(line) > 0 {
				line = line[:len(line)-1]
				lib.Write(lib.Stdout, []byte{bs, ' ', bs})
			}
		default:
			lib.Write(lib.Stdout, c[:])
			line = append(line, c[0])
		}
	}
}

func runLine(name string) {
	pid := lib.Fork()
	if pid == 0 {
		if lib.Exec(name+"\x00") == -1 {
			lib.Println("shell: error when executing ", name)
			lib.Exit(-4)
		}
		panic("shell: unreachable after failed exec")
	}
	var exitCode int32
	exited := lib.Waitpid(pid, &exitCode)
	if exited != pid {
		panic("shell: waitpid returned a different pid than the one forked")
	}
	lib.Println("shell: process ", pid, " exited with code ", exitCode)
}
