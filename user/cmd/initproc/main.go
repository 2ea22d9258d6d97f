// Command initproc is pid 1, booted directly by cmd/kernel from
// boot.yaml's init_proc_path. It execs the shell and spends the rest of
// its life reaping zombies, per
// original_source/user/src/bin/initproc.rs's main.
package main

import "rvkernel/user/lib"

func main() {
	if lib.Fork() == 0 {
		if lib.Exec("shell\x00") == -1 {
			lib.Println("initproc: exec shell failed")
			lib.Exit(-4)
		}
		panic("initproc: unreachable after failed exec")
	}

	var exitCode int32
	for {
		pid := lib.Wait(&exitCode)
		if pid == -1 {
			lib.Yield()
			continue
		}
		lib.Println("[initproc] released zombie pid=", pid, " exit_code=", exitCode)
	}
}
