package lib

import "fmt"

// Stdout/Stdin match the fixed fd numbers internal/proc.NewInitProc seeds
// every process's fd table with, per spec.md section 4.7.
const (
	Stdout = 1
	Stdin  = 0
)

// Print writes args to the console fd, mirroring
// original_source/user/src/console.rs's print! macro over its own
// Stdout writer.
func Print(args ...any) {
	Write(Stdout, []byte(fmt.Sprint(args...)))
}

// Println is Print with a trailing newline.
func Println(args ...any) {
	Write(Stdout, []byte(fmt.Sprintln(args...)))
}
