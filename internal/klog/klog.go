// Package klog is the kernel's console logger: ad-hoc fmt.Printf gated by
// per-subsystem debug booleans, exactly like biscuit's bdev_debug
// (biscuit/src/fs/blk.go), given a name instead of a one-off package
// variable per call site. Per SPEC_FULL.md section 10.1 it deliberately
// skips a structured logging package -- a kernel log has one consumer (a
// serial console), not a downstream aggregator to structure for.
package klog

import (
	"fmt"
	"io"
	"os"
)

// Level is a coarse verbosity threshold, set once at boot from
// internal/config's boot.yaml log_level field (SPEC_FULL.md section 10.3),
// the Go-native equivalent of original_source/os/src/logger.rs reading
// the LOG environment variable.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn":
		return LevelWarn
	default:
		return LevelError
	}
}

var (
	out   io.Writer = os.Stderr
	level           = LevelInfo
	// debugSubsystems mirrors bdev_debug: a set of subsystem names with
	// debug-level logging force-enabled regardless of the global level,
	// e.g. klog.EnableSubsystem("bdev").
	debugSubsystems = map[string]bool{}
)

// SetOutput redirects every subsequent log line; cmd/kernel points this at
// the UART console writer once it is up.
func SetOutput(w io.Writer) { out = w }

// SetLevel sets the global verbosity threshold.
func SetLevel(l Level) { level = l }

// EnableSubsystem forces debug-level output for one named subsystem
// (e.g. "bdev", "sched") even when the global level is lower, the direct
// generalization of bdev_debug being its own package-level bool.
func EnableSubsystem(name string) { debugSubsystems[name] = true }

func enabled(subsystem string, l Level) bool {
	if debugSubsystems[subsystem] {
		return true
	}
	return l <= level
}

// Error always prints; invariant violations and unrecoverable failures go
// through this before the kernel halts (spec.md section 7).
func Error(subsystem, format string, args ...any) {
	fmt.Fprintf(out, "[ERROR] %s: %s\n", subsystem, fmt.Sprintf(format, args...))
}

func Warn(subsystem, format string, args ...any) {
	if !enabled(subsystem, LevelWarn) {
		return
	}
	fmt.Fprintf(out, "[WARN] %s: %s\n", subsystem, fmt.Sprintf(format, args...))
}

func Info(subsystem, format string, args ...any) {
	if !enabled(subsystem, LevelInfo) {
		return
	}
	fmt.Fprintf(out, "[INFO] %s: %s\n", subsystem, fmt.Sprintf(format, args...))
}

// Debug logs at debug level, or unconditionally for a subsystem named by
// EnableSubsystem -- the bdev_debug pattern, generalized to any subsystem
// name instead of one bool per call site.
func Debug(subsystem, format string, args ...any) {
	if !enabled(subsystem, LevelDebug) {
		return
	}
	fmt.Fprintf(out, "[DEBUG] %s: %s\n", subsystem, fmt.Sprintf(format, args...))
}
