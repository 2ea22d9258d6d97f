package klog

import (
	"bytes"
	"strings"
	"testing"
)

func resetState() {
	level = LevelInfo
	debugSubsystems = map[string]bool{}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		s    string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"garbage", LevelError},
	}
	for _, c := range cases {
		if got := ParseLevel(c.s); got != c.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", c.s, got, c.want)
		}
	}
}

func TestLevelGatesOutput(t *testing.T) {
	resetState()
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)
	SetLevel(LevelWarn)

	Info("sched", "should not appear")
	if buf.Len() != 0 {
		t.Fatalf("Info logged below threshold: %q", buf.String())
	}
	Warn("sched", "should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Fatalf("Warn did not log at its own level: %q", buf.String())
	}
}

func TestEnableSubsystemForcesDebug(t *testing.T) {
	resetState()
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)
	SetLevel(LevelError)

	Debug("bdev", "hidden")
	if buf.Len() != 0 {
		t.Fatalf("Debug logged before EnableSubsystem: %q", buf.String())
	}
	EnableSubsystem("bdev")
	Debug("bdev", "shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("Debug did not log after EnableSubsystem: %q", buf.String())
	}
}

func TestErrorAlwaysLogs(t *testing.T) {
	resetState()
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)
	SetLevel(LevelError)

	Error("vm", "page fault at %#x", 0x1000)
	if !strings.Contains(buf.String(), "page fault at 0x1000") {
		t.Fatalf("Error did not format/log: %q", buf.String())
	}
}
