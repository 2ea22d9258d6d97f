package diag

import (
	"bytes"
	"strings"
	"testing"
)

func TestHaltWritesProfileThenPanics(t *testing.T) {
	var buf bytes.Buffer
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Halt did not panic")
		}
		msg, ok := r.(string)
		if !ok || !strings.Contains(msg, "disk read failed") {
			t.Errorf("panic value = %v, want it to contain the halt reason", r)
		}
		if buf.Len() == 0 {
			t.Error("Halt did not write a profile to w before panicking")
		}
	}()
	Halt(&buf, "disk read failed")
}

func TestHaltToleratesNilWriter(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Halt did not panic with a nil writer")
		}
	}()
	Halt(nil, "boot failure")
}

func TestCaptureProfileRecordsCallingFrame(t *testing.T) {
	prof, err := captureProfile("test reason")
	if err != nil {
		t.Fatalf("captureProfile: %v", err)
	}
	if len(prof.Sample) != 1 {
		t.Fatalf("len(Sample) = %d, want 1", len(prof.Sample))
	}
	if len(prof.Sample[0].Location) == 0 {
		t.Error("sample has no locations")
	}
	if len(prof.Comments) != 1 || prof.Comments[0] != "test reason" {
		t.Errorf("Comments = %v, want [%q]", prof.Comments, "test reason")
	}
}
