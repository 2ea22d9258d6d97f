// Package diag turns an unrecoverable kernel failure (spec.md section 7's
// "invariant violation" kind -- an assertion or panic) into a post-mortem
// artifact: a google/pprof Profile with a single sample whose locations
// are the captured Go call frames, gzip-written to wherever the console/disk writer points, the
// kernel equivalent of a core dump a developer can later inspect with
// `go tool pprof`. Grounded on the teacher's require of
// github.com/google/pprof, which biscuit's own source never calls into
// directly (no crash-dump path is present in the retrieved pack); this
// gives that dependency a concrete home per SPEC_FULL.md section 11.
package diag

import (
	"fmt"
	"io"
	"runtime"

	"github.com/google/pprof/profile"
)

// Halt captures the current goroutine's stack as a one-sample pprof
// profile, writes it (gzip-compressed, per Profile.Write) to w, and then
// panics with reason -- spec.md section 7's "unrecoverable failures of
// the kernel itself halt the machine with a diagnostic" policy. Its one
// caller is cmd/kernel's main, when boot returns an error.
func Halt(w io.Writer, reason string) {
	if w != nil {
		if prof, err := captureProfile(reason); err == nil {
			_ = prof.Write(w)
		}
	}
	panic(fmt.Sprintf("kernel halt: %s", reason))
}

// captureProfile builds a Profile with a single sample whose locations
// are the calling goroutine's program counters, named by reason.
func captureProfile(reason string) (*profile.Profile, error) {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(3, pcs)
	pcs = pcs[:n]

	prof := &profile.Profile{
		SampleType: []*profile.ValueType{{Type: "panic", Unit: "count"}},
		Comments:   []string{reason},
	}

	frames := runtime.CallersFrames(pcs)
	var locs []*profile.Location
	var nextFnID uint64 = 1
	var nextLocID uint64 = 1
	seenFn := map[string]*profile.Function{}
	for {
		fr, more := frames.Next()
		fn, ok := seenFn[fr.Function]
		if !ok {
			fn = &profile.Function{ID: nextFnID, Name: fr.Function, Filename: fr.File}
			nextFnID++
			seenFn[fr.Function] = fn
			prof.Function = append(prof.Function, fn)
		}
		loc := &profile.Location{
			ID:      nextLocID,
			Address: uint64(fr.PC),
			Line:    []profile.Line{{Function: fn, Line: int64(fr.Line)}},
		}
		nextLocID++
		prof.Location = append(prof.Location, loc)
		locs = append(locs, loc)
		if !more {
			break
		}
	}

	prof.Sample = append(prof.Sample, &profile.Sample{
		Location: locs,
		Value:    []int64{1},
	})

	return prof, nil
}
