package timer

import (
	"testing"

	"rvkernel/internal/sched"
)

type fakeTask struct {
	name   string
	ctx    sched.Context_t
	status sched.Status_t
}

func (f *fakeTask) Context() *sched.Context_t  { return &f.ctx }
func (f *fakeTask) SetStatus(s sched.Status_t) { f.status = s }
func (f *fakeTask) Status() sched.Status_t     { return f.status }

func TestCheckTimerWakesExpiredInOrder(t *testing.T) {
	w := New()
	a := &fakeTask{name: "a", status: sched.Blocked}
	b := &fakeTask{name: "b", status: sched.Blocked}
	c := &fakeTask{name: "c", status: sched.Blocked}

	w.AddTimer(300, c)
	w.AddTimer(100, a)
	w.AddTimer(200, b)

	var woken []string
	w.CheckTimer(250, func(task sched.Task) {
		woken = append(woken, task.(*fakeTask).name)
	})

	if len(woken) != 2 || woken[0] != "a" || woken[1] != "b" {
		t.Fatalf("expected [a b] woken in deadline order, got %v", woken)
	}
	if w.Len() != 1 {
		t.Fatalf("expected 1 timer remaining, got %d", w.Len())
	}
}

func TestCheckTimerLeavesUnexpiredAlone(t *testing.T) {
	w := New()
	a := &fakeTask{name: "a"}
	w.AddTimer(1000, a)

	var woken int
	w.CheckTimer(500, func(sched.Task) { woken++ })
	if woken != 0 {
		t.Fatalf("expected no wakeups before deadline")
	}
	if w.Len() != 1 {
		t.Fatalf("expected timer to remain pending")
	}
}

func TestRemoveTimerCancelsPendingWakeup(t *testing.T) {
	w := New()
	a := &fakeTask{name: "a"}
	b := &fakeTask{name: "b"}
	w.AddTimer(100, a)
	w.AddTimer(200, b)

	w.RemoveTimer(a)
	if w.Len() != 1 {
		t.Fatalf("expected 1 timer after removal, got %d", w.Len())
	}

	var woken []string
	w.CheckTimer(1000, func(task sched.Task) {
		woken = append(woken, task.(*fakeTask).name)
	})
	if len(woken) != 1 || woken[0] != "b" {
		t.Fatalf("expected only b woken, got %v", woken)
	}
}

func TestRemoveTimerOfUnknownTaskIsNoop(t *testing.T) {
	w := New()
	a := &fakeTask{name: "a"}
	w.RemoveTimer(a) // must not panic
	if w.Len() != 0 {
		t.Fatalf("expected empty wheel")
	}
}

func TestNextTriggerTimeAdvancesByOneTick(t *testing.T) {
	now := uint64(1_000_000)
	next := NextTriggerTime(now)
	if next != now+ClockFreq/TicksPerSec {
		t.Fatalf("unexpected next trigger time: %d", next)
	}
}
