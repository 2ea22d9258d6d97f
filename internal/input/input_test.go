package input

import "testing"

func TestPackEventFoldsFields(t *testing.T) {
	got := PackEvent(1, 2, 3)
	want := uint64(1)<<48 | uint64(2)<<32 | uint64(3)
	if got != want {
		t.Errorf("PackEvent(1,2,3) = %#x, want %#x", got, want)
	}
}

func TestQueueHandleIRQDrainsPopUntilEmpty(t *testing.T) {
	words := []uint64{10, 20, 30}
	i := 0
	pop := func() (uint64, bool) {
		if i >= len(words) {
			return 0, false
		}
		w := words[i]
		i++
		return w, true
	}
	q := NewQueue(pop, func() { t.Fatal("ReadEvent should not yield once events are queued") })
	if !q.IsEmpty() {
		t.Fatal("queue not empty before HandleIRQ")
	}
	q.HandleIRQ()
	if q.IsEmpty() {
		t.Fatal("queue empty after HandleIRQ drained three events")
	}
	for _, want := range words {
		if got := q.ReadEvent(); got != want {
			t.Errorf("ReadEvent() = %d, want %d", got, want)
		}
	}
	if !q.IsEmpty() {
		t.Fatal("queue not empty after draining every event")
	}
}

func TestQueueReadEventYieldsWhileEmpty(t *testing.T) {
	delivered := false
	pop := func() (uint64, bool) {
		if delivered {
			delivered = false
			return 42, true
		}
		return 0, false
	}
	q := NewQueue(pop, nil)
	yields := 0
	q.yield = func() {
		yields++
		delivered = true
		q.HandleIRQ()
	}
	if got := q.ReadEvent(); got != 42 {
		t.Errorf("ReadEvent() = %d, want 42", got)
	}
	if yields != 1 {
		t.Errorf("yield called %d times, want 1", yields)
	}
}
