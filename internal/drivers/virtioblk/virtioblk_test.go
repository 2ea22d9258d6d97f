package virtioblk

import (
	"testing"
	"time"

	"rvkernel/internal/blkcache"
)

func TestWriteBlockThenReadBlockRoundTrips(t *testing.T) {
	d := New(0x1000_8000)

	var want [blkcache.BSIZE]byte
	for i := range want {
		want[i] = byte(i)
	}
	if err := d.WriteBlock(7, &want); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}

	var got [blkcache.BSIZE]byte
	if err := d.ReadBlock(7, &got); err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if got != want {
		t.Errorf("ReadBlock returned %v, want %v", got[:8], want[:8])
	}
}

func TestWriteBlockAddressesTheDoorbellAndBlockID(t *testing.T) {
	d := New(0x1000_8000)
	var buf [blkcache.BSIZE]byte
	if err := d.WriteBlock(0x1_0000_0002, &buf); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	if got := d.win.Read32(regBlockID); got != 2 {
		t.Errorf("low block-id word = %d, want 2", got)
	}
	if got := d.win.Read32(regBlockID + 4); got != 1 {
		t.Errorf("high block-id word = %d, want 1", got)
	}
	if got := d.win.Read32(regOpcode); got != opWrite {
		t.Errorf("opcode = %d, want opWrite", got)
	}
	if got := d.win.Read32(regDoorbell); got != 1 {
		t.Errorf("doorbell = %d, want 1", got)
	}
}

func TestNonBlockingReadWaitsForHandleIRQ(t *testing.T) {
	d := New(0x1000_8000)
	d.SetNonBlocking(true)

	done := make(chan error, 1)
	var buf [blkcache.BSIZE]byte
	go func() {
		done <- d.ReadBlock(3, &buf)
	}()

	select {
	case <-done:
		t.Fatal("ReadBlock returned before HandleIRQ signaled completion")
	case <-time.After(20 * time.Millisecond):
	}

	d.HandleIRQ()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ReadBlock: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("ReadBlock never returned after HandleIRQ")
	}
}
