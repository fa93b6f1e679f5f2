package clock

import (
	"testing"
	"time"
)

func TestFake_AfterFuncFiresOnAdvance(t *testing.T) {
	c := Fake(time.Unix(0, 0))
	fired := 0
	c.AfterFunc(time.Second, func() { fired++ })

	c.Advance(999 * time.Millisecond)
	if fired != 0 {
		t.Fatalf("fired early")
	}
	c.Advance(time.Millisecond)
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
	c.Advance(time.Hour)
	if fired != 1 {
		t.Fatalf("one-shot timer fired again")
	}
}

func TestFake_StopAndReset(t *testing.T) {
	c := Fake(time.Unix(0, 0))
	fired := 0
	tm := c.AfterFunc(time.Second, func() { fired++ })

	c.Advance(500 * time.Millisecond)
	if !tm.Reset(time.Second) {
		t.Fatalf("Reset of pending timer should report active")
	}
	c.Advance(700 * time.Millisecond)
	if fired != 0 {
		t.Fatalf("reset timer fired at old deadline")
	}
	if !tm.Stop() {
		t.Fatalf("Stop of pending timer should report true")
	}
	c.Advance(time.Hour)
	if fired != 0 || c.Pending() != 0 {
		t.Fatalf("stopped timer fired or still pending")
	}

	if tm.Reset(time.Second) {
		t.Fatalf("Reset of stopped timer should report inactive")
	}
	c.Advance(time.Second)
	if fired != 1 {
		t.Fatalf("re-armed timer did not fire")
	}
}
