package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTickerRunsFrames(t *testing.T) {
	l := NewLoop(nil)
	var ticks, after atomic.Int32
	l.Subscribe(func(time.Time) { ticks.Add(1) })

	tk := NewTicker(l, time.Millisecond, nil)
	tk.AfterFrame = func(time.Time) { after.Add(1) }
	tk.Start()
	tk.Start()

	deadline := time.Now().Add(2 * time.Second)
	for ticks.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	tk.Stop()
	tk.Stop()

	if ticks.Load() < 3 {
		t.Fatalf("Expected at least 3 ticks, got %d", ticks.Load())
	}
	if tk.Running() {
		t.Error("Ticker still running after Stop")
	}

	// No frames after Stop returned
	n := tk.Frames()
	time.Sleep(10 * time.Millisecond)
	if tk.Frames() != n {
		t.Error("Frames advanced after Stop")
	}
	if int(after.Load()) != int(n) {
		t.Errorf("AfterFrame ran %d times for %d frames", after.Load(), n)
	}
}

func TestTickerDefaults(t *testing.T) {
	tk := NewTicker(NewLoop(nil), 0, nil)
	if tk.Interval() != DefaultInterval {
		t.Errorf("Expected default interval, got %v", tk.Interval())
	}
	// Stop without Start must not block
	tk.Stop()
}

func TestGoRecovers(t *testing.T) {
	got := make(chan any, 1)
	SetCrashHandler(func(r any) { got <- r })
	defer SetCrashHandler(nil)

	Go(func() { panic("boom") })

	select {
	case r := <-got:
		if r != "boom" {
			t.Errorf("Expected boom, got %v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Crash handler not invoked")
	}
}
