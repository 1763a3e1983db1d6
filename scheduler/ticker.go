package scheduler

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultInterval is one refresh of a 60 Hz display
const DefaultInterval = time.Second / 60

// Ticker drives a Loop from its own goroutine at a fixed interval
type Ticker struct {
	loop     *Loop
	clock    Clock
	interval time.Duration

	// AfterFrame runs on the ticker goroutine after every frame, set before Start
	// Hosts composite and present here
	AfterFrame FrameFunc

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	running  atomic.Bool
}

// NewTicker creates a stopped ticker; non-positive interval selects DefaultInterval
func NewTicker(loop *Loop, interval time.Duration, clock Clock) *Ticker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if clock == nil {
		clock = WallClock
	}
	return &Ticker{
		loop:     loop,
		clock:    clock,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Interval returns the frame interval
func (t *Ticker) Interval() time.Duration {
	return t.interval
}

// Running reports whether the ticker goroutine is active
func (t *Ticker) Running() bool {
	return t.running.Load()
}

// Start begins ticking; subsequent calls are no-ops
func (t *Ticker) Start() {
	if t.running.CompareAndSwap(false, true) {
		t.wg.Add(1)
		Go(t.run)
	}
}

// Stop halts ticking and waits for the in-flight frame; a stopped ticker cannot restart
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopChan)
		if t.running.CompareAndSwap(true, false) {
			t.wg.Wait()
		}
	})
}

// Frames returns the number of frames run by the underlying loop
func (t *Ticker) Frames() uint64 {
	return t.loop.Frames()
}

func (t *Ticker) run() {
	defer t.wg.Done()

	tick := time.NewTicker(t.interval)
	defer tick.Stop()

	for {
		select {
		case <-t.stopChan:
			return
		case <-tick.C:
		}

		// Stop may race the tick channel
		select {
		case <-t.stopChan:
			return
		default:
		}

		now := t.clock.Now()
		t.loop.RunFrame(now)
		if t.AfterFrame != nil {
			t.AfterFrame(now)
		}
	}
}
