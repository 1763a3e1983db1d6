package scheduler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/ascii-overlay/status"
)

// FrameFunc is invoked once per refresh with the frame timestamp
type FrameFunc func(now time.Time)

// Scheduler is the narrow interface render loops depend on
type Scheduler interface {
	// Subscribe registers fn to run on every refresh from the next frame on
	Subscribe(fn FrameFunc) *Subscription
	// Post queues fn to run on the scheduler goroutine before the next frame's subscriptions
	Post(fn func())
}

// Subscription is a handle to a registered FrameFunc
type Subscription struct {
	fn        FrameFunc
	cancelled atomic.Bool
}

// Cancel stops future invocations; safe to call repeatedly and from within the callback
func (s *Subscription) Cancel() {
	if s != nil {
		s.cancelled.Store(true)
	}
}

// Active reports whether the subscription still runs
func (s *Subscription) Active() bool {
	return s != nil && !s.cancelled.Load()
}

// Loop is a single-threaded cooperative scheduler
// Subscribe and Post are safe from any goroutine; RunFrame must be called from one goroutine
type Loop struct {
	mu      sync.Mutex
	subs    []*Subscription
	pending []*Subscription
	posts   []func()

	// Reused between frames
	runSubs  []*Subscription
	runPosts []func()

	frames     atomic.Uint64
	statFrames *atomic.Int64
	statPosts  *atomic.Int64
}

var _ Scheduler = (*Loop)(nil)

// NewLoop creates an empty loop; reg may be nil
func NewLoop(reg *status.Registry) *Loop {
	return &Loop{
		statFrames: reg.Counter("scheduler.frames"),
		statPosts:  reg.Counter("scheduler.posts"),
	}
}

// Subscribe implements Scheduler
func (l *Loop) Subscribe(fn FrameFunc) *Subscription {
	sub := &Subscription{fn: fn}
	l.mu.Lock()
	l.pending = append(l.pending, sub)
	l.mu.Unlock()
	return sub
}

// Post implements Scheduler
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.posts = append(l.posts, fn)
	l.mu.Unlock()
}

// RunFrame drains posted tasks, then runs live subscriptions in subscription order
// Work queued while the frame runs is deferred to the next frame
func (l *Loop) RunFrame(now time.Time) {
	l.mu.Lock()
	l.runPosts = append(l.runPosts[:0], l.posts...)
	clear(l.posts)
	l.posts = l.posts[:0]

	old := l.subs
	live := old[:0]
	for _, s := range old {
		if s.Active() {
			live = append(live, s)
		}
	}
	for _, s := range l.pending {
		if s.Active() {
			live = append(live, s)
		}
	}
	if len(live) < len(old) {
		clear(old[len(live):])
	}
	l.subs = live
	clear(l.pending)
	l.pending = l.pending[:0]
	l.runSubs = append(l.runSubs[:0], l.subs...)
	l.mu.Unlock()

	for i, fn := range l.runPosts {
		fn()
		l.runPosts[i] = nil
	}
	l.statPosts.Add(int64(len(l.runPosts)))

	for _, s := range l.runSubs {
		// A callback earlier in this frame may have cancelled a later one
		if s.Active() {
			s.fn(now)
		}
	}
	clear(l.runSubs)

	l.frames.Add(1)
	l.statFrames.Add(1)
}

// Frames returns the number of completed frames
func (l *Loop) Frames() uint64 {
	return l.frames.Load()
}

// Len returns the number of live subscriptions, including those starting next frame
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, s := range l.subs {
		if s.Active() {
			n++
		}
	}
	for _, s := range l.pending {
		if s.Active() {
			n++
		}
	}
	return n
}
