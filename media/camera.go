package media

import (
	"context"
	"errors"
	"image"
	"math"
	"sync"
	"time"

	"github.com/lixenwraith/ascii-overlay/scheduler"
)

var (
	ErrUnsupported = errors.New("media: camera unsupported")
	ErrDenied      = errors.New("media: camera access denied")
)

// Facing selects which camera to open
type Facing string

const (
	FacingUser        Facing = "user"
	FacingEnvironment Facing = "environment"
)

// Constraints describe the requested capture
type Constraints struct {
	Facing Facing
	Audio  bool
	Width  int // Preferred size, zero leaves it to the device
	Height int
}

// Camera acquires capture streams
// Acquire may block; callers run it off the render goroutine
type Camera interface {
	Acquire(ctx context.Context, c Constraints) (Stream, error)
}

// NoCamera reports every request as unsupported
type NoCamera struct{}

func (NoCamera) Acquire(context.Context, Constraints) (Stream, error) {
	return nil, ErrUnsupported
}

// SyntheticCamera produces a moving gradient test pattern
type SyntheticCamera struct {
	Width, Height int             // Defaults to 320x240
	Clock         scheduler.Clock // Defaults to wall time
}

func (c SyntheticCamera) Acquire(ctx context.Context, cons Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w, h := c.Width, c.Height
	if cons.Width > 0 && cons.Height > 0 {
		w, h = cons.Width, cons.Height
	}
	if w <= 0 || h <= 0 {
		w, h = 320, 240
	}
	clock := c.Clock
	if clock == nil {
		clock = scheduler.WallClock
	}
	return newPatternStream(w, h, clock), nil
}

// patternStream renders lazily when read at a new time
type patternStream struct {
	id    string
	track *BasicTrack
	clock scheduler.Clock
	start time.Time

	mu       sync.Mutex
	buf      *image.RGBA
	rendered time.Time
}

func newPatternStream(w, h int, clock scheduler.Clock) *patternStream {
	return &patternStream{
		id:    NewStreamID(),
		track: NewTrack(TrackVideo, nil),
		clock: clock,
		start: clock.Now(),
		buf:   image.NewRGBA(image.Rect(0, 0, w, h)),
	}
}

func (s *patternStream) ID() string { return s.id }

func (s *patternStream) Tracks() []Track { return []Track{s.track} }

func (s *patternStream) Latest() image.Image {
	if s.track.Stopped() {
		return nil
	}
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rendered.IsZero() || !now.Equal(s.rendered) {
		s.render(now.Sub(s.start).Seconds())
		s.rendered = now
	}
	return s.buf
}

// render draws a diagonal sweep with a circular highlight orbiting the center
func (s *patternStream) render(t float64) {
	b := s.buf.Rect
	w, h := float64(b.Dx()), float64(b.Dy())
	cx := w/2 + math.Cos(t)*w/4
	cy := h/2 + math.Sin(t)*h/4
	r2 := (h / 5) * (h / 5)

	for y := 0; y < b.Dy(); y++ {
		row := s.buf.Pix[y*s.buf.Stride:]
		for x := 0; x < b.Dx(); x++ {
			v := 0.5 + 0.5*math.Sin((float64(x)+float64(y))/w*2*math.Pi-t*2)
			dx, dy := float64(x)-cx, float64(y)-cy
			if dx*dx+dy*dy < r2 {
				v = 1
			}
			c := uint8(v * 255)
			o := x * 4
			row[o], row[o+1], row[o+2], row[o+3] = c, c, c, 255
		}
	}
}
