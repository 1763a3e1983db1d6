package media

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/lixenwraith/ascii-overlay/scheduler"
)

var ErrEmptyAnimation = errors.New("media: animation has no frames")

// gifMinDelay is applied to frames declaring no delay, as browsers do
const gifMinDelay = 100 * time.Millisecond

// ImageStream serves a single still frame until stopped
type ImageStream struct {
	id    string
	img   image.Image
	track *BasicTrack
}

// NewImageStream wraps img as a one-frame stream
func NewImageStream(img image.Image) *ImageStream {
	return &ImageStream{id: NewStreamID(), img: img, track: NewTrack(TrackVideo, nil)}
}

func (s *ImageStream) ID() string { return s.id }

func (s *ImageStream) Tracks() []Track { return []Track{s.track} }

func (s *ImageStream) Latest() image.Image {
	if s.track.Stopped() {
		return nil
	}
	return s.img
}

// GIFStream plays an animated GIF against a clock, looping forever
type GIFStream struct {
	id    string
	track *BasicTrack
	clock scheduler.Clock

	frames []*image.RGBA
	ends   []time.Duration // cumulative end offset per frame
	total  time.Duration

	mu    sync.Mutex
	start time.Time
}

// NewGIFStream composites every frame once up front; clock nil uses wall time
func NewGIFStream(g *gif.GIF, clock scheduler.Clock) (*GIFStream, error) {
	if g == nil || len(g.Image) == 0 {
		return nil, ErrEmptyAnimation
	}
	if clock == nil {
		clock = scheduler.WallClock
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
		for _, p := range g.Image[1:] {
			bounds = bounds.Union(p.Bounds())
		}
	}

	s := &GIFStream{
		id:     NewStreamID(),
		track:  NewTrack(TrackVideo, nil),
		clock:  clock,
		frames: make([]*image.RGBA, len(g.Image)),
		ends:   make([]time.Duration, len(g.Image)),
		start:  clock.Now(),
	}

	canvas := image.NewRGBA(bounds)
	for i, p := range g.Image {
		var restore *image.RGBA
		disposal := byte(gif.DisposalNone)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			restore = cloneRGBA(canvas)
		}

		draw.Draw(canvas, p.Bounds(), p, p.Bounds().Min, draw.Over)
		s.frames[i] = cloneRGBA(canvas)

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, p.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = restore
		}

		delay := gifMinDelay
		if i < len(g.Delay) && g.Delay[i] > 0 {
			delay = time.Duration(g.Delay[i]) * 10 * time.Millisecond
		}
		s.total += delay
		s.ends[i] = s.total
	}
	return s, nil
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}

func (s *GIFStream) ID() string { return s.id }

func (s *GIFStream) Tracks() []Track { return []Track{s.track} }

// Len returns the number of frames
func (s *GIFStream) Len() int { return len(s.frames) }

// Rewind restarts playback at the clock's current time
func (s *GIFStream) Rewind() {
	s.mu.Lock()
	s.start = s.clock.Now()
	s.mu.Unlock()
}

// Index returns the frame index shown at the clock's current time
func (s *GIFStream) Index() int {
	s.mu.Lock()
	elapsed := s.clock.Now().Sub(s.start)
	s.mu.Unlock()

	if elapsed < 0 {
		elapsed = 0
	}
	elapsed %= s.total
	for i, end := range s.ends {
		if elapsed < end {
			return i
		}
	}
	return len(s.frames) - 1
}

func (s *GIFStream) Latest() image.Image {
	if s.track.Stopped() {
		return nil
	}
	return s.frames[s.Index()]
}

// OpenFile loads a still image or animated GIF as a stream
// Supports gif, png, jpeg, bmp, tiff and webp
func OpenFile(path string, clock scheduler.Clock) (Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("media: open %s: %w", path, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".gif") {
		g, err := gif.DecodeAll(f)
		if err != nil {
			return nil, fmt.Errorf("media: decode gif %s: %w", path, err)
		}
		if len(g.Image) == 1 {
			return NewImageStream(g.Image[0]), nil
		}
		return NewGIFStream(g, clock)
	}

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("media: decode %s: %w", path, err)
	}
	return NewImageStream(img), nil
}
