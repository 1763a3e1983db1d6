package media

import (
	"image"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// TrackKind distinguishes stream tracks
type TrackKind uint8

const (
	TrackVideo TrackKind = iota
	TrackAudio
)

func (k TrackKind) String() string {
	if k == TrackAudio {
		return "audio"
	}
	return "video"
}

// Track is a single media track of a stream
type Track interface {
	Kind() TrackKind
	// Stop ends the track and releases what backs it; idempotent
	Stop()
	Stopped() bool
}

// Stream is a source of frames
type Stream interface {
	ID() string
	// Latest returns the current frame, nil before the first frame or after the stream ended
	Latest() image.Image
	Tracks() []Track
}

// StopAll stops every track of s; nil-safe
func StopAll(s Stream) {
	if s == nil {
		return
	}
	for _, t := range s.Tracks() {
		t.Stop()
	}
}

// Ended reports whether every track of s is stopped
func Ended(s Stream) bool {
	for _, t := range s.Tracks() {
		if !t.Stopped() {
			return false
		}
	}
	return true
}

// BasicTrack is a Track that runs an optional release func on first Stop
type BasicTrack struct {
	kind    TrackKind
	stopped atomic.Bool
	once    sync.Once
	onStop  func()
}

// NewTrack creates a live track; onStop may be nil
func NewTrack(kind TrackKind, onStop func()) *BasicTrack {
	return &BasicTrack{kind: kind, onStop: onStop}
}

func (t *BasicTrack) Kind() TrackKind { return t.kind }

func (t *BasicTrack) Stopped() bool { return t.stopped.Load() }

func (t *BasicTrack) Stop() {
	t.once.Do(func() {
		t.stopped.Store(true)
		if t.onStop != nil {
			t.onStop()
		}
	})
}

// NewStreamID returns a fresh stream identifier
func NewStreamID() string {
	return uuid.NewString()
}

// FrameStream is a push-updated single video track stream
// Push and Latest are safe from different goroutines
type FrameStream struct {
	id    string
	track *BasicTrack

	mu     sync.RWMutex
	latest image.Image
	frames atomic.Uint64
}

// NewFrameStream creates a stream whose video track runs onStop when stopped
func NewFrameStream(onStop func()) *FrameStream {
	s := &FrameStream{id: NewStreamID()}
	s.track = NewTrack(TrackVideo, func() {
		s.mu.Lock()
		s.latest = nil
		s.mu.Unlock()
		if onStop != nil {
			onStop()
		}
	})
	return s
}

func (s *FrameStream) ID() string { return s.id }

func (s *FrameStream) Tracks() []Track { return []Track{s.track} }

// Push replaces the current frame; ignored once the track stopped
// The stream takes ownership of img
func (s *FrameStream) Push(img image.Image) {
	if s.track.Stopped() {
		return
	}
	s.mu.Lock()
	s.latest = img
	s.mu.Unlock()
	s.frames.Add(1)
}

func (s *FrameStream) Latest() image.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Frames returns the number of frames pushed
func (s *FrameStream) Frames() uint64 {
	return s.frames.Load()
}
