package media

import (
	"image"
	"sync"

	"github.com/lixenwraith/ascii-overlay/events"
)

// EventType identifies video element notifications
type EventType uint8

const (
	// EventLoadedMetadata fires when frame dimensions first become known or change
	EventLoadedMetadata EventType = iota
	// EventLoadedData follows EventLoadedMetadata once a frame at the new size is available
	EventLoadedData
	// EventEmptied fires when the stream is detached
	EventEmptied
)

func (t EventType) String() string {
	switch t {
	case EventLoadedMetadata:
		return "loadedmetadata"
	case EventLoadedData:
		return "loadeddata"
	case EventEmptied:
		return "emptied"
	default:
		return "unknown"
	}
}

// Event is delivered to video listeners
type Event struct {
	Type          EventType
	Video         *Video
	Width, Height int
}

// Style is the host-visible presentation of a video layer
type Style struct {
	Opacity float64 // 0 hides pixels while the element keeps decoding
	Visible bool
}

// DefaultStyle is fully opaque and visible
var DefaultStyle = Style{Opacity: 1, Visible: true}

// Video is a video element handle
// Frame reads are cheap and safe from any goroutine; listeners run on the caller of
// Dimensions or SetStream
type Video struct {
	id string

	mu     sync.Mutex
	stream Stream
	style  Style
	lastW  int
	lastH  int

	router *events.Router[EventType, Event]
}

// NewVideo creates an element with no stream
func NewVideo(id string) *Video {
	return &Video{
		id:     id,
		style:  DefaultStyle,
		router: events.NewRouter[EventType, Event](),
	}
}

// ID returns the element id
func (v *Video) ID() string { return v.id }

// LayerID implements stage.Layer
func (v *Video) LayerID() string { return v.id }

// Stream returns the attached stream, nil when none
func (v *Video) Stream() Stream {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stream
}

// SetStream attaches s, replacing any previous stream without stopping it
// Detaching with nil emits EventEmptied
func (v *Video) SetStream(s Stream) {
	v.mu.Lock()
	prev := v.stream
	v.stream = s
	v.lastW, v.lastH = 0, 0
	v.mu.Unlock()

	if prev != nil && s == nil {
		v.router.Emit(EventEmptied, Event{Type: EventEmptied, Video: v})
	}
	if s != nil {
		v.Dimensions()
	}
}

// Frame returns the current frame, nil when nothing is decodable
func (v *Video) Frame() image.Image {
	v.mu.Lock()
	s := v.stream
	v.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.Latest()
}

// Dimensions returns the intrinsic size of the current frame, zero when unknown
// A size differing from the last reported one emits EventLoadedMetadata then EventLoadedData
func (v *Video) Dimensions() (w, h int) {
	if f := v.Frame(); f != nil {
		b := f.Bounds()
		w, h = b.Dx(), b.Dy()
	}
	if w <= 0 || h <= 0 {
		return 0, 0
	}

	v.mu.Lock()
	changed := w != v.lastW || h != v.lastH
	if changed {
		v.lastW, v.lastH = w, h
	}
	v.mu.Unlock()

	if changed {
		v.router.Emit(EventLoadedMetadata, Event{Type: EventLoadedMetadata, Video: v, Width: w, Height: h})
		v.router.Emit(EventLoadedData, Event{Type: EventLoadedData, Video: v, Width: w, Height: h})
	}
	return w, h
}

// Style returns the current presentation
func (v *Video) Style() Style {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.style
}

// SetStyle replaces the presentation
func (v *Video) SetStyle(s Style) {
	v.mu.Lock()
	v.style = s
	v.mu.Unlock()
}

// On registers fn for event type t and returns its removal func
func (v *Video) On(t EventType, fn func(Event)) (off func()) {
	return v.router.On(t, fn)
}

// Listeners returns the number of handlers registered for t
func (v *Video) Listeners(t EventType) int {
	return v.router.HandlerCount(t)
}
