package overlay

import (
	"errors"
	"image"
	"log/slog"
	"reflect"

	"github.com/lixenwraith/ascii-overlay/media"
	"github.com/lixenwraith/ascii-overlay/sampler"
	"github.com/lixenwraith/ascii-overlay/scheduler"
	"github.com/lixenwraith/ascii-overlay/stage"
	"github.com/lixenwraith/ascii-overlay/status"
	"github.com/lixenwraith/ascii-overlay/surface"
)

var (
	ErrInvalidSource = errors.New("overlay: source must be a non-nil video element")
	ErrNoScheduler   = errors.New("overlay: environment has no scheduler")
	ErrDestroyed     = errors.New("overlay: instance destroyed")
	ErrClosed        = errors.New("overlay: manager closed")
	ErrNotInstalled  = errors.New("overlay: no manager installed")
)

// Metric keys published by instances
const (
	MetricFrames    = "overlay.frames"
	MetricGlyphs    = "overlay.glyphs"
	MetricDeferred  = "overlay.deferred"
	MetricInstances = "overlay.instances"
)

// Source is the video element an overlay attaches to; *media.Video implements it
type Source interface {
	stage.Layer
	ID() string
	// Dimensions returns the intrinsic frame size, zero while unknown
	Dimensions() (w, h int)
	Frame() image.Image
	Stream() media.Stream
	SetStream(s media.Stream)
	Style() media.Style
	SetStyle(s media.Style)
	On(t media.EventType, fn func(media.Event)) (off func())
}

var _ Source = (*media.Video)(nil)

// SurfaceFactory creates the overlay surface for a layer id
type SurfaceFactory func(id string) surface.Surface

// Env carries the collaborators shared by all instances of a manager
type Env struct {
	Scheduler scheduler.Scheduler // Required
	Stage     *stage.Stage        // Optional layer stack and resize source
	Surfaces  SurfaceFactory      // Defaults to surface.NewCanvas
	Camera    media.Camera        // Defaults to media.NoCamera
	Sampling  sampler.Method
	Metrics   *status.Registry
	Logger    *slog.Logger
}

func (e Env) withDefaults() Env {
	if e.Surfaces == nil {
		e.Surfaces = func(id string) surface.Surface { return surface.NewCanvas(id) }
	}
	if e.Camera == nil {
		e.Camera = media.NoCamera{}
	}
	if e.Logger == nil {
		e.Logger = slog.Default()
	}
	return e
}

// LayerName returns the overlay layer id for a source id
func LayerName(sourceID string) string {
	if sourceID == "" {
		sourceID = "video"
	}
	return sourceID + "-ascii-overlay"
}

// validSource rejects nil interfaces and typed nil pointers
func validSource(src Source) bool {
	if src == nil {
		return false
	}
	v := reflect.ValueOf(src)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return !v.IsNil()
	}
	return true
}
