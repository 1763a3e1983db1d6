package overlay

import (
	"context"
	"errors"
	"image/color"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lixenwraith/ascii-overlay/config"
	"github.com/lixenwraith/ascii-overlay/glyph"
	"github.com/lixenwraith/ascii-overlay/media"
	"github.com/lixenwraith/ascii-overlay/sampler"
	"github.com/lixenwraith/ascii-overlay/scheduler"
	"github.com/lixenwraith/ascii-overlay/stage"
	"github.com/lixenwraith/ascii-overlay/surface"
)

var defaultInk = config.MustColor(DefaultConfig().Color)

// Instance is one source bound to one overlay surface
type Instance struct {
	id  uuid.UUID
	mgr *Manager
	env Env
	log *slog.Logger
	src Source

	cfg      Config
	ramp     *glyph.Ramp
	ink      color.RGBA
	backdrop color.RGBA
	metrics  surface.FontMetrics

	sampler *sampler.Sampler
	surf    surface.Surface

	origStyle media.Style
	sub       *scheduler.Subscription
	offs      []func()

	running   bool
	destroyed bool

	// Camera acquisition
	owned     media.Stream
	acquiring bool
	cancel    context.CancelFunc

	statFrames   *atomic.Int64
	statGlyphs   *atomic.Int64
	statDeferred *atomic.Int64
}

func newInstance(m *Manager, src Source, cfg Config) *Instance {
	env := m.env
	in := &Instance{
		id:           uuid.New(),
		mgr:          m,
		env:          env,
		src:          src,
		cfg:          cfg,
		ramp:         glyph.Default(),
		origStyle:    src.Style(),
		sampler:      sampler.New(cfg.Density, env.Metrics),
		statFrames:   env.Metrics.Counter(MetricFrames),
		statGlyphs:   env.Metrics.Counter(MetricGlyphs),
		statDeferred: env.Metrics.Counter(MetricDeferred),
	}
	in.log = env.Logger.With("instance", in.id.String(), "source", src.ID())
	in.sampler.SetMethod(env.Sampling)
	in.sampler.OnRecompute = func(g sampler.Geometry) {
		in.log.Debug("overlay: geometry recomputed",
			"width", g.Width, "height", g.Height, "cols", g.Cols, "rows", g.Rows)
	}

	in.surf = env.Surfaces(LayerName(src.ID()))
	if env.Stage != nil {
		if err := env.Stage.InsertAfter(src, in.surf); err != nil {
			in.log.Debug("overlay: source not on stage, surface appended", "error", err)
		}
	}

	in.updateRamp()
	in.updateFont()
	in.updateInk()
	in.updateVisibility()

	in.offs = append(in.offs,
		src.On(media.EventLoadedMetadata, in.onLoaded),
		src.On(media.EventLoadedData, in.onLoaded),
	)
	if env.Stage != nil {
		in.offs = append(in.offs, env.Stage.OnResize(in.onResize))
	}

	in.ensureStream()

	in.running = true
	in.sub = env.Scheduler.Subscribe(in.Tick)
	return in
}

// ID returns the stable instance identifier
func (in *Instance) ID() uuid.UUID { return in.id }

// Source returns the bound source
func (in *Instance) Source() Source { return in.src }

// Surface returns the overlay surface
func (in *Instance) Surface() surface.Surface { return in.surf }

// Config returns the effective configuration
func (in *Instance) Config() Config { return in.cfg }

// Geometry returns the current sampling geometry, false while unknown
func (in *Instance) Geometry() (sampler.Geometry, bool) { return in.sampler.Geometry() }

// Metrics returns the current font metrics
func (in *Instance) Metrics() surface.FontMetrics { return in.metrics }

// Recomputes returns how many times geometry was derived
func (in *Instance) Recomputes() int64 { return in.sampler.Recomputes() }

// Running reports whether the render loop is live
func (in *Instance) Running() bool { return in.running }

// Destroyed reports whether Destroy ran
func (in *Instance) Destroyed() bool { return in.destroyed }

// SetOptions merges o and eagerly recomputes glyphs, font, visibility and geometry
// Returns the instance for chaining; no-op once destroyed
func (in *Instance) SetOptions(o Options) *Instance {
	if in.destroyed {
		return in
	}
	prev := in.cfg
	in.cfg = in.cfg.Apply(o)
	in.sampler.SetDensity(in.cfg.Density)

	in.updateRamp()
	in.updateFont()
	in.updateInk()
	in.updateVisibility()
	if in.cfg.Autostart && !prev.Autostart {
		in.ensureStream()
	}

	w, h := in.src.Dimensions()
	in.observe(w, h, true)
	return in
}

func (in *Instance) updateRamp() {
	in.ramp = in.ramp.WithInvert(in.cfg.Invert)
}

func (in *Instance) updateFont() {
	in.metrics = in.surf.Measure(in.cfg.FontSize)
	if in.metrics.CharWidth <= 0 || in.metrics.CharHeight <= 0 {
		in.metrics = surface.FallbackMetrics(in.cfg.FontSize)
	}
}

func (in *Instance) updateInk() {
	in.ink = defaultInk
	if c, err := config.ParseColor(in.cfg.Color); err == nil {
		in.ink = c
	}
	in.backdrop = config.MustColor(in.cfg.BackdropColor())
}

func (in *Instance) updateVisibility() {
	style := in.origStyle
	if !in.cfg.ShowVideo {
		style.Opacity = 0
	}
	in.src.SetStyle(style)
}

// observe feeds dimensions to the sampler and resizes the surface on recompute
func (in *Instance) observe(w, h int, force bool) {
	var changed bool
	if force {
		changed = in.sampler.Refresh(w, h)
	} else {
		changed = in.sampler.Observe(w, h)
	}
	if changed {
		g, _ := in.sampler.Geometry()
		in.surf.Resize(g.Width, g.Height)
	}
}

func (in *Instance) onLoaded(e media.Event) {
	if in.running {
		in.observe(e.Width, e.Height, false)
	}
}

func (in *Instance) onResize(stage.Size) {
	if in.running {
		w, h := in.src.Dimensions()
		in.observe(w, h, true)
	}
}

// Tick runs one render pass; normally invoked by the scheduler once per refresh
// No-op once the instance stopped running
func (in *Instance) Tick(time.Time) {
	if !in.running {
		return
	}

	w, h := in.src.Dimensions()
	if w <= 0 || h <= 0 {
		in.sampler.Invalidate()
		in.statDeferred.Add(1)
		return
	}
	in.observe(w, h, false)
	// A listener fired from Dimensions may have destroyed the instance
	if !in.running {
		return
	}

	grid, err := in.sampler.Sample(in.src.Frame())
	if err != nil {
		in.statDeferred.Add(1)
		return
	}
	g, _ := in.sampler.Geometry()

	in.surf.Clear()
	if !in.cfg.ShowVideo {
		in.surf.Fill(in.backdrop)
	}

	cw, ch := in.metrics.CharWidth, in.metrics.CharHeight
	scaleX, scaleY := g.CellWidth/cw, g.CellHeight/ch
	for y := 0; y < g.Rows; y++ {
		for x := 0; x < g.Cols; x++ {
			in.surf.DrawGlyph(surface.Glyph{
				Rune:   in.ramp.ForLuminance(grid.At(x, y)),
				Col:    x,
				Row:    y,
				X:      float64(x) * cw,
				Y:      float64(y) * ch,
				Width:  cw,
				Height: ch,
				ScaleX: scaleX,
				ScaleY: scaleY,
				Color:  in.ink,
			})
		}
	}

	in.statFrames.Add(1)
	in.statGlyphs.Add(int64(g.Cells()))
}

// StartCamera requests a front-facing stream unless the source already has one
func (in *Instance) StartCamera() error {
	if in.destroyed {
		return ErrDestroyed
	}
	in.acquire()
	return nil
}

func (in *Instance) ensureStream() {
	if in.cfg.Autostart {
		in.acquire()
	}
}

// acquire runs the camera off-loop and posts the outcome back
func (in *Instance) acquire() {
	if in.acquiring || in.src.Stream() != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	in.acquiring = true
	in.cancel = cancel

	cam := in.env.Camera
	sched := in.env.Scheduler
	scheduler.Go(func() {
		stream, err := cam.Acquire(ctx, media.Constraints{Facing: media.FacingUser, Audio: false})
		sched.Post(func() { in.acquired(stream, err) })
	})
}

func (in *Instance) acquired(stream media.Stream, err error) {
	in.acquiring = false
	if in.cancel != nil {
		in.cancel()
		in.cancel = nil
	}

	if err != nil {
		switch {
		case errors.Is(err, media.ErrUnsupported), errors.Is(err, context.Canceled):
			in.log.Debug("overlay: camera unavailable", "error", err)
		default:
			in.log.Warn("overlay: camera acquisition failed", "error", err)
		}
		return
	}
	if stream == nil {
		return
	}

	if in.destroyed || in.src.Stream() != nil {
		media.StopAll(stream)
		in.log.Debug("overlay: discarded late camera stream", "stream_id", stream.ID())
		return
	}

	in.src.SetStream(stream)
	in.owned = stream
	in.log.Info("overlay: camera attached", "stream_id", stream.ID())
}

// Destroy stops rendering and releases everything the instance created
// A stream the caller attached is left running; second call is a no-op
func (in *Instance) Destroy() {
	if in.destroyed {
		return
	}
	in.destroyed = true
	in.running = false
	in.sub.Cancel()

	if in.cancel != nil {
		in.cancel()
		in.cancel = nil
	}
	for _, off := range in.offs {
		off()
	}
	in.offs = nil

	if in.env.Stage != nil {
		in.env.Stage.Remove(in.surf)
	}
	in.surf.Release()
	in.src.SetStyle(in.origStyle)

	if in.owned != nil {
		media.StopAll(in.owned)
		if in.src.Stream() == in.owned {
			in.src.SetStream(nil)
		}
		in.owned = nil
	}
	in.sampler.Release()

	in.mgr.forget(in)
	in.log.Debug("overlay: destroyed")
}
