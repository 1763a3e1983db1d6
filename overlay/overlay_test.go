package overlay

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lixenwraith/ascii-overlay/config"
	"github.com/lixenwraith/ascii-overlay/media"
	"github.com/lixenwraith/ascii-overlay/scheduler"
	"github.com/lixenwraith/ascii-overlay/stage"
	"github.com/lixenwraith/ascii-overlay/status"
	"github.com/lixenwraith/ascii-overlay/surface"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

var (
	white = color.RGBA{0xff, 0xff, 0xff, 0xff}
	black = color.RGBA{0, 0, 0, 0xff}
)

// harness wires a manually driven loop, a stage holding one video, and text surfaces
type harness struct {
	loop   *scheduler.Loop
	stage  *stage.Stage
	reg    *status.Registry
	mgr    *Manager
	video  *media.Video
	stream *media.FrameStream
}

func newHarness(t *testing.T, cam media.Camera) *harness {
	t.Helper()
	h := &harness{
		loop:  scheduler.NewLoop(nil),
		stage: stage.New(800, 600),
		reg:   status.NewRegistry(),
		video: media.NewVideo("cam"),
	}
	h.stage.Append(h.video)
	mgr, err := NewManager(Env{
		Scheduler: h.loop,
		Stage:     h.stage,
		Surfaces:  func(id string) surface.Surface { return surface.NewText(id) },
		Camera:    cam,
		Metrics:   h.reg,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	h.mgr = mgr
	return h
}

// feed attaches a caller-owned stream showing frame
func (h *harness) feed(frame image.Image) {
	if h.stream == nil {
		h.stream = media.NewFrameStream(nil)
		h.video.SetStream(h.stream)
	}
	h.stream.Push(frame)
}

func (h *harness) frame() {
	h.loop.RunFrame(time.Now())
}

// until runs frames until cond holds, for results posted from other goroutines
func (h *harness) until(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("Condition not reached")
		}
		h.frame()
		time.Sleep(time.Millisecond)
	}
}

func text(in *Instance) *surface.Text {
	return in.Surface().(*surface.Text)
}

func TestAttachInvalidSource(t *testing.T) {
	h := newHarness(t, nil)
	var typedNil *media.Video

	for _, src := range []Source{nil, typedNil} {
		if _, err := h.mgr.Attach(src); !errors.Is(err, ErrInvalidSource) {
			t.Errorf("Expected ErrInvalidSource, got %v", err)
		}
	}
	if h.stage.Len() != 1 || h.mgr.Len() != 0 {
		t.Error("Invalid attach created resources")
	}
}

func TestNewManagerRequiresScheduler(t *testing.T) {
	if _, err := NewManager(Env{}); !errors.Is(err, ErrNoScheduler) {
		t.Errorf("Expected ErrNoScheduler, got %v", err)
	}
}

func TestLuminanceExtremes(t *testing.T) {
	tests := []struct {
		name  string
		frame color.RGBA
		want  rune
	}{
		{"White", white, '@'},
		{"Black", black, ' '},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			h.feed(solid(80, 80, tt.frame))
			in, err := h.mgr.Attach(h.video)
			if err != nil {
				t.Fatalf("Attach: %v", err)
			}
			h.frame()

			s := text(in)
			cols, rows := s.Dims()
			if cols != 10 || rows != 10 {
				t.Fatalf("Expected 10x10 grid, got %dx%d", cols, rows)
			}
			want := strings.TrimSuffix(strings.Repeat(strings.Repeat(string(tt.want), 10)+"\n", 10), "\n")
			if got := s.String(); got != want {
				t.Errorf("Unexpected grid:\n%s", got)
			}
			if got := h.reg.Counter(MetricGlyphs).Load(); got != 100 {
				t.Errorf("Expected 100 glyphs drawn, got %d", got)
			}
		})
	}
}

func TestInvertMapsWhiteToSpace(t *testing.T) {
	h := newHarness(t, nil)
	h.feed(solid(80, 80, white))
	in, _ := h.mgr.Attach(h.video, Options{}.WithInvert(true))
	h.frame()

	if got := text(in).Rune(0, 0); got != ' ' {
		t.Errorf("Expected space for white when inverted, got %q", got)
	}
	bd, filled := text(in).Backdrop()
	if !filled || bd != config.MustColor(BackdropLight) {
		t.Errorf("Expected light backdrop, got %v filled=%v", bd, filled)
	}
}

func TestShowVideoSkipsBackdrop(t *testing.T) {
	h := newHarness(t, nil)
	h.feed(solid(80, 80, white))
	in, _ := h.mgr.Attach(h.video, Options{}.WithShowVideo(true))
	h.frame()

	if _, filled := text(in).Backdrop(); filled {
		t.Error("Backdrop painted with ShowVideo")
	}
	if h.video.Style().Opacity != 1 {
		t.Errorf("Expected source visible, opacity %v", h.video.Style().Opacity)
	}
}

func TestReattachReturnsSameInstance(t *testing.T) {
	h := newHarness(t, nil)
	h.feed(solid(320, 240, black))

	first, err := h.mgr.Attach(h.video)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	second, err := h.mgr.Attach(h.video, Options{}.WithDensity(16).WithColor("#ff0000"))
	if err != nil {
		t.Fatalf("Re-attach: %v", err)
	}

	if first != second {
		t.Fatal("Re-attach created a second instance")
	}
	if h.stage.Len() != 2 || h.mgr.Len() != 1 || h.loop.Len() != 1 {
		t.Errorf("Expected one overlay: layers=%d instances=%d subs=%d", h.stage.Len(), h.mgr.Len(), h.loop.Len())
	}
	cfg := second.Config()
	if cfg.Density != 16 || cfg.Color != "#ff0000" {
		t.Errorf("Options not applied: %+v", cfg)
	}
	if g, _ := second.Geometry(); g.Cols != 20 || g.Rows != 15 {
		t.Errorf("Expected eager 20x15 geometry, got %dx%d", g.Cols, g.Rows)
	}
}

func TestSurfaceInsertedAfterSource(t *testing.T) {
	h := newHarness(t, nil)
	other := media.NewVideo("other")
	h.stage.Append(other)

	in, _ := h.mgr.Attach(h.video)
	layers := h.stage.Layers()
	if len(layers) != 3 || layers[1].LayerID() != "cam-ascii-overlay" {
		t.Fatalf("Unexpected layer order %v", layers)
	}
	if in.Surface().LayerID() != LayerName("cam") {
		t.Errorf("Unexpected layer id %q", in.Surface().LayerID())
	}
}

func TestGeometryRecomputedOnlyOnChange(t *testing.T) {
	h := newHarness(t, nil)
	h.feed(solid(320, 240, black))
	in, _ := h.mgr.Attach(h.video)

	for range 5 {
		h.frame()
	}
	if in.Recomputes() != 1 {
		t.Fatalf("Expected 1 recompute over identical frames, got %d", in.Recomputes())
	}

	h.feed(solid(640, 480, black))
	h.frame()
	h.frame()
	if in.Recomputes() != 2 {
		t.Errorf("Expected 2 recomputes after size change, got %d", in.Recomputes())
	}
	if g, _ := in.Geometry(); g.Cols != 80 || g.Rows != 60 {
		t.Errorf("Expected 80x60, got %dx%d", g.Cols, g.Rows)
	}
}

func TestResizeForcesRefresh(t *testing.T) {
	h := newHarness(t, nil)
	h.feed(solid(320, 240, black))
	in, _ := h.mgr.Attach(h.video)
	h.frame()
	before := in.Recomputes()

	h.stage.Resize(1024, 768)
	if in.Recomputes() != before+1 {
		t.Errorf("Resize should force a recompute: %d -> %d", before, in.Recomputes())
	}
}

func TestDefersUntilDimensions(t *testing.T) {
	h := newHarness(t, nil)
	in, _ := h.mgr.Attach(h.video)

	h.frame()
	h.frame()
	if got := h.reg.Counter(MetricDeferred).Load(); got != 2 {
		t.Errorf("Expected 2 deferred ticks, got %d", got)
	}
	if _, ok := in.Geometry(); ok {
		t.Fatal("Geometry known without frames")
	}

	h.feed(solid(16, 16, white))
	h.frame()
	if got := h.reg.Counter(MetricFrames).Load(); got != 1 {
		t.Errorf("Expected a rendered frame once dimensions appear, got %d", got)
	}
	if text(in).Rune(1, 1) != '@' {
		t.Error("Expected '@' once frames arrive")
	}
}

func TestSetOptionsValidation(t *testing.T) {
	h := newHarness(t, nil)
	in, _ := h.mgr.Attach(h.video)

	in.SetOptions(Options{}.WithFontSize(-3).WithFontSize(math.NaN()).WithColor("nope"))
	cfg := in.Config()
	if cfg.FontSize != 16 || cfg.Color != "#3AA0FF" {
		t.Errorf("Invalid options applied: %+v", cfg)
	}

	in.SetOptions(Options{}.WithDensity(math.NaN()))
	if in.Config().Density != 8 {
		t.Errorf("Expected density fallback 8, got %v", in.Config().Density)
	}
	in.SetOptions(Options{}.WithDensity(-1).WithFontSize(12))
	if in.Config().Density != 8 || in.Config().FontSize != 12 {
		t.Errorf("Unexpected config %+v", in.Config())
	}
	if got := in.SetOptions(Options{}); got != in {
		t.Error("SetOptions should return the instance")
	}
}

func TestSetOptionsLiteralFieldsValidated(t *testing.T) {
	h := newHarness(t, nil)
	in, _ := h.mgr.Attach(h.video)
	in.SetOptions(Options{}.WithColor("#ff0000").WithFontSize(12))
	want := in.Metrics()

	neg, inf := -4.0, math.Inf(1)
	bad := "not-a-color"
	tests := []struct {
		name string
		opts Options
	}{
		{"negative font", Options{FontSize: &neg}},
		{"infinite font", Options{FontSize: &inf}},
		{"bad color", Options{Color: &bad}},
		{"both", Options{FontSize: &neg, Color: &bad}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in.SetOptions(tt.opts)
			cfg := in.Config()
			if cfg.Color != "#ff0000" || cfg.FontSize != 12 {
				t.Errorf("Previous values not kept: %+v", cfg)
			}
			if got := in.Metrics(); got != want {
				t.Errorf("Metrics changed to %+v, want %+v", got, want)
			}
		})
	}
}

func TestVisibilityToggle(t *testing.T) {
	h := newHarness(t, nil)
	h.video.SetStyle(media.Style{Opacity: 0.8, Visible: true})
	in, _ := h.mgr.Attach(h.video)

	if h.video.Style().Opacity != 0 {
		t.Fatalf("Hidden video should have opacity 0, got %v", h.video.Style().Opacity)
	}
	in.SetOptions(Options{}.WithShowVideo(true))
	if h.video.Style().Opacity != 0.8 {
		t.Errorf("Expected original opacity restored, got %v", h.video.Style().Opacity)
	}
	in.SetOptions(Options{}.WithShowVideo(false))
	in.Destroy()
	if h.video.Style() != (media.Style{Opacity: 0.8, Visible: true}) {
		t.Errorf("Destroy did not restore style: %+v", h.video.Style())
	}
}

func TestDestroy(t *testing.T) {
	h := newHarness(t, nil)
	h.feed(solid(80, 80, white))
	in, _ := h.mgr.Attach(h.video)
	h.frame()
	frames := h.reg.Counter(MetricFrames).Load()

	in.Destroy()
	in.Destroy()

	if h.stage.Contains(in.Surface()) {
		t.Error("Surface still on stage")
	}
	if _, ok := h.mgr.Lookup(h.video); ok {
		t.Error("Instance still registered")
	}
	if h.loop.Len() != 0 {
		t.Errorf("Expected no subscriptions, got %d", h.loop.Len())
	}
	if h.video.Listeners(media.EventLoadedMetadata) != 0 || h.video.Listeners(media.EventLoadedData) != 0 {
		t.Error("Listeners left on source")
	}
	if h.video.Style() != media.DefaultStyle {
		t.Errorf("Style not restored: %+v", h.video.Style())
	}

	in.Tick(time.Now())
	h.frame()
	if got := h.reg.Counter(MetricFrames).Load(); got != frames {
		t.Errorf("Destroyed instance rendered: %d -> %d", frames, got)
	}
	if media.Ended(h.stream) {
		t.Error("Caller-supplied stream was stopped")
	}
	if in.StartCamera() != ErrDestroyed {
		t.Error("Expected ErrDestroyed from StartCamera")
	}

	again, _ := h.mgr.Attach(h.video)
	if again == in {
		t.Error("Attach after destroy reused the destroyed instance")
	}
}

// stubCamera hands out FrameStreams, optionally blocking until released
type stubCamera struct {
	mu      sync.Mutex
	gate    chan struct{}
	streams []*media.FrameStream
	err     error
}

func (c *stubCamera) Acquire(ctx context.Context, cons media.Constraints) (media.Stream, error) {
	if cons.Facing != media.FacingUser || cons.Audio {
		return nil, errors.New("unexpected constraints")
	}
	if c.gate != nil {
		select {
		case <-c.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.err != nil {
		return nil, c.err
	}
	s := media.NewFrameStream(nil)
	s.Push(solid(32, 32, white))
	c.mu.Lock()
	c.streams = append(c.streams, s)
	c.mu.Unlock()
	return s, nil
}

func (c *stubCamera) acquired() []*media.FrameStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*media.FrameStream(nil), c.streams...)
}

func TestAutostartOwnsStream(t *testing.T) {
	cam := &stubCamera{}
	h := newHarness(t, cam)
	in, _ := h.mgr.Attach(h.video, Options{}.WithAutostart(true))

	h.until(t, func() bool { return h.video.Stream() != nil })
	h.frame()
	if text(in).Rune(0, 0) != '@' {
		t.Error("Camera frames not rendered")
	}

	in.Destroy()
	owned := cam.acquired()[0]
	if !media.Ended(owned) {
		t.Error("Self-acquired stream not stopped on destroy")
	}
	if h.video.Stream() != nil {
		t.Error("Self-acquired stream left attached")
	}
}

func TestLateCameraStreamStopped(t *testing.T) {
	cam := &stubCamera{gate: make(chan struct{})}
	h := newHarness(t, cam)
	h.mgr.Attach(h.video, Options{}.WithAutostart(true))

	// Caller attaches a stream while the camera is still pending
	h.feed(solid(8, 8, black))
	close(cam.gate)

	h.until(t, func() bool { return len(cam.acquired()) == 1 && media.Ended(cam.acquired()[0]) })
	if h.video.Stream() != media.Stream(h.stream) {
		t.Error("Caller stream replaced by late camera stream")
	}
}

func TestAutostartSkippedWithStream(t *testing.T) {
	cam := &stubCamera{}
	h := newHarness(t, cam)
	h.feed(solid(8, 8, black))
	h.mgr.Attach(h.video, Options{}.WithAutostart(true))
	h.frame()
	time.Sleep(5 * time.Millisecond)
	h.frame()
	if n := len(cam.acquired()); n != 0 {
		t.Errorf("Camera acquired %d streams despite existing stream", n)
	}
}

func TestCameraUnsupportedKeepsRendering(t *testing.T) {
	h := newHarness(t, nil)
	in, _ := h.mgr.Attach(h.video, Options{}.WithAutostart(true))
	for range 3 {
		h.frame()
		time.Sleep(time.Millisecond)
	}
	if !in.Running() || h.video.Stream() != nil {
		t.Error("Unsupported camera should leave the instance running without a stream")
	}
}

func TestDestroyCancelsPendingCamera(t *testing.T) {
	cam := &stubCamera{gate: make(chan struct{})}
	h := newHarness(t, cam)
	in, _ := h.mgr.Attach(h.video, Options{}.WithAutostart(true))
	in.Destroy()

	// Cancellation unblocks Acquire; its failure is posted and logged
	for range 10 {
		h.frame()
		time.Sleep(time.Millisecond)
	}
	if len(cam.acquired()) != 0 || h.video.Stream() != nil {
		t.Error("Camera completed after destroy")
	}
}

func TestManagerClose(t *testing.T) {
	h := newHarness(t, nil)
	a, _ := h.mgr.Attach(h.video)
	b, _ := h.mgr.Attach(media.NewVideo("b"))
	h.mgr.Close()

	if !a.Destroyed() || !b.Destroyed() || h.mgr.Len() != 0 {
		t.Error("Close left live instances")
	}
	if _, err := h.mgr.Attach(h.video); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestManagerReady(t *testing.T) {
	h := newHarness(t, nil)
	select {
	case <-h.mgr.Ready():
		t.Fatal("Ready before Install")
	default:
	}

	got := make(chan *Manager, 1)
	h.mgr.OnReady(func(m *Manager) { got <- m })
	h.mgr.Install()
	h.mgr.Install()

	select {
	case m := <-got:
		if m != h.mgr {
			t.Error("OnReady received another manager")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnReady not invoked")
	}
}

func TestInstallDefault(t *testing.T) {
	loop := scheduler.NewLoop(nil)
	m, err := Install(Env{Scheduler: loop, Surfaces: func(id string) surface.Surface { return surface.NewText(id) }})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	defer m.Close()

	select {
	case <-Ready():
	case <-time.After(time.Second):
		t.Fatal("Ready not closed after Install")
	}
	if Default() != m {
		t.Error("Default manager not set")
	}
	v := media.NewVideo("pkg")
	in, err := Attach(v)
	if err != nil || in == nil {
		t.Fatalf("Attach: %v", err)
	}
	if got, _ := m.Lookup(v); got != in {
		t.Error("Package Attach did not use the default manager")
	}
}

func TestCanvasSizedToSource(t *testing.T) {
	loop := scheduler.NewLoop(nil)
	mgr, _ := NewManager(Env{Scheduler: loop})
	v := media.NewVideo("v")
	s := media.NewFrameStream(nil)
	v.SetStream(s)
	s.Push(solid(100, 60, white))

	in, _ := mgr.Attach(v)
	loop.RunFrame(time.Now())

	c, ok := in.Surface().(*surface.Canvas)
	if !ok {
		t.Fatalf("Expected default canvas surface, got %T", in.Surface())
	}
	if w, h := c.Size(); w != 100 || h != 60 {
		t.Errorf("Expected 100x60 canvas, got %dx%d", w, h)
	}
	if got := c.Image().RGBAAt(0, 0); got == (color.RGBA{}) {
		t.Error("Canvas left transparent with hidden video")
	}
}
