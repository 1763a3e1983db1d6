package host

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/ascii-overlay/config"
	"github.com/lixenwraith/ascii-overlay/media"
	"github.com/lixenwraith/ascii-overlay/overlay"
	"github.com/lixenwraith/ascii-overlay/scheduler"
	"github.com/lixenwraith/ascii-overlay/stage"
	"github.com/lixenwraith/ascii-overlay/status"
)

// Step sizes for key actions
const (
	DensityStep = 1.0
	MinDensity  = 1.0
	FontStep    = 2.0
	MinFontSize = 4.0
)

// MetricFPS is the smoothed presentation rate published by hosts
const MetricFPS = "host.fps"

// VideoID is the id of the session's single video element
const VideoID = "video"

// Metric components shown in the status line
var statusScopes = []string{"host", "scheduler", "overlay", "gstcam"}

// SessionConfig configures NewSession; zero fields take defaults
type SessionConfig struct {
	File          *config.File           // Defaults to config.Default()
	Overrides     overlay.Options        // Applied over the file's [overlay] table
	Surfaces      overlay.SurfaceFactory // Defaults to the overlay package default
	Clock         scheduler.Clock
	Width, Height int // Initial stage size
	Metrics       *status.Registry
	Logger        *slog.Logger
}

// Session is one running overlay over one video element
type Session struct {
	File    *config.File
	Clock   scheduler.Clock
	Metrics *status.Registry
	Loop    *scheduler.Loop
	Stage   *stage.Stage
	Video   *media.Video
	Manager *overlay.Manager
	Overlay *overlay.Instance

	log       *slog.Logger
	showStats atomic.Bool
	fps       *status.AtomicFloat
	lastFrame time.Time
}

// NewSession opens the configured source and attaches the overlay to it
func NewSession(sc SessionConfig) (*Session, error) {
	file := sc.File
	if file == nil {
		file = config.Default()
	}
	logger := sc.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := sc.Clock
	if clock == nil {
		clock = scheduler.WallClock
	}
	reg := sc.Metrics
	if reg == nil {
		reg = status.NewRegistry()
	}

	src, err := OpenSource(file.App, clock, logger, reg)
	if err != nil {
		return nil, err
	}

	s := &Session{
		File:    file,
		Clock:   clock,
		Metrics: reg,
		Loop:    scheduler.NewLoop(reg),
		Stage:   stage.New(sc.Width, sc.Height),
		Video:   media.NewVideo(VideoID),
		log:     logger,
		fps:     reg.Gauge(MetricFPS),
	}
	s.Stage.Append(s.Video)
	if src.Stream != nil {
		s.Video.SetStream(src.Stream)
	}

	s.Manager, err = overlay.Install(overlay.Env{
		Scheduler: s.Loop,
		Stage:     s.Stage,
		Surfaces:  sc.Surfaces,
		Camera:    src.Camera,
		Sampling:  file.App.Method(),
		Metrics:   reg,
		Logger:    logger,
	})
	if err != nil {
		media.StopAll(src.Stream)
		return nil, fmt.Errorf("install overlay: %w", err)
	}

	opts := overlay.Options{}
	if src.Stream == nil {
		opts = opts.WithAutostart(true)
	}
	opts = opts.Merge(overlay.OptionsFromMap(file.Overlay)).Merge(sc.Overrides)

	s.Overlay, err = s.Manager.Attach(s.Video, opts)
	if err != nil {
		media.StopAll(src.Stream)
		return nil, fmt.Errorf("attach overlay: %w", err)
	}
	return s, nil
}

// Action returns the action bound to r, ActionNone when unbound
func (s *Session) Action(r rune) config.Action {
	if a, ok := s.File.Keys[r]; ok {
		return a
	}
	return config.ActionNone
}

// Do applies an overlay action; must run on the loop goroutine
// Returns false for actions the host handles itself (quit, snapshot, none)
func (s *Session) Do(a config.Action) bool {
	in := s.Overlay
	cfg := in.Config()
	switch a {
	case config.ActionInvert:
		in.SetOptions(overlay.Options{}.WithInvert(!cfg.Invert))
	case config.ActionToggleVideo:
		in.SetOptions(overlay.Options{}.WithShowVideo(!cfg.ShowVideo))
	case config.ActionDensityUp:
		in.SetOptions(overlay.Options{}.WithDensity(max(MinDensity, cfg.Density-DensityStep)))
	case config.ActionDensityDown:
		in.SetOptions(overlay.Options{}.WithDensity(cfg.Density + DensityStep))
	case config.ActionFontUp:
		in.SetOptions(overlay.Options{}.WithFontSize(cfg.FontSize + FontStep))
	case config.ActionFontDown:
		in.SetOptions(overlay.Options{}.WithFontSize(max(MinFontSize, cfg.FontSize-FontStep)))
	case config.ActionCamera:
		if err := in.StartCamera(); err != nil {
			s.log.Debug("host: camera request rejected", "error", err)
		}
	case config.ActionStats:
		s.showStats.Store(!s.showStats.Load())
	default:
		return false
	}
	s.log.Debug("host: action applied", "action", string(a))
	return true
}

// ShowStats reports whether the status line should carry metrics
func (s *Session) ShowStats() bool {
	return s.showStats.Load()
}

// Presented records a presented frame for the fps gauge
func (s *Session) Presented(now time.Time) {
	if !s.lastFrame.IsZero() {
		if dt := now.Sub(s.lastFrame).Seconds(); dt > 0 {
			s.fps.Smooth(1/dt, 0.1)
		}
	}
	s.lastFrame = now
}

// StatusLine summarizes the session for a one-line display
func (s *Session) StatusLine() string {
	cfg := s.Overlay.Config()
	line := fmt.Sprintf("density=%.0f font=%.0f invert=%t video=%t", cfg.Density, cfg.FontSize, cfg.Invert, cfg.ShowVideo)
	if g, ok := s.Overlay.Geometry(); ok {
		line = fmt.Sprintf("%dx%d -> %dx%d %s", g.Width, g.Height, g.Cols, g.Rows, line)
	} else {
		line = "waiting for video " + line
	}
	if s.ShowStats() {
		line += " | " + s.Metrics.Format(statusScopes...)
	}
	return line
}

// Close destroys the overlay and stops whatever stream feeds the video
func (s *Session) Close() {
	s.Manager.Close()
	media.StopAll(s.Video.Stream())
	s.Video.SetStream(nil)
}
