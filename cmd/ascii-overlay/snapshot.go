package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lixenwraith/ascii-overlay/config"
	"github.com/lixenwraith/ascii-overlay/host"
	"github.com/lixenwraith/ascii-overlay/overlay"
	"github.com/lixenwraith/ascii-overlay/scheduler"
	"github.com/lixenwraith/ascii-overlay/surface"
)

const acquireTimeout = 3 * time.Second

var errNoStream = errors.New("no video stream")

// runSnapshot renders frames on a manual clock and writes the last one to out
// PNG output renders through the canvas surface, anything else through text
func runSnapshot(file *config.File, overrides overlay.Options, out string, frames int) error {
	format := host.FormatFor(out)
	clock := scheduler.NewManualClock(time.Now())

	var surf surface.Surface
	sess, err := host.NewSession(host.SessionConfig{
		File:      file,
		Overrides: overrides,
		Clock:     clock,
		Surfaces: func(id string) surface.Surface {
			if format == host.FormatPNG {
				surf = surface.NewCanvas(id)
			} else {
				surf = surface.NewText(id)
			}
			return surf
		},
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := awaitStream(sess, clock); err != nil {
		return err
	}

	interval := time.Second / time.Duration(file.App.FPS)
	for range max(1, frames) {
		sess.Loop.RunFrame(clock.Advance(interval))
	}
	slog.Debug("snapshot: rendered", "frames", sess.Loop.Frames(), "status", sess.StatusLine())

	if out == "-" {
		return host.WriteSnapshot(os.Stdout, surf, format)
	}
	return host.SaveSnapshot(out, surf)
}

// awaitStream runs frames until camera acquisition attached a stream
func awaitStream(sess *host.Session, clock scheduler.Clock) error {
	if sess.Video.Stream() != nil {
		return nil
	}
	if !sess.Overlay.Config().Autostart {
		return fmt.Errorf("%w: autostart disabled", errNoStream)
	}
	deadline := time.Now().Add(acquireTimeout)
	for sess.Video.Stream() == nil {
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: camera not acquired within %v", errNoStream, acquireTimeout)
		}
		sess.Loop.RunFrame(clock.Now())
		time.Sleep(5 * time.Millisecond)
	}
	return nil
}
