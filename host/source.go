package host

import (
	"fmt"
	"log/slog"

	"github.com/lixenwraith/ascii-overlay/config"
	"github.com/lixenwraith/ascii-overlay/media"
	"github.com/lixenwraith/ascii-overlay/scheduler"
	"github.com/lixenwraith/ascii-overlay/status"
)

// Source is what a session feeds the video element with
// Exactly one of Camera acquisition or a preset Stream applies
type Source struct {
	Camera media.Camera
	Stream media.Stream // Attached before the overlay; nil leaves acquisition to autostart
}

// OpenSource resolves the [app] source setting
// "camera" selects the platform capture device, "synthetic" the test pattern,
// anything else is opened as an image or GIF file
func OpenSource(app config.App, clock scheduler.Clock, logger *slog.Logger, reg *status.Registry) (Source, error) {
	switch app.Source {
	case config.SourceCamera:
		return Source{Camera: platformCamera(app, logger, reg)}, nil
	case config.SourceSynthetic, "":
		return Source{Camera: media.SyntheticCamera{Width: app.CameraWidth, Height: app.CameraHeight, Clock: clock}}, nil
	}

	stream, err := media.OpenFile(app.Source, clock)
	if err != nil {
		return Source{}, fmt.Errorf("open source: %w", err)
	}
	logger.Debug("host: opened file source", "path", app.Source, "stream_id", stream.ID())
	return Source{Camera: media.NoCamera{}, Stream: stream}, nil
}
