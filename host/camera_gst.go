//go:build gstreamer

package host

import (
	"log/slog"

	"github.com/lixenwraith/ascii-overlay/config"
	"github.com/lixenwraith/ascii-overlay/media"
	"github.com/lixenwraith/ascii-overlay/media/gstcam"
	"github.com/lixenwraith/ascii-overlay/status"
)

func platformCamera(app config.App, logger *slog.Logger, reg *status.Registry) media.Camera {
	return &gstcam.Camera{
		Device:  app.CameraDevice,
		Width:   app.CameraWidth,
		Height:  app.CameraHeight,
		Logger:  logger,
		Metrics: reg,
	}
}
