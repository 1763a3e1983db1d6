//go:build !gstreamer

package host

import (
	"log/slog"

	"github.com/lixenwraith/ascii-overlay/config"
	"github.com/lixenwraith/ascii-overlay/media"
	"github.com/lixenwraith/ascii-overlay/status"
)

// platformCamera without capture support; build with -tags gstreamer for a real device
func platformCamera(_ config.App, logger *slog.Logger, _ *status.Registry) media.Camera {
	logger.Warn("host: built without gstreamer, camera source unavailable")
	return media.NoCamera{}
}
