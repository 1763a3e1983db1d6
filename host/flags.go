package host

import (
	"flag"

	"github.com/lixenwraith/ascii-overlay/config"
	"github.com/lixenwraith/ascii-overlay/overlay"
)

// Flags are the command line settings shared by the hosts
// Only flags set explicitly override the config file
type Flags struct {
	ConfigPath string
	Source     string
	Surface    string
	Sampling   string
	FPS        int
	Density    float64
	FontSize   float64
	Color      string
	Invert     bool
	ShowVideo  bool
	Autostart  bool
	Debug      bool

	set map[string]bool
}

// Register defines the shared flags on fs
func (f *Flags) Register(fs *flag.FlagSet, logFileName string) {
	fs.StringVar(&f.ConfigPath, "config", "", "TOML configuration file")
	fs.StringVar(&f.Source, "source", "", "Video source: 'camera', 'synthetic' or an image/GIF path")
	fs.StringVar(&f.Surface, "surface", "", "Surface: 'cells', 'text' or 'canvas'")
	fs.StringVar(&f.Sampling, "sampling", "", "Sampling: 'approx', 'nearest', 'bilinear' or 'catmullrom'")
	fs.IntVar(&f.FPS, "fps", 0, "Frames per second (1-240)")
	fs.Float64Var(&f.Density, "density", 0, "Source pixels per glyph cell")
	fs.Float64Var(&f.FontSize, "font-size", 0, "Glyph font size in pixels")
	fs.StringVar(&f.Color, "color", "", "Glyph color, e.g. '#3AA0FF' or 'lime'")
	fs.BoolVar(&f.Invert, "invert", false, "Invert the glyph ramp")
	fs.BoolVar(&f.ShowVideo, "show-video", false, "Keep the video visible under the glyphs")
	fs.BoolVar(&f.Autostart, "autostart", true, "Acquire the camera when the source has no stream")
	fs.BoolVar(&f.Debug, "debug", false, "Write debug logs to logs/"+logFileName)
}

// Visit records which flags fs parsed explicitly; call after fs.Parse
func (f *Flags) Visit(fs *flag.FlagSet) {
	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
}

// Set marks name as explicitly given
func (f *Flags) Set(name string) {
	if f.set == nil {
		f.set = make(map[string]bool)
	}
	f.set[name] = true
}

// LoadConfig reads the config file if any and applies explicit [app] flags over it
func (f *Flags) LoadConfig() (*config.File, error) {
	file := config.Default()
	if f.ConfigPath != "" {
		var err error
		if file, err = config.Load(f.ConfigPath); err != nil {
			return nil, err
		}
	}

	app := &file.App
	if f.set["source"] {
		app.Source = f.Source
	}
	if f.set["surface"] {
		app.Surface = f.Surface
	}
	if f.set["sampling"] {
		app.Sampling = f.Sampling
	}
	if f.set["fps"] {
		app.FPS = f.FPS
	}
	if f.set["debug"] {
		app.Debug = f.Debug
	}
	if err := app.Validate(); err != nil {
		return nil, err
	}
	return file, nil
}

// Overrides collects explicit overlay flags
func (f *Flags) Overrides() overlay.Options {
	var o overlay.Options
	if f.set["color"] {
		o = o.WithColor(f.Color)
	}
	if f.set["font-size"] {
		o = o.WithFontSize(f.FontSize)
	}
	if f.set["density"] {
		o = o.WithDensity(f.Density)
	}
	if f.set["invert"] {
		o = o.WithInvert(f.Invert)
	}
	if f.set["show-video"] {
		o = o.WithShowVideo(f.ShowVideo)
	}
	if f.set["autostart"] {
		o = o.WithAutostart(f.Autostart)
	}
	return o
}
