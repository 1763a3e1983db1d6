package overlay

import (
	"math"

	"github.com/lixenwraith/ascii-overlay/config"
	"github.com/lixenwraith/ascii-overlay/sampler"
)

// Backdrop colors painted under the glyphs when the video is hidden
const (
	BackdropDark  = "#05070c"
	BackdropLight = "#f5f5f5"
)

// Config is the full overlay configuration
type Config struct {
	Color    string  // Glyph ink, CSS-style color
	FontSize float64 // Positive
	Density  float64 // Source pixels per sample cell, coerced positive
	Invert   bool    // Mirror the ramp; also selects the light backdrop
	// ShowVideo keeps the source visible under the glyphs
	// When false the source is made fully transparent but keeps playing: its frames still
	// feed the sampler
	ShowVideo bool
	// Autostart requests a front-facing camera when the source has no stream
	Autostart bool
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() Config {
	return Config{
		Color:    "#3AA0FF",
		FontSize: 16,
		Density:  sampler.DefaultDensity,
	}
}

// Apply returns c with every set field of o applied
// Invalid colors and font sizes keep the previous value, invalid density falls back to the default
func (c Config) Apply(o Options) Config {
	if o.Color != nil && validColor(*o.Color) {
		c.Color = *o.Color
	}
	if o.FontSize != nil && validFontSize(*o.FontSize) {
		c.FontSize = *o.FontSize
	}
	if o.Density != nil {
		c.Density = sampler.ClampDensity(*o.Density)
	}
	if o.Invert != nil {
		c.Invert = *o.Invert
	}
	if o.ShowVideo != nil {
		c.ShowVideo = *o.ShowVideo
	}
	if o.Autostart != nil {
		c.Autostart = *o.Autostart
	}
	return c
}

// BackdropColor returns the fill for the current inversion
func (c Config) BackdropColor() string {
	if c.Invert {
		return BackdropLight
	}
	return BackdropDark
}

// Options is a partial Config update; nil fields are left unchanged
// The With* setters drop invalid values early; Apply checks literal fields again
type Options struct {
	Color     *string
	FontSize  *float64
	Density   *float64
	Invert    *bool
	ShowVideo *bool
	Autostart *bool
}

// WithColor sets the ink color; unparseable colors are ignored
func (o Options) WithColor(c string) Options {
	if validColor(c) {
		o.Color = &c
	}
	return o
}

// WithFontSize sets the font size; non-positive and non-finite sizes are ignored
func (o Options) WithFontSize(size float64) Options {
	if validFontSize(size) {
		o.FontSize = &size
	}
	return o
}

// WithDensity sets the density; invalid values fall back to the default on apply
func (o Options) WithDensity(d float64) Options {
	o.Density = &d
	return o
}

// WithInvert mirrors the ramp and switches to the light backdrop
func (o Options) WithInvert(v bool) Options {
	o.Invert = &v
	return o
}

// WithShowVideo keeps the source visible under the glyphs
func (o Options) WithShowVideo(v bool) Options {
	o.ShowVideo = &v
	return o
}

// WithAutostart requests a camera stream when the source has none
func (o Options) WithAutostart(v bool) Options {
	o.Autostart = &v
	return o
}

func validColor(c string) bool {
	_, err := config.ParseColor(c)
	return err == nil
}

func validFontSize(size float64) bool {
	return size > 0 && !math.IsInf(size, 0) && !math.IsNaN(size)
}

// Merge returns o overridden by every set field of other
func (o Options) Merge(other Options) Options {
	if other.Color != nil {
		o.Color = other.Color
	}
	if other.FontSize != nil {
		o.FontSize = other.FontSize
	}
	if other.Density != nil {
		o.Density = other.Density
	}
	if other.Invert != nil {
		o.Invert = other.Invert
	}
	if other.ShowVideo != nil {
		o.ShowVideo = other.ShowVideo
	}
	if other.Autostart != nil {
		o.Autostart = other.Autostart
	}
	return o
}

// Empty reports whether no field is set
func (o Options) Empty() bool {
	return o == Options{}
}

// Option keys accepted by OptionsFromMap, camelCase and snake_case
var optionKeys = map[string]string{
	"color":      "color",
	"fontSize":   "fontSize",
	"font_size":  "fontSize",
	"density":    "density",
	"invert":     "invert",
	"showVideo":  "showVideo",
	"show_video": "showVideo",
	"autostart":  "autostart",
}

// OptionsFromMap decodes loosely typed options, as found in config files
// Unknown keys and values of the wrong type are dropped silently
func OptionsFromMap(m map[string]any) Options {
	var o Options
	for k, v := range m {
		switch optionKeys[k] {
		case "color":
			if s, ok := v.(string); ok {
				o = o.WithColor(s)
			}
		case "fontSize":
			if f, ok := number(v); ok {
				o = o.WithFontSize(f)
			}
		case "density":
			if f, ok := number(v); ok {
				o = o.WithDensity(f)
			}
		case "invert":
			if b, ok := v.(bool); ok {
				o = o.WithInvert(b)
			}
		case "showVideo":
			if b, ok := v.(bool); ok {
				o = o.WithShowVideo(b)
			}
		case "autostart":
			if b, ok := v.(bool); ok {
				o = o.WithAutostart(b)
			}
		}
	}
	return o
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	default:
		return 0, false
	}
}
