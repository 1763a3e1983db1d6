package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/lixenwraith/ascii-overlay/sampler"
)

var ErrInvalid = errors.New("config: invalid value")

// Surface kinds a host can render to
const (
	SurfaceCells  = "cells"
	SurfaceCanvas = "canvas"
	SurfaceText   = "text"
)

// Source kinds besides a file path
const (
	SourceCamera    = "camera"
	SourceSynthetic = "synthetic"
)

// App holds host settings
type App struct {
	FPS          int    `toml:"fps"`
	Sampling     string `toml:"sampling"`
	Surface      string `toml:"surface"`
	Source       string `toml:"source"`
	CameraDevice string `toml:"camera_device"`
	CameraWidth  int    `toml:"camera_width"`
	CameraHeight int    `toml:"camera_height"`
	Debug        bool   `toml:"debug"`
}

// DefaultApp returns the host defaults
func DefaultApp() App {
	return App{
		FPS:      60,
		Sampling: sampler.MethodApproxBiLinear.String(),
		Surface:  SurfaceCells,
		Source:   SourceSynthetic,
	}
}

// File is a decoded configuration file
type File struct {
	App App
	// Overlay is kept loosely typed for overlay.OptionsFromMap
	Overlay map[string]any
	Keys    map[rune]Action
}

type rawFile struct {
	App     App               `toml:"app"`
	Overlay map[string]any    `toml:"overlay"`
	Keys    map[string]string `toml:"keys"`
}

// Default returns the configuration used without a file
func Default() *File {
	return &File{App: DefaultApp(), Overlay: map[string]any{}, Keys: DefaultKeys()}
}

// Load reads and parses path
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes TOML data over the defaults
// Unknown sections or [app] keys are errors; [overlay] keys are validated by the overlay
func Parse(data []byte) (*File, error) {
	raw := rawFile{App: DefaultApp()}
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, fmt.Errorf("config parse: %w", err)
	}

	var unknown []string
	for _, k := range meta.Undecoded() {
		if len(k) > 0 && k[0] == "overlay" {
			continue
		}
		unknown = append(unknown, k.String())
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("config: unknown keys: %s", strings.Join(unknown, ", "))
	}

	if err := raw.App.Validate(); err != nil {
		return nil, err
	}

	keys, err := parseKeys(raw.Keys)
	if err != nil {
		return nil, err
	}

	f := &File{
		App:     raw.App,
		Overlay: raw.Overlay,
		Keys:    MergeKeys(DefaultKeys(), keys),
	}
	if f.Overlay == nil {
		f.Overlay = map[string]any{}
	}
	return f, nil
}

// Validate checks a and fills defaulted fields in place
func (a *App) Validate() error {
	if a.FPS < 0 || a.FPS > 240 {
		return fmt.Errorf("%w: [app] fps %d out of range 0..240", ErrInvalid, a.FPS)
	}
	if a.FPS == 0 {
		a.FPS = DefaultApp().FPS
	}
	if _, err := sampler.ParseMethod(a.Sampling); err != nil {
		return fmt.Errorf("%w: [app] sampling: %v", ErrInvalid, err)
	}
	switch a.Surface {
	case SurfaceCells, SurfaceCanvas, SurfaceText:
	default:
		return fmt.Errorf("%w: [app] surface %q", ErrInvalid, a.Surface)
	}
	if a.Source == "" {
		a.Source = SourceSynthetic
	}
	if a.CameraWidth < 0 || a.CameraHeight < 0 {
		return fmt.Errorf("%w: [app] negative camera size", ErrInvalid)
	}
	return nil
}

// Method returns the parsed sampling method
func (a App) Method() sampler.Method {
	m, _ := sampler.ParseMethod(a.Sampling)
	return m
}
