package host

import (
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/lixenwraith/ascii-overlay/config"
)

func parseFlags(t *testing.T, args ...string) *Flags {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var f Flags
	f.Register(fs, "test.log")
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	f.Visit(fs)
	return &f
}

func TestLoadConfigFlagsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.toml")
	data := "[app]\nfps = 30\nsource = \"camera\"\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	f := parseFlags(t, "-config", path, "-source", "synthetic")
	file, err := f.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if file.App.Source != config.SourceSynthetic {
		t.Errorf("Explicit -source ignored: %q", file.App.Source)
	}
	if file.App.FPS != 30 {
		t.Errorf("Unset -fps overrode the file: %d", file.App.FPS)
	}

	f = parseFlags(t, "-surface", "hologram")
	if _, err := f.LoadConfig(); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("Expected ErrInvalid for bad surface, got %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	f := parseFlags(t, "-config", filepath.Join(t.TempDir(), "none.toml"))
	if _, err := f.LoadConfig(); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestOverridesOnlySetFlags(t *testing.T) {
	f := parseFlags(t, "-density", "4")
	o := f.Overrides()
	if o.Density == nil || *o.Density != 4 {
		t.Error("Explicit -density dropped")
	}
	if o.Color != nil || o.Invert != nil || o.Autostart != nil {
		t.Error("Unset flags leaked into overrides")
	}

	if !parseFlags(t).Overrides().Empty() {
		t.Error("Expected empty overrides without flags")
	}

	f = parseFlags(t, "-color", "not-a-color", "-invert", "-autostart=false")
	o = f.Overrides()
	if o.Color != nil {
		t.Error("Invalid color should be dropped")
	}
	if o.Invert == nil || !*o.Invert || o.Autostart == nil || *o.Autostart {
		t.Errorf("Boolean overrides wrong: %+v", o)
	}
}

func TestFlagsSet(t *testing.T) {
	var f Flags
	f.FontSize = 24
	f.Set("font-size")
	if o := f.Overrides(); o.FontSize == nil || *o.FontSize != 24 {
		t.Error("Set did not mark the flag")
	}
}
