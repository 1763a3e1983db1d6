package sampler

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/lixenwraith/ascii-overlay/status"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestComputeGeometry(t *testing.T) {
	tests := []struct {
		name       string
		w, h       int
		density    float64
		cols, rows int
	}{
		{"Exact", 320, 240, 8, 40, 30},
		{"Floors remainder", 321, 240, 8, 40, 30},
		{"Density larger than frame", 5, 5, 8, 1, 1},
		{"Non-integer density", 100, 50, 2.5, 40, 20},
		{"NaN density falls back", 80, 80, math.NaN(), 10, 10},
		{"Negative density falls back", 80, 80, -4, 10, 10},
		{"Inf density falls back", 80, 80, math.Inf(1), 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, ok := ComputeGeometry(tt.w, tt.h, tt.density)
			if !ok {
				t.Fatal("Expected valid geometry")
			}
			if g.Cols != tt.cols || g.Rows != tt.rows {
				t.Errorf("Expected %dx%d, got %dx%d", tt.cols, tt.rows, g.Cols, g.Rows)
			}
			if got := g.CellWidth * float64(g.Cols); math.Abs(got-float64(tt.w)) > 1e-9 {
				t.Errorf("Cells do not tile width: %v", got)
			}
		})
	}
}

func TestComputeGeometryZero(t *testing.T) {
	for _, dims := range [][2]int{{0, 240}, {320, 0}, {-1, 10}} {
		if _, ok := ComputeGeometry(dims[0], dims[1], 8); ok {
			t.Errorf("%v: expected invalid geometry", dims)
		}
	}
}

func TestObserveRecomputesOnlyOnChange(t *testing.T) {
	reg := status.NewRegistry()
	s := New(8, reg)
	var hooked int
	s.OnRecompute = func(Geometry) { hooked++ }

	if !s.Observe(320, 240) {
		t.Fatal("First observation should recompute")
	}
	for range 5 {
		if s.Observe(320, 240) {
			t.Fatal("Identical dims should not recompute")
		}
	}
	if s.Recomputes() != 1 || hooked != 1 {
		t.Fatalf("Expected 1 recompute, got %d (hook %d)", s.Recomputes(), hooked)
	}
	if got := reg.Counter(MetricRecomputes).Load(); got != 1 {
		t.Errorf("Expected metric 1, got %d", got)
	}

	s.Observe(640, 480)
	if g, _ := s.Geometry(); g.Cols != 80 || g.Rows != 60 {
		t.Errorf("Expected 80x60 after change, got %dx%d", g.Cols, g.Rows)
	}
	if s.Recomputes() != 2 {
		t.Errorf("Expected 2 recomputes, got %d", s.Recomputes())
	}
}

func TestObserveZeroInvalidates(t *testing.T) {
	s := New(8, nil)
	s.Observe(320, 240)
	s.Observe(0, 0)
	if _, ok := s.Geometry(); ok {
		t.Fatal("Zero dims should invalidate geometry")
	}
	if _, err := s.Sample(solid(4, 4, color.RGBA{A: 255})); !errors.Is(err, ErrNoGeometry) {
		t.Errorf("Expected ErrNoGeometry, got %v", err)
	}
	// Same dims as before invalidation must recompute again
	if !s.Observe(320, 240) {
		t.Error("Observe after invalidation should recompute")
	}
}

func TestRefreshForces(t *testing.T) {
	s := New(8, nil)
	s.Observe(320, 240)
	s.SetDensity(16)
	if !s.Refresh(320, 240) {
		t.Fatal("Refresh should recompute")
	}
	if g, _ := s.Geometry(); g.Cols != 20 || g.Rows != 15 {
		t.Errorf("Expected 20x15, got %dx%d", g.Cols, g.Rows)
	}
}

func TestSampleLuminance(t *testing.T) {
	tests := []struct {
		name string
		c    color.RGBA
		want float64
	}{
		{"White", color.RGBA{255, 255, 255, 255}, 255},
		{"Black", color.RGBA{0, 0, 0, 255}, 0},
		{"Green", color.RGBA{0, 255, 0, 255}, 0.7152 * 255},
	}
	for _, m := range []Method{MethodApproxBiLinear, MethodNearest, MethodBiLinear, MethodCatmullRom} {
		for _, tt := range tests {
			t.Run(m.String()+"/"+tt.name, func(t *testing.T) {
				s := New(8, nil)
				s.SetMethod(m)
				s.Observe(80, 80)
				grid, err := s.Sample(solid(80, 80, tt.c))
				if err != nil {
					t.Fatalf("Sample: %v", err)
				}
				if grid.Cols != 10 || grid.Rows != 10 || len(grid.Luma) != 100 {
					t.Fatalf("Unexpected grid %dx%d len %d", grid.Cols, grid.Rows, len(grid.Luma))
				}
				for i, l := range grid.Luma {
					if math.Abs(l-tt.want) > 1 {
						t.Fatalf("cell %d: expected %.1f, got %.1f", i, tt.want, l)
					}
				}
			})
		}
	}
}

func TestSampleHalves(t *testing.T) {
	img := solid(80, 80, color.RGBA{A: 255})
	for y := 0; y < 80; y++ {
		for x := 40; x < 80; x++ {
			img.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	s := New(8, nil)
	s.SetMethod(MethodNearest)
	s.Observe(80, 80)
	grid, err := s.Sample(img)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if grid.At(0, 0) != 0 || math.Abs(grid.At(9, 9)-255) > 1e-6 {
		t.Errorf("Expected dark left, bright right; got %.1f / %.1f", grid.At(0, 0), grid.At(9, 9))
	}
}

func TestSampleNoFrame(t *testing.T) {
	s := New(8, nil)
	s.Observe(80, 80)
	if _, err := s.Sample(nil); !errors.Is(err, ErrNoFrame) {
		t.Errorf("Expected ErrNoFrame, got %v", err)
	}
	empty := image.NewRGBA(image.Rectangle{})
	if _, err := s.Sample(empty); !errors.Is(err, ErrNoFrame) {
		t.Errorf("Expected ErrNoFrame for empty bounds, got %v", err)
	}
}

func TestReleaseReallocates(t *testing.T) {
	s := New(8, nil)
	s.Observe(80, 80)
	s.Release()
	if _, ok := s.Geometry(); ok {
		t.Fatal("Release should drop geometry")
	}
	s.Observe(80, 80)
	if _, err := s.Sample(solid(80, 80, color.RGBA{A: 255})); err != nil {
		t.Errorf("Sample after release: %v", err)
	}
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    Method
		wantErr bool
	}{
		{"", MethodApproxBiLinear, false},
		{"Nearest", MethodNearest, false},
		{"catmull-rom", MethodCatmullRom, false},
		{"bilinear", MethodBiLinear, false},
		{"lanczos", MethodApproxBiLinear, true},
	}
	for _, tt := range tests {
		got, err := ParseMethod(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMethod(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestLuma(t *testing.T) {
	if got := Luma(255, 255, 255); math.Abs(got-255) > 1e-9 {
		t.Errorf("Expected 255, got %v", got)
	}
	if Luma(0, 0, 0) != 0 {
		t.Error("Expected 0 for black")
	}
}
