package sampler

import (
	"errors"
	"image"
	"sync/atomic"

	"golang.org/x/image/draw"

	"github.com/lixenwraith/ascii-overlay/status"
)

// Metric keys published by the sampler
const (
	MetricRecomputes = "sampler.geometry_recomputes"
	MetricSamples    = "sampler.samples"
)

var (
	ErrNoGeometry = errors.New("sampler: geometry unknown")
	ErrNoFrame    = errors.New("sampler: no frame")
)

// Luma returns perceptual luminance (Rec. 709 weights) in the 0..255 range
func Luma(r, g, b uint8) float64 {
	return 0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(b)
}

// Grid is a row-major cols x rows luminance buffer, reused across samples
type Grid struct {
	Cols, Rows int
	Luma       []float64
}

// At returns luminance of cell (x, y)
func (g *Grid) At(x, y int) float64 {
	return g.Luma[y*g.Cols+x]
}

// Sampler downsamples frames into a luminance grid
// Not safe for concurrent use; owned by one render loop
type Sampler struct {
	density float64
	method  Method

	geom  Geometry
	valid bool

	buf  *image.RGBA
	grid Grid

	recomputes    int64
	statRecompute *atomic.Int64
	statSamples   *atomic.Int64

	// OnRecompute is invoked after every geometry recomputation
	OnRecompute func(Geometry)
}

// New creates a sampler; reg may be nil
func New(density float64, reg *status.Registry) *Sampler {
	return &Sampler{
		density:       ClampDensity(density),
		method:        MethodApproxBiLinear,
		statRecompute: reg.Counter(MetricRecomputes),
		statSamples:   reg.Counter(MetricSamples),
	}
}

// Density returns the effective cell size
func (s *Sampler) Density() float64 {
	return s.density
}

// SetDensity coerces and stores density; geometry is refreshed by the next Refresh
func (s *Sampler) SetDensity(d float64) {
	s.density = ClampDensity(d)
}

// SetMethod selects the downscale interpolator
func (s *Sampler) SetMethod(m Method) {
	s.method = m
}

// Geometry returns the current geometry and whether it is known
func (s *Sampler) Geometry() (Geometry, bool) {
	return s.geom, s.valid
}

// Recomputes returns how many times this sampler derived its geometry
func (s *Sampler) Recomputes() int64 {
	return s.recomputes
}

// Invalidate marks geometry unknown until valid dimensions are observed
func (s *Sampler) Invalidate() {
	s.valid = false
	s.geom = Geometry{}
}

// Observe records source dimensions, recomputing geometry only when they changed
// Zero dimensions invalidate geometry; returns true when a recompute happened
func (s *Sampler) Observe(w, h int) bool {
	if w <= 0 || h <= 0 {
		s.Invalidate()
		return false
	}
	if s.valid && s.geom.Width == w && s.geom.Height == h {
		return false
	}
	return s.Refresh(w, h)
}

// Refresh recomputes geometry unconditionally, for density changes and host resizes
func (s *Sampler) Refresh(w, h int) bool {
	geom, ok := ComputeGeometry(w, h, s.density)
	if !ok {
		s.Invalidate()
		return false
	}

	s.geom = geom
	s.valid = true
	s.ensureBuffer(geom.Cols, geom.Rows)

	s.recomputes++
	s.statRecompute.Add(1)
	if s.OnRecompute != nil {
		s.OnRecompute(geom)
	}
	return true
}

func (s *Sampler) ensureBuffer(cols, rows int) {
	if s.buf == nil || s.buf.Rect.Dx() != cols || s.buf.Rect.Dy() != rows {
		s.buf = image.NewRGBA(image.Rect(0, 0, cols, rows))
	}
	n := cols * rows
	if cap(s.grid.Luma) < n {
		s.grid.Luma = make([]float64, n)
	}
	s.grid.Luma = s.grid.Luma[:n]
	s.grid.Cols = cols
	s.grid.Rows = rows
}

// Sample scales frame into the cols x rows buffer and reads back per-cell luminance
// The returned grid is owned by the sampler and overwritten by the next call
func (s *Sampler) Sample(frame image.Image) (*Grid, error) {
	if !s.valid {
		return nil, ErrNoGeometry
	}
	if frame == nil || frame.Bounds().Empty() {
		return nil, ErrNoFrame
	}
	s.ensureBuffer(s.geom.Cols, s.geom.Rows)

	s.method.scaler().Scale(s.buf, s.buf.Rect, frame, frame.Bounds(), draw.Src, nil)

	pix := s.buf.Pix
	for i := range s.grid.Luma {
		o := i * 4
		s.grid.Luma[i] = Luma(pix[o], pix[o+1], pix[o+2])
	}
	s.statSamples.Add(1)
	return &s.grid, nil
}

// Release drops the sample buffer; the sampler stays usable and reallocates on demand
func (s *Sampler) Release() {
	s.buf = nil
	s.grid = Grid{}
	s.Invalidate()
}
