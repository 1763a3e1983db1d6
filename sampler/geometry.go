package sampler

import "math"

// DefaultDensity is the sample cell size in source pixels
const DefaultDensity = 8.0

// Geometry is the sampling grid derived from source dimensions and density
type Geometry struct {
	Width, Height int     // Source pixel dimensions
	Cols, Rows    int     // Grid size, minimum 1x1
	CellWidth     float64 // Width / Cols
	CellHeight    float64 // Height / Rows
}

// Cells returns the number of grid cells
func (g Geometry) Cells() int {
	return g.Cols * g.Rows
}

// ClampDensity coerces v to a finite positive density, falling back to DefaultDensity
func ClampDensity(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return DefaultDensity
	}
	return v
}

// ComputeGeometry derives the grid for a w x h source
// Returns false when either dimension is not positive
func ComputeGeometry(w, h int, density float64) (Geometry, bool) {
	if w <= 0 || h <= 0 {
		return Geometry{}, false
	}
	density = ClampDensity(density)

	cols := max(1, int(math.Floor(float64(w)/density)))
	rows := max(1, int(math.Floor(float64(h)/density)))

	return Geometry{
		Width:      w,
		Height:     h,
		Cols:       cols,
		Rows:       rows,
		CellWidth:  float64(w) / float64(cols),
		CellHeight: float64(h) / float64(rows),
	}, true
}
