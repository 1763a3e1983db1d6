// Package surface provides the output targets an overlay paints glyphs onto
//
// Coordinates are in source pixels: a surface is resized to the source dimensions and every
// glyph covers exactly one sample cell, whatever the surface's native resolution
package surface

import (
	"image/color"
	"math"

	"github.com/lixenwraith/ascii-overlay/stage"
)

// FontMetrics is the unscaled size of one glyph box
type FontMetrics struct {
	CharWidth  float64
	CharHeight float64
}

// FallbackAdvance is the advance-to-size ratio assumed when a surface cannot measure
const FallbackAdvance = 0.6

// FallbackMetrics derives metrics for fontSize without measuring
func FallbackMetrics(fontSize float64) FontMetrics {
	return FontMetrics{CharWidth: fontSize * FallbackAdvance, CharHeight: fontSize}
}

// Glyph is one cell draw
// Its box is positioned at (X, Y) with size (Width, Height) in unscaled glyph space and
// then scaled by (ScaleX, ScaleY) into source pixels
type Glyph struct {
	Rune     rune
	Col, Row int
	X, Y     float64
	Width    float64
	Height   float64
	ScaleX   float64
	ScaleY   float64
	Color    color.RGBA
}

// Rect returns the glyph box in source pixels
func (g Glyph) Rect() (x0, y0, x1, y1 float64) {
	x0 = g.X * g.ScaleX
	y0 = g.Y * g.ScaleY
	return x0, y0, x0 + g.Width*g.ScaleX, y0 + g.Height*g.ScaleY
}

// Blank reports whether the glyph leaves no ink
func (g Glyph) Blank() bool {
	return g.Rune == ' ' || g.Rune == 0
}

// Surface is an overlay output target
// Not safe for concurrent use; owned by the render loop goroutine
type Surface interface {
	stage.Layer

	// Resize sets the surface size in source pixels, discarding content
	Resize(w, h int)
	Size() (w, h int)
	// Measure selects the font size for subsequent draws and returns its metrics
	Measure(fontSize float64) FontMetrics
	// Clear makes the whole surface transparent
	Clear()
	// Fill paints the whole surface with c
	Fill(c color.RGBA)
	DrawGlyph(g Glyph)
	// Release frees buffers; a released surface ignores draws until resized
	Release()
}

func roundPx(v float64) int {
	return int(math.Round(v))
}
