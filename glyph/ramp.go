package glyph

import (
	"errors"
	"math"
)

// Charset is the canonical ramp, least to most ink
const Charset = " .:-=+*#%@"

// ErrEmptyRamp is returned when constructing a ramp without glyphs
var ErrEmptyRamp = errors.New("glyph: ramp must contain at least one glyph")

// Ramp is an immutable ordered glyph palette with an optional inverted view
type Ramp struct {
	glyphs []rune // canonical order, shared between views, never written after New
	invert bool
}

var defaultRamp = &Ramp{glyphs: []rune(Charset)}

// Default returns the canonical ten-glyph ramp
func Default() *Ramp {
	return defaultRamp
}

// New builds a ramp from chars in least-to-most ink order
func New(chars string, invert bool) (*Ramp, error) {
	glyphs := []rune(chars)
	if len(glyphs) == 0 {
		return nil, ErrEmptyRamp
	}
	return &Ramp{glyphs: glyphs, invert: invert}, nil
}

// Len returns the number of glyphs
func (r *Ramp) Len() int {
	return len(r.glyphs)
}

// Inverted reports whether this view maps dark input to heavy glyphs
func (r *Ramp) Inverted() bool {
	return r.invert
}

// WithInvert returns a view over the same glyphs with the given orientation
func (r *Ramp) WithInvert(invert bool) *Ramp {
	if invert == r.invert {
		return r
	}
	return &Ramp{glyphs: r.glyphs, invert: invert}
}

// Invert returns the mirrored view; applying it twice yields the original mapping
func (r *Ramp) Invert() *Ramp {
	return r.WithInvert(!r.invert)
}

// Index returns round(normalized*(n-1)) clamped to [0, n-1], mirrored when inverted
// NaN clamps to the lightest canonical glyph
func (r *Ramp) Index(normalized float64) int {
	n := len(r.glyphs)
	idx := 0
	f := math.Round(normalized * float64(n-1))
	switch {
	case math.IsNaN(f), f <= 0:
		idx = 0
	case f >= float64(n-1):
		idx = n - 1
	default:
		idx = int(f)
	}
	if r.invert {
		return n - 1 - idx
	}
	return idx
}

// Glyph maps a normalized [0,1] luminance to a glyph
func (r *Ramp) Glyph(normalized float64) rune {
	return r.glyphs[r.Index(normalized)]
}

// ForLuminance maps an 8-bit-range luminance (0..255) to a glyph
func (r *Ramp) ForLuminance(l float64) rune {
	return r.Glyph(l / 255)
}

// Glyphs returns a copy of the effective sequence, reversed when inverted
func (r *Ramp) Glyphs() []rune {
	out := make([]rune, len(r.glyphs))
	if !r.invert {
		copy(out, r.glyphs)
		return out
	}
	for i, g := range r.glyphs {
		out[len(out)-1-i] = g
	}
	return out
}

// String returns the effective sequence as text
func (r *Ramp) String() string {
	return string(r.Glyphs())
}
