// Package glyph maps normalized luminance onto a fixed density ramp of characters.
//
// The canonical ramp runs from the lightest glyph (space) to the heaviest ('@'). An
// inverted ramp is a mirrored view over the same backing sequence; the canonical
// order is never mutated.
package glyph
