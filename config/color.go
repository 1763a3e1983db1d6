package config

import (
	"errors"
	"fmt"
	"image/color"
	"strings"

	"github.com/gdamore/tcell/v2"
)

var ErrBadColor = errors.New("config: unrecognized color")

// ParseColor resolves CSS-style names, #rgb and #rrggbb into an opaque color
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if len(s) == 4 && s[0] == '#' {
		s = string([]byte{'#', s[1], s[1], s[2], s[2], s[3], s[3]})
	}

	c := tcell.GetColor(strings.ToLower(s))
	if c == tcell.ColorDefault || !c.Valid() {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrBadColor, s)
	}
	r, g, b := c.RGB()
	if r < 0 {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrBadColor, s)
	}
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 0xff}, nil
}

// MustColor is ParseColor for compile-time constants
func MustColor(s string) color.RGBA {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}
