package surface

import (
	"image/color"
	"strings"
)

// Text is a plain rune grid addressed by glyph column and row
// Used for dumps and clipboard copies; colors are recorded but not rendered
type Text struct {
	id       string
	w, h     int
	rows     [][]rune
	backdrop color.RGBA
	filled   bool
}

var _ Surface = (*Text)(nil)

// NewText creates an empty grid
func NewText(id string) *Text {
	return &Text{id: id}
}

func (t *Text) LayerID() string { return t.id }

func (t *Text) Resize(w, h int) {
	t.w, t.h = max(0, w), max(0, h)
	t.rows = nil
	t.filled = false
}

func (t *Text) Size() (int, int) { return t.w, t.h }

func (t *Text) Measure(fontSize float64) FontMetrics {
	return FallbackMetrics(fontSize)
}

func (t *Text) Clear() {
	for _, row := range t.rows {
		for i := range row {
			row[i] = ' '
		}
	}
	t.filled = false
}

func (t *Text) Fill(c color.RGBA) {
	t.Clear()
	t.backdrop = c
	t.filled = true
}

// Backdrop returns the last fill color and whether the surface is filled
func (t *Text) Backdrop() (color.RGBA, bool) {
	return t.backdrop, t.filled
}

// DrawGlyph grows the grid as needed; blank glyphs still extend it
func (t *Text) DrawGlyph(g Glyph) {
	if g.Col < 0 || g.Row < 0 {
		return
	}
	for len(t.rows) <= g.Row {
		t.rows = append(t.rows, nil)
	}
	row := t.rows[g.Row]
	for len(row) <= g.Col {
		row = append(row, ' ')
	}
	r := g.Rune
	if r == 0 {
		r = ' '
	}
	row[g.Col] = r
	t.rows[g.Row] = row
}

// Rune returns the glyph at (col, row), space when never drawn
func (t *Text) Rune(col, row int) rune {
	if row < 0 || row >= len(t.rows) || col < 0 || col >= len(t.rows[row]) {
		return ' '
	}
	return t.rows[row][col]
}

// Dims returns the grid size drawn so far
func (t *Text) Dims() (cols, rows int) {
	for _, row := range t.rows {
		cols = max(cols, len(row))
	}
	return cols, len(t.rows)
}

// String joins rows with newlines
func (t *Text) String() string {
	var b strings.Builder
	for i, row := range t.rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(row))
	}
	return b.String()
}

func (t *Text) Release() {
	t.rows = nil
	t.w, t.h = 0, 0
}
