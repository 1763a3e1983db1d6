package surface

import (
	"image"
	"image/color"
	"math"

	"github.com/gdamore/tcell/v2"
)

// cell is one terminal cell of the overlay; a zero rune with bg set is backdrop only
type cell struct {
	r     rune
	fg    color.RGBA
	bg    color.RGBA
	hasBg bool
}

// Cells is a terminal cell surface
// Glyph boxes in source pixels are mapped onto a viewport of terminal cells by their center;
// only touched cells are written on Composite, so the host's drawing shows through the rest
type Cells struct {
	id       string
	srcW     int
	srcH     int
	viewport image.Rectangle

	cells   []cell
	touched []bool
}

var _ Surface = (*Cells)(nil)

// NewCells creates a surface compositing into viewport, in terminal cells
func NewCells(id string, viewport image.Rectangle) *Cells {
	c := &Cells{id: id}
	c.SetViewport(viewport)
	return c
}

// LayerID implements stage.Layer
func (c *Cells) LayerID() string { return c.id }

// Viewport returns the target cell rectangle
func (c *Cells) Viewport() image.Rectangle { return c.viewport }

// SetViewport moves the surface on screen, reallocating only if capacity is insufficient
func (c *Cells) SetViewport(r image.Rectangle) {
	r = r.Canon()
	size := r.Dx() * r.Dy()
	if cap(c.cells) < size {
		c.cells = make([]cell, size)
		c.touched = make([]bool, size)
	} else {
		c.cells = c.cells[:size]
		c.touched = c.touched[:size]
	}
	c.viewport = r
	c.Clear()
}

func (c *Cells) Resize(w, h int) {
	if c.cells == nil {
		c.SetViewport(c.viewport)
	}
	c.srcW, c.srcH = max(0, w), max(0, h)
	c.Clear()
}

func (c *Cells) Size() (int, int) { return c.srcW, c.srcH }

// Measure assumes cells twice as tall as wide
func (c *Cells) Measure(fontSize float64) FontMetrics {
	return FontMetrics{CharWidth: fontSize / 2, CharHeight: fontSize}
}

// Clear resets all cells to untouched using exponential copy
func (c *Cells) Clear() {
	if len(c.cells) == 0 {
		return
	}
	c.cells[0] = cell{}
	c.touched[0] = false
	for filled := 1; filled < len(c.cells); filled *= 2 {
		copy(c.cells[filled:], c.cells[:filled])
	}
	for filled := 1; filled < len(c.touched); filled *= 2 {
		copy(c.touched[filled:], c.touched[:filled])
	}
}

func (c *Cells) Fill(col color.RGBA) {
	for i := range c.cells {
		c.cells[i] = cell{bg: col, hasBg: true}
		c.touched[i] = true
	}
}

func (c *Cells) DrawGlyph(g Glyph) {
	if g.Blank() || c.srcW == 0 || c.srcH == 0 || len(c.cells) == 0 {
		return
	}
	x0, y0, x1, y1 := g.Rect()
	cx, cy := (x0+x1)/2, (y0+y1)/2

	cols, rows := c.viewport.Dx(), c.viewport.Dy()
	col := int(math.Floor(cx / float64(c.srcW) * float64(cols)))
	row := int(math.Floor(cy / float64(c.srcH) * float64(rows)))
	if col < 0 || col >= cols || row < 0 || row >= rows {
		return
	}

	idx := row*cols + col
	c.cells[idx].r = g.Rune
	c.cells[idx].fg = g.Color
	c.touched[idx] = true
}

// Cell returns the content at viewport-relative (x, y); ok is false for untouched cells
func (c *Cells) Cell(x, y int) (r rune, fg, bg color.RGBA, ok bool) {
	cols := c.viewport.Dx()
	if x < 0 || x >= cols || y < 0 || y >= c.viewport.Dy() {
		return 0, fg, bg, false
	}
	idx := y*cols + x
	if !c.touched[idx] {
		return 0, fg, bg, false
	}
	cl := c.cells[idx]
	return cl.r, cl.fg, cl.bg, true
}

// Composite writes touched cells over screen content
// Cells without a backdrop keep the background already on screen
func (c *Cells) Composite(screen tcell.Screen) {
	cols := c.viewport.Dx()
	for i, t := range c.touched {
		if !t {
			continue
		}
		cl := c.cells[i]
		sx := c.viewport.Min.X + i%cols
		sy := c.viewport.Min.Y + i/cols

		var style tcell.Style
		if cl.hasBg {
			style = tcell.StyleDefault.Background(tcellColor(cl.bg))
		} else {
			_, _, style, _ = screen.GetContent(sx, sy)
		}
		r := cl.r
		if r == 0 {
			r = ' '
		} else {
			style = style.Foreground(tcellColor(cl.fg))
		}
		screen.SetContent(sx, sy, r, nil, style)
	}
}

func tcellColor(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

func (c *Cells) Release() {
	c.cells = nil
	c.touched = nil
	c.srcW, c.srcH = 0, 0
}
