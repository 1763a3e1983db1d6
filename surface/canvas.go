package surface

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/math/fixed"
)

var (
	monoOnce sync.Once
	monoFont *truetype.Font
)

// mono parses the embedded Go Mono font once; nil when parsing failed
func mono() *truetype.Font {
	monoOnce.Do(func() {
		f, err := truetype.Parse(gomono.TTF)
		if err == nil {
			monoFont = f
		}
	})
	return monoFont
}

type tileKey struct {
	r rune
	c color.RGBA
}

// Canvas is an RGBA pixel surface
// Glyphs are rasterized once per rune and color into tiles, then scaled into their cells
type Canvas struct {
	id  string
	img *image.RGBA

	fontSize float64
	face     font.Face
	measured bool // face can measure; false on the bitmap fallback
	metrics  FontMetrics

	tiles  map[tileKey]*image.RGBA
	scaler draw.Scaler
}

var _ Surface = (*Canvas)(nil)

// NewCanvas creates an empty canvas
func NewCanvas(id string) *Canvas {
	return &Canvas{
		id:     id,
		img:    image.NewRGBA(image.Rectangle{}),
		tiles:  make(map[tileKey]*image.RGBA),
		scaler: draw.ApproxBiLinear,
	}
}

// LayerID implements stage.Layer
func (c *Canvas) LayerID() string { return c.id }

// Image exposes the pixel buffer; valid until the next Resize
func (c *Canvas) Image() *image.RGBA { return c.img }

func (c *Canvas) Resize(w, h int) {
	w, h = max(0, w), max(0, h)
	if c.img != nil && c.img.Rect.Dx() == w && c.img.Rect.Dy() == h {
		c.Clear()
		return
	}
	c.img = image.NewRGBA(image.Rect(0, 0, w, h))
}

func (c *Canvas) Size() (int, int) {
	if c.img == nil {
		return 0, 0
	}
	return c.img.Rect.Dx(), c.img.Rect.Dy()
}

// Measure loads Go Mono at fontSize and measures the advance of 'M'
// Falls back to the 7x13 bitmap face and FallbackMetrics when the font is unusable
func (c *Canvas) Measure(fontSize float64) FontMetrics {
	if c.face != nil && fontSize == c.fontSize {
		return c.metrics
	}
	if c.face != nil {
		c.face.Close()
	}
	clear(c.tiles)
	c.fontSize = fontSize

	c.face, c.measured = nil, false
	if f := mono(); f != nil && fontSize > 0 {
		c.face = truetype.NewFace(f, &truetype.Options{
			Size:    fontSize,
			DPI:     72,
			Hinting: font.HintingNone,
		})
		if adv, ok := c.face.GlyphAdvance('M'); ok && adv > 0 {
			c.metrics = FontMetrics{CharWidth: fixedToFloat(adv), CharHeight: fontSize}
			c.measured = true
		}
	}
	if !c.measured {
		c.face = basicfont.Face7x13
		c.metrics = FallbackMetrics(fontSize)
	}
	return c.metrics
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func (c *Canvas) Clear() {
	if c.img != nil {
		clear(c.img.Pix)
	}
}

func (c *Canvas) Fill(col color.RGBA) {
	if c.img == nil {
		return
	}
	draw.Draw(c.img, c.img.Rect, image.NewUniform(col), image.Point{}, draw.Src)
}

func (c *Canvas) DrawGlyph(g Glyph) {
	if c.img == nil || g.Blank() {
		return
	}
	if c.face == nil {
		c.Measure(g.Height)
	}

	x0, y0, x1, y1 := g.Rect()
	dr := image.Rect(roundPx(x0), roundPx(y0), roundPx(x1), roundPx(y1)).Intersect(c.img.Rect)
	if dr.Empty() {
		return
	}

	tile := c.tile(g.Rune, g.Color)
	c.scaler.Scale(c.img, dr, tile, tile.Rect, draw.Over, nil)
}

// tile returns the transparent, ink-colored rasterization of r in the current face
// The tile spans the glyph box: advance wide, font size tall, with the em box top at y=0
func (c *Canvas) tile(r rune, col color.RGBA) *image.RGBA {
	key := tileKey{r, col}
	if t, ok := c.tiles[key]; ok {
		return t
	}

	var w, h int
	var dot fixed.Point26_6
	if c.measured {
		w = max(1, int(math.Ceil(c.metrics.CharWidth)))
		h = max(1, int(math.Ceil(c.metrics.CharHeight)))
		m := c.face.Metrics()
		// Center the ascent+descent band in the box
		pad := fixed.I(h) - (m.Ascent + m.Descent)
		dot = fixed.Point26_6{X: 0, Y: m.Ascent + pad/2}
	} else {
		// Native bitmap size, scaled to the box on draw
		w, h = 7, 13
		dot = fixed.Point26_6{X: 0, Y: basicfont.Face7x13.Metrics().Ascent}
	}

	t := image.NewRGBA(image.Rect(0, 0, w, h))
	d := &font.Drawer{
		Dst:  t,
		Src:  image.NewUniform(col),
		Face: c.face,
		Dot:  dot,
	}
	d.DrawString(string(r))

	c.tiles[key] = t
	return t
}

func (c *Canvas) Release() {
	c.img = nil
	clear(c.tiles)
	if c.face != nil {
		c.face.Close()
		c.face = nil
	}
}
