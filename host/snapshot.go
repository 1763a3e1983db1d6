package host

import (
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lixenwraith/ascii-overlay/surface"
)

// Snapshot formats
const (
	FormatText = "text"
	FormatPNG  = "png"
)

var (
	ErrNoImage = errors.New("host: surface has no pixel image")
	ErrNoText  = errors.New("host: surface has no text form")
)

// FormatFor picks the snapshot format from a file extension
func FormatFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".png") {
		return FormatPNG
	}
	return FormatText
}

// SnapshotName returns a timestamped file name for format
func SnapshotName(now time.Time, format string) string {
	ext := ".txt"
	if format == FormatPNG {
		ext = ".png"
	}
	return "snapshot-" + now.Format("20060102-150405") + ext
}

// WriteSnapshot encodes the current content of surf
// Multi surfaces are searched part by part for one supporting format
func WriteSnapshot(w io.Writer, surf surface.Surface, format string) error {
	switch format {
	case FormatPNG:
		c, ok := find[*surface.Canvas](surf)
		if !ok || c.Image() == nil {
			return ErrNoImage
		}
		return png.Encode(w, c.Image())
	case FormatText:
		s, ok := surfaceText(surf)
		if !ok {
			return ErrNoText
		}
		_, err := io.WriteString(w, s+"\n")
		return err
	}
	return fmt.Errorf("host: unknown snapshot format %q", format)
}

// SaveSnapshot writes a snapshot to path, choosing the format by extension
func SaveSnapshot(path string, surf surface.Surface) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSnapshot(f, surf, FormatFor(path)); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func surfaceText(surf surface.Surface) (string, bool) {
	if t, ok := find[*surface.Text](surf); ok {
		return t.String(), true
	}
	if c, ok := find[*surface.Cells](surf); ok {
		return cellsText(c), true
	}
	return "", false
}

func cellsText(c *surface.Cells) string {
	vp := c.Viewport()
	var b strings.Builder
	for y := 0; y < vp.Dy(); y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < vp.Dx(); x++ {
			r, _, _, ok := c.Cell(x, y)
			if !ok || r == 0 {
				r = ' '
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

func find[T surface.Surface](surf surface.Surface) (T, bool) {
	if v, ok := surf.(T); ok {
		return v, true
	}
	if m, ok := surf.(*surface.Multi); ok {
		for _, p := range m.Parts() {
			if v, ok := find[T](p); ok {
				return v, true
			}
		}
	}
	var zero T
	return zero, false
}
