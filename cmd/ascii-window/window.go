package main

import (
	"image"
	"image/color"
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.org/x/image/draw"

	"github.com/lixenwraith/ascii-overlay/config"
	"github.com/lixenwraith/ascii-overlay/host"
	"github.com/lixenwraith/ascii-overlay/surface"
)

const noticeDuration = 2 * time.Second

var backgroundColor = color.RGBA{0x00, 0x00, 0x00, 0xff}

// window is the ebiten game; Update, Draw and Layout share the game goroutine, which owns the loop
type window struct {
	sess   *host.Session
	canvas *surface.Canvas
	text   *surface.Text
	log    *slog.Logger

	width, height int
	stageW        int
	stageH        int

	videoBuf   *image.RGBA
	videoImg   *ebiten.Image
	overlayImg *ebiten.Image

	notice      string
	noticeUntil time.Time
}

func (w *window) Update() error {
	if ebiten.IsWindowBeingClosed() || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	if w.width != w.stageW || w.height != w.stageH {
		w.stageW, w.stageH = w.width, w.height
		w.sess.Stage.Resize(w.width, w.height)
	}

	for _, r := range ebiten.AppendInputChars(nil) {
		action := w.sess.Action(r)
		switch action {
		case config.ActionQuit:
			return ebiten.Termination
		case config.ActionSnapshot:
			w.snapshot()
		case config.ActionYank:
			w.yank()
		default:
			w.sess.Do(action)
		}
	}

	w.sess.Loop.RunFrame(time.Now())
	return nil
}

func (w *window) snapshot() {
	name := host.SnapshotName(time.Now(), host.FormatPNG)
	if err := host.SaveSnapshot(name, w.canvas); err != nil {
		w.log.Warn("window: snapshot failed", "error", err)
		w.flash("snapshot failed: " + err.Error())
		return
	}
	w.log.Info("window: snapshot saved", "path", name)
	w.flash("saved " + name)
}

func (w *window) yank() {
	if err := host.Yank(w.text); err != nil {
		w.log.Debug("window: yank failed", "error", err)
		w.flash("yank failed: " + err.Error())
		return
	}
	w.flash("copied to clipboard")
}

func (w *window) flash(msg string) {
	w.notice = msg
	w.noticeUntil = time.Now().Add(noticeDuration)
}

func (w *window) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	frame := w.sess.Video.Frame()
	if frame != nil {
		b := frame.Bounds()
		geo := fitGeoM(b.Dx(), b.Dy(), w.width, w.height)

		if style := w.sess.Video.Style(); style.Visible && style.Opacity > 0 {
			w.videoImg = ensureImage(w.videoImg, b.Dx(), b.Dy())
			w.videoImg.WritePixels(w.framePixels(frame))
			op := &ebiten.DrawImageOptions{GeoM: geo}
			op.ColorScale.ScaleAlpha(float32(min(1, style.Opacity)))
			screen.DrawImage(w.videoImg, op)
		}

		// The canvas covers the source exactly, so it shares the video transform
		if img := w.canvas.Image(); img != nil && !img.Rect.Empty() {
			w.overlayImg = ensureImage(w.overlayImg, img.Rect.Dx(), img.Rect.Dy())
			w.overlayImg.WritePixels(img.Pix)
			screen.DrawImage(w.overlayImg, &ebiten.DrawImageOptions{GeoM: geo, Filter: ebiten.FilterLinear})
		}
	}

	line := w.sess.StatusLine()
	if w.notice != "" && time.Now().Before(w.noticeUntil) {
		line = w.notice
	}
	ebitenutil.DebugPrintAt(screen, line, 4, w.height-16)
	w.sess.Presented(time.Now())
}

func (w *window) Layout(outsideWidth, outsideHeight int) (int, int) {
	w.width, w.height = max(1, outsideWidth), max(1, outsideHeight)
	return w.width, w.height
}

// fitGeoM scales a srcW x srcH image to fit dstW x dstH, centered
func fitGeoM(srcW, srcH, dstW, dstH int) ebiten.GeoM {
	var geo ebiten.GeoM
	if srcW <= 0 || srcH <= 0 {
		return geo
	}
	scale := min(float64(dstW)/float64(srcW), float64(dstH)/float64(srcH))
	geo.Scale(scale, scale)
	geo.Translate((float64(dstW)-float64(srcW)*scale)/2, (float64(dstH)-float64(srcH)*scale)/2)
	return geo
}

func ensureImage(img *ebiten.Image, w, h int) *ebiten.Image {
	if img != nil {
		if b := img.Bounds(); b.Dx() == w && b.Dy() == h {
			return img
		}
		img.Deallocate()
	}
	return ebiten.NewImage(w, h)
}

// framePixels returns frame as origin-based tightly packed RGBA bytes
// Frames in another layout are converted into the reused videoBuf
func (w *window) framePixels(frame image.Image) []byte {
	b := frame.Bounds()
	if rgba, ok := frame.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == 4*b.Dx() {
		return rgba.Pix[:4*b.Dx()*b.Dy()]
	}
	if w.videoBuf == nil || w.videoBuf.Rect.Dx() != b.Dx() || w.videoBuf.Rect.Dy() != b.Dy() {
		w.videoBuf = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	}
	draw.Draw(w.videoBuf, w.videoBuf.Rect, frame, b.Min, draw.Src)
	return w.videoBuf.Pix
}
