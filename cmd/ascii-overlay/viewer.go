package main

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"runtime/debug"
	"time"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/image/draw"

	"github.com/lixenwraith/ascii-overlay/config"
	"github.com/lixenwraith/ascii-overlay/host"
	"github.com/lixenwraith/ascii-overlay/media"
	"github.com/lixenwraith/ascii-overlay/overlay"
	"github.com/lixenwraith/ascii-overlay/scheduler"
	"github.com/lixenwraith/ascii-overlay/surface"
)

const noticeDuration = 2 * time.Second

// viewer presents a session on a terminal
// Fields below screen are owned by the ticker goroutine, which is also the loop goroutine
type viewer struct {
	screen tcell.Screen
	sess   *host.Session
	cells  *surface.Cells
	log    *slog.Logger

	screenW, screenH int
	videoBuf         *image.RGBA

	notice      string
	noticeUntil time.Time
}

func runViewer(file *config.File, overrides overlay.Options) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("terminal init: %w", err)
	}
	defer screen.Fini()

	// Crash handler for loop and camera goroutines: raw mode would hide the trace
	scheduler.SetCrashHandler(func(r any) {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "\r\n\x1b[31mASCII-OVERLAY CRASHED: %v\x1b[0m\r\n", r)
		fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
		os.Exit(1)
	})
	defer scheduler.SetCrashHandler(nil)

	v := &viewer{screen: screen, log: slog.Default()}
	v.screenW, v.screenH = screen.Size()

	sess, err := host.NewSession(host.SessionConfig{
		File:      file,
		Overrides: overrides,
		Surfaces: func(id string) surface.Surface {
			v.cells = surface.NewCells(id, image.Rectangle{})
			return v.cells
		},
		Width:  v.screenW,
		Height: v.screenH,
	})
	if err != nil {
		return err
	}
	v.sess = sess
	defer sess.Close()

	// Registered after the overlay's listener so the viewport is final before glyphs are drawn
	off := sess.Video.On(media.EventLoadedMetadata, func(media.Event) { v.layout() })
	defer off()
	// A preset stream reported its size before the listener existed
	v.layout()

	ticker := scheduler.NewTicker(sess.Loop, time.Second/time.Duration(file.App.FPS), nil)
	ticker.AfterFrame = v.present
	ticker.Start()
	defer ticker.Stop()

	for {
		if !v.handleInput(screen.PollEvent()) {
			return nil
		}
	}
}

// handleInput runs on the main goroutine; session changes are posted to the loop
func (v *viewer) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case nil:
		return false

	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		action := v.sess.Action(ev.Rune())
		switch action {
		case config.ActionNone:
		case config.ActionQuit:
			return false
		case config.ActionSnapshot:
			v.sess.Loop.Post(v.snapshot)
		case config.ActionYank:
			v.sess.Loop.Post(v.yank)
		default:
			v.sess.Loop.Post(func() { v.sess.Do(action) })
		}

	case *tcell.EventResize:
		w, h := ev.Size()
		v.screen.Sync()
		v.sess.Loop.Post(func() {
			v.screenW, v.screenH = w, h
			v.layout()
			v.sess.Stage.Resize(w, h)
		})
	}
	return true
}

// layout fits the overlay viewport to the video aspect above the status line
func (v *viewer) layout() {
	if v.cells == nil {
		return
	}
	w, h := v.sess.Video.Dimensions()
	vp := fitViewport(w, h, v.screenW, v.screenH-1)
	if vp != v.cells.Viewport() {
		v.cells.SetViewport(vp)
		v.log.Debug("viewer: viewport", "rect", vp.String())
	}
}

// fitViewport centers the largest rectangle of 1:2 terminal cells matching a srcW x srcH aspect
func fitViewport(srcW, srcH, screenW, screenH int) image.Rectangle {
	if srcW <= 0 || srcH <= 0 || screenW <= 0 || screenH <= 0 {
		return image.Rectangle{}
	}
	rows := screenH
	cols := rows * 2 * srcW / srcH
	if cols > screenW {
		cols = screenW
		rows = cols * srcH / (2 * srcW)
	}
	cols, rows = max(1, cols), max(1, rows)
	x := (screenW - cols) / 2
	y := (screenH - rows) / 2
	return image.Rect(x, y, x+cols, y+rows)
}

func (v *viewer) snapshot() {
	name := host.SnapshotName(time.Now(), host.FormatText)
	if err := host.SaveSnapshot(name, v.cells); err != nil {
		v.log.Warn("viewer: snapshot failed", "error", err)
		v.flash("snapshot failed: " + err.Error())
		return
	}
	v.log.Info("viewer: snapshot saved", "path", name)
	v.flash("saved " + name)
}

func (v *viewer) yank() {
	if err := host.Yank(v.cells); err != nil {
		v.log.Debug("viewer: yank failed", "error", err)
		v.flash("yank failed: " + err.Error())
		return
	}
	v.flash("copied to clipboard")
}

func (v *viewer) flash(msg string) {
	v.notice = msg
	v.noticeUntil = time.Now().Add(noticeDuration)
}

// present composites video, overlay and status line, then shows the frame
func (v *viewer) present(now time.Time) {
	v.screen.Clear()
	v.drawVideo()
	if v.cells != nil {
		v.cells.Composite(v.screen)
	}
	v.drawStatus(now)
	v.screen.Show()
	v.sess.Presented(now)
}

// drawVideo paints the current frame as cell backgrounds, dimmed by the video opacity
func (v *viewer) drawVideo() {
	style := v.sess.Video.Style()
	if !style.Visible || style.Opacity <= 0 || v.cells == nil {
		return
	}
	frame := v.sess.Video.Frame()
	vp := v.cells.Viewport()
	if frame == nil || vp.Empty() {
		return
	}

	if v.videoBuf == nil || v.videoBuf.Rect.Dx() != vp.Dx() || v.videoBuf.Rect.Dy() != vp.Dy() {
		v.videoBuf = image.NewRGBA(image.Rect(0, 0, vp.Dx(), vp.Dy()))
	}
	draw.NearestNeighbor.Scale(v.videoBuf, v.videoBuf.Rect, frame, frame.Bounds(), draw.Src, nil)

	a := min(1, style.Opacity)
	for y := 0; y < vp.Dy(); y++ {
		for x := 0; x < vp.Dx(); x++ {
			c := v.videoBuf.RGBAAt(x, y)
			bg := tcell.NewRGBColor(int32(float64(c.R)*a), int32(float64(c.G)*a), int32(float64(c.B)*a))
			v.screen.SetContent(vp.Min.X+x, vp.Min.Y+y, ' ', nil, tcell.StyleDefault.Background(bg))
		}
	}
}

func (v *viewer) drawStatus(now time.Time) {
	line := v.sess.StatusLine()
	if v.notice != "" && now.Before(v.noticeUntil) {
		line = v.notice
	}
	style := tcell.StyleDefault.Foreground(tcell.ColorSilver)
	y := v.screenH - 1
	x := 0
	for _, r := range line {
		if x >= v.screenW {
			break
		}
		v.screen.SetContent(x, y, r, nil, style)
		x++
	}
}
