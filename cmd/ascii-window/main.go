package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/lixenwraith/ascii-overlay/host"
	"github.com/lixenwraith/ascii-overlay/surface"
)

const (
	logFileName  = "ascii-window.log"
	windowWidth  = 960
	windowHeight = 720
	windowTitle  = "ASCII Overlay"
)

func main() {
	var f host.Flags
	f.Register(flag.CommandLine, logFileName)
	flag.Usage = printUsage
	flag.Parse()
	f.Visit(flag.CommandLine)

	file, err := f.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if logFile := host.SetupLogging(file.App.Debug, logFileName); logFile != nil {
		defer logFile.Close()
	}

	w := &window{log: slog.Default()}
	sess, err := host.NewSession(host.SessionConfig{
		File:      file,
		Overrides: f.Overrides(),
		Surfaces: func(id string) surface.Surface {
			w.canvas = surface.NewCanvas(id)
			w.text = surface.NewText(id)
			return surface.NewMulti(id, w.canvas, w.text)
		},
		Width:  windowWidth,
		Height: windowHeight,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer sess.Close()
	w.sess = sess

	ebiten.SetWindowSize(windowWidth, windowHeight)
	ebiten.SetWindowTitle(windowTitle)
	ebiten.SetWindowResizable(true)
	ebiten.SetTPS(file.App.FPS)

	if err := ebiten.RunGame(w); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: ascii-window [options]")
	fmt.Fprintln(os.Stderr, "\nOptions:")
	flag.PrintDefaults()
	fmt.Fprintln(os.Stderr, "\nControls: the [keys] bindings of ascii-overlay; Esc closes the window")
}
