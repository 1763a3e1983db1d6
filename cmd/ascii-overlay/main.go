package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/debug"

	"golang.org/x/term"

	"github.com/lixenwraith/ascii-overlay/host"
)

const logFileName = "ascii-overlay.log"

func main() {
	// Panic Recovery: report main goroutine panics with a stack trace
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n\x1b[31mASCII-OVERLAY CRASHED: %v\x1b[0m\n", r)
			fmt.Fprintf(os.Stderr, "Stack Trace:\n%s\n", debug.Stack())
			os.Exit(1)
		}
	}()

	var (
		f      host.Flags
		output string
		frames int
	)
	f.Register(flag.CommandLine, logFileName)
	flag.StringVar(&output, "o", "", "Write a snapshot to this path ('-' for stdout) and exit")
	flag.IntVar(&frames, "frames", 30, "Frames to render before a snapshot")
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

	overrides := f.Overrides()

	// Without a terminal on stdout there is nothing to view interactively
	headless := output != "" || !term.IsTerminal(int(os.Stdout.Fd()))
	if headless {
		out := output
		if out == "" {
			out = "-"
		}
		err = runSnapshot(file, overrides, out, frames)
	} else {
		err = runViewer(file, overrides)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: ascii-overlay [options]")
	fmt.Fprintln(os.Stderr, "\nSupported sources: camera, synthetic, PNG, JPEG, GIF, BMP, TIFF, WebP")
	fmt.Fprintln(os.Stderr, "\nOptions:")
	flag.PrintDefaults()
	fmt.Fprintln(os.Stderr, "\nControls (defaults, rebind under [keys]):")
	fmt.Fprintln(os.Stderr, "  q, Esc, Ctrl+C    Quit")
	fmt.Fprintln(os.Stderr, "  i                 Invert ramp")
	fmt.Fprintln(os.Stderr, "  v                 Toggle video")
	fmt.Fprintln(os.Stderr, "  +, =              Finer grid")
	fmt.Fprintln(os.Stderr, "  -                 Coarser grid")
	fmt.Fprintln(os.Stderr, "  ], [              Font size up/down")
	fmt.Fprintln(os.Stderr, "  c                 Start camera")
	fmt.Fprintln(os.Stderr, "  s                 Save text snapshot")
	fmt.Fprintln(os.Stderr, "  m                 Toggle metrics")
	fmt.Fprintln(os.Stderr, "  y                 Copy glyphs to clipboard")
}
