package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the easel banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	// Warm paint-like gradient.
	lines := []struct {
		text  string
		color string
	}{
		{"   ___  ____ _ ___  ___ | |", "#f59e0b"},
		{"  / _ \\/ _` / __|/ _ \\| |", "#f97316"},
		{" |  __/ (_| \\__ \\  __/| |", "#ef4444"},
		{"  \\___|\\__,_|___/\\___||_|", "#ec4899"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  canvas editor "+version).Faint())
	fmt.Fprintln(w)
}
