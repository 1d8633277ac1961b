package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// When glamour cannot start, the markdown is returned unchanged.
func NewRenderer(width int) func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return Plain
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// Plain is the renderer used when output is not a terminal.
func Plain(markdown string) (string, error) {
	return markdown + "\n", nil
}
