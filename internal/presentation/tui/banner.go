package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerRows = []struct {
	text  string
	color string
}{
	{`  ____            _____      _     `, "#22d3ee"},
	{` | __ ) _   _ ___|_   _|   _| |__  `, "#2dd4bf"},
	{` |  _ \| | | / __| | || | | | '_ \ `, "#34d399"},
	{` | |_) | |_| \__ \ | || |_| | |_) |`, "#4ade80"},
	{` |____/ \__,_|___/ |_| \__,_|_.__/ `, "#a3e635"},
}

// PrintBanner writes the BusTub ASCII banner to w.
// Colours follow p; termenv.Ascii prints plain text.
func PrintBanner(w io.Writer, p termenv.Profile) {
	fmt.Fprintln(w)
	for _, row := range bannerRows {
		fmt.Fprintln(w, p.String(row.text).Foreground(p.Color(row.color)))
	}
	fmt.Fprintln(w)
}

// WelcomeLines is the block shown while the transcript is empty.
func WelcomeLines() []string {
	return []string{
		"Welcome to BusTub Database Shell",
		`Type \help for available commands or \clear to reset the screen.`,
		"Version: WebAssembly Build",
	}
}
