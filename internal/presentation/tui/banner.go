package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the flowpath banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"   __ _                         _   _     ", "#67e8f9"},
		{"  / _| | _____      ___ __   __ _| |_| |__  ", "#22d3ee"},
		{" | |_| |/ _ \\ \\ /\\ / / '_ \\ / _` | __| '_ \\ ", "#06b6d4"},
		{" |  _| | (_) \\ V  V /| |_) | (_| | |_| | | |", "#0891b2"},
		{" |_| |_|\\___/ \\_/\\_/ | .__/ \\__,_|\\__|_| |_|", "#0e7490"},
		{"                     |_|                    ", "#155e75"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Status colors a one-word verdict: green when ok, red otherwise.
func Status(text string, ok bool) string {
	p := termenv.ColorProfile()
	color := "#22c55e"
	if !ok {
		color = "#ef4444"
	}
	return termenv.String(text).Foreground(p.Color(color)).Bold().String()
}
