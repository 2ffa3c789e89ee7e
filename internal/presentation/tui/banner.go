package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	" _                    __ _",
	"| |    ___   __ _ _ _/ _| |_____ __ __",
	"| |__ / _ \\ / _` | ' \\  _| / _ \\ V  V /",
	"|____|\\___/ \\__,_|_||_|_| |_\\___/\\_/\\_/",
}

var bannerColors = []string{"#34d399", "#2dd4bf", "#22d3ee", "#38bdf8"}

// PrintBanner writes the loanflow banner and version to w. Colors degrade to
// the profile of w, so redirected output stays plain.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(out.Color(bannerColors[i])))
	}
	fmt.Fprintln(w, out.String("  asset finance, one question at a time  "+version).Faint())
	fmt.Fprintln(w)
}
