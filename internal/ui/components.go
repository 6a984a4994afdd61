package ui

import (
	"fmt"
	"strings"
)

// renderPlayhead draws the loop as a line with a marker at pos in [0, 1).
func renderPlayhead(pos float64, width int, playing bool) string {
	if width < 10 {
		width = 10
	}
	pos = max(0, min(pos, 1))
	at := min(int(pos*float64(width)), width-1)

	mark := "│"
	if !playing {
		mark = "┆"
	}
	return strings.Repeat("─", at) + mark + strings.Repeat("─", width-at-1)
}

func renderVolumePercent(vol float64) string {
	return fmt.Sprintf("vol %d%%", int(vol*100+0.5))
}

func spaces(n int) string {
	return strings.Repeat(" ", max(n, 0))
}
