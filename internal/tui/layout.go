package tui

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// Fallback surface used when the terminal never reports its size.
const (
	fallbackWidth  = 80
	fallbackHeight = 24
)

// normalizePane forces s to be exactly width columns wide (ANSI-aware) and height
// lines tall, so lipgloss.JoinHorizontal produces stable split panes.
func normalizePane(s string, width, height int) string {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	lines := strings.Split(s, "\n")
	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}

	for i, ln := range lines {
		w := xansi.StringWidth(ln)
		if w > width {
			switch {
			case width <= 0:
				ln = ""
			case width == 1:
				ln = xansi.Cut(ln, 0, 1)
			default:
				ln = xansi.Cut(ln, 0, width-1) + "…"
			}
			w = xansi.StringWidth(ln)
		}
		if w < width {
			ln += strings.Repeat(" ", width-w)
		}
		lines[i] = ln
	}
	return strings.Join(lines, "\n")
}

// paneLayout splits the screen into the field list and the chart/summary pane.
type paneLayout struct {
	bodyHeight  int
	leftWidth   int
	rightWidth  int
	chartWidth  int
	chartHeight int
}

func computeLayout(width, height int) paneLayout {
	if width <= 0 {
		width = fallbackWidth
	}
	if height <= 0 {
		height = fallbackHeight
	}
	l := paneLayout{bodyHeight: height - 4}
	if l.bodyHeight < 8 {
		l.bodyHeight = 8
	}
	l.leftWidth = width * 45 / 100
	if l.leftWidth < 36 {
		l.leftWidth = 36
	}
	l.rightWidth = width - l.leftWidth - 2
	if l.rightWidth < 24 {
		l.rightWidth = 24
	}
	l.chartWidth = l.rightWidth
	l.chartHeight = l.bodyHeight * 3 / 5
	if l.chartHeight > 21 {
		l.chartHeight = 21
	}
	return l
}
