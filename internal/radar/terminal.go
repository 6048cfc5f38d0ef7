package radar

import (
	"math"
	"strings"

	"halo-cli/internal/present"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// Terminal sizes below these are clamped up; the chart needs room for three rings.
const (
	minTermWidth  = 24
	minTermHeight = 9
	// labelRoom is the number of columns reserved on each side for axis labels.
	labelRoom = 14
)

var (
	colorHalo  = lipgloss.AdaptiveColor{Light: "#b38600", Dark: "#ffbf00"}
	colorLabel = lipgloss.AdaptiveColor{Light: "#1a1e36", Dark: "252"}
	colorRing  = lipgloss.AdaptiveColor{Light: "250", Dark: "239"}
)

type cellKind uint8

const (
	cellEmpty cellKind = iota
	cellRing
	cellOuterRing
	cellEdge
	cellPoint
	cellLabel
	// cellWide marks the trailing column of a double-width rune.
	cellWide
)

// TerminalFactory builds terminal radar charts of a fixed size.
type TerminalFactory struct {
	Width  int
	Height int
	// Plain disables styling (tests, NO_COLOR pipes).
	Plain bool
}

func (f TerminalFactory) NewChart(s present.ChartSeries) (present.Chart, error) {
	w, h := f.Width, f.Height
	if w < minTermWidth {
		w = minTermWidth
	}
	if h < minTermHeight {
		h = minTermHeight
	}
	c := newCanvas(w, h)
	c.paint(s)
	return &Terminal{out: c.render(f.Plain), width: w, height: h}, nil
}

// Terminal is a painted radar chart. It renders nothing once destroyed.
type Terminal struct {
	out       string
	width     int
	height    int
	destroyed bool
}

func (t *Terminal) Destroy() {
	t.destroyed = true
	t.out = ""
}

func (t *Terminal) Destroyed() bool { return t.destroyed }

func (t *Terminal) String() string {
	if t == nil || t.destroyed {
		return ""
	}
	return t.out
}

// Size returns the painted width and height in cells.
func (t *Terminal) Size() (int, int) { return t.width, t.height }

type canvas struct {
	w, h  int
	runes [][]rune
	kinds [][]cellKind
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h}
	c.runes = make([][]rune, h)
	c.kinds = make([][]cellKind, h)
	for y := 0; y < h; y++ {
		c.runes[y] = []rune(strings.Repeat(" ", w))
		c.kinds[y] = make([]cellKind, w)
	}
	return c
}

func (c *canvas) set(x, y int, r rune, k cellKind) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	// Labels win over geometry; geometry only overwrites lower-priority geometry.
	if cur := c.kinds[y][x]; cur == cellLabel || cur == cellWide || (cur > k && k != cellLabel) {
		return
	}
	c.runes[y][x] = r
	c.kinds[y][x] = k
}

// geometry returns the centre and the ring radius in rows. Terminal cells are
// roughly twice as tall as they are wide, so x offsets are doubled.
func (c *canvas) geometry() (cx, cy, radius float64) {
	cx = float64(c.w-1) / 2
	cy = float64(c.h-1) / 2
	byHeight := float64(c.h)/2 - 2
	byWidth := (float64(c.w)/2 - labelRoom) / 2
	radius = math.Min(byHeight, byWidth)
	if radius < 2 {
		radius = 2
	}
	return cx, cy, radius
}

func (c *canvas) point(cx, cy, r, theta float64) (int, int) {
	x := cx + 2*r*math.Cos(theta)
	y := cy + r*math.Sin(theta)
	return int(math.Round(x)), int(math.Round(y))
}

func axisAngle(i, n int) float64 {
	return -math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
}

func (c *canvas) paint(s present.ChartSeries) {
	cx, cy, radius := c.geometry()
	span := s.Max - s.Min
	if span <= 0 {
		span = present.ScaleMax - present.ScaleMin
	}

	// Rings for 1..max; ring 0 is the centre and stays hidden.
	for level := 1; level <= int(s.Max); level++ {
		r := radius * float64(level) / span
		kind, glyph := cellRing, '·'
		if level == int(s.Max) {
			kind, glyph = cellOuterRing, '•'
		}
		steps := int(2*math.Pi*r*2) + 12
		for i := 0; i < steps; i++ {
			theta := 2 * math.Pi * float64(i) / float64(steps)
			x, y := c.point(cx, cy, r, theta)
			c.set(x, y, glyph, kind)
		}
	}

	n := len(s.Values)
	if n == 0 {
		c.labels(s, cx, cy, radius)
		return
	}

	type pt struct{ x, y int }
	pts := make([]pt, n)
	for i, v := range s.Values {
		if v < s.Min {
			v = s.Min
		}
		if v > s.Max {
			v = s.Max
		}
		x, y := c.point(cx, cy, radius*(v-s.Min)/span, axisAngle(i, n))
		pts[i] = pt{x, y}
	}
	if n > 1 {
		for i := range pts {
			a, b := pts[i], pts[(i+1)%n]
			c.line(a.x, a.y, b.x, b.y)
		}
	}
	for _, p := range pts {
		c.set(p.x, p.y, '●', cellPoint)
	}
	c.labels(s, cx, cy, radius)
}

// line draws an edge with Bresenham's algorithm.
func (c *canvas) line(x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		c.set(x0, y0, '*', cellEdge)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (c *canvas) labels(s present.ChartSeries, cx, cy, radius float64) {
	n := len(s.Labels)
	for i, lines := range s.Labels {
		theta := axisAngle(i, n)
		ax, ay := c.point(cx, cy, radius+1, theta)
		cos, sin := math.Cos(theta), math.Sin(theta)

		var top int
		switch {
		case sin < -0.3:
			top = ay - (len(lines) - 1)
		case sin > 0.3:
			top = ay
		default:
			top = ay - (len(lines)-1)/2
		}
		for j, ln := range lines {
			lw := xansi.StringWidth(ln)
			left := ax - lw/2
			switch {
			case cos > 0.3:
				left = ax + 1
			case cos < -0.3:
				left = ax - lw
			}
			if left < 0 {
				left = 0
			}
			if room := c.w - left; lw > room {
				if room <= 1 {
					ln = ""
				} else {
					ln = xansi.Cut(ln, 0, room-1) + "…"
				}
			}
			c.text(left, top+j, ln)
		}
	}
}

func (c *canvas) text(x, y int, s string) {
	for _, r := range s {
		rw := xansi.StringWidth(string(r))
		if rw == 0 {
			continue
		}
		if x+rw > c.w {
			return
		}
		if y < 0 || y >= c.h || x < 0 || c.kinds[y][x] == cellLabel || c.kinds[y][x] == cellWide {
			x += rw
			continue
		}
		c.set(x, y, r, cellLabel)
		if rw == 2 {
			c.set(x+1, y, 0, cellWide)
		}
		x += rw
	}
}

func (c *canvas) render(plain bool) string {
	styles := map[cellKind]lipgloss.Style{
		cellRing:      lipgloss.NewStyle().Foreground(colorRing),
		cellOuterRing: lipgloss.NewStyle().Foreground(colorHalo),
		cellEdge:      lipgloss.NewStyle().Foreground(colorHalo),
		cellPoint:     lipgloss.NewStyle().Foreground(colorHalo).Bold(true),
		cellLabel:     lipgloss.NewStyle().Foreground(colorLabel).Bold(true),
	}

	rows := make([]string, c.h)
	for y := 0; y < c.h; y++ {
		var b strings.Builder
		var run []rune
		runKind := cellEmpty
		flush := func() {
			if len(run) == 0 {
				return
			}
			seg := string(run)
			if st, ok := styles[runKind]; ok && !plain {
				seg = st.Render(seg)
			}
			b.WriteString(seg)
			run = run[:0]
		}
		for x := 0; x < c.w; x++ {
			k := c.kinds[y][x]
			if k == cellWide {
				continue
			}
			if k != runKind {
				flush()
				runKind = k
			}
			run = append(run, c.runes[y][x])
		}
		flush()
		rows[y] = b.String()
	}
	return strings.Join(rows, "\n")
}
