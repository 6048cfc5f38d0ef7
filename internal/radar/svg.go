package radar

import (
	"fmt"
	"html"
	"html/template"
	"math"
	"strings"

	"halo-cli/internal/present"
)

const defaultSVGSize = 420

// SVGFactory builds inline SVG radar charts.
type SVGFactory struct {
	// Size is the width and height of the square viewBox.
	Size int
}

func (f SVGFactory) NewChart(s present.ChartSeries) (present.Chart, error) {
	size := f.Size
	if size <= 0 {
		size = defaultSVGSize
	}
	return &SVG{markup: paintSVG(s, float64(size))}, nil
}

// SVG is a painted inline SVG chart. It renders nothing once destroyed.
type SVG struct {
	markup    string
	destroyed bool
}

func (c *SVG) Destroy() {
	c.destroyed = true
	c.markup = ""
}

func (c *SVG) Destroyed() bool { return c.destroyed }

// HTML returns the chart markup. Labels are escaped while painting.
func (c *SVG) HTML() template.HTML {
	if c == nil || c.destroyed {
		return ""
	}
	return template.HTML(c.markup)
}

func paintSVG(s present.ChartSeries, size float64) string {
	cx, cy := size/2, size/2
	// Leave room around the outer ring for multi-line labels.
	radius := size * 0.32
	span := s.Max - s.Min
	if span <= 0 {
		span = present.ScaleMax - present.ScaleMin
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg class="halo-chart" xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" role="img" aria-label="Divine H.A.L.O. radar">`, int(size), int(size))

	// Ring 0 is hidden; the outer ring is drawn thicker.
	for level := 1; level <= int(s.Max); level++ {
		width := 2
		if level == int(s.Max) {
			width = 4
		}
		fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="#ffbf00" stroke-width="%d"/>`,
			cx, cy, radius*float64(level)/span, width)
	}

	n := len(s.Values)
	if n > 0 {
		pts := make([]string, 0, n)
		for i, v := range s.Values {
			v = math.Max(s.Min, math.Min(s.Max, v))
			r := radius * (v - s.Min) / span
			theta := axisAngle(i, n)
			pts = append(pts, fmt.Sprintf("%.1f,%.1f", cx+r*math.Cos(theta), cy+r*math.Sin(theta)))
		}
		fmt.Fprintf(&b, `<polygon points="%s" fill="rgba(255,191,0,0.25)" stroke="#ffbf00" stroke-width="2" stroke-linejoin="round"/>`,
			strings.Join(pts, " "))
	}

	for i, lines := range s.Labels {
		theta := axisAngle(i, len(s.Labels))
		lx := cx + (radius+18)*math.Cos(theta)
		ly := cy + (radius+18)*math.Sin(theta)
		anchor := "middle"
		switch c := math.Cos(theta); {
		case c > 0.3:
			anchor = "start"
		case c < -0.3:
			anchor = "end"
		}
		// Shift multi-line labels up so the block is centred on the anchor point.
		ly -= float64(len(lines)-1) * 7
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" text-anchor="%s" fill="#1a1e36" font-size="13" font-weight="600">`, lx, ly, anchor)
		for j, ln := range lines {
			dy := "0"
			if j > 0 {
				dy = "1.1em"
			}
			fmt.Fprintf(&b, `<tspan x="%.1f" dy="%s">%s</tspan>`, lx, dy, html.EscapeString(ln))
		}
		b.WriteString(`</text>`)
	}

	b.WriteString(`</svg>`)
	return b.String()
}
