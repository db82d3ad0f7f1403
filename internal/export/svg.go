package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/knobs/internal/viz"
)

// CanvasToSVG converts a braille canvas to SVG, one circle per lit dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64, fg string) string {
	if canvas == nil {
		return ""
	}
	w, h := canvas.Dots()
	width := float64(w) * scale
	height := float64(h) * scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="%s">
`, width, height, width, height, fg)

	dotRadius := scale * 0.4
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// KnobStyle is the vector look of one knob type.
type KnobStyle struct {
	Cap       string
	Ring      string
	Indicator string
}

var KnobStyles = map[string]KnobStyle{
	"1": {Cap: "#c8ccd0", Ring: "#f5f7fa", Indicator: "#1a1a1a"},
	"2": {Cap: "#1c1c1c", Ring: "#3a3a3a", Indicator: "#f0f0f0"},
	"3": {Cap: "#6b4a2b", Ring: "#a27b4f", Indicator: "#f3e3c3"},
}

// KnobToSVG draws a knob of the given pixel size rotated to angle degrees
// (clockwise from 12 o'clock). Travel end stops are marked at minAngle and
// maxAngle.
func KnobToSVG(knobType string, size int, angle, minAngle, maxAngle float64) string {
	style, ok := KnobStyles[knobType]
	if !ok {
		style = KnobStyles["2"]
	}
	s := float64(size)
	c := s / 2
	r := s * 0.4

	point := func(radius, deg float64) (float64, float64) {
		rad := deg * math.Pi / 180
		return c + radius*math.Sin(rad), c - radius*math.Cos(rad)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, size, size, size, size)

	for _, a := range []float64{minAngle, maxAngle} {
		x0, y0 := point(r*1.08, a)
		x1, y1 := point(r*1.2, a)
		fmt.Fprintf(&sb, "<line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\" stroke=\"#666\" stroke-width=\"%.1f\"/>\n", x0, y0, x1, y1, s*0.015+0.5)
	}

	fmt.Fprintf(&sb, "<g transform=\"rotate(%.2f %.1f %.1f)\">\n", angle, c, c)
	fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill=\"%s\" stroke=\"%s\" stroke-width=\"%.1f\"/>\n", c, c, r, style.Cap, style.Ring, s*0.02+0.5)
	if knobType == "3" {
		for a := 0.0; a < 360; a += 30 {
			x0, y0 := point(r*0.85, a)
			x1, y1 := point(r, a)
			fmt.Fprintf(&sb, "<line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\" stroke=\"%s\"/>\n", x0, y0, x1, y1, style.Ring)
		}
	}
	fmt.Fprintf(&sb, "<line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\" stroke=\"%s\" stroke-width=\"%.1f\" stroke-linecap=\"round\"/>\n",
		c, c-r*0.25, c, c-r*0.9, style.Indicator, s*0.03+0.5)
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// SeriesToSVG plots a value history against time as a polyline.
func SeriesToSVG(times, values []float64, width, height int, strokeColor string) string {
	if len(values) < 2 || len(times) != len(values) {
		return ""
	}

	minX, maxX := times[0], times[0]
	minY, maxY := values[0], values[0]
	for i := range values {
		minX = math.Min(minX, times[i])
		maxX = math.Max(maxX, times[i])
		minY = math.Min(minY, values[i])
		maxY = math.Max(maxY, values[i])
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor)

	for i := range values {
		x := (times[i] - minX) / rangeX * float64(width)
		y := float64(height) - (values[i]-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
