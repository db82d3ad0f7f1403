package viz

// Face draws a knob onto a braille canvas. Angles are degrees clockwise from
// 12 o'clock, the same convention the engine uses.
type Face struct {
	KnobType string
	MinAngle float64
	MaxAngle float64
}

// Draw renders the knob rotated to angle. The canvas should be square in
// dots (Height = Width/2 cells).
func (f Face) Draw(c *Canvas, angle float64) {
	w, h := c.Dots()
	cx, cy := w/2, h/2
	r := min(w, h)/2 - 2
	if r < 3 {
		r = 3
	}
	rf := float64(r)

	c.DrawCircle(cx, cy, r)
	switch f.KnobType {
	case "1":
		// chrome: double ring
		c.DrawCircle(cx, cy, r*2/3)
	case "3":
		// vintage: knurled skirt rotating with the cap
		for a := 0.0; a < 360; a += 30 {
			c.DrawRay(cx, cy, rf-2, rf, angle+a)
		}
	}

	// travel scale and end stops sit outside the cap
	c.DrawArc(cx, cy, rf+1, f.MinAngle, f.MaxAngle, 20)
	c.DrawRay(cx, cy, rf+1, rf+2, f.MinAngle)
	c.DrawRay(cx, cy, rf+1, rf+2, f.MaxAngle)

	c.DrawRay(cx, cy, rf*0.25, rf*0.9, angle)
}

// Render returns the knob as canvas lines.
func (f Face) Render(cells int, angle float64) []string {
	c := NewCanvas(cells, cells/2)
	f.Draw(c, angle)
	return c.Lines()
}
