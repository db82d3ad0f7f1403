package knob

import "math"

// DefaultDragFactor converts vertical pointer travel into degrees. Negative so
// that an upward drag (decreasing Y) increases the angle.
const DefaultDragFactor = -1.0

// DefaultAngleOffset aligns atan2's zero (pointing right) with the knob's
// visual "up".
const DefaultAngleOffset = 90.0

// Gate says when a mode needs document listeners.
type Gate int

const (
	// GateDrag holds listeners from pointer down until pointer up.
	GateDrag Gate = iota
	// GateFocus holds listeners for as long as the knob has focus.
	GateFocus
)

// Gesture is the read-only view a Mode gets of the knob for one event.
type Gesture struct {
	Config    Config
	Angle     float64
	Value     float64
	Anchor    Point
	HasAnchor bool
	Center    Point
}

// Mode turns pointer input into angles. Implementations are stateless; any
// per-drag bookkeeping lives in the anchor owned by the knob.
type Mode interface {
	Name() string
	Gate() Gate
	// Begin returns the anchor to record when a drag starts, if the mode
	// tracks one.
	Begin(ev PointerEvent) (Point, bool)
	// Next returns the angle to apply for a move and the anchor to keep for
	// the following event. ok is false when the event should not change the
	// knob.
	Next(g Gesture, ev PointerEvent) (angle float64, anchor Point, ok bool)
}

// RelativeDrag rotates by the frame-to-frame vertical pointer delta.
type RelativeDrag struct {
	Factor float64
}

func NewRelativeDrag() RelativeDrag { return RelativeDrag{Factor: DefaultDragFactor} }

func (RelativeDrag) Name() string { return "relative" }
func (RelativeDrag) Gate() Gate   { return GateDrag }

func (RelativeDrag) Begin(ev PointerEvent) (Point, bool) {
	return ev.Point(), true
}

func (m RelativeDrag) Next(g Gesture, ev PointerEvent) (float64, Point, bool) {
	if !g.HasAnchor {
		return 0, ev.Point(), false
	}
	deltaY := ev.Y - g.Anchor.Y
	return g.Angle + deltaY*m.Factor, ev.Point(), true
}

// AbsoluteAngle points the knob at the pointer, measured around the center of
// the knob's bounding box.
type AbsoluteAngle struct {
	Offset float64
}

func NewAbsoluteAngle() AbsoluteAngle { return AbsoluteAngle{Offset: DefaultAngleOffset} }

func (AbsoluteAngle) Name() string { return "absolute" }
func (AbsoluteAngle) Gate() Gate   { return GateDrag }

func (AbsoluteAngle) Begin(PointerEvent) (Point, bool) {
	return Point{}, false
}

func (m AbsoluteAngle) Next(g Gesture, ev PointerEvent) (float64, Point, bool) {
	dx, dy := ev.X-g.Center.X, ev.Y-g.Center.Y
	if dx == 0 && dy == 0 {
		return 0, Point{}, false
	}
	angle := math.Atan2(dy, dx)*180/math.Pi + m.Offset
	mid := (g.Config.MinAngle + g.Config.MaxAngle) / 2
	return wrapAround(angle, mid), Point{}, true
}

// wrapAround folds a into the half-open window (mid-180, mid+180].
func wrapAround(a, mid float64) float64 {
	d := math.Mod(a-mid, 360)
	if d <= -180 {
		d += 360
	} else if d > 180 {
		d -= 360
	}
	return mid + d
}

// FocusStep steps the value by one Step per move while the knob is focused and
// the primary button is held, in the direction of vertical travel.
type FocusStep struct{}

func (FocusStep) Name() string { return "focus" }
func (FocusStep) Gate() Gate   { return GateFocus }

func (FocusStep) Begin(ev PointerEvent) (Point, bool) {
	return ev.Point(), true
}

func (FocusStep) Next(g Gesture, ev PointerEvent) (float64, Point, bool) {
	if !g.HasAnchor {
		return 0, ev.Point(), false
	}
	movementY := ev.Y - g.Anchor.Y
	if movementY == 0 || g.Config.Step <= 0 {
		return 0, ev.Point(), false
	}
	next := g.Value - sign(movementY)*g.Config.Step
	return g.Config.ValueToAngle(Clamp(next, g.Config.MinValue, g.Config.MaxValue)), ev.Point(), true
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// ModeByName returns the built-in mode registered under name.
func ModeByName(name string) (Mode, bool) {
	switch name {
	case "", "relative":
		return NewRelativeDrag(), true
	case "absolute":
		return NewAbsoluteAngle(), true
	case "focus":
		return FocusStep{}, true
	}
	return nil, false
}

// ModeNames lists the built-in mode names.
func ModeNames() []string {
	return []string{"relative", "absolute", "focus"}
}
