package knob

// Phase is the pointer state of a knob.
type Phase int

const (
	Idle Phase = iota
	Dragging
)

func (p Phase) String() string {
	if p == Dragging {
		return "dragging"
	}
	return "idle"
}

// Keys honored while a knob has focus.
const (
	KeyArrowUp   = "ArrowUp"
	KeyArrowDown = "ArrowDown"
)

// Rect is the knob's bounding box in document space.
type Rect struct {
	X, Y, W, H float64
}

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// State is a read-only view of a knob's interaction state.
type State struct {
	Phase   Phase
	Angle   float64
	Value   float64
	Anchor  *Point
	Focused bool
	Mounted bool
}

// Knob is one rotary control: its Angle Model and its Input State Machine.
// A Knob is driven from a single goroutine, the one dispatching its
// Document's events.
type Knob struct {
	cfg       Config
	mode      Mode
	doc       *Document
	bounds    Rect
	observers []Observer

	cur     Snapshot
	phase   Phase
	anchor  *Point
	focused bool
	mounted bool

	releases []func()
}

// Option configures a Knob at construction.
type Option func(*Knob)

// WithObserver adds an observer notified on mount and every change.
func WithObserver(o Observer) Option {
	return func(k *Knob) { k.observers = append(k.observers, o) }
}

// WithBounds sets the initial bounding box used by absolute-angle mode.
func WithBounds(r Rect) Option {
	return func(k *Knob) { k.bounds = r }
}

// New validates cfg and seeds the knob from cfg.InitialValue. A nil mode
// selects RelativeDrag. The knob ignores input until Mount is called.
func New(cfg Config, mode Mode, doc *Document, opts ...Option) (*Knob, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if mode == nil {
		mode = NewRelativeDrag()
	}
	if doc == nil {
		doc = NewDocument()
	}
	k := &Knob{cfg: cfg, mode: mode, doc: doc}
	for _, opt := range opts {
		opt(k)
	}
	angle := cfg.ValueToAngle(cfg.InitialValue)
	k.cur = Snapshot{Angle: angle, Value: cfg.AngleToValue(angle)}
	return k, nil
}

// Config returns the knob's construction config.
func (k *Knob) Config() Config { return k.cfg }

// Mode returns the interaction mode.
func (k *Knob) Mode() Mode { return k.mode }

// Bounds returns the current bounding box.
func (k *Knob) Bounds() Rect { return k.bounds }

// SetBounds updates the bounding box after a layout change.
func (k *Knob) SetBounds(r Rect) { k.bounds = r }

// State returns a copy of the interaction state.
func (k *Knob) State() State {
	s := State{
		Phase:   k.phase,
		Angle:   k.cur.Angle,
		Value:   k.cur.Value,
		Focused: k.focused,
		Mounted: k.mounted,
	}
	if k.anchor != nil {
		a := *k.anchor
		s.Anchor = &a
	}
	return s
}

// Mount activates the knob and hands the initial state to observers.
func (k *Knob) Mount() {
	if k.mounted {
		return
	}
	k.mounted = true
	snap := k.cur
	for _, o := range k.observers {
		o.OnMount(snap)
	}
}

// Unmount ends any drag and releases every document listener the knob holds.
// Input after Unmount is ignored.
func (k *Knob) Unmount() {
	k.endDrag()
	k.release()
	k.focused = false
	k.mounted = false
}

// PointerDown starts a drag when the primary button is pressed on the
// control surface. Focus-gated modes also take focus, as a click on a
// focusable element does.
func (k *Knob) PointerDown(ev PointerEvent) {
	if !k.mounted || !ev.Primary() || k.phase == Dragging {
		return
	}
	if k.mode.Gate() == GateFocus && !k.focused {
		k.Focus()
	}
	k.beginDrag(ev)
	if k.mode.Gate() == GateDrag {
		k.acquire()
	}
}

// Focus gives the knob keyboard focus.
func (k *Knob) Focus() {
	if !k.mounted || k.focused {
		return
	}
	k.focused = true
	if k.mode.Gate() == GateFocus {
		k.acquire()
	}
}

// Blur removes focus and ends any drag in progress.
func (k *Knob) Blur() {
	if !k.focused {
		return
	}
	k.focused = false
	k.endDrag()
	k.release()
}

// Focused reports whether the knob has focus.
func (k *Knob) Focused() bool { return k.focused }

// KeyDown handles ArrowUp/ArrowDown while focused. It reports whether the key
// was consumed.
func (k *Knob) KeyDown(key string) bool {
	if !k.mounted || !k.focused {
		return false
	}
	switch key {
	case KeyArrowUp:
		k.ApplyValue(k.cur.Value + k.cfg.Step)
	case KeyArrowDown:
		k.ApplyValue(k.cur.Value - k.cfg.Step)
	default:
		return false
	}
	return true
}

func (k *Knob) onMove(ev PointerEvent) {
	if k.mode.Gate() == GateFocus && k.phase == Idle && ev.Primary() {
		// Focused with the button held counts as dragging.
		k.beginDrag(ev)
		return
	}
	if k.phase != Dragging {
		return
	}
	if k.mode.Gate() == GateFocus && !ev.Primary() {
		k.endDrag()
		return
	}
	g := Gesture{
		Config: k.cfg,
		Angle:  k.cur.Angle,
		Value:  k.cur.Value,
		Center: k.bounds.Center(),
	}
	if k.anchor != nil {
		g.Anchor, g.HasAnchor = *k.anchor, true
	}
	angle, anchor, ok := k.mode.Next(g, ev)
	if k.anchor != nil {
		*k.anchor = anchor
	}
	if ok {
		k.ApplyAngle(angle)
	}
}

func (k *Knob) onUp(PointerEvent) {
	k.endDrag()
	if k.mode.Gate() == GateDrag {
		k.release()
	}
}

func (k *Knob) beginDrag(ev PointerEvent) {
	k.phase = Dragging
	if p, ok := k.mode.Begin(ev); ok {
		k.anchor = &p
	}
}

func (k *Knob) endDrag() {
	k.phase = Idle
	k.anchor = nil
}

func (k *Knob) acquire() {
	if len(k.releases) > 0 {
		return
	}
	k.releases = append(k.releases,
		k.doc.Listen(PointerMove, k.onMove),
		k.doc.Listen(PointerUp, k.onUp),
	)
}

func (k *Knob) release() {
	for _, r := range k.releases {
		r()
	}
	k.releases = nil
}
