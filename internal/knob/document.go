package knob

// EventKind names a document-level pointer event.
type EventKind int

const (
	PointerMove EventKind = iota
	PointerUp
)

func (k EventKind) String() string {
	switch k {
	case PointerMove:
		return "pointer_move"
	case PointerUp:
		return "pointer_up"
	}
	return "unknown"
}

// ButtonPrimary is the primary-button bit of PointerEvent.Buttons.
const ButtonPrimary = 1

// Point is a pointer coordinate in document space.
type Point struct {
	X, Y float64
}

// PointerEvent is a raw pointer sample. Buttons is a bitmask of held buttons.
type PointerEvent struct {
	X, Y    float64
	Buttons int
}

// Primary reports whether the primary button is held.
func (e PointerEvent) Primary() bool {
	return e.Buttons&ButtonPrimary != 0
}

// Point returns the event position.
func (e PointerEvent) Point() Point {
	return Point{X: e.X, Y: e.Y}
}

type listener struct {
	id int
	fn func(PointerEvent)
}

// Document is the top-level event target. Knobs register move/up listeners on
// it only while they need them and must release every registration they hold.
// A Document is not safe for concurrent use; events are dispatched on one
// goroutine in order.
type Document struct {
	nextID    int
	listeners map[EventKind][]listener
}

func NewDocument() *Document {
	return &Document{listeners: make(map[EventKind][]listener)}
}

// Listen registers fn for kind and returns its release function. Calling the
// release function more than once is a no-op.
func (d *Document) Listen(kind EventKind, fn func(PointerEvent)) func() {
	d.nextID++
	id := d.nextID
	d.listeners[kind] = append(d.listeners[kind], listener{id: id, fn: fn})

	released := false
	return func() {
		if released {
			return
		}
		released = true
		ls := d.listeners[kind]
		for i, l := range ls {
			if l.id == id {
				d.listeners[kind] = append(ls[:i:i], ls[i+1:]...)
				break
			}
		}
		if len(d.listeners[kind]) == 0 {
			delete(d.listeners, kind)
		}
	}
}

// Dispatch delivers ev to the listeners registered for kind, in registration
// order. Listeners released during dispatch still see the current event.
func (d *Document) Dispatch(kind EventKind, ev PointerEvent) {
	ls := append([]listener(nil), d.listeners[kind]...)
	for _, l := range ls {
		l.fn(ev)
	}
}

// Listeners returns the number of live registrations across all kinds.
func (d *Document) Listeners() int {
	n := 0
	for _, ls := range d.listeners {
		n += len(ls)
	}
	return n
}
