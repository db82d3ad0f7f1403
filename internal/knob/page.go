package knob

import (
	"errors"
	"fmt"
)

var ErrDuplicateKnob = errors.New("knob: duplicate id on page")

// Page is a set of knobs sharing one Document, with at most one focused.
// Pointer presses are routed by hit-testing knob bounds.
type Page struct {
	doc   *Document
	ids   []string
	knobs []*Knob
	focus int
}

func NewPage(doc *Document) *Page {
	if doc == nil {
		doc = NewDocument()
	}
	return &Page{doc: doc, focus: -1}
}

// Document returns the page's shared document.
func (p *Page) Document() *Document { return p.doc }

// Add appends k under id. k must have been created on the page's Document.
func (p *Page) Add(id string, k *Knob) error {
	if _, ok := p.index(id); ok {
		return fmt.Errorf("%w: %q", ErrDuplicateKnob, id)
	}
	p.ids = append(p.ids, id)
	p.knobs = append(p.knobs, k)
	return nil
}

func (p *Page) index(id string) (int, bool) {
	for i, have := range p.ids {
		if have == id {
			return i, true
		}
	}
	return -1, false
}

// Knob returns the knob registered under id.
func (p *Page) Knob(id string) (*Knob, bool) {
	i, ok := p.index(id)
	if !ok {
		return nil, false
	}
	return p.knobs[i], true
}

// IDs returns the knob ids in insertion order.
func (p *Page) IDs() []string {
	return append([]string(nil), p.ids...)
}

func (p *Page) Len() int { return len(p.knobs) }

// At returns the i-th knob and its id.
func (p *Page) At(i int) (string, *Knob) {
	return p.ids[i], p.knobs[i]
}

func (p *Page) Mount() {
	for _, k := range p.knobs {
		k.Mount()
	}
}

func (p *Page) Unmount() {
	for _, k := range p.knobs {
		k.Unmount()
	}
	p.focus = -1
}

// Focused returns the id of the focused knob, or "" when none is.
func (p *Page) Focused() string {
	if p.focus < 0 {
		return ""
	}
	return p.ids[p.focus]
}

// Focus moves focus to id, blurring the previous holder.
func (p *Page) Focus(id string) bool {
	i, ok := p.index(id)
	if !ok {
		return false
	}
	p.focusAt(i)
	return true
}

func (p *Page) focusAt(i int) {
	if p.focus == i {
		return
	}
	if p.focus >= 0 {
		p.knobs[p.focus].Blur()
	}
	p.focus = i
	if i >= 0 {
		p.knobs[i].Focus()
	}
}

// Blur clears focus.
func (p *Page) Blur() { p.focusAt(-1) }

// FocusNext cycles focus forward, like Tab.
func (p *Page) FocusNext() {
	if len(p.knobs) == 0 {
		return
	}
	p.focusAt((p.focus + 1) % len(p.knobs))
}

// FocusPrev cycles focus backward, like Shift+Tab.
func (p *Page) FocusPrev() {
	if len(p.knobs) == 0 {
		return
	}
	i := p.focus - 1
	if i < 0 {
		i = len(p.knobs) - 1
	}
	p.focusAt(i)
}

// HitTest returns the index of the first knob whose bounds contain pt.
func (p *Page) HitTest(pt Point) (int, bool) {
	for i, k := range p.knobs {
		if k.Bounds().Contains(pt) {
			return i, true
		}
	}
	return -1, false
}

// PointerDown delivers a press to the knob under the pointer. A primary
// press moves page focus to the knob hit, or clears it when nothing is hit,
// so a previously focused knob stops listening. It reports the id hit.
func (p *Page) PointerDown(ev PointerEvent) (string, bool) {
	i, ok := p.HitTest(ev.Point())
	if !ok {
		if ev.Primary() {
			p.Blur()
		}
		return "", false
	}
	if ev.Primary() {
		p.focusAt(i)
	}
	p.knobs[i].PointerDown(ev)
	return p.ids[i], true
}

// PointerMove dispatches a move on the document.
func (p *Page) PointerMove(ev PointerEvent) {
	p.doc.Dispatch(PointerMove, ev)
}

// PointerUp dispatches a release on the document.
func (p *Page) PointerUp(ev PointerEvent) {
	p.doc.Dispatch(PointerUp, ev)
}

// KeyDown sends key to the focused knob.
func (p *Page) KeyDown(key string) bool {
	if p.focus < 0 {
		return false
	}
	return p.knobs[p.focus].KeyDown(key)
}
