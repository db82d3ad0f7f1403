package knob

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Page", func() {
	var (
		page              *Page
		drag, angle, step *Knob
	)

	add := func(id string, mode Mode, r Rect) *Knob {
		k, err := New(DefaultConfig(), mode, page.Document(), WithBounds(r))
		Expect(err).NotTo(HaveOccurred())
		Expect(page.Add(id, k)).To(Succeed())
		return k
	}

	BeforeEach(func() {
		page = NewPage(nil)
		drag = add("drag", NewRelativeDrag(), Rect{X: 0, Y: 0, W: 10, H: 10})
		angle = add("angle", NewAbsoluteAngle(), Rect{X: 20, Y: 0, W: 10, H: 10})
		step = add("step", FocusStep{}, Rect{X: 40, Y: 0, W: 10, H: 10})
		page.Mount()
	})

	It("rejects duplicate ids", func() {
		k, _ := New(DefaultConfig(), nil, page.Document())
		Expect(page.Add("drag", k)).To(MatchError(ErrDuplicateKnob))
	})

	It("routes presses by hit test", func() {
		id, ok := page.PointerDown(press(25, 5))
		Expect(ok).To(BeTrue())
		Expect(id).To(Equal("angle"))
		Expect(angle.State().Phase).To(Equal(Dragging))
		Expect(drag.State().Phase).To(Equal(Idle))

		_, ok = page.PointerDown(press(15, 5))
		Expect(ok).To(BeFalse())
	})

	It("drags only the pressed knob while others stay put", func() {
		page.PointerDown(press(5, 5))
		page.PointerMove(press(5, -5))
		page.PointerUp(lift(5, -5))

		Expect(drag.Angle()).To(BeNumerically("==", 10))
		Expect(angle.Angle()).To(BeNumerically("==", 0))
		Expect(page.Document().Listeners()).To(BeZero())
	})

	It("cycles focus forward and backward with a single holder", func() {
		page.FocusNext()
		Expect(page.Focused()).To(Equal("drag"))
		page.FocusNext()
		page.FocusNext()
		Expect(page.Focused()).To(Equal("step"))
		Expect(step.Focused()).To(BeTrue())
		Expect(page.Document().Listeners()).To(Equal(2))

		page.FocusNext()
		Expect(page.Focused()).To(Equal("drag"))
		Expect(step.Focused()).To(BeFalse())
		Expect(page.Document().Listeners()).To(BeZero())

		page.FocusPrev()
		Expect(page.Focused()).To(Equal("step"))
	})

	It("sends keys to the focused knob only", func() {
		Expect(page.KeyDown(KeyArrowUp)).To(BeFalse())
		page.Focus("angle")
		Expect(page.KeyDown(KeyArrowUp)).To(BeTrue())
		Expect(angle.Value()).To(BeNumerically("==", 51))
		Expect(drag.Value()).To(BeNumerically("==", 50))
	})

	It("moves focus to a focus-gated knob when it is pressed", func() {
		page.Focus("drag")
		page.PointerDown(press(45, 5))
		Expect(page.Focused()).To(Equal("step"))
		Expect(drag.Focused()).To(BeFalse())
	})

	It("moves focus to any knob pressed and clears it on empty space", func() {
		page.Focus("step")
		page.PointerDown(press(25, 5))
		Expect(page.Focused()).To(Equal("angle"))
		Expect(step.Focused()).To(BeFalse())
		page.PointerUp(lift(25, 5))

		page.PointerDown(press(15, 5))
		Expect(page.Focused()).To(BeEmpty())
		Expect(angle.Focused()).To(BeFalse())
		Expect(page.Document().Listeners()).To(BeZero())
	})

	It("leaves a focused step knob alone while another knob is dragged", func() {
		page.PointerDown(press(45, 5))
		page.PointerUp(lift(45, 5))
		Expect(page.Focused()).To(Equal("step"))
		Expect(page.Document().Listeners()).To(Equal(2))

		page.PointerDown(press(5, 5))
		for y := 4.0; y >= -5; y-- {
			page.PointerMove(press(5, y))
		}
		page.PointerUp(lift(5, -5))

		Expect(drag.Angle()).To(BeNumerically("==", 10))
		Expect(step.Value()).To(BeNumerically("==", 50))
		Expect(step.State().Phase).To(Equal(Idle))
		Expect(page.Focused()).To(Equal("drag"))
		Expect(page.Document().Listeners()).To(BeZero())
	})

	It("releases everything on unmount", func() {
		page.Focus("step")
		page.PointerDown(press(5, 5))
		page.Unmount()
		Expect(page.Focused()).To(BeEmpty())
		Expect(page.Document().Listeners()).To(BeZero())
	})
})
