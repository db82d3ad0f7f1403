package knob

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recorded struct {
	mounts  []Snapshot
	changes []Snapshot
}

func (r *recorded) OnMount(s Snapshot)  { r.mounts = append(r.mounts, s) }
func (r *recorded) OnChange(s Snapshot) { r.changes = append(r.changes, s) }

func press(x, y float64) PointerEvent { return PointerEvent{X: x, Y: y, Buttons: ButtonPrimary} }
func lift(x, y float64) PointerEvent  { return PointerEvent{X: x, Y: y} }

var _ = Describe("Knob", func() {
	var (
		doc *Document
		rec *recorded
		cfg Config
	)

	BeforeEach(func() {
		doc = NewDocument()
		rec = &recorded{}
		cfg = DefaultConfig()
	})

	mount := func(mode Mode, opts ...Option) *Knob {
		opts = append(opts, WithObserver(rec))
		k, err := New(cfg, mode, doc, opts...)
		Expect(err).NotTo(HaveOccurred())
		k.Mount()
		return k
	}

	Describe("construction", func() {
		It("rejects an initial value outside the range instead of clamping", func() {
			cfg.InitialValue = 150
			_, err := New(cfg, nil, doc)
			Expect(err).To(MatchError(ErrInitialOutOfRange))
		})

		It("rejects a degenerate value range", func() {
			cfg.MaxValue = cfg.MinValue
			_, err := New(cfg, nil, doc)
			Expect(err).To(MatchError(ErrValueRange))
		})

		It("starts idle at the initial value (scenario A)", func() {
			k := mount(NewRelativeDrag())
			Expect(k.State().Phase).To(Equal(Idle))
			Expect(k.Angle()).To(BeNumerically("==", 0))
			Expect(rec.mounts).To(Equal([]Snapshot{{Angle: 0, Value: 50}}))
			Expect(rec.changes).To(BeEmpty())
		})

		It("ignores input before mount", func() {
			k, err := New(cfg, nil, doc, WithObserver(rec))
			Expect(err).NotTo(HaveOccurred())
			k.PointerDown(press(0, 100))
			Expect(k.State().Phase).To(Equal(Idle))
			Expect(doc.Listeners()).To(BeZero())
		})
	})

	Describe("relative drag", func() {
		It("rotates by the vertical delta between events", func() {
			k := mount(NewRelativeDrag())
			k.PointerDown(press(0, 100))
			Expect(k.State().Anchor).To(Equal(&Point{X: 0, Y: 100}))

			doc.Dispatch(PointerMove, press(0, 90))
			Expect(k.Angle()).To(BeNumerically("==", 10))
			doc.Dispatch(PointerMove, press(0, 95))
			Expect(k.Angle()).To(BeNumerically("==", 5))
			Expect(k.State().Anchor).To(Equal(&Point{X: 0, Y: 95}))
			Expect(rec.changes).To(HaveLen(2))
		})

		It("clamps at the top of travel (scenario B)", func() {
			k := mount(NewRelativeDrag())
			k.PointerDown(press(0, 300))
			y := 300.0
			for i := 0; i < 29; i++ {
				y -= 5
				doc.Dispatch(PointerMove, press(0, y))
			}
			Expect(k.Angle()).To(BeNumerically("==", 145))
			Expect(k.Value()).To(BeNumerically("==", 100))

			doc.Dispatch(PointerMove, press(0, y-40))
			Expect(k.Angle()).To(BeNumerically("==", 145))
			Expect(k.Value()).To(BeNumerically("==", 100))
		})

		It("keeps tracking outside the control and ends on a document pointer up", func() {
			k := mount(NewRelativeDrag(), WithBounds(Rect{W: 10, H: 10}))
			k.PointerDown(press(5, 5))
			Expect(doc.Listeners()).To(Equal(2))

			doc.Dispatch(PointerMove, press(500, -15))
			Expect(k.Angle()).To(BeNumerically("==", 20))

			doc.Dispatch(PointerUp, lift(900, 900))
			Expect(k.State().Phase).To(Equal(Idle))
			Expect(k.State().Anchor).To(BeNil())
			Expect(doc.Listeners()).To(BeZero())

			doc.Dispatch(PointerMove, press(500, -100))
			Expect(k.Angle()).To(BeNumerically("==", 20))
		})

		It("ignores non-primary buttons", func() {
			k := mount(NewRelativeDrag())
			k.PointerDown(PointerEvent{Y: 10, Buttons: 2})
			Expect(k.State().Phase).To(Equal(Idle))
			Expect(doc.Listeners()).To(BeZero())
		})

		It("releases listeners when unmounted mid-drag", func() {
			k := mount(NewRelativeDrag())
			k.PointerDown(press(0, 0))
			k.Unmount()
			Expect(doc.Listeners()).To(BeZero())
			Expect(k.State().Phase).To(Equal(Idle))

			doc.Dispatch(PointerMove, press(0, -50))
			Expect(rec.changes).To(BeEmpty())
		})
	})

	Describe("absolute angle", func() {
		var k *Knob

		BeforeEach(func() {
			k = mount(NewAbsoluteAngle(), WithBounds(Rect{X: 0, Y: 0, W: 100, H: 100}))
			k.PointerDown(press(50, 50))
		})

		It("does not record an anchor", func() {
			Expect(k.State().Phase).To(Equal(Dragging))
			Expect(k.State().Anchor).To(BeNil())
		})

		It("points up when the pointer is above the center", func() {
			doc.Dispatch(PointerMove, press(80, 50))
			doc.Dispatch(PointerMove, press(50, 0))
			Expect(k.Angle()).To(BeNumerically("~", 0, 1e-9))
			Expect(k.Value()).To(BeNumerically("==", 50))
		})

		It("points right at +90 degrees", func() {
			doc.Dispatch(PointerMove, press(100, 50))
			Expect(k.Angle()).To(BeNumerically("~", 90, 1e-9))
			Expect(k.Value()).To(BeNumerically("==", 81))
		})

		It("wraps the lower left quadrant to negative angles", func() {
			doc.Dispatch(PointerMove, press(0, 100))
			Expect(k.Angle()).To(BeNumerically("~", -135, 1e-9))
		})

		It("clamps straight down to the end of travel", func() {
			doc.Dispatch(PointerMove, press(50, 100))
			Expect(k.Angle()).To(BeNumerically("==", 145))
		})

		It("ignores a pointer exactly at the center", func() {
			doc.Dispatch(PointerMove, press(50, 50))
			Expect(rec.changes).To(BeEmpty())
		})
	})

	Describe("keyboard and focus", func() {
		It("steps by Step on arrow keys while focused (scenario D)", func() {
			cfg.Step = 2
			k := mount(NewRelativeDrag())
			k.Focus()
			for i := 0; i < 3; i++ {
				Expect(k.KeyDown(KeyArrowUp)).To(BeTrue())
			}
			Expect(k.Value()).To(BeNumerically("==", 56))
			Expect(rec.changes).To(HaveLen(3))
			Expect(rec.changes[2].Value).To(BeNumerically("==", 56))
		})

		It("ignores keys without focus", func() {
			k := mount(NewRelativeDrag())
			Expect(k.KeyDown(KeyArrowUp)).To(BeFalse())
			Expect(k.Value()).To(BeNumerically("==", 50))
			Expect(rec.changes).To(BeEmpty())
		})

		It("clamps keyboard steps at the bounds", func() {
			cfg.InitialValue = 99
			k := mount(NewRelativeDrag())
			k.Focus()
			k.KeyDown(KeyArrowUp)
			k.KeyDown(KeyArrowUp)
			Expect(k.Value()).To(BeNumerically("==", 100))
			Expect(k.Angle()).To(BeNumerically("==", 145))
		})

		It("ends a drag on blur", func() {
			k := mount(NewRelativeDrag())
			k.Focus()
			k.PointerDown(press(0, 0))
			k.Blur()
			Expect(k.State().Phase).To(Equal(Idle))
			Expect(k.State().Anchor).To(BeNil())
			Expect(doc.Listeners()).To(BeZero())
		})
	})

	Describe("focus step", func() {
		It("listens on the document only while focused", func() {
			k := mount(FocusStep{})
			Expect(doc.Listeners()).To(BeZero())
			k.Focus()
			Expect(doc.Listeners()).To(Equal(2))
			k.Blur()
			Expect(doc.Listeners()).To(BeZero())
		})

		It("treats focus plus a held button as dragging", func() {
			cfg.Step = 5
			k := mount(FocusStep{})
			k.Focus()

			doc.Dispatch(PointerMove, lift(0, 100))
			Expect(k.State().Phase).To(Equal(Idle))

			doc.Dispatch(PointerMove, press(0, 100))
			Expect(k.State().Phase).To(Equal(Dragging))
			doc.Dispatch(PointerMove, press(0, 97))
			doc.Dispatch(PointerMove, press(0, 90))
			Expect(k.Value()).To(BeNumerically("==", 60))
			doc.Dispatch(PointerMove, press(0, 120))
			Expect(k.Value()).To(BeNumerically("==", 55))

			doc.Dispatch(PointerUp, lift(0, 120))
			Expect(k.State().Phase).To(Equal(Idle))
			Expect(doc.Listeners()).To(Equal(2))
		})

		It("takes focus on pointer down", func() {
			k := mount(FocusStep{})
			k.PointerDown(press(0, 0))
			Expect(k.Focused()).To(BeTrue())
			Expect(k.State().Phase).To(Equal(Dragging))
		})

		It("does nothing when Step is zero", func() {
			cfg.Step = 0
			k := mount(FocusStep{})
			k.PointerDown(press(0, 0))
			doc.Dispatch(PointerMove, press(0, -10))
			Expect(rec.changes).To(BeEmpty())
		})
	})

	Describe("apply entry points", func() {
		It("quantizes ApplyValue and keeps the pair consistent", func() {
			cfg.Step = 5
			k := mount(NewRelativeDrag())
			s := k.ApplyValue(42)
			Expect(s.Value).To(BeNumerically("==", 40))
			Expect(cfg.AngleToValue(s.Angle)).To(Equal(s.Value))
		})

		It("never exposes a torn pair to observers", func() {
			var k *Knob
			var torn bool
			check := ObserverFunc(func(s Snapshot) {
				cur := k.Snapshot()
				if cur != s || cfg.AngleToValue(cur.Angle) != cur.Value {
					torn = true
				}
			})
			var err error
			k, err = New(cfg, nil, doc, WithObserver(check))
			Expect(err).NotTo(HaveOccurred())
			k.Mount()
			k.ApplyAngle(33.3)
			k.ApplyValue(12.7)
			Expect(torn).To(BeFalse())
		})

		It("with step 0 yields the exact midpoint value (scenario C)", func() {
			cfg = Config{MinValue: 0, MaxValue: 10, Step: 0, MinAngle: -145, MaxAngle: 145, InitialValue: 0}
			k := mount(NewRelativeDrag())
			Expect(k.ApplyAngle(0).Value).To(BeNumerically("==", 5))
		})
	})

	Describe("random event sequences", func() {
		modes := []Mode{NewRelativeDrag(), NewAbsoluteAngle(), FocusStep{}}

		for _, m := range modes {
			mode := m
			It("holds the invariants in "+mode.Name()+" mode", func() {
				cfg.Step = 5
				rng := rand.New(rand.NewSource(7))
				k := mount(mode, WithBounds(Rect{X: 0, Y: 0, W: 40, H: 40}))

				check := func() {
					s := k.State()
					Expect(s.Angle).To(BeNumerically(">=", cfg.MinAngle))
					Expect(s.Angle).To(BeNumerically("<=", cfg.MaxAngle))
					Expect(s.Value).To(BeNumerically(">=", cfg.MinValue))
					Expect(s.Value).To(BeNumerically("<=", cfg.MaxValue))
					Expect(cfg.AngleToValue(s.Angle)).To(Equal(s.Value))
					Expect(math.Mod(s.Value, 5)).To(BeNumerically("==", 0))
					if s.Phase == Idle {
						Expect(s.Anchor).To(BeNil())
					}
				}

				for i := 0; i < 500; i++ {
					x, y := rng.Float64()*200-80, rng.Float64()*200-80
					switch rng.Intn(7) {
					case 0:
						k.PointerDown(press(x, y))
					case 1, 2, 3:
						doc.Dispatch(PointerMove, PointerEvent{X: x, Y: y, Buttons: rng.Intn(2)})
					case 4:
						doc.Dispatch(PointerUp, lift(x, y))
					case 5:
						if rng.Intn(2) == 0 {
							k.KeyDown(KeyArrowUp)
						} else {
							k.KeyDown(KeyArrowDown)
						}
					case 6:
						if k.Focused() {
							k.Blur()
						} else {
							k.Focus()
						}
					}
					check()
				}

				doc.Dispatch(PointerUp, lift(0, 0))
				Expect(k.State().Phase).To(Equal(Idle))
				Expect(k.State().Anchor).To(BeNil())

				k.Unmount()
				Expect(doc.Listeners()).To(BeZero())
			})
		}
	})
})
