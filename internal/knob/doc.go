// Package knob implements the interaction engine of a rotary control.
//
// A [Knob] holds an angle and the value derived from it. Values and angles are
// related by the linear mappings [ValueToAngle] and [AngleToValue]; the value
// is always recomputed from the stored angle, so the pair can never disagree.
//
// Pointer input arrives in two places: [Knob.PointerDown] on the control
// itself, and move/up events dispatched on a shared [Document]. A knob only
// listens on the Document while it needs to (during a drag, or while focused
// for focus-gated modes) and releases those listeners on pointer up, blur and
// [Knob.Unmount].
//
// How pointer motion becomes an angle is decided by a [Mode]:
//
//   - [RelativeDrag]: vertical travel since the previous event, scaled by Factor
//   - [AbsoluteAngle]: the direction from the knob center to the pointer
//   - [FocusStep]: one Step per move while focused with the button held
//
// # Example
//
//	doc := knob.NewDocument()
//	k, err := knob.New(knob.DefaultConfig(), knob.NewRelativeDrag(), doc,
//		knob.WithObserver(bridge))
//	if err != nil {
//		return err
//	}
//	k.Mount()
//	k.PointerDown(knob.PointerEvent{Y: 100, Buttons: knob.ButtonPrimary})
//	doc.Dispatch(knob.PointerMove, knob.PointerEvent{Y: 90, Buttons: knob.ButtonPrimary})
//	doc.Dispatch(knob.PointerUp, knob.PointerEvent{Y: 90})
//
// # Thread Safety
//
// Knob and Document are NOT safe for concurrent use. All events for a
// Document must be delivered from one goroutine.
package knob
