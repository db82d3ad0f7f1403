// Package viz is the terminal front end for a page of knobs.
//
// The bubbletea program is the page's event dispatcher: mouse presses,
// motion and releases become pointer events in document space, and keys
// drive focus and stepping. Each knob is drawn on a braille [Canvas] by a
// [Face], with a sparkline of recent values underneath.
//
// # Key Bindings
//
//	Tab       - Focus next knob
//	Shift+Tab - Focus previous knob
//	Up / K    - Step focused knob up
//	Down / J  - Step focused knob down
//	Esc       - Clear focus
//	T         - Cycle color themes
//	?         - Show help overlay
//	Q         - Quit
//
// # Coordinates
//
// One terminal cell is [CellW] by [CellH] document units. [Layout] returns
// the bounds the view draws each knob at, so hit testing and the
// absolute-angle center line up with the picture.
package viz
