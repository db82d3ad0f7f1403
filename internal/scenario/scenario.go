// Package scenario replays scripted input against real knobs, without a
// terminal. Scripts are YAML; every host call is captured by a host.Recorder.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/knobs/internal/config"
	"github.com/san-kum/knobs/internal/host"
	"github.com/san-kum/knobs/internal/knob"
)

var (
	ErrUnknownAction = errors.New("scenario: unknown action")
	ErrUnknownKnob   = errors.New("scenario: unknown knob")
	ErrExpectation   = errors.New("scenario: expectation failed")
	ErrNoKnobs       = errors.New("scenario: no knobs")
)

// Actions understood by Step.Action.
const (
	ActionMount      = "mount"
	ActionUnmount    = "unmount"
	ActionDown       = "down"
	ActionMove       = "move"
	ActionUp         = "up"
	ActionKey        = "key"
	ActionFocus      = "focus"
	ActionBlur       = "blur"
	ActionApplyAngle = "apply_angle"
	ActionApplyValue = "apply_value"
)

// Scenario is a scripted input sequence against one page of knobs.
type Scenario struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Contract    string     `yaml:"contract"`
	Knobs       []KnobSpec `yaml:"knobs"`
	Steps       []Step     `yaml:"steps"`
}

// KnobSpec is a knob config plus its position on the page.
type KnobSpec struct {
	config.KnobConfig `yaml:",inline"`
	Bounds            *knob.Rect `yaml:"bounds,omitempty"`
}

// Step is one scripted action. Pointer steps move the cursor to (X, Y) when
// set, then by (DX, DY) on each repeat.
type Step struct {
	Action  string   `yaml:"action"`
	Knob    string   `yaml:"knob"`
	X       *float64 `yaml:"x"`
	Y       *float64 `yaml:"y"`
	DX      float64  `yaml:"dx"`
	DY      float64  `yaml:"dy"`
	Buttons *int     `yaml:"buttons"`
	Key     string   `yaml:"key"`
	Angle   float64  `yaml:"angle"`
	Value   float64  `yaml:"value"`
	Repeat  int      `yaml:"repeat"`
	Expect  *Expect  `yaml:"expect"`
}

// Expect is checked against the step's knob after the step runs.
type Expect struct {
	Angle     *float64 `yaml:"angle"`
	Value     *float64 `yaml:"value"`
	Phase     string   `yaml:"phase"`
	Pushes    *int     `yaml:"pushes"`
	Listeners *int     `yaml:"listeners"`
}

// Result is the outcome of a run.
type Result struct {
	Steps  int
	Pushes []host.Push
	Final  map[string]knob.Snapshot
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	cfg := config.Config{}
	for _, k := range sc.Knobs {
		cfg.Knobs = append(cfg.Knobs, k.KnobConfig)
	}
	cfg.Normalize()
	for i := range sc.Knobs {
		sc.Knobs[i].KnobConfig = cfg.Knobs[i]
	}
	return &sc, nil
}

// Validate checks knob configs and step actions without running anything.
func (sc *Scenario) Validate() error {
	if len(sc.Knobs) == 0 {
		return ErrNoKnobs
	}
	ids := make(map[string]bool)
	for _, k := range sc.Knobs {
		if err := k.Validate(); err != nil {
			return fmt.Errorf("knob %q: %w", k.ID, err)
		}
		ids[k.ID] = true
	}
	if _, err := host.ParseContract(sc.Contract); err != nil {
		return err
	}
	for i, st := range sc.Steps {
		if !knownAction(st.Action) {
			return fmt.Errorf("step %d: %w: %q", i+1, ErrUnknownAction, st.Action)
		}
		if st.Knob != "" && !ids[st.Knob] {
			return fmt.Errorf("step %d: %w: %q", i+1, ErrUnknownKnob, st.Knob)
		}
	}
	return nil
}

func knownAction(a string) bool {
	switch a {
	case ActionMount, ActionUnmount, ActionDown, ActionMove, ActionUp, ActionKey,
		ActionFocus, ActionBlur, ActionApplyAngle, ActionApplyValue:
		return true
	}
	return false
}

// Options adjusts a run.
type Options struct {
	// Host receives every call in addition to the recorder.
	Host func(knobID string) host.Host
	// OnStep is called after each executed step.
	OnStep func(index int, st Step, snap knob.Snapshot)
	// Recorder captures pushes; a new one is used when nil.
	Recorder *host.Recorder
}

type runner struct {
	sc     *Scenario
	page   *knob.Page
	rec    *host.Recorder
	cursor knob.Point
}

// Run executes the scenario. Steps stop at the first failed expectation or
// when ctx is canceled.
func Run(ctx context.Context, sc *Scenario, opts Options) (*Result, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	contract, _ := host.ParseContract(sc.Contract)

	r := &runner{sc: sc, page: knob.NewPage(nil), rec: opts.Recorder}
	if r.rec == nil {
		r.rec = host.NewRecorder()
	}
	for i, spec := range sc.Knobs {
		kc, _ := spec.Build()
		mode, _ := spec.InteractionMode()
		bounds := knob.Rect{X: float64(i) * 120, Y: 0, W: 100, H: 100}
		if spec.Bounds != nil {
			bounds = *spec.Bounds
		}
		h := r.rec.Host(spec.ID)
		if opts.Host != nil {
			h = host.Join(h, opts.Host(spec.ID))
		}
		bridge := host.NewBridge(spec.ID, h, host.WithContract(contract))
		k, err := knob.New(kc, mode, r.page.Document(), knob.WithBounds(bounds), knob.WithObserver(bridge))
		if err != nil {
			return nil, fmt.Errorf("knob %q: %w", spec.ID, err)
		}
		if err := r.page.Add(spec.ID, k); err != nil {
			return nil, err
		}
	}

	res := &Result{Final: make(map[string]knob.Snapshot)}
	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		id, k := r.target(st)
		n := st.Repeat
		if n <= 0 {
			n = 1
		}
		for j := 0; j < n; j++ {
			r.exec(st, j, id, k)
		}
		res.Steps++
		if opts.OnStep != nil {
			opts.OnStep(i, st, k.Snapshot())
		}
		if err := r.check(st, id, k); err != nil {
			res.Pushes = r.rec.Pushes()
			return res, fmt.Errorf("step %d (%s): %w", i+1, st.Action, err)
		}
	}
	res.Pushes = r.rec.Pushes()
	for _, id := range r.page.IDs() {
		k, _ := r.page.Knob(id)
		res.Final[id] = k.Snapshot()
	}
	return res, nil
}

func (r *runner) target(st Step) (string, *knob.Knob) {
	id := st.Knob
	if id == "" {
		id = r.sc.Knobs[0].ID
	}
	k, _ := r.page.Knob(id)
	return id, k
}

func (r *runner) event(st Step, repeat int, defaultButtons int) knob.PointerEvent {
	if repeat == 0 {
		if st.X != nil {
			r.cursor.X = *st.X
		}
		if st.Y != nil {
			r.cursor.Y = *st.Y
		}
	}
	if repeat > 0 || (st.X == nil && st.Y == nil) {
		r.cursor.X += st.DX
		r.cursor.Y += st.DY
	}
	buttons := defaultButtons
	if st.Buttons != nil {
		buttons = *st.Buttons
	}
	return knob.PointerEvent{X: r.cursor.X, Y: r.cursor.Y, Buttons: buttons}
}

func (r *runner) exec(st Step, repeat int, id string, k *knob.Knob) {
	switch st.Action {
	case ActionMount:
		k.Mount()
	case ActionUnmount:
		k.Unmount()
	case ActionDown:
		ev := r.event(st, repeat, knob.ButtonPrimary)
		if st.Knob == "" && (st.X != nil || st.Y != nil) {
			r.page.PointerDown(ev)
			return
		}
		if ev.Primary() && k.Mode().Gate() == knob.GateFocus {
			r.page.Focus(id)
		}
		k.PointerDown(ev)
	case ActionMove:
		r.page.PointerMove(r.event(st, repeat, knob.ButtonPrimary))
	case ActionUp:
		r.page.PointerUp(r.event(st, repeat, 0))
	case ActionKey:
		r.page.KeyDown(st.Key)
	case ActionFocus:
		r.page.Focus(id)
	case ActionBlur:
		r.page.Blur()
	case ActionApplyAngle:
		k.ApplyAngle(st.Angle)
	case ActionApplyValue:
		k.ApplyValue(st.Value)
	}
}

const tolerance = 1e-9

func (r *runner) check(st Step, id string, k *knob.Knob) error {
	e := st.Expect
	if e == nil {
		return nil
	}
	s := k.State()
	if e.Angle != nil && math.Abs(s.Angle-*e.Angle) > tolerance {
		return fmt.Errorf("%w: %s angle = %g, want %g", ErrExpectation, id, s.Angle, *e.Angle)
	}
	if e.Value != nil && math.Abs(s.Value-*e.Value) > tolerance {
		return fmt.Errorf("%w: %s value = %g, want %g", ErrExpectation, id, s.Value, *e.Value)
	}
	if e.Phase != "" && s.Phase.String() != e.Phase {
		return fmt.Errorf("%w: %s phase = %s, want %s", ErrExpectation, id, s.Phase, e.Phase)
	}
	if e.Pushes != nil {
		if n := len(r.rec.Values(id)); n != *e.Pushes {
			return fmt.Errorf("%w: %s pushes = %d, want %d", ErrExpectation, id, n, *e.Pushes)
		}
	}
	if e.Listeners != nil {
		if n := r.page.Document().Listeners(); n != *e.Listeners {
			return fmt.Errorf("%w: listeners = %d, want %d", ErrExpectation, n, *e.Listeners)
		}
	}
	return nil
}
