package scenario

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/san-kum/knobs/internal/host"
	"github.com/san-kum/knobs/internal/knob"
)

func TestTestdataScenarios(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no scenarios found")
	}
	for _, path := range files {
		t.Run(filepath.Base(path), func(t *testing.T) {
			sc, err := Load(path)
			if err != nil {
				t.Fatal(err)
			}
			res, err := Run(context.Background(), sc, Options{})
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if res.Steps != len(sc.Steps) {
				t.Errorf("ran %d of %d steps", res.Steps, len(sc.Steps))
			}
		})
	}
}

func TestRunReportsFinalState(t *testing.T) {
	sc, err := Load(filepath.Join("testdata", "relative_drag.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	res, err := Run(context.Background(), sc, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Final["gain"]; got.Angle != 145 || got.Value != 100 {
		t.Errorf("unexpected final state %+v", got)
	}
	// 31 value pushes plus one frame height on mount.
	if len(res.Pushes) != 32 {
		t.Errorf("expected 32 host calls, got %d", len(res.Pushes))
	}
}

func TestContractShapesPayload(t *testing.T) {
	sc, err := Load(filepath.Join("testdata", "absolute.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	res, err := Run(context.Background(), sc, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range res.Pushes {
		if p.Kind == host.KindValue && p.Angle != nil {
			t.Fatalf("value contract pushed an angle: %+v", p)
		}
	}
}

func TestExpectationFailure(t *testing.T) {
	sc, err := Parse([]byte(`
knobs: [{id: k}]
steps:
  - action: mount
  - action: apply_value
    value: 42
    expect: {value: 41}
  - action: apply_value
    value: 10
`))
	if err != nil {
		t.Fatal(err)
	}
	res, err := Run(context.Background(), sc, Options{})
	if !errors.Is(err, ErrExpectation) {
		t.Fatalf("expected expectation failure, got %v", err)
	}
	if res.Steps != 2 {
		t.Errorf("expected to stop after step 2, ran %d", res.Steps)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"no knobs", `steps: [{action: mount}]`, ErrNoKnobs},
		{"unknown action", `{knobs: [{id: k}], steps: [{action: spin}]}`, ErrUnknownAction},
		{"unknown knob", `{knobs: [{id: k}], steps: [{action: mount, knob: other}]}`, ErrUnknownKnob},
		{"bad initial", `{knobs: [{id: k, initial_value: 500}]}`, knob.ErrInitialOutOfRange},
		{"bad contract", `{contract: xml, knobs: [{id: k}]}`, host.ErrUnknownContract},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := Parse([]byte(tt.yaml))
			if err != nil {
				t.Fatal(err)
			}
			if err := sc.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRunHonorsContext(t *testing.T) {
	sc, _ := Parse([]byte(`{knobs: [{id: k}], steps: [{action: mount}, {action: apply_angle, angle: 10}]}`))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Run(ctx, sc, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res.Steps != 0 {
		t.Errorf("expected no steps, ran %d", res.Steps)
	}
}

func TestRunOptions(t *testing.T) {
	sc, _ := Parse([]byte(`{knobs: [{id: a}, {id: b}], steps: [{action: mount, knob: a}, {action: mount, knob: b}, {action: apply_value, knob: b, value: 70}]}`))

	extra := host.NewRecorder()
	var seen []string
	_, err := Run(context.Background(), sc, Options{
		Host: func(id string) host.Host { return extra.Host(id) },
		OnStep: func(i int, st Step, snap knob.Snapshot) {
			seen = append(seen, st.Action)
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 3 {
		t.Errorf("expected 3 step callbacks, got %v", seen)
	}
	if got := extra.Values("b"); len(got) != 2 || *got[1].Value != 70 {
		t.Errorf("extra host missed pushes: %+v", got)
	}
}
