package host

import (
	"log/slog"
	"testing"

	"github.com/san-kum/knobs/internal/knob"
	"github.com/san-kum/knobs/internal/metrics"
)

type countingMetrics struct {
	metrics.NoopRecorder
	pushes, resizes int
	last            float64
}

func (c *countingMetrics) ObservePush(_ string, v float64) { c.pushes++; c.last = v }
func (c *countingMetrics) ObserveResize(string)            { c.resizes++ }

func newBridgedKnob(t *testing.T, cfg knob.Config, rec *Recorder, opts ...BridgeOption) *knob.Knob {
	t.Helper()
	b := NewBridge("k", rec.Host("k"), opts...)
	k, err := knob.New(cfg, nil, nil, knob.WithObserver(b))
	if err != nil {
		t.Fatalf("new knob: %v", err)
	}
	return k
}

func TestBridgeMountPushesInitialState(t *testing.T) {
	rec := NewRecorder()
	k := newBridgedKnob(t, knob.DefaultConfig(), rec)
	if rec.Len() != 0 {
		t.Fatalf("expected no pushes before mount, got %d", rec.Len())
	}

	k.Mount()

	pushes := rec.Pushes()
	if len(pushes) != 2 {
		t.Fatalf("expected value push and frame height, got %d calls", len(pushes))
	}
	if pushes[0].Kind != KindValue || pushes[1].Kind != KindFrameHeight {
		t.Errorf("unexpected call order: %s, %s", pushes[0].Kind, pushes[1].Kind)
	}
	if *pushes[0].Angle != 0 || *pushes[0].Value != 50 {
		t.Errorf("expected {0, 50}, got {%v, %v}", *pushes[0].Angle, *pushes[0].Value)
	}
}

func TestBridgeOnePushPerMutation(t *testing.T) {
	rec := NewRecorder()
	k := newBridgedKnob(t, knob.DefaultConfig(), rec)
	k.Mount()
	rec.Reset()

	k.PointerDown(knob.PointerEvent{X: 0, Y: 100, Buttons: knob.ButtonPrimary})
	k.ApplyAngle(10)
	k.ApplyAngle(20)
	k.ApplyValue(10)

	values := rec.Values("k")
	if len(values) != 3 {
		t.Fatalf("expected 3 pushes, got %d", len(values))
	}
	if rec.Len() != 3 {
		t.Errorf("frame height sent on change without ResizeOnChange")
	}
	last := values[2]
	if *last.Value != 10 {
		t.Errorf("expected last value 10, got %v", *last.Value)
	}
}

func TestBridgeResizeOnChange(t *testing.T) {
	rec := NewRecorder()
	k := newBridgedKnob(t, knob.DefaultConfig(), rec, WithResizeOnChange(true))
	k.Mount()
	k.ApplyAngle(30)

	pushes := rec.Pushes()
	if len(pushes) != 4 {
		t.Fatalf("expected 4 calls, got %d", len(pushes))
	}
	if pushes[3].Kind != KindFrameHeight {
		t.Errorf("expected frame height after change, got %s", pushes[3].Kind)
	}
}

func TestBridgeContracts(t *testing.T) {
	tests := []struct {
		contract  Contract
		wantAngle bool
		wantValue bool
	}{
		{ContractAngleValue, true, true},
		{ContractValue, false, true},
		{ContractAngle, true, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.contract), func(t *testing.T) {
			rec := NewRecorder()
			k := newBridgedKnob(t, knob.DefaultConfig(), rec, WithContract(tt.contract))
			k.Mount()
			p := rec.Values("k")[0]
			if (p.Angle != nil) != tt.wantAngle {
				t.Errorf("angle present = %v, want %v", p.Angle != nil, tt.wantAngle)
			}
			if (p.Value != nil) != tt.wantValue {
				t.Errorf("value present = %v, want %v", p.Value != nil, tt.wantValue)
			}
		})
	}
}

func TestParseContract(t *testing.T) {
	for in, want := range map[string]Contract{
		"":            ContractAngleValue,
		"angle_value": ContractAngleValue,
		"value":       ContractValue,
		"angle":       ContractAngle,
	} {
		got, err := ParseContract(in)
		if err != nil || got != want {
			t.Errorf("ParseContract(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseContract("bogus"); err == nil {
		t.Error("expected error for unknown contract")
	}
}

type panicHost struct{}

func (panicHost) SetComponentValue(Payload) { panic("host gone") }
func (panicHost) SetFrameHeight()           { panic("host gone") }

func TestBridgeSurvivesPanickingHost(t *testing.T) {
	b := NewBridge("k", panicHost{}, WithLogger(slog.New(slog.DiscardHandler)))
	k, err := knob.New(knob.DefaultConfig(), nil, nil, knob.WithObserver(b))
	if err != nil {
		t.Fatal(err)
	}
	k.Mount()
	k.ApplyAngle(45)
	if k.Angle() != 45 {
		t.Errorf("expected state to advance despite host failure, angle=%v", k.Angle())
	}
}

func TestBridgeMetrics(t *testing.T) {
	m := &countingMetrics{}
	rec := NewRecorder()
	k := newBridgedKnob(t, knob.DefaultConfig(), rec, WithMetrics(m))
	k.Mount()
	k.ApplyValue(70)
	if m.pushes != 2 || m.resizes != 1 || m.last != 70 {
		t.Errorf("got pushes=%d resizes=%d last=%v", m.pushes, m.resizes, m.last)
	}
}

func TestMultiForwardsInOrder(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	h := Join(a.Host("x"), nil, b.Host("x"))
	v := 3.0
	h.SetComponentValue(Payload{Value: &v})
	h.SetFrameHeight()
	if a.Len() != 2 || b.Len() != 2 {
		t.Errorf("expected both hosts to see 2 calls, got %d and %d", a.Len(), b.Len())
	}
	if single := Join(a.Host("y")); single == nil {
		t.Error("expected single host")
	} else if _, ok := single.(Multi); ok {
		t.Error("single host should not be wrapped")
	}
}

func TestMultiReachesHostsAfterPanic(t *testing.T) {
	rec := NewRecorder()
	h := Join(panicHost{}, rec.Host("k"))

	func() {
		defer func() {
			if r := recover(); r != "host gone" {
				t.Errorf("expected the host panic to surface, got %v", r)
			}
		}()
		v := 1.0
		h.SetComponentValue(Payload{Value: &v})
	}()
	if rec.Len() != 1 {
		t.Fatalf("expected the recorder to see the push, got %d calls", rec.Len())
	}

	b := NewBridge("k", h, WithLogger(slog.New(slog.DiscardHandler)))
	k, err := knob.New(knob.DefaultConfig(), nil, nil, knob.WithObserver(b))
	if err != nil {
		t.Fatal(err)
	}
	k.Mount()
	k.ApplyValue(60)
	vals := rec.Values("k")
	if len(vals) != 3 || *vals[2].Value != 60 {
		t.Errorf("expected 3 value pushes ending at 60, got %d", len(vals))
	}
}
