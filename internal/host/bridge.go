package host

import (
	"log/slog"

	"github.com/san-kum/knobs/internal/knob"
	"github.com/san-kum/knobs/internal/metrics"
)

// Bridge pushes a knob's state to a Host. It implements knob.Observer.
type Bridge struct {
	id             string
	host           Host
	contract       Contract
	resizeOnChange bool
	logger         *slog.Logger
	metrics        metrics.Recorder
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

func WithContract(c Contract) BridgeOption {
	return func(b *Bridge) { b.contract = c }
}

// WithResizeOnChange requests a frame height update after every change, not
// only on mount.
func WithResizeOnChange(on bool) BridgeOption {
	return func(b *Bridge) { b.resizeOnChange = on }
}

func WithLogger(l *slog.Logger) BridgeOption {
	return func(b *Bridge) {
		if l != nil {
			b.logger = l
		}
	}
}

func WithMetrics(r metrics.Recorder) BridgeOption {
	return func(b *Bridge) {
		if r != nil {
			b.metrics = r
		}
	}
}

// NewBridge returns a bridge for the knob named id.
func NewBridge(id string, h Host, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		id:       id,
		host:     h,
		contract: ContractAngleValue,
		logger:   slog.Default(),
		metrics:  metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ID returns the knob id the bridge reports for.
func (b *Bridge) ID() string { return b.id }

// OnMount pushes the initial state and asks the host to fit the frame.
func (b *Bridge) OnMount(s knob.Snapshot) {
	b.push(s)
	b.resize()
}

// OnChange pushes the new state.
func (b *Bridge) OnChange(s knob.Snapshot) {
	b.push(s)
	if b.resizeOnChange {
		b.resize()
	}
}

func (b *Bridge) push(s knob.Snapshot) {
	defer b.recoverHost("set_component_value")
	b.host.SetComponentValue(b.contract.Build(s.Angle, s.Value))
	b.metrics.ObservePush(b.id, s.Value)
}

func (b *Bridge) resize() {
	defer b.recoverHost("set_frame_height")
	b.host.SetFrameHeight()
	b.metrics.ObserveResize(b.id)
}

// recoverHost keeps a misbehaving host from unwinding into the state machine.
func (b *Bridge) recoverHost(op string) {
	if r := recover(); r != nil {
		b.logger.Warn("host call panicked", "knob", b.id, "op", op, "panic", r)
	}
}
