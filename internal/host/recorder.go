package host

import (
	"sync"
	"time"
)

// Kind distinguishes the two host calls.
type Kind string

const (
	KindValue       Kind = "value"
	KindFrameHeight Kind = "frame_height"
)

// Push is one recorded host call.
type Push struct {
	At    time.Time
	Knob  string
	Kind  Kind
	Angle *float64
	Value *float64
}

// Recorder is an in-memory host shared by any number of knobs.
type Recorder struct {
	mu     sync.Mutex
	now    func() time.Time
	pushes []Push
}

func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// SetClock replaces the time source used to stamp pushes.
func (r *Recorder) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

// Host returns a Host that records calls under the given knob id.
func (r *Recorder) Host(knob string) Host {
	return recorderHost{r: r, knob: knob}
}

func (r *Recorder) add(p Push) {
	r.mu.Lock()
	p.At = r.now()
	r.pushes = append(r.pushes, p)
	r.mu.Unlock()
}

// Pushes returns a copy of everything recorded so far.
func (r *Recorder) Pushes() []Push {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Push, len(r.pushes))
	copy(out, r.pushes)
	return out
}

// Values returns the value pushes for one knob, oldest first.
func (r *Recorder) Values(knob string) []Push {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Push
	for _, p := range r.pushes {
		if p.Kind == KindValue && p.Knob == knob {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of recorded calls.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pushes)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.pushes = nil
	r.mu.Unlock()
}

type recorderHost struct {
	r    *Recorder
	knob string
}

func (h recorderHost) SetComponentValue(p Payload) {
	h.r.add(Push{Knob: h.knob, Kind: KindValue, Angle: p.Angle, Value: p.Value})
}

func (h recorderHost) SetFrameHeight() {
	h.r.add(Push{Knob: h.knob, Kind: KindFrameHeight})
}
