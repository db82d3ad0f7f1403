package metrics

// Recorder receives push and frame events from host bridges.
type Recorder interface {
	ObservePush(knob string, value float64)
	ObserveResize(knob string)
	ObserveDropped(reason string)
	SetClients(n int)
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

func (NoopRecorder) ObservePush(string, float64) {}
func (NoopRecorder) ObserveResize(string)        {}
func (NoopRecorder) ObserveDropped(string)       {}
func (NoopRecorder) SetClients(int)              {}
