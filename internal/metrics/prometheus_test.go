package metrics

import (
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg)

	r.ObservePush("gain", 10)
	r.ObservePush("gain", 12)
	r.ObserveResize("gain")
	r.ObserveDropped("slow_client")
	r.SetClients(3)

	if got := testutil.ToFloat64(r.pushes.WithLabelValues("gain")); got != 2 {
		t.Errorf("expected 2 pushes, got %v", got)
	}
	if got := testutil.ToFloat64(r.values.WithLabelValues("gain")); got != 12 {
		t.Errorf("expected last value 12, got %v", got)
	}
	if got := testutil.ToFloat64(r.resizes.WithLabelValues("gain")); got != 1 {
		t.Errorf("expected 1 resize, got %v", got)
	}
	if got := testutil.ToFloat64(r.clients); got != 3 {
		t.Errorf("expected 3 clients, got %v", got)
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObservePush("x", 1)
	r.ObserveResize("x")
	r.ObserveDropped("x")
	r.SetClients(1)
}
