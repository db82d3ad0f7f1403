package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	pushes  *prom.CounterVec
	values  *prom.GaugeVec
	resizes *prom.CounterVec
	dropped *prom.CounterVec
	clients prom.Gauge
}

// NewPrometheusRecorder registers the knob metrics on reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		pushes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "knobs",
			Name:      "pushes_total",
			Help:      "Value pushes sent to the host, per knob.",
		}, []string{"knob"}),
		values: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "knobs",
			Name:      "value",
			Help:      "Last value pushed for each knob.",
		}, []string{"knob"}),
		resizes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "knobs",
			Name:      "frame_resizes_total",
			Help:      "Frame height requests sent to the host, per knob.",
		}, []string{"knob"}),
		dropped: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "knobs",
			Name:      "ws_dropped_frames_total",
			Help:      "Host channel frames dropped, by reason.",
		}, []string{"reason"}),
		clients: prom.NewGauge(prom.GaugeOpts{
			Namespace: "knobs",
			Name:      "ws_clients",
			Help:      "Connected host channel clients.",
		}),
	}
	if reg != nil {
		reg.MustRegister(r.pushes, r.values, r.resizes, r.dropped, r.clients)
	}
	return r
}

func (r *PrometheusRecorder) ObservePush(knob string, value float64) {
	r.pushes.WithLabelValues(knob).Inc()
	r.values.WithLabelValues(knob).Set(value)
}

func (r *PrometheusRecorder) ObserveResize(knob string) {
	r.resizes.WithLabelValues(knob).Inc()
}

func (r *PrometheusRecorder) ObserveDropped(reason string) {
	r.dropped.WithLabelValues(reason).Inc()
}

func (r *PrometheusRecorder) SetClients(n int) {
	r.clients.Set(float64(n))
}

// HTTPHandler serves the metrics gathered by reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
