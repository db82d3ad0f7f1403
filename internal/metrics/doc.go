// Package metrics counts host pushes.
//
// Components take a [Recorder]; [NoopRecorder] is the default so callers never
// nil-check. [PrometheusRecorder] backs the /metrics endpoint served next to
// the websocket host channel.
package metrics
