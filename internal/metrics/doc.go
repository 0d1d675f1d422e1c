// Package metrics records export pipeline measurements.
//
// The exporter talks to a Recorder. NoopRecorder is the default; when
// metrics.enabled is set the CLI injects a PrometheusRecorder and the serve
// command exposes its registry on /metrics:
//
//	reg := prometheus.NewRegistry()
//	ex := export.New(opts, hooks, renderer).WithRecorder(metrics.NewPrometheusRecorder(reg))
//	mux.Handle("/metrics", metrics.HTTPHandler(reg))
package metrics
