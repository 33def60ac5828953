// Package metrics provides build observability hooks.
//
// Components receive a Recorder and default to NoopRecorder, so metrics can be
// switched on without nil checks at the call sites:
//
//	rec := metrics.NewPrometheusRecorder(prom.NewRegistry())
//	b := build.New(cfg, build.WithRecorder(rec))
//
// A blog build is a short-lived process, so the Prometheus recorder is
// exported by writing a node_exporter textfile rather than serving HTTP.
package metrics
