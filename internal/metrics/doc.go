// Package metrics provides build metrics for sitebuilder.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never requires nil checks:
//
//	b := build.New(cfg) // NoopRecorder
//	b.Recorder = metrics.NewPrometheusRecorder(reg)
//
// The CLI activates the Prometheus implementation when metrics.textfile is
// configured and writes the registry with WriteTextfile once a build ends, for
// collection by the node_exporter textfile collector.
package metrics
