// Package metrics records run metrics for a scan.
//
// Components receive a Recorder; NoopRecorder is the default so call sites
// never check for nil. PrometheusRecorder backs the --metrics-file flag and
// writes the gathered registry in the node-exporter textfile format, so a
// batch run can be picked up by a textfile collector after it exits.
package metrics
