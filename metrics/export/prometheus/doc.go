// Package prometheus exposes goCred engine metrics through
// prometheus/client_golang.
//
// [NewCollector] returns a prometheus.Collector that reads an engine
// snapshot on every scrape. Counters are named gocred_*_total and the
// single histogram is gocred_resolve_latency_seconds.
//
// # What this package must NOT do
//
//   - Register into the global Prometheus registry. Callers choose the registry.
//   - Mutate engine state.
package prometheus
