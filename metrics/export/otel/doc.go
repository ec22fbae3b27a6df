// Package otel publishes goCred engine metrics through an OpenTelemetry Meter.
//
// [NewExporter] registers an Int64ObservableCounter for each engine counter
// and an Int64ObservableGauge per histogram bucket. One callback reads
// the engine snapshot on every collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
