// Package otel registers goToken metrics on an OpenTelemetry meter.
//
// [NewExporter] creates one Int64ObservableCounter per counter and one
// Int64ObservableGauge per latency bucket. A single callback reads the codec
// snapshot on each collection.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate codec state.
package otel
