// Package otel binds SessionStore metrics to OpenTelemetry instruments.
//
// Each counter becomes an Int64ObservableCounter. A histogram becomes a
// bucket gauge keyed by an le attribute plus a count gauge. One callback reads
// every registered view per collection and tags each observation with a view
// attribute.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate store state.
package otel
