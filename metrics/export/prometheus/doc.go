// Package prometheus renders SessionStore metrics in the Prometheus text
// exposition format.
//
// Counters are named portal_*_total; the single histogram is
// portal_guard_latency_seconds. One exporter can serve several views of the
// same process: every sample carries a view label holding the store's ViewID.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount the Handler.
//   - Mutate store state.
package prometheus
