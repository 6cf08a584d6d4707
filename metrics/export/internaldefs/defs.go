package internaldefs

import (
	"github.com/MrEthical07/portalauth"
)

// CounterDef names one SessionStore counter.
type CounterDef struct {
	ID   portalauth.MetricID
	Name string
	Help string
}

// HistogramDef names one SessionStore histogram.
type HistogramDef struct {
	ID   portalauth.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "portal_audit_dropped_total"

// AuditDroppedHelp describes AuditDroppedName.
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

var CounterDefs = []CounterDef{
	{ID: portalauth.MetricSessionSaved, Name: "portal_session_saved_total", Help: "Sessions saved."},
	{ID: portalauth.MetricSessionSaveRejected, Name: "portal_session_save_rejected_total", Help: "Save calls rejected for an empty token."},
	{ID: portalauth.MetricSessionCleared, Name: "portal_session_cleared_total", Help: "Sessions cleared."},
	{ID: portalauth.MetricLogout, Name: "portal_logout_total", Help: "Logout operations."},
	{ID: portalauth.MetricStorageFailure, Name: "portal_storage_failure_total", Help: "Session storage backend errors."},
	{ID: portalauth.MetricStorageSkipped, Name: "portal_storage_skipped_total", Help: "Writes skipped because no durable storage exists."},
	{ID: portalauth.MetricExternalChange, Name: "portal_external_change_total", Help: "Session changes received from other views."},
	{ID: portalauth.MetricGuardAllowed, Name: "portal_guard_allowed_total", Help: "Guard decisions that allowed navigation."},
	{ID: portalauth.MetricGuardDenied, Name: "portal_guard_denied_total", Help: "Guard decisions that redirected to login."},
	{ID: portalauth.MetricGuardUnavailable, Name: "portal_guard_unavailable_total", Help: "Guard denials caused by missing durable storage."},
	{ID: portalauth.MetricNavigateFallback, Name: "portal_navigate_fallback_total", Help: "Hard redirects after a failed navigation."},
}

var HistogramDefs = []HistogramDef{
	{ID: portalauth.MetricGuardLatency, Name: "portal_guard_latency_seconds", Help: "Guard decision latency histogram."},
}

// HistogramBounds are the upper bounds, in seconds, of the guard latency
// buckets: 1µs, 5µs, 10µs, 50µs, 100µs, 500µs, 1ms and +Inf.
var HistogramBounds = []string{
	"0.000001",
	"0.000005",
	"0.00001",
	"0.00005",
	"0.0001",
	"0.0005",
	"0.001",
	"+Inf",
}

const bucketCount = 8

// NormalizeBuckets copies raw into a fixed array, zero-filling short input.
func NormalizeBuckets(raw []uint64) [bucketCount]uint64 {
	var out [bucketCount]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into Prometheus-style running
// totals.
func CumulativeBuckets(raw [bucketCount]uint64) [bucketCount]uint64 {
	var out [bucketCount]uint64
	var running uint64
	for i, n := range raw {
		running += n
		out[i] = running
	}
	return out
}
