package internaldefs

import (
	goCred "github.com/MrEthical07/goCred"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   goCred.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for exporters.
type HistogramDef struct {
	ID   goCred.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const (
	AuditDroppedName = "gocred_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: goCred.MetricSignupSuccess, Name: "gocred_signup_success_total", Help: "Accounts created."},
	{ID: goCred.MetricSignupDuplicate, Name: "gocred_signup_duplicate_total", Help: "Signups rejected because the email is registered."},
	{ID: goCred.MetricSignupInvalid, Name: "gocred_signup_invalid_total", Help: "Signups rejected by field validation."},
	{ID: goCred.MetricSigninSuccess, Name: "gocred_signin_success_total", Help: "Signins that issued a credential."},
	{ID: goCred.MetricSigninUserNotFound, Name: "gocred_signin_user_not_found_total", Help: "Signins for unknown emails."},
	{ID: goCred.MetricSigninPasswordMismatch, Name: "gocred_signin_password_mismatch_total", Help: "Signins with a wrong password."},
	{ID: goCred.MetricSessionCreated, Name: "gocred_session_created_total", Help: "Opaque sessions created."},
	{ID: goCred.MetricTokenIssued, Name: "gocred_token_issued_total", Help: "Stateless tokens issued."},
	{ID: goCred.MetricResolveSuccess, Name: "gocred_resolve_success_total", Help: "Credentials resolved into an identity."},
	{ID: goCred.MetricResolveFailure, Name: "gocred_resolve_failure_total", Help: "Credentials rejected."},
	{ID: goCred.MetricResolveOrphanedSession, Name: "gocred_resolve_orphaned_session_total", Help: "Sessions removed because their user no longer exists."},
	{ID: goCred.MetricLogout, Name: "gocred_logout_total", Help: "Logouts."},
	{ID: goCred.MetricProfileUpdate, Name: "gocred_profile_update_total", Help: "Display name changes."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goCred.MetricResolveLatency, Name: "gocred_resolve_latency_seconds", Help: "Resolve latency."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds. The engine
// keeps one more bucket for +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket, +Inf included, for exporters that
// flatten buckets into separate instruments.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, zero filling short input.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
