package internaldefs

import (
	goToken "github.com/MrEthical07/goToken"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   goToken.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   goToken.MetricID
	Name string
	Help string
}

// CounterDefs lists every counter in export order.
var CounterDefs = []CounterDef{
	{ID: goToken.MetricIssueSuccess, Name: "gotoken_issue_success_total", Help: "Tokens issued."},
	{ID: goToken.MetricIssueFailure, Name: "gotoken_issue_failure_total", Help: "Issue calls that returned an error."},
	{ID: goToken.MetricVerifySuccess, Name: "gotoken_verify_success_total", Help: "Tokens accepted."},
	{ID: goToken.MetricVerifyMalformed, Name: "gotoken_verify_malformed_total", Help: "Tokens rejected as malformed or missing nbf/exp."},
	{ID: goToken.MetricVerifyInvalidSignature, Name: "gotoken_verify_invalid_signature_total", Help: "Tokens rejected for signature, algorithm or key id mismatch."},
	{ID: goToken.MetricVerifyExpired, Name: "gotoken_verify_expired_total", Help: "Tokens rejected as expired."},
	{ID: goToken.MetricVerifyNotYetValid, Name: "gotoken_verify_not_yet_valid_total", Help: "Tokens rejected as not yet valid."},
}

// HistogramDefs lists every histogram in export order.
var HistogramDefs = []HistogramDef{
	{ID: goToken.MetricVerifyLatency, Name: "gotoken_verify_latency_seconds", Help: "Verify latency histogram."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds; the eighth
// bucket is +Inf.
var HistogramUpperBounds = []float64{
	0.00001,
	0.000025,
	0.00005,
	0.0001,
	0.00025,
	0.0005,
	0.001,
}

// HistogramBoundSuffix names each bucket for exporters that cannot carry an
// le label.
var HistogramBoundSuffix = []string{
	"10us",
	"25us",
	"50us",
	"100us",
	"250us",
	"500us",
	"1ms",
	"inf",
}

// AuditDroppedName is the counter for audit events dropped under backpressure.
const AuditDroppedName = "gotoken_audit_dropped_total"

// AuditDroppedHelp describes AuditDroppedName.
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

// NormalizeBuckets copies raw into a fixed eight-bucket array, zero padding.
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
