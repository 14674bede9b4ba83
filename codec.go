package goToken

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/MrEthical07/goToken/jwt"
	"github.com/google/uuid"
)

// Codec issues and verifies session tokens with one configured key pair.
//
// A Codec is immutable after Build and safe for concurrent use. Issue and
// Verify are package functions because Go methods cannot be generic.
type Codec struct {
	config       Config
	signing      jwt.SigningKey
	verification jwt.VerificationKey
	policy       jwt.Policy
	metrics      *Metrics
	audit        *auditDispatcher
	logger       *slog.Logger
}

// Issue returns a token carrying payload, valid for the configured DefaultValidity.
func Issue[T any](c *Codec, payload T) (string, error) {
	if c == nil {
		return "", ErrCodecNotReady
	}
	return issueAt(c, payload, c.config.DefaultValidity, time.Now())
}

// IssueFor returns a token carrying payload, valid from now for validity.
func IssueFor[T any](c *Codec, payload T, validity time.Duration) (string, error) {
	return issueAt(c, payload, validity, time.Now())
}

// Verify checks token and returns its payload. Failures are classified as in
// Decode; the codec's ClockSkew replaces DefaultClockSkew.
func Verify[T any](c *Codec, token string) (T, error) {
	return verifyAt[T](c, token, time.Now())
}

func issueAt[T any](c *Codec, payload T, validity time.Duration, now time.Time) (string, error) {
	if c == nil {
		return "", ErrCodecNotReady
	}

	token, err := encodeAt(payload, validity, c.signing, now)
	if err != nil {
		c.metricInc(MetricIssueFailure)
		c.emitAudit(auditEventIssueFailed, false, err, nil)
		c.log().Debug("goToken: issue failed", "error", err)
		return "", err
	}

	c.metricInc(MetricIssueSuccess)
	if c.config.Audit.RecordSuccess {
		c.emitAudit(auditEventIssued, true, nil, func() map[string]string {
			return map[string]string{
				"not_before": strconv.FormatInt(now.Unix(), 10),
				"expires_at": strconv.FormatInt(now.Add(validity).Unix(), 10),
			}
		})
	}
	return token, nil
}

func verifyAt[T any](c *Codec, token string, now time.Time) (T, error) {
	if c == nil {
		var zero T
		return zero, ErrCodecNotReady
	}

	var start time.Time
	if c.metrics.LatencyEnabled() {
		start = time.Now()
	}

	payload, err := decodeAt[T](token, c.verification, c.policy, now)

	if c.metrics.LatencyEnabled() {
		c.metrics.Observe(MetricVerifyLatency, time.Since(start))
	}

	if err != nil {
		id, reason := classifyVerifyFailure(err)
		c.metricInc(id)
		c.emitAudit(auditEventRejected, false, err, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		c.log().Debug("goToken: token rejected", "reason", reason)
		return payload, err
	}

	c.metricInc(MetricVerifySuccess)
	if c.config.Audit.RecordSuccess {
		c.emitAudit(auditEventVerified, true, nil, nil)
	}
	return payload, nil
}

// RejectionReason names the class of a Verify or Decode failure: "expired",
// "not_yet_valid", "invalid_signature" or "malformed". It returns "" for nil.
func RejectionReason(err error) string {
	if err == nil {
		return ""
	}
	_, reason := classifyVerifyFailure(err)
	return reason
}

func classifyVerifyFailure(err error) (MetricID, string) {
	switch {
	case errors.Is(err, ErrExpired):
		return MetricVerifyExpired, "expired"
	case errors.Is(err, ErrNotYetValid):
		return MetricVerifyNotYetValid, "not_yet_valid"
	case errors.Is(err, ErrInvalidSignature), errors.Is(err, ErrKeyInvalid):
		return MetricVerifyInvalidSignature, "invalid_signature"
	default:
		return MetricVerifyMalformed, "malformed"
	}
}

func (c *Codec) emitAudit(eventType string, success bool, err error, metadata func() map[string]string) {
	if c == nil || c.audit == nil {
		return
	}

	event := AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		EventType: eventType,
		KeyID:     c.config.Signing.KeyID,
		Success:   success,
	}
	if err != nil {
		event.Reason = err.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}
	c.audit.Emit(context.Background(), event)
}

func (c *Codec) log() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

func (c *Codec) metricInc(id MetricID) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.Inc(id)
}

// DefaultValidity reports the validity Issue applies.
func (c *Codec) DefaultValidity() time.Duration {
	if c == nil {
		return 0
	}
	return c.config.DefaultValidity
}

// MetricsSnapshot returns current metric values; empty when metrics are disabled.
func (c *Codec) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return emptySnapshot()
	}
	return c.metrics.Snapshot()
}

// AuditDropped reports audit events dropped under backpressure.
func (c *Codec) AuditDropped() uint64 {
	if c == nil || c.audit == nil {
		return 0
	}
	return c.audit.Dropped()
}

// Close flushes and stops the audit dispatcher. Issue and Verify keep working.
func (c *Codec) Close() {
	if c == nil {
		return
	}
	if c.audit != nil {
		c.audit.Close()
	}
}
