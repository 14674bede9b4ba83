package goToken

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goToken/jwt"
)

// LintSeverity ranks a configuration warning.
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// LintWarning is a configuration that is valid but probably not intended.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the ordered list of warnings from [Config.Lint].
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, 0, len(r))
	for _, w := range r {
		out = append(out, w.Code)
	}
	return out
}

// BySeverity returns the warnings at or above min.
func (r LintResult) BySeverity(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError returns an error naming every warning at or above min, or nil.
func (r LintResult) AsError(min LintSeverity) error {
	hits := r.BySeverity(min)
	if len(hits) == 0 {
		return nil
	}
	return errors.New("config lint: " + strings.Join(hits.Codes(), ", "))
}

const (
	lintMinHMACSecret = 32
	lintLargeSkew     = 2 * time.Minute
	lintLongValidity  = 24 * time.Hour
)

// Lint reports settings that pass Validate but weaken tokens or hide
// failures. It never mutates c.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	switch jwt.SigningMethod(c.Signing.SigningMethod) {
	case jwt.MethodHS256:
		add("signing_hs256", LintInfo, "hs256 lets every verifier issue tokens; prefer ed25519 when verifiers are separate services")
		if n := len(c.Signing.PrivateKey); n > 0 && n < lintMinHMACSecret {
			add("hs256_secret_short", LintHigh, "hs256 secret shorter than 32 bytes")
		}
	case jwt.MethodEd25519:
		if len(c.Signing.PrivateKey) == 0 && len(c.Signing.PublicKey) > 0 {
			add("ed25519_verify_only", LintInfo, "no private key: Issue will fail")
		}
	}

	if c.ClockSkew == 0 {
		add("skew_zero", LintInfo, "zero clock skew rejects tokens from peers with any clock drift")
	}
	if c.ClockSkew > lintLargeSkew {
		add("skew_large", LintWarn, "clock skew above 2m extends every token's window on both ends")
	}
	if c.DefaultValidity > lintLongValidity {
		add("validity_long", LintWarn, "default validity above 24h; tokens cannot be revoked")
	}
	if c.DefaultValidity > 0 && c.DefaultValidity < c.ClockSkew {
		add("validity_below_skew", LintInfo, "clock skew exceeds default validity")
	}

	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "rejections are not audited")
	} else if c.Audit.DropIfFull {
		add("audit_drops_events", LintInfo, "audit events are dropped when the buffer is full")
	}

	return ws
}
