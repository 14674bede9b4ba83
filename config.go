package goToken

import (
	"errors"
	"time"

	"github.com/MrEthical07/goToken/jwt"
)

// Config carries everything a Codec needs. Build it once at startup; the
// Builder clones it so later mutation by the caller has no effect.
type Config struct {
	Signing         SigningConfig
	DefaultValidity time.Duration
	ClockSkew       time.Duration
	Audit           AuditConfig
	Metrics         MetricsConfig
}

/*
====================================
SIGNING CONFIG
====================================
*/

// SigningConfig selects the algorithm and key material.
//
// For "hs256" PrivateKey is the shared secret. For "ed25519" PrivateKey (raw
// or PEM) enables issuing and PublicKey alone gives a verify-only codec.
type SigningConfig struct {
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	KeyID         string
}

// AuditConfig controls the asynchronous audit trail.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
	// RecordSuccess also emits token_issued and token_verified events;
	// failures are always emitted when auditing is enabled.
	RecordSuccess bool
}

// MetricsConfig controls in-process counters and the verify latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Signing: SigningConfig{
			SigningMethod: string(jwt.MethodHS256),
		},
		DefaultValidity: 5 * time.Minute,
		ClockSkew:       DefaultClockSkew,
		Audit: AuditConfig{
			Enabled:       false,
			BufferSize:    1024,
			DropIfFull:    true,
			RecordSuccess: false,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// DefaultConfig returns the configuration New starts from. Callers still
// have to supply key material.
func DefaultConfig() Config {
	return defaultConfig()
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Signing.PrivateKey = cloneBytes(cfg.Signing.PrivateKey)
	out.Signing.PublicKey = cloneBytes(cfg.Signing.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration error in c. Key material is only
// checked for presence here; parsing happens in Builder.Build.
func (c *Config) Validate() error {
	switch jwt.SigningMethod(c.Signing.SigningMethod) {
	case jwt.MethodHS256:
		if len(c.Signing.PrivateKey) == 0 {
			return errors.New("hs256 requires PrivateKey")
		}
	case jwt.MethodEd25519:
		if len(c.Signing.PrivateKey) == 0 && len(c.Signing.PublicKey) == 0 {
			return errors.New("ed25519 requires PrivateKey or PublicKey")
		}
	default:
		return errors.New("unsupported signing method")
	}

	if c.DefaultValidity <= 0 {
		return errors.New("DefaultValidity must be > 0")
	}
	if c.ClockSkew < 0 || c.ClockSkew > jwt.MaxLeeway {
		return errors.New("ClockSkew must be between 0 and 5m")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
