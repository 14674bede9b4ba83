package goToken

import (
	"errors"
	"log/slog"

	"github.com/MrEthical07/goToken/jwt"
)

// Builder assembles a Codec. It is single-use.
type Builder struct {
	config    Config
	auditSink AuditSink
	logger    *slog.Logger

	built bool
}

// New returns a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithHMACSecret selects hs256 with secret.
func (b *Builder) WithHMACSecret(secret []byte) *Builder {
	b.config.Signing = SigningConfig{
		SigningMethod: string(jwt.MethodHS256),
		PrivateKey:    cloneBytes(secret),
		KeyID:         b.config.Signing.KeyID,
	}
	return b
}

// WithAuditSink sets the sink that receives audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the logger for rejection diagnostics. Defaults to slog.Default().
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the verify latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, parses key material and returns the Codec.
func (b *Builder) Build() (*Codec, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	keyCfg := jwt.KeyConfig{
		SigningMethod: jwt.SigningMethod(cfg.Signing.SigningMethod),
		PrivateKey:    cfg.Signing.PrivateKey,
		PublicKey:     cfg.Signing.PublicKey,
		KeyID:         cfg.Signing.KeyID,
	}

	// -------- KEYS --------
	var signing jwt.SigningKey
	if len(cfg.Signing.PrivateKey) > 0 {
		sk, err := jwt.NewSigningKey(keyCfg)
		if err != nil {
			return nil, err
		}
		signing = sk
	}
	verification, err := jwt.NewVerificationKey(keyCfg)
	if err != nil {
		return nil, err
	}

	// -------- POLICY --------
	policy := newSessionPolicy(cfg.ClockSkew)
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	b.built = true

	return &Codec{
		config:       cfg,
		signing:      signing,
		verification: verification,
		policy:       policy,
		metrics:      NewMetrics(cfg.Metrics),
		audit:        newAuditDispatcher(cfg.Audit, b.auditSink),
		logger:       logger,
	}, nil
}
