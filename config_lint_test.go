package goToken

import (
	"testing"
	"time"
)

func lintConfig() Config {
	cfg := defaultConfig()
	cfg.Signing.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	return cfg
}

func TestLint_DefaultConfigHasNoHighWarnings(t *testing.T) {
	cfg := lintConfig()
	if err := cfg.Lint().AsError(LintHigh); err != nil {
		t.Fatalf("default config with a 32 byte secret should not fail AsError(LintHigh): %v", err)
	}
}

func TestLint_ShortHMACSecret(t *testing.T) {
	cfg := lintConfig()
	cfg.Signing.PrivateKey = []byte("short")
	ws := cfg.Lint()
	if !containsCode(ws.Codes(), "hs256_secret_short") {
		t.Fatal("expected hs256_secret_short warning")
	}
	if err := ws.AsError(LintHigh); err == nil {
		t.Fatal("expected AsError(LintHigh) to fail for a short secret")
	}
}

func TestLint_Codes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		code   string
	}{
		{"hs256", func(*Config) {}, "signing_hs256"},
		{"zero skew", func(c *Config) { c.ClockSkew = 0 }, "skew_zero"},
		{"large skew", func(c *Config) { c.ClockSkew = 3 * time.Minute }, "skew_large"},
		{"long validity", func(c *Config) { c.DefaultValidity = 48 * time.Hour }, "validity_long"},
		{"validity below skew", func(c *Config) { c.DefaultValidity = 30 * time.Second }, "validity_below_skew"},
		{"audit disabled", func(*Config) {}, "audit_disabled"},
		{"audit drops", func(c *Config) { c.Audit.Enabled = true }, "audit_drops_events"},
		{"verify only", func(c *Config) {
			c.Signing = SigningConfig{SigningMethod: "ed25519", PublicKey: make([]byte, 32)}
		}, "ed25519_verify_only"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := lintConfig()
			tt.mutate(&cfg)
			if codes := cfg.Lint().Codes(); !containsCode(codes, tt.code) {
				t.Fatalf("expected %s in %v", tt.code, codes)
			}
		})
	}
}

func TestLint_NoFalsePositives(t *testing.T) {
	cfg := lintConfig()
	cfg.ClockSkew = 2 * time.Minute
	cfg.DefaultValidity = 24 * time.Hour
	cfg.Audit.Enabled = true
	cfg.Audit.DropIfFull = false

	codes := cfg.Lint().Codes()
	for _, unwanted := range []string{"skew_large", "skew_zero", "validity_long", "audit_disabled", "audit_drops_events", "hs256_secret_short"} {
		if containsCode(codes, unwanted) {
			t.Errorf("unexpected warning %q", unwanted)
		}
	}
}

func TestLint_BySeverity(t *testing.T) {
	cfg := lintConfig()
	cfg.ClockSkew = 5 * time.Minute
	ws := cfg.Lint()

	warn := ws.BySeverity(LintWarn)
	if len(warn) == 0 {
		t.Fatal("expected at least one WARN warning")
	}
	for _, w := range warn {
		if w.Severity < LintWarn {
			t.Errorf("BySeverity(LintWarn) returned %s warning %s", w.Severity, w.Code)
		}
	}
	if LintHigh.String() != "HIGH" {
		t.Fatalf("unexpected severity name %q", LintHigh.String())
	}
}

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}
