package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	goToken "github.com/MrEthical07/goToken"
	"github.com/MrEthical07/goToken/jwt"
	"gopkg.in/yaml.v3"
)

const (
	envSecret            = "GOTOKEN_SECRET"
	envEd25519PrivateKey = "GOTOKEN_ED25519_PRIVATE_KEY"
	envEd25519PublicKey  = "GOTOKEN_ED25519_PUBLIC_KEY"
)

// fileConfig is the --config YAML document. Key material never lives here.
type fileConfig struct {
	SigningMethod string         `yaml:"signing_method"`
	KeyID         string         `yaml:"key_id"`
	Validity      time.Duration  `yaml:"validity"`
	ClockSkew     *time.Duration `yaml:"clock_skew"`
	Audit         bool           `yaml:"audit"`
}

func loadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return fc, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc, nil
}

func (fc fileConfig) apply(cfg *goToken.Config) {
	if fc.SigningMethod != "" {
		cfg.Signing.SigningMethod = strings.ToLower(fc.SigningMethod)
	}
	if fc.KeyID != "" {
		cfg.Signing.KeyID = fc.KeyID
	}
	if fc.Validity != 0 {
		cfg.DefaultValidity = fc.Validity
	}
	if fc.ClockSkew != nil {
		cfg.ClockSkew = *fc.ClockSkew
	}
	if fc.Audit {
		cfg.Audit.Enabled = true
		cfg.Audit.RecordSuccess = true
		cfg.Audit.DropIfFull = false
	}
}

// loadKeys fills cfg.Signing key material from the environment.
func loadKeys(cfg *goToken.Config) error {
	switch jwt.SigningMethod(cfg.Signing.SigningMethod) {
	case jwt.MethodHS256:
		secret := os.Getenv(envSecret)
		if secret == "" {
			return fmt.Errorf("%s is not set", envSecret)
		}
		cfg.Signing.PrivateKey = []byte(secret)
	case jwt.MethodEd25519:
		privPath := os.Getenv(envEd25519PrivateKey)
		pubPath := os.Getenv(envEd25519PublicKey)
		if privPath == "" && pubPath == "" {
			return fmt.Errorf("set %s or %s", envEd25519PrivateKey, envEd25519PublicKey)
		}
		if privPath != "" {
			key, err := os.ReadFile(privPath)
			if err != nil {
				return fmt.Errorf("read private key: %w", err)
			}
			cfg.Signing.PrivateKey = key
		}
		if pubPath != "" {
			key, err := os.ReadFile(pubPath)
			if err != nil {
				return fmt.Errorf("read public key: %w", err)
			}
			cfg.Signing.PublicKey = key
		}
	default:
		return fmt.Errorf("unsupported signing method %q", cfg.Signing.SigningMethod)
	}
	return nil
}

// buildCodec assembles a codec from --config, the environment and extra
// builder options. Callers must Close the returned codec.
func buildCodec(opts *rootOptions, auditOut io.Writer, mutate func(*goToken.Builder)) (*goToken.Codec, error) {
	fc, err := loadFileConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	cfg := goToken.DefaultConfig()
	fc.apply(&cfg)
	if err := loadKeys(&cfg); err != nil {
		return nil, err
	}
	for _, w := range cfg.Lint().BySeverity(goToken.LintWarn) {
		opts.logger.Warn("config lint", "code", w.Code, "severity", w.Severity.String(), "detail", w.Message)
	}

	b := goToken.New().WithConfig(cfg).WithLogger(opts.logger)
	if cfg.Audit.Enabled {
		b.WithAuditSink(goToken.NewJSONWriterSink(auditOut))
	}
	if mutate != nil {
		mutate(b)
	}
	return b.Build()
}
