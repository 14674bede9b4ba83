package goToken

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestCodec(t *testing.T, mutate func(*Config), sink AuditSink) *Codec {
	t.Helper()
	cfg := defaultConfig()
	cfg.Signing.PrivateKey = []byte("codec-test-secret")
	if mutate != nil {
		mutate(&cfg)
	}
	codec, err := New().WithConfig(cfg).WithAuditSink(sink).Build()
	require.NoError(t, err)
	t.Cleanup(codec.Close)
	return codec
}

// tamperSignature swaps the first signature character, which carries six full
// bits, so the decoded signature always differs.
func tamperSignature(token string) string {
	i := strings.LastIndexByte(token, '.') + 1
	repl := byte('A')
	if token[i] == 'A' {
		repl = 'B'
	}
	return token[:i] + string(repl) + token[i+1:]
}

func TestCodecIssueVerifyRoundTrip(t *testing.T) {
	codec := buildTestCodec(t, nil, nil)

	token, err := Issue(codec, sessionPayload{UserID: "u1", Roles: []string{"admin"}})
	require.NoError(t, err)

	got, err := Verify[sessionPayload](codec, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, []string{"admin"}, got.Roles)
}

func TestCodecUsesDefaultValidity(t *testing.T) {
	codec := buildTestCodec(t, func(c *Config) {
		c.DefaultValidity = 2 * time.Minute
		c.ClockSkew = 0
	}, nil)
	t0 := time.Unix(1_700_000_000, 0)

	token, err := issueAt(codec, "p", codec.config.DefaultValidity, t0)
	require.NoError(t, err)

	_, err = verifyAt[string](codec, token, t0.Add(2*time.Minute))
	assert.NoError(t, err)
	_, err = verifyAt[string](codec, token, t0.Add(2*time.Minute+time.Second))
	assert.ErrorIs(t, err, ErrExpired)
}

func TestCodecClockSkewConfigurable(t *testing.T) {
	codec := buildTestCodec(t, func(c *Config) {
		c.ClockSkew = 10 * time.Second
	}, nil)
	t0 := time.Unix(1_700_000_000, 0)

	token, err := issueAt(codec, "p", time.Minute, t0)
	require.NoError(t, err)

	_, err = verifyAt[string](codec, token, t0.Add(time.Minute+10*time.Second))
	assert.NoError(t, err)
	_, err = verifyAt[string](codec, token, t0.Add(time.Minute+11*time.Second))
	assert.ErrorIs(t, err, ErrExpired)
	_, err = verifyAt[string](codec, token, t0.Add(-11*time.Second))
	assert.ErrorIs(t, err, ErrNotYetValid)
}

func TestCodecEd25519VerifyOnly(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	issuer := buildTestCodec(t, func(c *Config) {
		c.Signing = SigningConfig{SigningMethod: "ed25519", PrivateKey: priv, KeyID: "k1"}
	}, nil)
	verifier := buildTestCodec(t, func(c *Config) {
		c.Signing = SigningConfig{SigningMethod: "ed25519", PublicKey: pub, KeyID: "k1"}
	}, nil)

	token, err := IssueFor(issuer, "hello", time.Minute)
	require.NoError(t, err)
	got, err := Verify[string](verifier, token)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	_, err = IssueFor(verifier, "hello", time.Minute)
	assert.ErrorIs(t, err, ErrKeyInvalid, "verify-only codec cannot issue")
}

func TestCodecNil(t *testing.T) {
	_, err := Issue[string](nil, "p")
	assert.ErrorIs(t, err, ErrCodecNotReady)
	_, err = Verify[string](nil, "a.b.c")
	assert.ErrorIs(t, err, ErrCodecNotReady)

	var c *Codec
	assert.Empty(t, c.MetricsSnapshot().Counters)
	assert.Zero(t, c.AuditDropped())
	c.Close()
}

func TestCodecMetricsClassifyOutcomes(t *testing.T) {
	codec := buildTestCodec(t, func(c *Config) {
		c.Metrics = MetricsConfig{Enabled: true, EnableLatencyHistograms: true}
	}, nil)
	t0 := time.Unix(1_700_000_000, 0)

	token, err := issueAt(codec, "p", time.Minute, t0)
	require.NoError(t, err)
	_, err = IssueFor(codec, "p", -time.Second)
	require.Error(t, err)

	_, _ = verifyAt[string](codec, token, t0)
	_, _ = verifyAt[string](codec, token, t0.Add(time.Hour))
	_, _ = verifyAt[string](codec, token, t0.Add(-time.Hour))
	_, _ = verifyAt[string](codec, "garbage", t0)
	_, _ = verifyAt[string](codec, tamperSignature(token), t0)

	snap := codec.MetricsSnapshot()
	assert.Equal(t, uint64(1), snap.Counters[MetricIssueSuccess])
	assert.Equal(t, uint64(1), snap.Counters[MetricIssueFailure])
	assert.Equal(t, uint64(1), snap.Counters[MetricVerifySuccess])
	assert.Equal(t, uint64(1), snap.Counters[MetricVerifyExpired])
	assert.Equal(t, uint64(1), snap.Counters[MetricVerifyNotYetValid])
	assert.Equal(t, uint64(1), snap.Counters[MetricVerifyMalformed])
	assert.Equal(t, uint64(1), snap.Counters[MetricVerifyInvalidSignature])

	var total uint64
	for _, n := range snap.Histograms[MetricVerifyLatency] {
		total += n
	}
	assert.Equal(t, uint64(5), total)
}

func TestCodecAuditRejections(t *testing.T) {
	sink := NewChannelSink(16)
	codec := buildTestCodec(t, func(c *Config) {
		c.Signing.KeyID = "kid-1"
		c.Audit = AuditConfig{Enabled: true, BufferSize: 16, DropIfFull: false, RecordSuccess: true}
	}, sink)
	t0 := time.Unix(1_700_000_000, 0)

	token, err := issueAt(codec, "p", time.Minute, t0)
	require.NoError(t, err)
	_, err = verifyAt[string](codec, token, t0.Add(time.Hour))
	require.ErrorIs(t, err, ErrExpired)
	codec.Close()

	var events []AuditEvent
	for len(events) < 2 {
		select {
		case ev := <-sink.Events():
			events = append(events, ev)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for audit events, got %d", len(events))
		}
	}

	assert.Equal(t, auditEventIssued, events[0].EventType)
	assert.True(t, events[0].Success)
	assert.Equal(t, "kid-1", events[0].KeyID)
	assert.NotEmpty(t, events[0].ID)
	assert.Equal(t, "1700000060", events[0].Metadata["expires_at"])

	assert.Equal(t, auditEventRejected, events[1].EventType)
	assert.False(t, events[1].Success)
	assert.Equal(t, "expired", events[1].Metadata["reason"])
	assert.NotEqual(t, events[0].ID, events[1].ID)
	assert.NotContains(t, events[1].Reason, token)
}

func TestCodecLogsRejectionWithoutToken(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg := defaultConfig()
	cfg.Signing.PrivateKey = []byte("codec-test-secret")
	codec, err := New().WithConfig(cfg).WithLogger(logger).Build()
	require.NoError(t, err)

	token, err := IssueFor(codec, "p", time.Minute)
	require.NoError(t, err)
	tampered := tamperSignature(token)
	_, err = Verify[string](codec, tampered)
	require.ErrorIs(t, err, ErrTokenInvalid)

	out := buf.String()
	assert.Contains(t, out, "token rejected")
	assert.False(t, strings.Contains(out, tampered), "log must not contain the token")
}

func TestCodecConcurrentIssueVerify(t *testing.T) {
	codec := buildTestCodec(t, func(c *Config) {
		c.Metrics.Enabled = true
	}, nil)

	const goroutines = 16
	const perG = 200

	var wg sync.WaitGroup
	errs := make(chan error, goroutines)
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perG; i++ {
				token, err := IssueFor(codec, g*perG+i, time.Minute)
				if err != nil {
					errs <- err
					return
				}
				got, err := Verify[int](codec, token)
				if err != nil {
					errs <- err
					return
				}
				if got != g*perG+i {
					errs <- assert.AnError
					return
				}
			}
		}(g)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent round trip failed: %v", err)
	}

	snap := codec.MetricsSnapshot()
	assert.Equal(t, uint64(goroutines*perG), snap.Counters[MetricVerifySuccess])
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithHMACSecret([]byte("secret"))
	codec, err := b.Build()
	require.NoError(t, err)
	codec.Close()

	_, err = b.Build()
	assert.Error(t, err)
}

func TestBuilderRejectsBadKeys(t *testing.T) {
	_, err := New().Build()
	assert.Error(t, err, "hs256 without secret")

	cfg := defaultConfig()
	cfg.Signing = SigningConfig{SigningMethod: "ed25519", PrivateKey: []byte("not-a-key")}
	_, err = New().WithConfig(cfg).Build()
	assert.Error(t, err)
}

func TestBuilderClonesConfig(t *testing.T) {
	secret := []byte("original-secret")
	cfg := defaultConfig()
	cfg.Signing.PrivateKey = secret

	codec, err := New().WithConfig(cfg).Build()
	require.NoError(t, err)
	token, err := IssueFor(codec, "p", time.Minute)
	require.NoError(t, err)

	copy(secret, "mutated!")
	_, err = Verify[string](codec, token)
	assert.NoError(t, err)
}

func TestRejectionReason(t *testing.T) {
	codec := buildTestCodec(t, nil, nil)
	t0 := time.Unix(1_700_000_000, 0)
	token, err := issueAt(codec, "p", time.Minute, t0)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		at    time.Time
		want  string
	}{
		{"expired", token, t0.Add(time.Hour), "expired"},
		{"not yet valid", token, t0.Add(-time.Hour), "not_yet_valid"},
		{"tampered", tamperSignature(token), t0, "invalid_signature"},
		{"garbage", "not-a-token", t0, "malformed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifyAt[string](codec, tt.token, tt.at)
			require.Error(t, err)
			assert.Equal(t, tt.want, RejectionReason(err))
		})
	}
	assert.Empty(t, RejectionReason(nil))
	assert.Equal(t, 5*time.Minute, codec.DefaultValidity())
}
