package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goToken "github.com/MrEthical07/goToken"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeSource struct {
	snapshot goToken.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goToken.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                     { return f.dropped }

func emptySnapshot() goToken.MetricsSnapshot {
	return goToken.MetricsSnapshot{
		Counters:   map[goToken.MetricID]uint64{},
		Histograms: map[goToken.MetricID][]uint64{},
	}
}

func TestCollectEmptyWhenMetricsDisabled(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{snapshot: emptySnapshot()})
	if n := testutil.CollectAndCount(c); n != 0 {
		t.Fatalf("expected no metrics while disabled, got %d", n)
	}
}

func TestCollectCounters(t *testing.T) {
	snap := emptySnapshot()
	snap.Counters[goToken.MetricIssueSuccess] = 7
	snap.Counters[goToken.MetricVerifyExpired] = 2
	c := NewCollectorFromSource(fakeSource{snapshot: snap, dropped: 3})

	expected := `
# HELP gotoken_issue_success_total Tokens issued.
# TYPE gotoken_issue_success_total counter
gotoken_issue_success_total 7
# HELP gotoken_verify_expired_total Tokens rejected as expired.
# TYPE gotoken_verify_expired_total counter
gotoken_verify_expired_total 2
# HELP gotoken_audit_dropped_total Dropped audit events due to dispatcher backpressure.
# TYPE gotoken_audit_dropped_total counter
gotoken_audit_dropped_total 3
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"gotoken_issue_success_total", "gotoken_verify_expired_total", "gotoken_audit_dropped_total")
	if err != nil {
		t.Fatalf("unexpected collector output: %v", err)
	}
}

func TestCollectHistogramIsCumulative(t *testing.T) {
	snap := emptySnapshot()
	snap.Histograms[goToken.MetricVerifyLatency] = []uint64{1, 2, 3, 4, 5, 6, 7, 8}
	snap.HistogramSums = map[goToken.MetricID]time.Duration{goToken.MetricVerifyLatency: 1500 * time.Microsecond}
	c := NewCollectorFromSource(fakeSource{snapshot: snap})

	expected := `
# HELP gotoken_verify_latency_seconds Verify latency histogram.
# TYPE gotoken_verify_latency_seconds histogram
gotoken_verify_latency_seconds_bucket{le="1e-05"} 1
gotoken_verify_latency_seconds_bucket{le="2.5e-05"} 3
gotoken_verify_latency_seconds_bucket{le="5e-05"} 6
gotoken_verify_latency_seconds_bucket{le="0.0001"} 10
gotoken_verify_latency_seconds_bucket{le="0.00025"} 15
gotoken_verify_latency_seconds_bucket{le="0.0005"} 21
gotoken_verify_latency_seconds_bucket{le="0.001"} 28
gotoken_verify_latency_seconds_bucket{le="+Inf"} 36
gotoken_verify_latency_seconds_sum 0.0015
gotoken_verify_latency_seconds_count 36
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected), "gotoken_verify_latency_seconds"); err != nil {
		t.Fatalf("unexpected histogram output: %v", err)
	}
}

func TestHandlerServesCodecMetrics(t *testing.T) {
	codec, err := goToken.New().
		WithHMACSecret([]byte("prometheus-test-secret")).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer codec.Close()

	token, err := goToken.IssueFor(codec, "payload", time.Minute)
	if err != nil {
		t.Fatalf("IssueFor failed: %v", err)
	}
	if _, err := goToken.Verify[string](codec, token); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if _, err := goToken.Verify[string](codec, "garbage"); err == nil {
		t.Fatal("expected garbage to be rejected")
	}

	srv := httptest.NewServer(NewCollector(codec).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	out := string(body)
	for _, want := range []string{
		"gotoken_issue_success_total 1",
		"gotoken_verify_success_total 1",
		"gotoken_verify_malformed_total 1",
		"gotoken_audit_dropped_total 0",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}
