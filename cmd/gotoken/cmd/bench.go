package cmd

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goToken "github.com/MrEthical07/goToken"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type benchPayload struct {
	Subject string `json:"sub"`
	Scope   string `json:"scope"`
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

type phaseReport struct {
	Phase     string  `json:"phase" yaml:"phase"`
	Ops       int     `json:"ops" yaml:"ops"`
	Failures  int64   `json:"failures" yaml:"failures"`
	Total     string  `json:"total" yaml:"total"`
	OpsPerSec float64 `json:"ops_per_sec" yaml:"ops_per_sec"`
	P50       string  `json:"p50" yaml:"p50"`
	P95       string  `json:"p95" yaml:"p95"`
	P99       string  `json:"p99" yaml:"p99"`
}

type benchReport struct {
	Phases   []phaseReport     `json:"phases" yaml:"phases"`
	Counters map[string]uint64 `json:"counters" yaml:"counters"`
}

func newBenchCmd(opts *rootOptions) *cobra.Command {
	var (
		ops         int
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Issue and verify tokens in parallel and report latency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ops <= 0 || concurrency <= 0 {
				return errors.New("ops and concurrency must be > 0")
			}

			codec, err := buildCodec(opts, io.Discard, func(b *goToken.Builder) {
				b.WithMetricsEnabled(true).WithLatencyHistograms(true)
			})
			if err != nil {
				return err
			}
			defer codec.Close()

			tokens := make([]string, ops)
			issueStats := runIssuePhase(codec, tokens, concurrency)
			verifyStats := runVerifyPhase(codec, tokens, concurrency)

			snapshot := codec.MetricsSnapshot()
			report := benchReport{
				Phases: []phaseReport{
					issueStats.report("issue"),
					verifyStats.report("verify"),
				},
				Counters: map[string]uint64{
					"issue_success":  snapshot.Counters[goToken.MetricIssueSuccess],
					"issue_failure":  snapshot.Counters[goToken.MetricIssueFailure],
					"verify_success": snapshot.Counters[goToken.MetricVerifySuccess],
				},
			}
			if handled, err := writeStructured(cmd.OutOrStdout(), opts.output, report); handled {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, infoFmt("---- results ----"))
			for _, p := range report.Phases {
				printPhase(out, p)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&ops, "ops", 100000, "Operations per phase (issue + verify)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 64, "Number of concurrent workers")
	return cmd
}

func runIssuePhase(codec *goToken.Codec, tokens []string, concurrency int) phaseStats {
	return runPhase(len(tokens), concurrency, func(i int) error {
		token, err := goToken.Issue(codec, benchPayload{Subject: uuid.NewString(), Scope: "bench"})
		if err != nil {
			return err
		}
		tokens[i] = token
		return nil
	})
}

func runVerifyPhase(codec *goToken.Codec, tokens []string, concurrency int) phaseStats {
	return runPhase(len(tokens), concurrency, func(i int) error {
		_, err := goToken.Verify[benchPayload](codec, tokens[i])
		return err
	})
}

// runPhase spreads ops calls of op over concurrency workers. Each index is
// handed out exactly once.
func runPhase(ops, concurrency int, op func(i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, ops)
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(i)
				latencies[i] = time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
			}
		}()
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func (s phaseStats) report(name string) phaseReport {
	return phaseReport{
		Phase:     name,
		Ops:       s.ops,
		Failures:  s.failures,
		Total:     s.total.Round(time.Millisecond).String(),
		OpsPerSec: s.opsPerS,
		P50:       s.p50.Round(time.Microsecond).String(),
		P95:       s.p95.Round(time.Microsecond).String(),
		P99:       s.p99.Round(time.Microsecond).String(),
	}
}

func printPhase(w io.Writer, p phaseReport) {
	fmt.Fprintf(w, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		okFmt(p.Phase),
		p.Ops,
		p.Failures,
		p.Total,
		p.OpsPerSec,
		p.P50,
		p.P95,
		p.P99,
	)
}
