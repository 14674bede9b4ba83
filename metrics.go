package goToken

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a codec counter or histogram.
type MetricID uint16

const (
	// MetricIssueSuccess counts tokens issued.
	MetricIssueSuccess MetricID = iota
	// MetricIssueFailure counts issue calls that returned an error.
	MetricIssueFailure
	// MetricVerifySuccess counts tokens accepted.
	MetricVerifySuccess
	// MetricVerifyMalformed counts tokens rejected as malformed.
	MetricVerifyMalformed
	// MetricVerifyInvalidSignature counts tokens rejected for signature mismatch.
	MetricVerifyInvalidSignature
	// MetricVerifyExpired counts tokens rejected as expired.
	MetricVerifyExpired
	// MetricVerifyNotYetValid counts tokens rejected as not yet valid.
	MetricVerifyNotYetValid
	// MetricVerifyLatency is the verify latency histogram.
	MetricVerifyLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

// histBounds are the inclusive upper bounds of the first seven buckets; the
// eighth bucket is +Inf. Verification is in-memory crypto, so the scale is
// microseconds.
var histBounds = [histBucketCount - 1]time.Duration{
	10 * time.Microsecond,
	25 * time.Microsecond,
	50 * time.Microsecond,
	100 * time.Microsecond,
	250 * time.Microsecond,
	500 * time.Microsecond,
	time.Millisecond,
}

type latencyHistogram struct {
	buckets  [histBucketCount]uint64
	sumNanos uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters and the verify latency histogram.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	verifyLatency latencyHistogram
}

// MetricsSnapshot is a point-in-time copy of all metric values.
//
// Histogram buckets are non-cumulative. HistogramSums holds the total
// observed duration per histogram.
type MetricsSnapshot struct {
	Counters      map[MetricID]uint64
	Histograms    map[MetricID][]uint64
	HistogramSums map[MetricID]time.Duration
}

// NewMetrics returns metrics configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in histogram id. Only MetricVerifyLatency is a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id != MetricVerifyLatency {
		return
	}
	atomic.AddUint64(&m.verifyLatency.buckets[bucketIndex(d)], 1)
	if d > 0 {
		atomic.AddUint64(&m.verifyLatency.sumNanos, uint64(d))
	}
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and, when enabled, the latency histogram.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return emptySnapshot()
	}

	s := MetricsSnapshot{
		Counters:      make(map[MetricID]uint64, int(metricIDCount)),
		Histograms:    make(map[MetricID][]uint64, 1),
		HistogramSums: make(map[MetricID]time.Duration, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricVerifyLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.verifyLatency.buckets[i])
		}
		s.Histograms[MetricVerifyLatency] = buckets
		s.HistogramSums[MetricVerifyLatency] = time.Duration(atomic.LoadUint64(&m.verifyLatency.sumNanos))
	}

	return s
}

func emptySnapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Counters:      map[MetricID]uint64{},
		Histograms:    map[MetricID][]uint64{},
		HistogramSums: map[MetricID]time.Duration{},
	}
}

func bucketIndex(d time.Duration) int {
	for i, bound := range histBounds {
		if d <= bound {
			return i
		}
	}
	return histBucketCount - 1
}
