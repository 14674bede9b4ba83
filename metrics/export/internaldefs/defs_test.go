package internaldefs

import (
	"testing"

	goToken "github.com/MrEthical07/goToken"
)

func TestCumulativeBuckets(t *testing.T) {
	got := CumulativeBuckets(NormalizeBuckets([]uint64{1, 2, 3}))
	want := [8]uint64{1, 3, 6, 6, 6, 6, 6, 6}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestDefsCoverEveryMetric(t *testing.T) {
	seen := map[goToken.MetricID]bool{}
	for _, def := range CounterDefs {
		seen[def.ID] = true
	}
	for _, def := range HistogramDefs {
		seen[def.ID] = true
	}
	for id := goToken.MetricIssueSuccess; id <= goToken.MetricVerifyLatency; id++ {
		if !seen[id] {
			t.Fatalf("metric %d has no export definition", id)
		}
	}
	if len(HistogramUpperBounds)+1 != len(HistogramBoundSuffix) {
		t.Fatal("bucket bounds and suffixes disagree")
	}
}
