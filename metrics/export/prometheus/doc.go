// Package prometheus exposes goToken metrics through
// github.com/prometheus/client_golang.
//
// [NewCollector] returns a [prometheus.Collector] that reads
// [goToken.Codec.MetricsSnapshot] on each scrape. Counters are named
// gotoken_*_total; the single histogram is gotoken_verify_latency_seconds.
// [Collector.Handler] serves the collector from a private registry.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry. Callers register the
//     Collector themselves or mount Handler.
//   - Mutate codec state.
package prometheus
