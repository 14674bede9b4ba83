package otel

import (
	"context"
	"errors"
	"fmt"

	goToken "github.com/MrEthical07/goToken"
	"github.com/MrEthical07/goToken/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() goToken.MetricsSnapshot
	AuditDropped() uint64
}

// latencyInstruments mirrors one codec histogram as cumulative bucket gauges
// plus count and sum gauges, since OTel has no observable histogram.
type latencyInstruments struct {
	id      goToken.MetricID
	buckets [8]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
	sum     metric.Float64ObservableGauge
}

// Exporter publishes a codec's counters, verify latency and audit drops
// through an OTel meter. Close unregisters the callback.
type Exporter struct {
	source       metricsSource
	registration metric.Registration
	counters     map[goToken.MetricID]metric.Int64ObservableCounter
	latency      []latencyInstruments
	auditDropped metric.Int64ObservableCounter
}

// NewExporter registers observable instruments for codec on meter.
func NewExporter(meter metric.Meter, codec *goToken.Codec) (*Exporter, error) {
	if codec == nil {
		return nil, ErrNilSource
	}
	return NewExporterFromSource(meter, codec)
}

// NewExporterFromSource is NewExporter for any snapshot source, such as a
// test double or a wrapper aggregating several codecs.
func NewExporterFromSource(meter metric.Meter, source metricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	reg := &instrumentSet{meter: meter}
	e := &Exporter{
		source:   source,
		counters: make(map[goToken.MetricID]metric.Int64ObservableCounter, len(internaldefs.CounterDefs)),
	}

	for _, def := range internaldefs.CounterDefs {
		e.counters[def.ID] = reg.counter(def.Name, def.Help)
	}
	for _, def := range internaldefs.HistogramDefs {
		li := latencyInstruments{id: def.ID}
		for i, suffix := range internaldefs.HistogramBoundSuffix {
			li.buckets[i] = reg.gauge(def.Name+"_bucket_le_"+suffix, "Cumulative verify calls at or under "+suffix+".")
		}
		li.count = reg.gauge(def.Name+"_count", "Verify latency samples.")
		li.sum = reg.floatGauge(def.Name+"_sum", "Total verify latency in seconds.")
		e.latency = append(e.latency, li)
	}
	e.auditDropped = reg.counter(internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp)

	if reg.err != nil {
		return nil, reg.err
	}
	registration, err := meter.RegisterCallback(e.observe, reg.observables...)
	if err != nil {
		return nil, fmt.Errorf("register gotoken callback: %w", err)
	}
	e.registration = registration
	return e, nil
}

// instrumentSet creates instruments and keeps the first creation error so the
// constructor can check once.
type instrumentSet struct {
	meter       metric.Meter
	observables []metric.Observable
	err         error
}

func (s *instrumentSet) counter(name, help string) metric.Int64ObservableCounter {
	ins, err := s.meter.Int64ObservableCounter(name, metric.WithDescription(help))
	s.track(name, ins, err)
	return ins
}

func (s *instrumentSet) gauge(name, help string) metric.Int64ObservableGauge {
	ins, err := s.meter.Int64ObservableGauge(name, metric.WithDescription(help))
	s.track(name, ins, err)
	return ins
}

func (s *instrumentSet) floatGauge(name, help string) metric.Float64ObservableGauge {
	ins, err := s.meter.Float64ObservableGauge(name, metric.WithDescription(help), metric.WithUnit("s"))
	s.track(name, ins, err)
	return ins
}

func (s *instrumentSet) track(name string, ins metric.Observable, err error) {
	if err != nil {
		if s.err == nil {
			s.err = fmt.Errorf("create instrument %s: %w", name, err)
		}
		return
	}
	s.observables = append(s.observables, ins)
}

func (e *Exporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for id, ins := range e.counters {
		o.ObserveInt64(ins, int64(snapshot.Counters[id]))
	}
	for _, li := range e.latency {
		raw, ok := snapshot.Histograms[li.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		for i, total := range cumulative {
			o.ObserveInt64(li.buckets[i], int64(total))
		}
		o.ObserveInt64(li.count, int64(cumulative[len(cumulative)-1]))
		o.ObserveFloat64(li.sum, snapshot.HistogramSums[li.id].Seconds())
	}
	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the callback. Safe on nil.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
