// Package stats provides a small set of instrument interfaces backed by
// go-metrics, scoped hierarchically and rendered as Finagle-style flat JSON.
//
// A StatsReceiver is passed down the call tree and scoped at each level:
//
//	stat.Scope("scheduler").Counter("jobSucceededCounter")
//
// Latency instruments record durations and render them in the receiver's
// precision, ex: stat.Precision(time.Millisecond).Latency("jobLatency_ms").
//
// Original license: github.com/rcrowley/go-metrics/blob/master/LICENSE
package stats

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"
)

// For testing.
var Time StatsTime = DefaultStatsTime()

// Overridable instrument creation.
var NewCounter func() Counter = newMetricCounter
var NewGauge func() Gauge = newMetricGauge
var NewLatency func() Latency = newLatency

type MarshalerPretty interface {
	MarshalJSONPretty() ([]byte, error)
}

// StatsRegistry is the part of a go-metrics registry we rely on.
type StatsRegistry interface {
	// Gets an existing metric or registers the given one.
	GetOrRegister(string, interface{}) interface{}
	Unregister(string)
	Each(func(string, interface{}))
}

// StatsReceiver creates instruments namespaced by its scope. Names are joined
// with '/', and any '/' inside a name element is replaced with "_SLASH_".
type StatsReceiver interface {
	// Scope returns a receiver whose instruments are nested under the given elements.
	Scope(scope ...string) StatsReceiver

	// Precision returns a receiver whose Latency instruments render in units of
	// the given duration. Values <= 1ns default to ns.
	Precision(time.Duration) StatsReceiver

	Counter(name ...string) Counter
	Gauge(name ...string) Gauge
	Latency(name ...string) Latency

	Remove(name ...string)

	// Render marshals the whole registry to JSON.
	Render(pretty bool) []byte
}

// DefaultStatsReceiver returns a receiver over a fresh Finagle-style registry.
func DefaultStatsReceiver() StatsReceiver {
	return NewCustomStatsReceiver(nil)
}

// NewCustomStatsReceiver wraps the given registry, or a new Finagle-style one if nil.
func NewCustomStatsReceiver(registry StatsRegistry) StatsReceiver {
	if registry == nil {
		registry = NewFinagleStatsRegistry()
	}
	return &defaultStatsReceiver{registry: registry, precision: time.Nanosecond}
}

type defaultStatsReceiver struct {
	registry  StatsRegistry
	precision time.Duration
	scope     []string
}

func (s *defaultStatsReceiver) Scope(scope ...string) StatsReceiver {
	return &defaultStatsReceiver{s.registry, s.precision, s.scoped(scope...)}
}

func (s *defaultStatsReceiver) Precision(precision time.Duration) StatsReceiver {
	if precision < 1 {
		precision = 1
	}
	return &defaultStatsReceiver{s.registry, precision, s.scope}
}

func (s *defaultStatsReceiver) Counter(name ...string) Counter {
	return s.registry.GetOrRegister(s.scopedName(name...), NewCounter).(Counter)
}

func (s *defaultStatsReceiver) Gauge(name ...string) Gauge {
	return s.registry.GetOrRegister(s.scopedName(name...), NewGauge).(Gauge)
}

func (s *defaultStatsReceiver) Latency(name ...string) Latency {
	// No lazy instantiation: a plain metrics.Registry can't cast the factory's return value.
	return s.registry.GetOrRegister(s.scopedName(name...), NewLatency().Precision(s.precision)).(Latency)
}

func (s *defaultStatsReceiver) Remove(name ...string) {
	s.registry.Unregister(s.scopedName(name...))
}

func (s *defaultStatsReceiver) Render(pretty bool) []byte {
	var err error
	var bytes []byte
	if mp, ok := s.registry.(MarshalerPretty); ok && pretty {
		bytes, err = mp.MarshalJSONPretty()
	} else {
		bytes, err = json.Marshal(s.registry)
	}
	if err != nil {
		log.Errorf("stats registry cannot be marshaled: %v", err)
		return []byte("{}")
	}
	return bytes
}

// Append to a copy of the existing scope and scrub slashes.
func (s *defaultStatsReceiver) scoped(scope ...string) []string {
	result := append([]string(nil), s.scope...)
	for _, elem := range scope {
		result = append(result, strings.Replace(elem, "/", "_SLASH_", -1))
	}
	return result
}

func (s *defaultStatsReceiver) scopedName(scope ...string) string {
	return strings.Join(s.scoped(scope...), "/")
}

// NilStatsReceiver ignores all stats operations.
func NilStatsReceiver(scope ...string) StatsReceiver {
	return &nilStatsReceiver{}
}

type nilStatsReceiver struct{}

func (s *nilStatsReceiver) Scope(scope ...string) StatsReceiver             { return s }
func (s *nilStatsReceiver) Precision(precision time.Duration) StatsReceiver { return s }
func (s *nilStatsReceiver) Counter(name ...string) Counter {
	return &metricCounter{metrics.NilCounter{}}
}
func (s *nilStatsReceiver) Gauge(name ...string) Gauge {
	return &metricGauge{metrics.NilGauge{}}
}
func (s *nilStatsReceiver) Latency(name ...string) Latency { return &nilLatency{} }
func (s *nilStatsReceiver) Remove(name ...string)          {}
func (s *nilStatsReceiver) Render(pretty bool) []byte      { return []byte("{}") }

// Counter
type Counter interface {
	Count() int64
	Inc(int64)
}
type metricCounter struct{ metrics.Counter }

func newMetricCounter() Counter { return &metricCounter{metrics.NewCounter()} }

// Gauge
type Gauge interface {
	Update(int64)
	Value() int64
}
type metricGauge struct{ metrics.Gauge }

func newMetricGauge() Gauge { return &metricGauge{metrics.NewGauge()} }

// HistogramView is the read side of a latency histogram.
type HistogramView interface {
	Mean() float64
	Count() int64
	Max() int64
	Min() int64
	Sum() int64
	Percentiles(ps []float64) []float64
}

// Latency records durations into a histogram.
//
//	defer stat.Latency("passLatency_ms").Time().Stop()
type Latency interface {
	// Time starts a measurement; Stop records it.
	Time() Measurement
	// Observe records an already measured duration.
	Observe(time.Duration)
	Capture() HistogramView
	GetPrecision() time.Duration
	Precision(time.Duration) Latency
}

type Measurement interface {
	Stop()
}

type metricLatency struct {
	metrics.Histogram
	precision time.Duration
}

type latencyMeasurement struct {
	l     *metricLatency
	start time.Time
}

func (m latencyMeasurement) Stop() { m.l.Observe(Time.Since(m.start)) }

func (l *metricLatency) Time() Measurement           { return latencyMeasurement{l, Time.Now()} }
func (l *metricLatency) Observe(d time.Duration)     { l.Update(d.Nanoseconds()) }
func (l *metricLatency) Capture() HistogramView      { return l.Histogram.Snapshot() }
func (l *metricLatency) GetPrecision() time.Duration { return l.precision }
func (l *metricLatency) Precision(p time.Duration) Latency {
	if p < 1 {
		p = 1
	}
	l.precision = p
	return l
}
func newLatency() Latency {
	return &metricLatency{Histogram: metrics.NewHistogram(metrics.NewUniformSample(1000)), precision: time.Nanosecond}
}

type nilLatency struct{}
type nilMeasurement struct{}

func (nilMeasurement) Stop() {}

func (l *nilLatency) Time() Measurement               { return nilMeasurement{} }
func (l *nilLatency) Observe(time.Duration)           {}
func (l *nilLatency) Capture() HistogramView          { return metrics.NilHistogram{} }
func (l *nilLatency) GetPrecision() time.Duration     { return 0 }
func (l *nilLatency) Precision(time.Duration) Latency { return l }

// Twitter/Finagle style flat JSON rendering.
type finagleStatsRegistry struct {
	metrics.Registry
}

func NewFinagleStatsRegistry() StatsRegistry {
	return &finagleStatsRegistry{metrics.NewRegistry()}
}

type jsonMap map[string]interface{}

func (r *finagleStatsRegistry) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.MarshalAll())
}

func (r *finagleStatsRegistry) MarshalJSONPretty() ([]byte, error) {
	return json.MarshalIndent(r.MarshalAll(), "", "  ")
}

func (r *finagleStatsRegistry) MarshalAll() jsonMap {
	data := make(jsonMap)
	r.Each(func(name string, i interface{}) {
		switch stat := i.(type) {
		case Counter:
			data[name] = stat.Count()
		case Gauge:
			data[name] = stat.Value()
		case Latency:
			r.marshalHistogram(data, name, stat.Capture(), stat.GetPrecision())
		default:
			log.Info("Unrecognized marshal instrument: ", name, i)
		}
	})
	return data
}

func (r *finagleStatsRegistry) marshalHistogram(data jsonMap, name string, hist HistogramView, precision time.Duration) {
	f64p := float64(precision)
	i64p := int64(precision)
	data[name+".avg"] = hist.Mean() / f64p
	data[name+".count"] = hist.Count()
	data[name+".max"] = hist.Max() / i64p
	data[name+".min"] = hist.Min() / i64p
	data[name+".sum"] = hist.Sum() / i64p

	pctls := hist.Percentiles(defaultPercentiles)
	for i, pctl := range pctls {
		data[name+"."+defaultPercentileLabels[i]] = pctl / f64p
	}
}

var defaultPercentiles = []float64{0.5, 0.9, 0.95, 0.99}
var defaultPercentileLabels = []string{"p50", "p90", "p95", "p99"}
