// Package stats provides a set of minimal instrument interfaces backed by
// go-metrics. We wrap go-metrics so callers receive a StatsReceiver they can
// pass down a call tree and scope at each level, without leaking the
// go-metrics dependency to anyone pulling in simsched as a library.
package stats

import (
	"encoding/json"
	"strings"

	"github.com/rcrowley/go-metrics"
)

// Stats users can either reference this global receiver or construct their own.
var CurrentStatsReceiver StatsReceiver = NilStatsReceiver()

// A registry wrapper for metrics collected about estimation and dispatch.
//
// Hierarchical names use a '/' path separator. Variadic name elements have
// '/' characters replaced by "_SLASH_" before use, instead of failing,
// because some counters are dynamically generated (i.e. with fault names).
type StatsReceiver interface {
	// Return a stats receiver that will automatically namespace elements with
	// the given scope args.
	//
	//   statsReceiver.Scope("solver").Counter("infeasible")  // is equivalent to
	//   statsReceiver.Counter("solver", "infeasible")
	//
	Scope(scope ...string) StatsReceiver

	// Provides an event counter.
	Counter(name ...string) Counter

	// Add a gauge, which holds an int64 value that can be set arbitrarily.
	Gauge(name ...string) Gauge

	// Add a gauge, which holds a float64 value that can be set arbitrarily.
	GaugeFloat(name ...string) GaugeFloat

	// Construct a JSON string by marshaling the registry.
	Render() []byte
}

type Counter interface {
	Inc(int64)
	Count() int64
}

type Gauge interface {
	Update(int64)
	Value() int64
}

type GaugeFloat interface {
	Update(float64)
	Value() float64
}

// DefaultStatsReceiver returns a receiver over a fresh go-metrics registry.
func DefaultStatsReceiver() StatsReceiver {
	return &defaultStatsReceiver{registry: metrics.NewRegistry()}
}

// NilStatsReceiver discards everything but is safe to call.
func NilStatsReceiver() StatsReceiver {
	return &nilStatsReceiver{}
}

type defaultStatsReceiver struct {
	registry metrics.Registry
	scope    []string
}

func (s *defaultStatsReceiver) Scope(scope ...string) StatsReceiver {
	return &defaultStatsReceiver{registry: s.registry, scope: append(append([]string{}, s.scope...), scope...)}
}

func (s *defaultStatsReceiver) Counter(name ...string) Counter {
	return s.registry.GetOrRegister(s.scoped(name...), metrics.NewCounter).(metrics.Counter)
}

func (s *defaultStatsReceiver) Gauge(name ...string) Gauge {
	return s.registry.GetOrRegister(s.scoped(name...), metrics.NewGauge).(metrics.Gauge)
}

func (s *defaultStatsReceiver) GaugeFloat(name ...string) GaugeFloat {
	return s.registry.GetOrRegister(s.scoped(name...), metrics.NewGaugeFloat64).(metrics.GaugeFloat64)
}

func (s *defaultStatsReceiver) Render() []byte {
	out := map[string]interface{}{}
	s.registry.Each(func(name string, i interface{}) {
		switch m := i.(type) {
		case metrics.Counter:
			out[name] = m.Count()
		case metrics.Gauge:
			out[name] = m.Value()
		case metrics.GaugeFloat64:
			out[name] = m.Value()
		}
	})
	b, _ := json.Marshal(out)
	return b
}

func (s *defaultStatsReceiver) scoped(name ...string) string {
	elems := append(append([]string{}, s.scope...), name...)
	for i, e := range elems {
		elems[i] = strings.Replace(e, "/", "_SLASH_", -1)
	}
	return strings.Join(elems, "/")
}

type nilStatsReceiver struct{}

func (s *nilStatsReceiver) Scope(scope ...string) StatsReceiver  { return s }
func (s *nilStatsReceiver) Counter(name ...string) Counter       { return nilCounter{} }
func (s *nilStatsReceiver) Gauge(name ...string) Gauge           { return nilGauge{} }
func (s *nilStatsReceiver) GaugeFloat(name ...string) GaugeFloat { return nilGaugeFloat{} }
func (s *nilStatsReceiver) Render() []byte                       { return []byte("{}") }

type nilCounter struct{}

func (nilCounter) Inc(int64)    {}
func (nilCounter) Count() int64 { return 0 }

type nilGauge struct{}

func (nilGauge) Update(int64) {}
func (nilGauge) Value() int64 { return 0 }

type nilGaugeFloat struct{}

func (nilGaugeFloat) Update(float64) {}
func (nilGaugeFloat) Value() float64 { return 0 }
