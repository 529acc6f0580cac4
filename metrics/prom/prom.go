// Package prom adapts dedupcache's telemetry contract to Prometheus,
// the same role the teacher's metrics/prom package plays for its own
// cache.Metrics interface.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/segmentstore/dedupcache"
)

// Sink implements dedupcache.CounterSink by exporting one CounterVec
// labeled by the counter's full name (e.g.
// "string-deduplication-cache-write.access-count"). Because names never
// embed a generation, label cardinality stays bounded to
// (family × operation × {access,miss}) — a handful of series.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
type Sink struct {
	counters *prometheus.CounterVec

	size      *prometheus.GaugeVec
	weight    *prometheus.GaugeVec
	occupancy prometheus.Gauge
}

// NewSink constructs a Prometheus-backed CounterSink and registers its
// metrics with reg (nil => prometheus.DefaultRegisterer).
func NewSink(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Sink {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &Sink{
		counters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "dedup_counter_total",
			Help:        "Deduplication cache access/miss counters, labeled by full counter name",
			ConstLabels: constLabels,
		}, []string{"name"}),
		size: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "dedup_family_size",
			Help:        "Resident entry count per cache family",
			ConstLabels: constLabels,
		}, []string{"family"}),
		weight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "dedup_family_weight",
			Help:        "Resident weight per cache family",
			ConstLabels: constLabels,
		}, []string{"family"}),
		occupancy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "dedup_node_occupancy",
			Help:        "Occupied slots in the shared node priority table",
			ConstLabels: constLabels,
		}),
	}
	reg.MustRegister(s.counters, s.size, s.weight, s.occupancy)
	return s
}

// promCounter adapts one label value of a CounterVec to dedupcache.Counter.
type promCounter struct {
	c prometheus.Counter
}

func (p promCounter) Inc() { p.c.Inc() }

// Counter returns the Counter handle for name, creating its label series
// on first use.
func (s *Sink) Counter(name string) dedupcache.Counter {
	return promCounter{c: s.counters.WithLabelValues(name)}
}

var _ dedupcache.CounterSink = (*Sink)(nil)

// Observe updates the size/weight/occupancy gauges from a manager's
// current StatsView. Call periodically (e.g. from a host-side ticker);
// the manager itself never pushes to a sink.
func (s *Sink) Observe(m *dedupcache.CacheManager) {
	ss := m.StringStats()
	ts := m.TemplateStats()
	ns := m.NodeStats()

	s.size.WithLabelValues("string").Set(float64(ss.TotalSize))
	s.weight.WithLabelValues("string").Set(float64(ss.TotalWeight))
	s.size.WithLabelValues("template").Set(float64(ts.TotalSize))
	s.weight.WithLabelValues("template").Set(float64(ts.TotalWeight))
	s.occupancy.Set(float64(ns.Occupancy))
}
