package cacheinfra

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exports cache activity to prometheus. It satisfies ledger.Observer.
type Metrics struct {
	hits        prometheus.Counter
	misses      prometheus.Counter
	evictions   prometheus.Counter
	expirations prometheus.Counter
	invalidated prometheus.Counter
	entries     prometheus.Gauge
}

// NewMetrics registers the cache collectors on reg under namespace.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		hits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache lookups served from the cache.",
		}),
		misses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache lookups that found no live entry.",
		}),
		evictions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Entries dropped to honour the capacity ceiling.",
		}),
		expirations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "expirations_total",
			Help:      "Entries dropped after their TTL elapsed.",
		}),
		invalidated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "invalidated_entries_total",
			Help:      "Entries purged by invalidation patterns.",
		}),
		entries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Entries currently stored.",
		}),
	}
}

func (m *Metrics) Hit()              { m.hits.Inc() }
func (m *Metrics) Miss()             { m.misses.Inc() }
func (m *Metrics) Evicted()          { m.evictions.Inc() }
func (m *Metrics) Expired()          { m.expirations.Inc() }
func (m *Metrics) Invalidated(n int) { m.invalidated.Add(float64(n)) }
func (m *Metrics) Size(n int)        { m.entries.Set(float64(n)) }

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
