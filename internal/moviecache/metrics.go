package moviecache

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics mirrors the coordinator's hit counters and exposes cache
// namespace sizes. Prometheus counters are never reset.
type metrics struct {
	lookups *prometheus.CounterVec // by tier: memory, database, miss
}

func newMetrics(reg prometheus.Registerer, namespaces []Namespace) (*metrics, error) {
	if reg == nil {
		return nil, nil // metrics disabled
	}

	m := &metrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moviegraph",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Movie lookups by the tier that answered them",
		}, []string{"tier"}),
	}
	if err := reg.Register(m.lookups); err != nil {
		return nil, err
	}
	if err := reg.Register(&namespaceCollector{namespaces: namespaces}); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *metrics) recordLookup(tier string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(tier).Inc()
}

var namespaceEntriesDesc = prometheus.NewDesc(
	"moviegraph_cache_entries",
	"Entries held by a TTL cache namespace",
	[]string{"namespace", "state"}, nil,
)

// namespaceCollector reports TTL cache sizes at scrape time.
type namespaceCollector struct {
	namespaces []Namespace
}

func (c *namespaceCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- namespaceEntriesDesc
}

func (c *namespaceCollector) Collect(ch chan<- prometheus.Metric) {
	for _, ns := range c.namespaces {
		st := ns.Stats()
		ch <- prometheus.MustNewConstMetric(namespaceEntriesDesc, prometheus.GaugeValue, float64(st.Active), st.Name, "active")
		ch <- prometheus.MustNewConstMetric(namespaceEntriesDesc, prometheus.GaugeValue, float64(st.Expired), st.Name, "expired")
	}
}
