// internal/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's Prometheus instruments. A fresh registry is
// created per instance so tests can construct them without label collisions.
type Metrics struct {
	registry *prometheus.Registry

	PriceCacheHits     prometheus.Counter
	PriceCacheMisses   prometheus.Counter
	PriceFallbacks     prometheus.Counter
	OracleRequests     prometheus.Counter
	OracleFailures     prometheus.Counter
	PositionsProcessed prometheus.Counter
	PositionsSkipped   prometheus.Counter
	RefreshCycles      prometheus.Counter
	StaleRefreshDrops  prometheus.Counter
}

// New builds the instrument set on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	counter := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dlmm_portfolio",
			Name:      name,
			Help:      help,
		})
		reg.MustRegister(c)
		return c
	}

	return &Metrics{
		registry:           reg,
		PriceCacheHits:     counter("price_cache_hits_total", "Price lookups served from the cache."),
		PriceCacheMisses:   counter("price_cache_misses_total", "Price lookups that required an oracle fetch."),
		PriceFallbacks:     counter("price_fallbacks_total", "Price lookups that fell back to the default price."),
		OracleRequests:     counter("oracle_requests_total", "HTTP requests issued to the price oracle."),
		OracleFailures:     counter("oracle_failures_total", "Failed price oracle requests."),
		PositionsProcessed: counter("positions_processed_total", "Raw positions successfully processed."),
		PositionsSkipped:   counter("positions_skipped_total", "Raw positions dropped due to processing failures."),
		RefreshCycles:      counter("refresh_cycles_total", "Completed portfolio refresh cycles."),
		StaleRefreshDrops:  counter("stale_refresh_drops_total", "Refresh results discarded because a newer cycle already landed."),
	}
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
