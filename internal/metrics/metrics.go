package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one process on its own registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	cacheRequests *prometheus.CounterVec
	storeOps      *prometheus.CounterVec
	dependencyUp  *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postboard_cache_requests_total",
				Help: "Cache calls by operation and outcome (hit, miss, ok, degraded)",
			},
			[]string{"op", "outcome"},
		),
		storeOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postboard_store_operations_total",
				Help: "Store calls by operation and result (ok, error)",
			},
			[]string{"op", "result"},
		),
		dependencyUp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "postboard_dependency_up",
				Help: "Last probe result per dependency (1=reachable, 0=unreachable)",
			},
			[]string{"dependency"},
		),
	}
	m.registry.MustRegister(
		m.cacheRequests,
		m.storeOps,
		m.dependencyUp,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) CacheRequest(op, outcome string) {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) StoreOperation(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.storeOps.WithLabelValues(op, result).Inc()
}

func (m *Metrics) DependencyUp(name string, up bool) {
	if m == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	m.dependencyUp.WithLabelValues(name).Set(v)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests that read counter values back.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
