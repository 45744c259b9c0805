// Package metrics exposes Prometheus collectors for the content layer:
// chunk store I/O, collection builds, proof verification, and RTCP
// tunnel lifecycle. Metrics are opt-in; when disabled every recorder
// in this package is a documented nil-safe no-op so callers never
// branch on whether metrics are enabled.
package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mu       sync.Mutex
	registry *prometheus.Registry
	enabled  atomic.Bool
)

// InitRegistry creates the process-wide metrics registry. Safe to call
// more than once; subsequent calls are no-ops once a registry exists.
func InitRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			prometheus.NewGoCollector(),
			prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		)
	}
	enabled.Store(true)
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	return enabled.Load()
}

// GetRegistry returns the process-wide registry, creating it if needed.
func GetRegistry() *prometheus.Registry {
	mu.Lock()
	r := registry
	mu.Unlock()
	if r != nil {
		return r
	}
	return InitRegistry()
}

// Handler returns the HTTP handler serving the registry in the
// Prometheus exposition format, for mounting at e.g. GET /metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}
