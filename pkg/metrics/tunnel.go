package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TunnelMetrics observes RTCP tunnel handshakes and liveness. Nil-safe,
// mirroring ChunkStoreMetrics.
type TunnelMetrics struct {
	handshakeLatency *prometheus.HistogramVec
	activeTunnels    prometheus.Gauge
	pings            prometheus.Counter
	failures         *prometheus.CounterVec
}

func NewTunnelMetrics() *TunnelMetrics {
	if !IsEnabled() {
		return nil
	}
	reg := GetRegistry()
	return &TunnelMetrics{
		handshakeLatency: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ndn_rtcp_handshake_seconds",
			Help:    "Hello/Noise handshake duration by role (dial, accept).",
			Buckets: prometheus.DefBuckets,
		}, []string{"role"}),
		activeTunnels: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "ndn_rtcp_active_tunnels",
			Help: "Tunnels currently in the Active state.",
		}),
		pings: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "ndn_rtcp_pings_total",
			Help: "Keepalive ping/ping_resp exchanges observed.",
		}),
		failures: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ndn_rtcp_tunnel_failures_total",
			Help: "Tunnels that transitioned to Failed, by reason.",
		}, []string{"reason"}),
	}
}

func (m *TunnelMetrics) ObserveHandshake(role string, d time.Duration) {
	if m == nil {
		return
	}
	m.handshakeLatency.WithLabelValues(role).Observe(d.Seconds())
}

func (m *TunnelMetrics) TunnelActive() {
	if m == nil {
		return
	}
	m.activeTunnels.Inc()
}

func (m *TunnelMetrics) TunnelClosed() {
	if m == nil {
		return
	}
	m.activeTunnels.Dec()
}

func (m *TunnelMetrics) IncPing() {
	if m == nil {
		return
	}
	m.pings.Inc()
}

func (m *TunnelMetrics) IncFailure(reason string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(reason).Inc()
}
