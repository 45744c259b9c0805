package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ChunkStoreMetrics observes chunk read/write throughput and outcomes.
// A nil *ChunkStoreMetrics is valid and every method becomes a no-op,
// so callers can pass the result of NewChunkStoreMetrics() unconditionally.
type ChunkStoreMetrics struct {
	writeLatency *prometheus.HistogramVec
	readLatency  *prometheus.HistogramVec
	writeBytes   prometheus.Counter
	readBytes    prometheus.Counter
	verifyFailed prometheus.Counter
	chunksOpen   prometheus.Gauge
}

// NewChunkStoreMetrics returns nil when metrics are disabled, so store
// code can record into it unconditionally via the nil-safe methods below.
func NewChunkStoreMetrics() *ChunkStoreMetrics {
	if !IsEnabled() {
		return nil
	}
	reg := GetRegistry()
	return &ChunkStoreMetrics{
		writeLatency: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ndn_chunkstore_write_seconds",
			Help:    "Chunk writer Complete() latency by outcome.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		readLatency: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ndn_chunkstore_read_seconds",
			Help:    "Chunk reader open-to-EOF latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		writeBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "ndn_chunkstore_bytes_written_total",
			Help: "Total bytes accepted by chunk writers.",
		}),
		readBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "ndn_chunkstore_bytes_read_total",
			Help: "Total bytes served by chunk readers.",
		}),
		verifyFailed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "ndn_chunkstore_verify_failed_total",
			Help: "Chunk writes rejected by hash verification.",
		}),
		chunksOpen: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "ndn_chunkstore_open_writers",
			Help: "Chunk writers currently held open (exclusive per chunk id).",
		}),
	}
}

func (m *ChunkStoreMetrics) ObserveWrite(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.writeLatency.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *ChunkStoreMetrics) ObserveRead(source string, d time.Duration) {
	if m == nil {
		return
	}
	m.readLatency.WithLabelValues(source).Observe(d.Seconds())
}

func (m *ChunkStoreMetrics) AddBytesWritten(n int64) {
	if m == nil {
		return
	}
	m.writeBytes.Add(float64(n))
}

func (m *ChunkStoreMetrics) AddBytesRead(n int64) {
	if m == nil {
		return
	}
	m.readBytes.Add(float64(n))
}

func (m *ChunkStoreMetrics) IncVerifyFailed() {
	if m == nil {
		return
	}
	m.verifyFailed.Inc()
}

func (m *ChunkStoreMetrics) WriterOpened() {
	if m == nil {
		return
	}
	m.chunksOpen.Inc()
}

func (m *ChunkStoreMetrics) WriterClosed() {
	if m == nil {
		return
	}
	m.chunksOpen.Dec()
}
