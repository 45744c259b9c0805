package metrics

import "github.com/prometheus/client_golang/prometheus"
import "github.com/prometheus/client_golang/prometheus/promauto"

// ProofMetrics counts Merkle/trie proof generation and verification
// outcomes across ObjectArray, ObjectMap, and TrieObjectMap. Nil-safe.
type ProofMetrics struct {
	verifications *prometheus.CounterVec
}

func NewProofMetrics() *ProofMetrics {
	if !IsEnabled() {
		return nil
	}
	reg := GetRegistry()
	return &ProofMetrics{
		verifications: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ndn_proof_verifications_total",
			Help: "Proof verification calls by collection kind and result.",
		}, []string{"kind", "result"}),
	}
}

func (m *ProofMetrics) IncVerify(kind string, ok bool) {
	if m == nil {
		return
	}
	result := "valid"
	if !ok {
		result = "invalid"
	}
	m.verifications.WithLabelValues(kind, result).Inc()
}
