// Package metrics holds the Prometheus instrumentation for ledger
// operations. Counters register on the default registry; the API layer
// serves them at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal counts successful ledger operations by kind
	// (enroll_pirate, enroll_item, allocate, consume, cancel, payment,
	// reverse_payment).
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gusar_operations_total",
		Help: "Successful ledger operations by kind",
	}, []string{"op"})

	// RejectionsTotal counts operations refused by an invariant check,
	// labeled by rejection reason.
	RejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gusar_rejections_total",
		Help: "Operations rejected by an invariant check, by reason",
	}, []string{"reason"})

	// DecryptFailuresTotal counts identity decryptions that failed
	// authentication (wrong key or tampered ciphertext).
	DecryptFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gusar_decrypt_failures_total",
		Help: "Identity decryptions that failed authentication",
	})
)
