package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the rental agreement saga.
// All methods are nil-safe so services can run without metrics.
type Metrics struct {
	Proposals      *prometheus.CounterVec
	LedgerFailures *prometheus.CounterVec
	Reconciled     *prometheus.CounterVec
	Terminations   prometheus.Counter
	PendingGauge   prometheus.Gauge
}

// New creates a Metrics instance registered with the default registry.
func New() *Metrics {
	return &Metrics{
		Proposals: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "briq_rental_proposals_total",
			Help: "Rental agreement proposals, by outcome (activated, degraded, replayed, rejected)",
		}, []string{"outcome"}),
		LedgerFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "briq_rental_ledger_failures_total",
			Help: "Failed writes of an agreement into a party ledger, by side",
		}, []string{"side"}),
		Reconciled: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "briq_rental_reconciled_total",
			Help: "Pending agreements visited by the reconciler, by outcome",
		}, []string{"outcome"}),
		Terminations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "briq_rental_terminations_total",
			Help: "Active agreements ended",
		}),
		PendingGauge: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "briq_rental_pending_agreements",
			Help: "Pending agreements seen by the last reconcile pass",
		}),
	}
}

func (m *Metrics) IncProposal(outcome string) {
	if m == nil {
		return
	}
	m.Proposals.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncLedgerFailure(side string) {
	if m == nil {
		return
	}
	m.LedgerFailures.WithLabelValues(side).Inc()
}

func (m *Metrics) IncReconciled(outcome string) {
	if m == nil {
		return
	}
	m.Reconciled.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncTermination() {
	if m == nil {
		return
	}
	m.Terminations.Inc()
}

func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.PendingGauge.Set(float64(n))
}
