package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the trust ledger.
// All methods are nil-safe so services can run without metrics.
type Metrics struct {
	EventsRecorded    *prometheus.CounterVec
	ScoreClamped      *prometheus.CounterVec
	SaveConflicts     prometheus.Counter
	ProfilesCreated   *prometheus.CounterVec
	TrustScore        *prometheus.HistogramVec
	MutationDuration  *prometheus.HistogramVec
	ProjectionRefresh *prometheus.CounterVec
}

// New creates a Metrics instance registered with the default registry.
func New() *Metrics {
	return &Metrics{
		EventsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "briq_trust_events_recorded_total",
			Help: "Total number of trust events recorded, by kind",
		}, []string{"kind"}),
		ScoreClamped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "briq_trust_score_clamped_total",
			Help: "Behavioral sub-score inputs outside 0-100 that were clamped, by dimension",
		}, []string{"dimension"}),
		SaveConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "briq_trust_save_conflicts_total",
			Help: "Optimistic profile writes that lost a race and were retried",
		}),
		ProfilesCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "briq_trust_profiles_created_total",
			Help: "Total number of profiles initialized, by user type",
		}, []string{"user_type"}),
		TrustScore: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "briq_trust_score",
			Help:    "Distribution of recomputed trust scores, by side",
			Buckets: []float64{0, 100, 200, 300, 400, 500, 600, 700, 800, 850},
		}, []string{"side"}),
		MutationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "briq_trust_mutation_duration_seconds",
			Help:    "Duration of read-modify-write profile mutations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"kind"}),
		ProjectionRefresh: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "briq_trust_projection_refresh_total",
			Help: "Metadata projection refreshes, by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncEventRecorded(kind string) {
	if m == nil {
		return
	}
	m.EventsRecorded.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncScoreClamped(dimension string) {
	if m == nil {
		return
	}
	m.ScoreClamped.WithLabelValues(dimension).Inc()
}

func (m *Metrics) IncSaveConflict() {
	if m == nil {
		return
	}
	m.SaveConflicts.Inc()
}

func (m *Metrics) IncProfileCreated(userType string) {
	if m == nil {
		return
	}
	m.ProfilesCreated.WithLabelValues(userType).Inc()
}

func (m *Metrics) ObserveTrustScore(side string, score int) {
	if m == nil {
		return
	}
	m.TrustScore.WithLabelValues(side).Observe(float64(score))
}

// ObserveMutation records the duration of a mutation started at start.
func (m *Metrics) ObserveMutation(kind string, start time.Time) {
	if m == nil {
		return
	}
	m.MutationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncProjectionRefresh(outcome string) {
	if m == nil {
		return
	}
	m.ProjectionRefresh.WithLabelValues(outcome).Inc()
}
