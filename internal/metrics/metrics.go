package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for eligibility evaluation.
type Metrics struct {
	// Evaluation outcomes by family group and result
	EligibilityOutcome *prometheus.CounterVec

	// Offers emitted by pass type
	OffersEmitted *prometheus.CounterVec

	// Restrictions raised by severity
	Restrictions *prometheus.CounterVec

	// Duration of a full profile evaluation including storage reads
	EvaluateLatency prometheus.Histogram

	// Profile cache lookups by result (hit, miss, error)
	CacheLookups *prometheus.CounterVec
}

// New creates the metrics and registers them with reg. A nil reg uses the
// default Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		EligibilityOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "passes_eligibility_checks_total",
			Help: "Beneficiary eligibility evaluations by family group and outcome",
		}, []string{"group", "outcome"}), // outcome: "eligible", "blocked"

		OffersEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "passes_offers_emitted_total",
			Help: "Pass offers emitted by pass type",
		}, []string{"pass_type"}),

		Restrictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "passes_restrictions_total",
			Help: "Restrictions raised by severity",
		}, []string{"severity"}),

		EvaluateLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "passes_evaluate_duration_seconds",
			Help:    "Duration of eligibility evaluation including storage reads",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "passes_cache_lookups_total",
			Help: "Profile cache lookups by result",
		}, []string{"result"}),
	}
}

// ObserveEligibility records one evaluation outcome and the offers it emitted.
func (m *Metrics) ObserveEligibility(group string, eligible bool, passTypes []string, severities []string) {
	if m == nil {
		return
	}
	outcome := "eligible"
	if !eligible {
		outcome = "blocked"
	}
	m.EligibilityOutcome.WithLabelValues(group, outcome).Inc()
	for _, p := range passTypes {
		m.OffersEmitted.WithLabelValues(p).Inc()
	}
	for _, s := range severities {
		m.Restrictions.WithLabelValues(s).Inc()
	}
}

// ObserveEvaluateLatency records the total evaluation duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}

// IncrementCacheLookup records a cache hit, miss or error.
func (m *Metrics) IncrementCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}
