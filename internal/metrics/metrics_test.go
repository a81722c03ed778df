package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveEligibility(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveEligibility("basico", true, []string{"10P", "50P"}, nil)
	m.ObserveEligibility("basico", false, []string{"10P"}, []string{"bloqueante"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.EligibilityOutcome.WithLabelValues("basico", "eligible")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EligibilityOutcome.WithLabelValues("basico", "blocked")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OffersEmitted.WithLabelValues("10P")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Restrictions.WithLabelValues("bloqueante")))
}

func TestCacheLookupsAndLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncrementCacheLookup("hit")
	m.IncrementCacheLookup("hit")
	m.IncrementCacheLookup("miss")
	m.ObserveEvaluateLatency(3 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.EvaluateLatency))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveEligibility("basico", true, []string{"10P"}, nil)
	m.ObserveEvaluateLatency(time.Millisecond)
	m.IncrementCacheLookup("hit")
}
