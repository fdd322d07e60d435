package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics("test_ns", prometheus.NewRegistry())

	m.SignalsParsed.Inc()
	m.SignalsParsed.Inc()
	if got := testutil.ToFloat64(m.SignalsParsed); got != 2 {
		t.Errorf("SignalsParsed = %f, want 2", got)
	}

	m.OutcomesByState.WithLabelValues("TARGET1").Inc()
	if got := testutil.ToFloat64(m.OutcomesByState.WithLabelValues("TARGET1")); got != 1 {
		t.Errorf("OutcomesByState[TARGET1] = %f, want 1", got)
	}

	m.CoverageRatio.Set(0.85)
	if got := testutil.ToFloat64(m.CoverageRatio); got != 0.85 {
		t.Errorf("CoverageRatio = %f, want 0.85", got)
	}
}

// Two instances on separate registries must not collide.
func TestNewMetrics_IndependentRegistries(t *testing.T) {
	a := NewMetrics("test_ns", prometheus.NewRegistry())
	b := NewMetrics("test_ns", prometheus.NewRegistry())

	a.SignalsSimulated.Inc()
	if got := testutil.ToFloat64(b.SignalsSimulated); got != 0 {
		t.Errorf("Registries leaked: b.SignalsSimulated = %f", got)
	}
}
