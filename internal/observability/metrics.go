// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	SignalsParsed  prometheus.Counter
	SignalsSkipped *prometheus.CounterVec
	SignalsStored  prometheus.Counter

	// Candle metrics
	CandleWindowsFetched prometheus.Counter
	CandlesFetched       prometheus.Counter
	CandleFetchErrors    prometheus.Counter
	CandleFetchLatency   prometheus.Histogram

	// Simulation metrics
	SignalsSimulated   prometheus.Counter
	OutcomesByState    *prometheus.CounterVec
	ValidationFailures prometheus.Counter
	BatchDuration      prometheus.Histogram

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  *prometheus.HistogramVec
	ReportsGenerated  prometheus.Counter
	CoverageRatio     prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered against reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "signal_lab"
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Ingestion metrics
		SignalsParsed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "signals_parsed_total",
			Help:      "Total number of signals parsed from feeds",
		}),
		SignalsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "signals_skipped_total",
			Help:      "Total number of rows or messages skipped by reason",
		}, []string{"reason"}),
		SignalsStored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "signals_stored_total",
			Help:      "Total number of signals stored to database",
		}),

		// Candle metrics
		CandleWindowsFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "candles",
			Name:      "windows_fetched_total",
			Help:      "Total number of candle windows fetched from the exchange",
		}),
		CandlesFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "candles",
			Name:      "candles_fetched_total",
			Help:      "Total number of candles fetched from the exchange",
		}),
		CandleFetchErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "candles",
			Name:      "fetch_errors_total",
			Help:      "Total number of failed candle window fetches",
		}),
		CandleFetchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "candles",
			Name:      "fetch_latency_seconds",
			Help:      "Candle window fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Simulation metrics
		SignalsSimulated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "signals_simulated_total",
			Help:      "Total number of signals simulated",
		}),
		OutcomesByState: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "outcomes_total",
			Help:      "Total number of outcomes by terminal state",
		}, []string{"state"}),
		ValidationFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "validation_failures_total",
			Help:      "Total number of signals rejected by validation",
		}),
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "batch_duration_seconds",
			Help:      "Simulation batch duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),

		// Pipeline metrics
		PipelineRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by phase and status",
		}, []string{"phase", "status"}),
		PipelineDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline phase duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"phase"}),
		ReportsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),
		CoverageRatio: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "coverage_ratio",
			Help:      "Candle coverage of the last simulation batch (0-1)",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", prometheus.DefaultRegisterer)

// RecordOutcome increments the simulation counters for one outcome.
func (m *Metrics) RecordOutcome(state string) {
	m.SignalsSimulated.Inc()
	m.OutcomesByState.WithLabelValues(state).Inc()
}

// RecordPipelineRun records one completed pipeline phase.
func (m *Metrics) RecordPipelineRun(phase, status string, seconds float64) {
	m.PipelineRunsTotal.WithLabelValues(phase, status).Inc()
	m.PipelineDuration.WithLabelValues(phase).Observe(seconds)
}
