// Package pipeline provides E2E backtest orchestration.
// It coordinates: backfill → simulation → reporting → coverage gate.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"signal-lab/internal/ingestion"
	"signal-lab/internal/observability"
	"signal-lab/internal/reporting"
	"signal-lab/internal/simulation"
	"signal-lab/internal/storage"
)

// ErrCoverageBelowFloor is returned when the simulated batch's candle
// coverage falls below the configured floor. A report over mostly-NO_DATA
// outcomes is worse than no report.
var ErrCoverageBelowFloor = errors.New("candle coverage below floor")

// Pipeline coordinates the full backtest run.
type Pipeline struct {
	signalStore storage.SignalStore
	backfiller  *ingestion.Backfiller
	runner      *simulation.Runner
	generator   *reporting.Generator

	coverageFloor float64
	metrics       *observability.Metrics
	logger        *zap.Logger
}

// Options for creating a Pipeline.
type Options struct {
	SignalStore storage.SignalStore

	// Backfiller is optional: without one the simulation runs against
	// whatever the candle store already holds.
	Backfiller *ingestion.Backfiller

	Runner    *simulation.Runner
	Generator *reporting.Generator

	// CoverageFloor in [0,1]; a batch below it fails instead of reporting.
	CoverageFloor float64

	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// New creates a new Pipeline.
func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.DefaultMetrics
	}
	return &Pipeline{
		signalStore:   opts.SignalStore,
		backfiller:    opts.Backfiller,
		runner:        opts.Runner,
		generator:     opts.Generator,
		coverageFloor: opts.CoverageFloor,
		metrics:       metrics,
		logger:        logger,
	}
}

// Result contains results from one pipeline run.
type Result struct {
	Backfill *ingestion.BackfillResult // nil when no backfiller configured
	Batch    *simulation.RunResult
	Report   *reporting.Report
}

// Run executes the full pipeline.
// Phases:
//  1. Load signals
//  2. Backfill candle windows (optional)
//  3. Simulate new signals
//  4. Generate report
//  5. Coverage gate
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{}

	// Phase 1: load signals
	signals, err := p.signalStore.GetAll(ctx)
	if err != nil {
		return nil, p.fail("load", fmt.Errorf("load signals: %w", err))
	}
	p.logger.Info("pipeline: signals loaded", zap.Int("count", len(signals)))

	// Phase 2: backfill
	if p.backfiller != nil && len(signals) > 0 {
		phase := time.Now()
		result.Backfill, err = p.backfiller.Backfill(ctx, signals)
		if err != nil {
			return nil, p.fail("backfill", err)
		}
		p.phaseDone("backfill", phase)
	}

	// Phase 3: simulation
	phase := time.Now()
	result.Batch, err = p.runner.Run(ctx)
	if err != nil {
		return nil, p.fail("simulate", err)
	}
	p.metrics.BatchDuration.Observe(time.Since(phase).Seconds())
	p.phaseDone("simulate", phase)

	// Phase 4: report
	result.Report, err = p.generator.Generate(ctx)
	if err != nil {
		return nil, p.fail("report", err)
	}
	p.metrics.CoverageRatio.Set(result.Report.Coverage)

	// Phase 5: coverage gate. Computed over every stored outcome, not just
	// this run's batch, so incremental runs are judged on the whole dataset.
	if result.Report.TotalSignals > 0 && result.Report.Coverage < p.coverageFloor {
		err := fmt.Errorf("%w: %.3f < %.3f", ErrCoverageBelowFloor, result.Report.Coverage, p.coverageFloor)
		return nil, p.fail("coverage", err)
	}
	p.metrics.ReportsGenerated.Inc()

	p.phaseDone("pipeline", start)
	p.logger.Info("pipeline complete",
		zap.Int("signals", result.Batch.Total),
		zap.Int("simulated", result.Batch.Simulated),
		zap.Float64("coverage", result.Batch.Coverage()),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

func (p *Pipeline) phaseDone(phase string, started time.Time) {
	p.metrics.RecordPipelineRun(phase, "success", time.Since(started).Seconds())
}

func (p *Pipeline) fail(phase string, err error) error {
	p.metrics.PipelineRunsTotal.WithLabelValues(phase, "error").Inc()
	p.logger.Error("pipeline phase failed", zap.String("phase", phase), zap.Error(err))
	return err
}
