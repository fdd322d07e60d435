package simulation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"signal-lab/internal/candles"
	"signal-lab/internal/domain"
	"signal-lab/internal/observability"
	"signal-lab/internal/storage"
)

// Runner simulates every stored signal and persists one outcome per signal.
type Runner struct {
	signalStore    storage.SignalStore
	outcomeStore   storage.OutcomeStore
	provider       *candles.Provider
	lookaheadHours int
	workers        int
	metrics        *observability.Metrics
	logger         *zap.Logger
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	SignalStore  storage.SignalStore
	OutcomeStore storage.OutcomeStore
	Provider     *candles.Provider

	// LookaheadHours bounds the forward scan; defaults to DefaultLookaheadHours.
	LookaheadHours int

	// Workers sets simulation fan-out. Simulations are independent, so
	// parallelism does not change observable results. Defaults to 1.
	Workers int

	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// NewRunner creates a batch simulation runner.
func NewRunner(opts RunnerOptions) *Runner {
	lookahead := opts.LookaheadHours
	if lookahead <= 0 {
		lookahead = DefaultLookaheadHours
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.DefaultMetrics
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		signalStore:    opts.SignalStore,
		outcomeStore:   opts.OutcomeStore,
		provider:       opts.Provider,
		lookaheadHours: lookahead,
		workers:        workers,
		metrics:        metrics,
		logger:         logger,
	}
}

// RunResult summarizes a batch run. Coverage is valid/total where valid
// counts outcomes with any candle data; NO_DATA signals stay in Total so
// thin data cannot silently inflate reported reliability.
type RunResult struct {
	Total            int // signals simulated this run (excludes Skipped)
	Simulated        int
	Skipped          int // signals that already had an outcome
	ValidationErrors int
	NoData           int
	Errors           []string
}

// Valid is the count of simulated outcomes with candle coverage.
func (r *RunResult) Valid() int {
	return r.Simulated - r.NoData
}

// Coverage is Valid/Total, 0 for an empty batch.
func (r *RunResult) Coverage() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Valid()) / float64(r.Total)
}

// Run simulates all stored signals. Per-signal failures (validation,
// provider errors) are isolated and counted; the batch continues.
// Cancellation is coarse-grained: workers stop picking up new signals once
// ctx is done, in-flight scans complete.
//
// An out-of-order candle window aborts the whole run: it indicates a
// data-integrity bug upstream, not a per-signal gap.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	signals, err := r.signalStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load signals: %w", err)
	}

	result := &RunResult{}

	// Outcomes are write-once: signals simulated by an earlier run are
	// skipped so scheduled re-runs only pick up new signals.
	existing, err := r.outcomeStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load existing outcomes: %w", err)
	}
	if len(existing) > 0 {
		done := make(map[string]struct{}, len(existing))
		for _, o := range existing {
			done[o.SignalID] = struct{}{}
		}
		fresh := signals[:0:0]
		for _, sig := range signals {
			if _, ok := done[sig.SignalID]; ok {
				result.Skipped++
				continue
			}
			fresh = append(fresh, sig)
		}
		signals = fresh
	}

	result.Total = len(signals)
	if len(signals) == 0 {
		return result, nil
	}

	jobs := make(chan *domain.Signal)
	outcomes := make([]*domain.Outcome, 0, len(signals))

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		fatalErr error
	)

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sig := range jobs {
				out, err := r.simulateOne(ctx, sig)

				mu.Lock()
				switch {
				case err == nil:
					result.Simulated++
					if !out.HasData() {
						result.NoData++
					}
					outcomes = append(outcomes, out)
					r.metrics.RecordOutcome(string(out.TerminalState))
				case errors.Is(err, domain.ErrInvalidSignal):
					result.ValidationErrors++
					r.metrics.ValidationFailures.Inc()
					r.logger.Warn("skipping invalid signal",
						zap.String("signal_id", sig.SignalID),
						zap.Error(err),
					)
				case errors.Is(err, ErrCandlesOutOfOrder):
					if fatalErr == nil {
						fatalErr = err
					}
				default:
					result.Errors = append(result.Errors,
						fmt.Sprintf("simulate %s: %v", sig.SignalID, err))
					r.logger.Error("simulation failed",
						zap.String("signal_id", sig.SignalID),
						zap.Error(err),
					)
				}
				mu.Unlock()
			}
		}()
	}

dispatch:
	for _, sig := range signals {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- sig:
		}
	}
	close(jobs)
	wg.Wait()

	if fatalErr != nil {
		return nil, fatalErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := r.outcomeStore.InsertBulk(ctx, outcomes); err != nil {
		return nil, fmt.Errorf("persist outcomes: %w", err)
	}

	r.logger.Info("simulation batch complete",
		zap.Int("total", result.Total),
		zap.Int("skipped", result.Skipped),
		zap.Int("simulated", result.Simulated),
		zap.Int("validation_errors", result.ValidationErrors),
		zap.Int("no_data", result.NoData),
		zap.Float64("coverage", result.Coverage()),
	)

	return result, nil
}

// simulateOne pulls the signal's candle window and runs the scan. Provider
// failures map to a NO_DATA outcome rather than an error: data gaps are an
// expected outcome category.
func (r *Runner) simulateOne(ctx context.Context, sig *domain.Signal) (*domain.Outcome, error) {
	if err := sig.Validate(); err != nil {
		return nil, err
	}

	windowEnd := sig.SignalTime + int64(r.lookaheadHours)*3_600_000

	window, err := r.provider.GetWindow(ctx, sig.Symbol, sig.SignalTime, windowEnd)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Warn("candle window unavailable",
			zap.String("signal_id", sig.SignalID),
			zap.String("symbol", sig.Symbol),
			zap.Error(err),
		)
		window = nil
	}

	return Simulate(sig, window, r.lookaheadHours)
}
