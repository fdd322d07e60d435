package ingestion

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"signal-lab/internal/candles"
	"signal-lab/internal/domain"
)

// Backfiller pre-fetches the candle windows a signal batch will need so
// simulation can run against the store alone afterwards.
type Backfiller struct {
	provider       *candles.Provider
	lookaheadHours int
	logger         *zap.Logger
}

// BackfillOptions contains configuration for creating a Backfiller.
type BackfillOptions struct {
	Provider       *candles.Provider
	LookaheadHours int // default 72
	Logger         *zap.Logger
}

// NewBackfiller creates a candle backfiller.
func NewBackfiller(opts BackfillOptions) *Backfiller {
	lookahead := opts.LookaheadHours
	if lookahead <= 0 {
		lookahead = 72
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backfiller{
		provider:       opts.Provider,
		lookaheadHours: lookahead,
		logger:         logger,
	}
}

// BackfillResult contains statistics from a backfill run.
type BackfillResult struct {
	Windows  int // distinct (symbol, window) pairs requested
	Candles  int // candles returned across all windows
	Errors   int // windows that failed to fetch
	Duration time.Duration
}

type window struct {
	symbol     string
	start, end int64
}

// Backfill fetches the lookahead candle window of every signal in the
// batch. Windows are deduplicated by (symbol, start, end); a window that
// fails to fetch is counted and skipped so one dead symbol does not abort
// the run. Context cancellation does abort it.
func (b *Backfiller) Backfill(ctx context.Context, signals []*domain.Signal) (*BackfillResult, error) {
	start := time.Now()
	result := &BackfillResult{}

	seen := make(map[window]struct{}, len(signals))
	for _, sig := range signals {
		w := window{
			symbol: sig.Symbol,
			start:  sig.SignalTime,
			end:    sig.SignalTime + int64(b.lookaheadHours)*60*60*1000,
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}

		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("backfill cancelled: %w", err)
		}

		result.Windows++
		fetched, err := b.provider.GetWindow(ctx, w.symbol, w.start, w.end)
		if err != nil {
			b.logger.Warn("candle window backfill failed",
				zap.String("symbol", w.symbol),
				zap.Int64("start", w.start),
				zap.Error(err),
			)
			result.Errors++
			continue
		}
		result.Candles += len(fetched)
	}

	result.Duration = time.Since(start)
	b.logger.Info("backfill complete",
		zap.Int("windows", result.Windows),
		zap.Int("candles", result.Candles),
		zap.Int("errors", result.Errors),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}
