// Package candles provides read-through cached access to minute candles.
// Windows are served from the candle store when fully covered, and fetched
// from the exchange then persisted when not.
package candles

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"signal-lab/internal/domain"
	"signal-lab/internal/observability"
	"signal-lab/internal/storage"
)

// Source fetches candles from an exchange.
type Source interface {
	// Klines fetches 1-minute candles for symbol within [start, end) in ms,
	// ordered by timestamp ASC.
	Klines(ctx context.Context, symbol string, start, end int64) ([]*domain.Candle, error)
}

// Provider serves candle windows, caching exchange responses in the store.
type Provider struct {
	store   storage.CandleStore
	source  Source
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewProvider creates a new Provider. A nil source disables fetching:
// windows are served from the store only.
func NewProvider(store storage.CandleStore, source Source, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		store:   store,
		source:  source,
		metrics: observability.DefaultMetrics,
		logger:  logger,
	}
}

// WithMetrics replaces the metrics instance. Returns p for chaining.
func (p *Provider) WithMetrics(m *observability.Metrics) *Provider {
	p.metrics = m
	return p
}

// GetWindow returns candles for symbol within [start, end) in ms, ordered
// by timestamp ASC. When the store does not fully cover the window and a
// source is configured, the missing range is fetched and persisted.
//
// Exchange gaps are tolerated: a window that stays incomplete after a
// fetch is returned as-is, the caller decides what partial data means.
func (p *Provider) GetWindow(ctx context.Context, symbol string, start, end int64) ([]*domain.Candle, error) {
	if end <= start {
		return nil, nil
	}

	stored, err := p.store.GetByRange(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("read candle window: %w", err)
	}

	expected := (end - start) / domain.CandleIntervalMs
	if int64(len(stored)) >= expected || p.source == nil {
		return stored, nil
	}

	p.logger.Debug("candle window incomplete, fetching",
		zap.String("symbol", symbol),
		zap.Int64("start", start),
		zap.Int64("end", end),
		zap.Int("stored", len(stored)),
		zap.Int64("expected", expected),
	)

	fetchStart := time.Now()
	fetched, err := p.source.Klines(ctx, symbol, start, end)
	p.metrics.CandleFetchLatency.Observe(time.Since(fetchStart).Seconds())
	if err != nil {
		p.metrics.CandleFetchErrors.Inc()
		return nil, fmt.Errorf("fetch candle window: %w", err)
	}
	p.metrics.CandleWindowsFetched.Inc()
	p.metrics.CandlesFetched.Add(float64(len(fetched)))

	merged := mergeCandles(stored, fetched)

	if missing := newCandles(stored, fetched); len(missing) > 0 {
		if err := p.store.InsertBulk(ctx, missing); err != nil {
			// A concurrent fetch may have raced us into the store.
			if !errors.Is(err, storage.ErrDuplicateKey) {
				return nil, fmt.Errorf("persist fetched candles: %w", err)
			}
		}
	}

	return merged, nil
}

// mergeCandles combines stored and fetched candles, deduplicating by
// timestamp. Stored candles win on conflict.
func mergeCandles(stored, fetched []*domain.Candle) []*domain.Candle {
	byTs := make(map[int64]*domain.Candle, len(stored)+len(fetched))
	for _, c := range fetched {
		byTs[c.Timestamp] = c
	}
	for _, c := range stored {
		byTs[c.Timestamp] = c
	}

	merged := make([]*domain.Candle, 0, len(byTs))
	for _, c := range byTs {
		merged = append(merged, c)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}

// newCandles returns fetched candles whose timestamps are absent from stored.
func newCandles(stored, fetched []*domain.Candle) []*domain.Candle {
	have := make(map[int64]struct{}, len(stored))
	for _, c := range stored {
		have[c.Timestamp] = struct{}{}
	}

	var missing []*domain.Candle
	for _, c := range fetched {
		if _, ok := have[c.Timestamp]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}
