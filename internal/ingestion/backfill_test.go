package ingestion

import (
	"context"
	"errors"
	"testing"

	"signal-lab/internal/candles"
	"signal-lab/internal/domain"
	"signal-lab/internal/storage/memory"
)

// fakeKlines serves generated candles, failing for symbols in failFor.
type fakeKlines struct {
	calls   int
	failFor map[string]bool
}

func (f *fakeKlines) Klines(_ context.Context, symbol string, start, end int64) ([]*domain.Candle, error) {
	f.calls++
	if f.failFor[symbol] {
		return nil, errors.New("exchange rejected symbol")
	}

	var out []*domain.Candle
	for ts := start; ts < end; ts += domain.CandleIntervalMs {
		out = append(out, &domain.Candle{
			Symbol: symbol, Timestamp: ts,
			Open: 100, High: 101, Low: 99, Close: 100,
		})
	}
	return out, nil
}

func backfillSignal(symbol string, signalTime int64) *domain.Signal {
	return &domain.Signal{
		SignalID: symbol + "-sig", Symbol: symbol,
		Direction: domain.DirectionLong, EntryPrice: 100, StopLoss: 90,
		Targets: []float64{110}, SignalTime: signalTime,
	}
}

func TestBackfiller_DeduplicatesWindows(t *testing.T) {
	source := &fakeKlines{}
	store := memory.NewCandleStore()
	b := NewBackfiller(BackfillOptions{
		Provider:       candles.NewProvider(store, source, nil),
		LookaheadHours: 1,
	})

	signals := []*domain.Signal{
		backfillSignal("BTCUSDT", 1700000000000),
		backfillSignal("BTCUSDT", 1700000000000), // duplicate window
		backfillSignal("ETHUSDT", 1700000000000),
	}

	result, err := b.Backfill(context.Background(), signals)
	if err != nil {
		t.Fatalf("Backfill failed: %v", err)
	}

	if result.Windows != 2 {
		t.Errorf("Windows = %d, want 2", result.Windows)
	}
	if source.calls != 2 {
		t.Errorf("Source calls = %d, want 2", source.calls)
	}
	if result.Candles != 120 {
		t.Errorf("Candles = %d, want 120", result.Candles)
	}
	if result.Errors != 0 {
		t.Errorf("Errors = %d, want 0", result.Errors)
	}

	// The store now covers the window: a second run must not refetch.
	if _, err := b.Backfill(context.Background(), signals); err != nil {
		t.Fatalf("Second backfill failed: %v", err)
	}
	if source.calls != 2 {
		t.Errorf("Second run refetched: %d calls", source.calls)
	}
}

func TestBackfiller_CountsFailedWindows(t *testing.T) {
	source := &fakeKlines{failFor: map[string]bool{"BADUSDT": true}}
	b := NewBackfiller(BackfillOptions{
		Provider:       candles.NewProvider(memory.NewCandleStore(), source, nil),
		LookaheadHours: 1,
	})

	signals := []*domain.Signal{
		backfillSignal("BTCUSDT", 1700000000000),
		backfillSignal("BADUSDT", 1700000000000),
	}

	result, err := b.Backfill(context.Background(), signals)
	if err != nil {
		t.Fatalf("Backfill failed: %v", err)
	}
	if result.Errors != 1 {
		t.Errorf("Errors = %d, want 1", result.Errors)
	}
	if result.Candles != 60 {
		t.Errorf("Candles = %d, want 60 from the healthy symbol", result.Candles)
	}
}

func TestBackfiller_CancelledContext(t *testing.T) {
	b := NewBackfiller(BackfillOptions{
		Provider: candles.NewProvider(memory.NewCandleStore(), &fakeKlines{}, nil),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Backfill(ctx, []*domain.Signal{backfillSignal("BTCUSDT", 1700000000000)})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
