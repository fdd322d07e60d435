package memory

import (
	"context"
	"errors"
	"testing"

	"signal-lab/internal/domain"
	"signal-lab/internal/storage"
)

func TestSignalStore_InsertAndGet(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	sig := &domain.Signal{
		SignalID:   "sig1",
		Source:     "telegram",
		Symbol:     "ETHUSDT",
		Direction:  domain.DirectionLong,
		EntryPrice: 2000,
		StopLoss:   1900,
		Targets:    []float64{2100, 2200, 2300},
		SignalTime: 1700000000000,
	}

	if err := store.Insert(ctx, sig); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "sig1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got.EntryPrice != 2000 {
		t.Errorf("EntryPrice mismatch: got %f, want %f", got.EntryPrice, 2000.0)
	}
	if len(got.Targets) != 3 {
		t.Errorf("Expected 3 targets, got %d", len(got.Targets))
	}
}

func TestSignalStore_DefensiveCopy(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	sig := &domain.Signal{
		SignalID:   "sig1",
		Symbol:     "ETHUSDT",
		EntryPrice: 2000,
		Targets:    []float64{2100},
	}

	if err := store.Insert(ctx, sig); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// Mutating the caller's copy must not affect the stored record
	sig.Targets[0] = 9999

	got, _ := store.GetByID(ctx, "sig1")
	if got.Targets[0] != 2100 {
		t.Errorf("Stored signal mutated through caller's slice: got %f", got.Targets[0])
	}
}

func TestSignalStore_DuplicateKey(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	sig := &domain.Signal{SignalID: "sig1", Symbol: "ETHUSDT"}

	if err := store.Insert(ctx, sig); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, sig)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestSignalStore_NotFound(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	_, err := store.GetByID(ctx, "nonexistent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSignalStore_InsertBulkPartialDuplicate(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	first := &domain.Signal{SignalID: "sig1", Symbol: "ETHUSDT"}
	if err := store.Insert(ctx, first); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	signals := []*domain.Signal{
		{SignalID: "sig2", Symbol: "ETHUSDT"},
		{SignalID: "sig1", Symbol: "ETHUSDT"}, // duplicate
	}

	err := store.InsertBulk(ctx, signals)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	// Verify all-or-nothing
	all, _ := store.GetAll(ctx)
	if len(all) != 1 {
		t.Errorf("Expected 1 signal (no partial insert), got %d", len(all))
	}
}

func TestSignalStore_GetBySymbolOrdered(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	signals := []*domain.Signal{
		{SignalID: "sig3", Symbol: "ETHUSDT", SignalTime: 3000},
		{SignalID: "sig1", Symbol: "ETHUSDT", SignalTime: 1000},
		{SignalID: "sig2", Symbol: "BTCUSDT", SignalTime: 2000},
	}

	if err := store.InsertBulk(ctx, signals); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetBySymbol(ctx, "ETHUSDT")
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("Expected 2 signals for ETHUSDT, got %d", len(result))
	}
	if result[0].SignalID != "sig1" || result[1].SignalID != "sig3" {
		t.Errorf("Results not ordered by signal_time: %s, %s", result[0].SignalID, result[1].SignalID)
	}
}

func TestSignalStore_InvalidInput(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}

	if err := store.Insert(ctx, &domain.Signal{SignalID: ""}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty ID, got %v", err)
	}
}
