package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-lab/internal/domain"
	"signal-lab/internal/storage"
)

func createTestOutcome(signalID string, signalTime int64, state domain.TerminalState) *domain.Outcome {
	return &domain.Outcome{
		SignalID:         signalID,
		Symbol:           "ETHUSDT",
		Direction:        domain.DirectionLong,
		EntryPrice:       2000.0,
		SignalTime:       signalTime,
		TerminalState:    state,
		HitTarget1:       state == domain.TerminalTarget1 || state == domain.TerminalTarget2,
		HitTarget2:       state == domain.TerminalTarget2,
		HitStopLoss:      state == domain.TerminalStopLoss,
		MinutesToTarget1: ptr(15.0),
		MaxFavorablePct:  5.5,
		MaxAdversePct:    -1.2,
	}
}

func TestOutcomeStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewOutcomeStore(pool)

	o := createTestOutcome("sig-001", 1700000000000, domain.TerminalTarget2)

	require.NoError(t, store.Insert(ctx, o))

	retrieved, err := store.GetBySignalID(ctx, "sig-001")
	require.NoError(t, err)

	assert.Equal(t, o.SignalID, retrieved.SignalID)
	assert.Equal(t, o.Symbol, retrieved.Symbol)
	assert.Equal(t, o.Direction, retrieved.Direction)
	assert.Equal(t, o.TerminalState, retrieved.TerminalState)
	assert.True(t, retrieved.HitTarget1)
	assert.True(t, retrieved.HitTarget2)
	assert.False(t, retrieved.HitTarget3)
	assert.False(t, retrieved.HitStopLoss)
	require.NotNil(t, retrieved.MinutesToTarget1)
	assert.InDelta(t, 15.0, *retrieved.MinutesToTarget1, 0.0001)
	assert.Nil(t, retrieved.MinutesToTarget3)
	assert.InDelta(t, o.MaxFavorablePct, retrieved.MaxFavorablePct, 0.0001)
	assert.InDelta(t, o.MaxAdversePct, retrieved.MaxAdversePct, 0.0001)
}

func TestOutcomeStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewOutcomeStore(pool)

	o := createTestOutcome("sig-001", 1000, domain.TerminalStopLoss)

	require.NoError(t, store.Insert(ctx, o))

	err := store.Insert(ctx, o)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestOutcomeStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewOutcomeStore(pool)

	_, err := store.GetBySignalID(ctx, "nonexistent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestOutcomeStore_GetAllOrdered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewOutcomeStore(pool)

	outcomes := []*domain.Outcome{
		createTestOutcome("sig-b", 2000, domain.TerminalTarget1),
		createTestOutcome("sig-a", 2000, domain.TerminalStopLoss),
		createTestOutcome("sig-c", 1000, domain.TerminalOngoing),
	}
	require.NoError(t, store.InsertBulk(ctx, outcomes))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)

	require.Len(t, all, 3)
	assert.Equal(t, "sig-c", all[0].SignalID)
	assert.Equal(t, "sig-a", all[1].SignalID)
	assert.Equal(t, "sig-b", all[2].SignalID)
}

func TestOutcomeStore_InsertBulkRollsBackOnDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewOutcomeStore(pool)

	require.NoError(t, store.Insert(ctx, createTestOutcome("sig-001", 1000, domain.TerminalTarget1)))

	outcomes := []*domain.Outcome{
		createTestOutcome("sig-002", 2000, domain.TerminalTarget1),
		createTestOutcome("sig-001", 1000, domain.TerminalTarget1), // duplicate
	}

	err := store.InsertBulk(ctx, outcomes)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
