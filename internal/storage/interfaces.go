package storage

import (
	"context"

	"signal-lab/internal/domain"
)

// SignalStore provides access to signals storage.
type SignalStore interface {
	// Insert adds a new signal. Returns ErrDuplicateKey if signal_id exists.
	Insert(ctx context.Context, s *domain.Signal) error

	// InsertBulk adds multiple signals atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, signals []*domain.Signal) error

	// GetByID retrieves a signal by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, signalID string) (*domain.Signal, error)

	// GetBySymbol retrieves all signals for a symbol, ordered by signal_time ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.Signal, error)

	// GetAll retrieves all signals, ordered by signal_time ASC, signal_id ASC.
	GetAll(ctx context.Context) ([]*domain.Signal, error)
}

// CandleStore provides access to minute-candle storage.
type CandleStore interface {
	// InsertBulk adds multiple candles. Fails entire batch on duplicate (symbol, timestamp).
	InsertBulk(ctx context.Context, candles []*domain.Candle) error

	// GetByRange retrieves candles for a symbol within [start, end) in ms,
	// ordered by timestamp ASC.
	GetByRange(ctx context.Context, symbol string, start, end int64) ([]*domain.Candle, error)
}

// OutcomeStore provides access to outcomes storage. Write-once per signal
// during a simulation run, read-only during aggregation.
type OutcomeStore interface {
	// Insert adds a new outcome. Returns ErrDuplicateKey if signal_id exists.
	Insert(ctx context.Context, o *domain.Outcome) error

	// InsertBulk adds multiple outcomes atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, outcomes []*domain.Outcome) error

	// GetBySignalID retrieves the outcome for a signal. Returns ErrNotFound if not exists.
	GetBySignalID(ctx context.Context, signalID string) (*domain.Outcome, error)

	// GetAll retrieves all outcomes, ordered by signal_time ASC, signal_id ASC.
	GetAll(ctx context.Context) ([]*domain.Outcome, error)
}
