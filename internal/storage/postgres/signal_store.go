package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"signal-lab/internal/domain"
	"signal-lab/internal/storage"
)

// SignalStore implements storage.SignalStore using PostgreSQL.
type SignalStore struct {
	pool *Pool
}

// NewSignalStore creates a new SignalStore.
func NewSignalStore(pool *Pool) *SignalStore {
	return &SignalStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SignalStore = (*SignalStore)(nil)

const signalColumns = `
	signal_id, source, external_id, symbol, direction,
	entry_price, stop_loss, targets, signal_time, raw_message
`

const insertSignalQuery = `
	INSERT INTO signals (
		signal_id, source, external_id, symbol, direction,
		entry_price, stop_loss, targets, signal_time, raw_message
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9, $10
	)
`

// Insert adds a new signal. Returns ErrDuplicateKey if signal_id exists.
func (s *SignalStore) Insert(ctx context.Context, sig *domain.Signal) error {
	if sig == nil || sig.SignalID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertSignalQuery,
		sig.SignalID, sig.Source, sig.ExternalID, sig.Symbol, string(sig.Direction),
		sig.EntryPrice, sig.StopLoss, sig.Targets, sig.SignalTime, sig.RawMessage,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

// InsertBulk adds multiple signals atomically. Fails entire batch on any duplicate.
func (s *SignalStore) InsertBulk(ctx context.Context, signals []*domain.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, sig := range signals {
		if sig == nil || sig.SignalID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, insertSignalQuery,
			sig.SignalID, sig.Source, sig.ExternalID, sig.Symbol, string(sig.Direction),
			sig.EntryPrice, sig.StopLoss, sig.Targets, sig.SignalTime, sig.RawMessage,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert signal in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByID retrieves a signal by its ID. Returns ErrNotFound if not exists.
func (s *SignalStore) GetByID(ctx context.Context, signalID string) (*domain.Signal, error) {
	query := `SELECT ` + signalColumns + ` FROM signals WHERE signal_id = $1`

	row := s.pool.QueryRow(ctx, query, signalID)
	sig, err := scanSignal(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get signal by id: %w", err)
	}
	return sig, nil
}

// GetBySymbol retrieves all signals for a symbol, ordered by signal_time ASC.
func (s *SignalStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.Signal, error) {
	query := `
		SELECT ` + signalColumns + `
		FROM signals
		WHERE symbol = $1
		ORDER BY signal_time ASC, signal_id ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get signals by symbol: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

// GetAll retrieves all signals, ordered by signal_time ASC, signal_id ASC.
func (s *SignalStore) GetAll(ctx context.Context) ([]*domain.Signal, error) {
	query := `
		SELECT ` + signalColumns + `
		FROM signals
		ORDER BY signal_time ASC, signal_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all signals: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

// scanSignal scans a single row into a Signal.
func scanSignal(row pgx.Row) (*domain.Signal, error) {
	var sig domain.Signal
	var direction string

	err := row.Scan(
		&sig.SignalID, &sig.Source, &sig.ExternalID, &sig.Symbol, &direction,
		&sig.EntryPrice, &sig.StopLoss, &sig.Targets, &sig.SignalTime, &sig.RawMessage,
	)
	if err != nil {
		return nil, err
	}

	sig.Direction = domain.Direction(direction)
	return &sig, nil
}

// scanSignals scans multiple rows into a slice of Signal.
func scanSignals(rows pgx.Rows) ([]*domain.Signal, error) {
	var signals []*domain.Signal

	for rows.Next() {
		var sig domain.Signal
		var direction string

		err := rows.Scan(
			&sig.SignalID, &sig.Source, &sig.ExternalID, &sig.Symbol, &direction,
			&sig.EntryPrice, &sig.StopLoss, &sig.Targets, &sig.SignalTime, &sig.RawMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("scan signal row: %w", err)
		}

		sig.Direction = domain.Direction(direction)
		signals = append(signals, &sig)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signal rows: %w", err)
	}

	return signals, nil
}
