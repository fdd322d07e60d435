package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"signal-lab/internal/domain"
	"signal-lab/internal/storage"
)

// OutcomeStore implements storage.OutcomeStore using PostgreSQL.
type OutcomeStore struct {
	pool *Pool
}

// NewOutcomeStore creates a new OutcomeStore.
func NewOutcomeStore(pool *Pool) *OutcomeStore {
	return &OutcomeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.OutcomeStore = (*OutcomeStore)(nil)

const outcomeColumns = `
	signal_id, symbol, direction, entry_price, signal_time,
	terminal_state, hit_target1, hit_target2, hit_target3, hit_stop_loss,
	minutes_to_target1, minutes_to_target2, minutes_to_target3, minutes_to_stop_loss,
	max_favorable_pct, max_adverse_pct
`

const insertOutcomeQuery = `
	INSERT INTO outcomes (
		signal_id, symbol, direction, entry_price, signal_time,
		terminal_state, hit_target1, hit_target2, hit_target3, hit_stop_loss,
		minutes_to_target1, minutes_to_target2, minutes_to_target3, minutes_to_stop_loss,
		max_favorable_pct, max_adverse_pct
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9, $10,
		$11, $12, $13, $14,
		$15, $16
	)
`

// Insert adds a new outcome. Returns ErrDuplicateKey if signal_id exists.
func (s *OutcomeStore) Insert(ctx context.Context, o *domain.Outcome) error {
	if o == nil || o.SignalID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertOutcomeQuery,
		o.SignalID, o.Symbol, string(o.Direction), o.EntryPrice, o.SignalTime,
		string(o.TerminalState), o.HitTarget1, o.HitTarget2, o.HitTarget3, o.HitStopLoss,
		o.MinutesToTarget1, o.MinutesToTarget2, o.MinutesToTarget3, o.MinutesToStopLoss,
		o.MaxFavorablePct, o.MaxAdversePct,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// InsertBulk adds multiple outcomes atomically. Fails entire batch on any duplicate.
func (s *OutcomeStore) InsertBulk(ctx context.Context, outcomes []*domain.Outcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, o := range outcomes {
		if o == nil || o.SignalID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, insertOutcomeQuery,
			o.SignalID, o.Symbol, string(o.Direction), o.EntryPrice, o.SignalTime,
			string(o.TerminalState), o.HitTarget1, o.HitTarget2, o.HitTarget3, o.HitStopLoss,
			o.MinutesToTarget1, o.MinutesToTarget2, o.MinutesToTarget3, o.MinutesToStopLoss,
			o.MaxFavorablePct, o.MaxAdversePct,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert outcome in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetBySignalID retrieves the outcome for a signal. Returns ErrNotFound if not exists.
func (s *OutcomeStore) GetBySignalID(ctx context.Context, signalID string) (*domain.Outcome, error) {
	query := `SELECT ` + outcomeColumns + ` FROM outcomes WHERE signal_id = $1`

	row := s.pool.QueryRow(ctx, query, signalID)
	o, err := scanOutcome(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get outcome by signal id: %w", err)
	}
	return o, nil
}

// GetAll retrieves all outcomes, ordered by signal_time ASC, signal_id ASC.
func (s *OutcomeStore) GetAll(ctx context.Context) ([]*domain.Outcome, error) {
	query := `
		SELECT ` + outcomeColumns + `
		FROM outcomes
		ORDER BY signal_time ASC, signal_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all outcomes: %w", err)
	}
	defer rows.Close()

	return scanOutcomes(rows)
}

// scanOutcome scans a single row into an Outcome.
func scanOutcome(row pgx.Row) (*domain.Outcome, error) {
	var o domain.Outcome
	var direction, terminalState string

	err := row.Scan(
		&o.SignalID, &o.Symbol, &direction, &o.EntryPrice, &o.SignalTime,
		&terminalState, &o.HitTarget1, &o.HitTarget2, &o.HitTarget3, &o.HitStopLoss,
		&o.MinutesToTarget1, &o.MinutesToTarget2, &o.MinutesToTarget3, &o.MinutesToStopLoss,
		&o.MaxFavorablePct, &o.MaxAdversePct,
	)
	if err != nil {
		return nil, err
	}

	o.Direction = domain.Direction(direction)
	o.TerminalState = domain.TerminalState(terminalState)
	return &o, nil
}

// scanOutcomes scans multiple rows into a slice of Outcome.
func scanOutcomes(rows pgx.Rows) ([]*domain.Outcome, error) {
	var outcomes []*domain.Outcome

	for rows.Next() {
		var o domain.Outcome
		var direction, terminalState string

		err := rows.Scan(
			&o.SignalID, &o.Symbol, &direction, &o.EntryPrice, &o.SignalTime,
			&terminalState, &o.HitTarget1, &o.HitTarget2, &o.HitTarget3, &o.HitStopLoss,
			&o.MinutesToTarget1, &o.MinutesToTarget2, &o.MinutesToTarget3, &o.MinutesToStopLoss,
			&o.MaxFavorablePct, &o.MaxAdversePct,
		)
		if err != nil {
			return nil, fmt.Errorf("scan outcome row: %w", err)
		}

		o.Direction = domain.Direction(direction)
		o.TerminalState = domain.TerminalState(terminalState)
		outcomes = append(outcomes, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcome rows: %w", err)
	}

	return outcomes, nil
}
