package clickhouse

import (
	"context"
	"fmt"

	"signal-lab/internal/domain"
	"signal-lab/internal/storage"
)

// CandleStore implements storage.CandleStore using ClickHouse.
//
// Candles are stored in a MergeTree ordered by (symbol, timestamp_ms).
// MergeTree does not enforce uniqueness, so duplicates are detected with
// explicit checks before insert.
type CandleStore struct {
	conn *Conn
}

// NewCandleStore creates a new CandleStore.
func NewCandleStore(conn *Conn) *CandleStore {
	return &CandleStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CandleStore = (*CandleStore)(nil)

// InsertBulk adds multiple candles. Fails entire batch on duplicate (symbol, timestamp).
func (s *CandleStore) InsertBulk(ctx context.Context, candles []*domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		symbol      string
		timestampMs int64
	}
	seen := make(map[key]struct{}, len(candles))
	for _, c := range candles {
		if c == nil || c.Symbol == "" || c.Timestamp <= 0 {
			return storage.ErrInvalidInput
		}
		k := key{c.Symbol, c.Timestamp}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows. One range query per
	// symbol instead of one point query per candle: a 72h backfill window
	// is thousands of rows.
	perSymbol := make(map[string][]int64)
	for _, c := range candles {
		perSymbol[c.Symbol] = append(perSymbol[c.Symbol], c.Timestamp)
	}
	for symbol, timestamps := range perSymbol {
		conflict, err := s.anyExist(ctx, symbol, timestamps)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if conflict {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO candles (
			symbol, timestamp_ms, open, high, low, close
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, c := range candles {
		err = batch.Append(
			c.Symbol, uint64(c.Timestamp),
			c.Open, c.High, c.Low, c.Close,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRange retrieves candles for a symbol within [start, end) in ms,
// ordered by timestamp ASC.
func (s *CandleStore) GetByRange(ctx context.Context, symbol string, start, end int64) ([]*domain.Candle, error) {
	query := `
		SELECT symbol, timestamp_ms, open, high, low, close
		FROM candles
		WHERE symbol = ? AND timestamp_ms >= ? AND timestamp_ms < ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query candles by range: %w", err)
	}
	defer rows.Close()

	return scanCandles(rows)
}

// anyExist reports whether any of the given timestamps is already stored
// for symbol. Scans the min/max timestamp range once and intersects in
// memory, matching the MergeTree (symbol, timestamp_ms) ordering key.
func (s *CandleStore) anyExist(ctx context.Context, symbol string, timestamps []int64) (bool, error) {
	if len(timestamps) == 0 {
		return false, nil
	}

	min, max := timestamps[0], timestamps[0]
	for _, ts := range timestamps[1:] {
		if ts < min {
			min = ts
		}
		if ts > max {
			max = ts
		}
	}

	query := `
		SELECT timestamp_ms FROM candles
		WHERE symbol = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
	`

	rows, err := s.conn.Query(ctx, query, symbol, uint64(min), uint64(max))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	stored := make(map[int64]struct{})
	for rows.Next() {
		var ts uint64
		if err := rows.Scan(&ts); err != nil {
			return false, fmt.Errorf("scan timestamp: %w", err)
		}
		stored[int64(ts)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("iterate timestamps: %w", err)
	}

	for _, ts := range timestamps {
		if _, ok := stored[ts]; ok {
			return true, nil
		}
	}
	return false, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanCandles scans multiple rows.
func scanCandles(rows chRows) ([]*domain.Candle, error) {
	var candles []*domain.Candle

	for rows.Next() {
		var c domain.Candle
		var timestampMs uint64

		err := rows.Scan(
			&c.Symbol, &timestampMs,
			&c.Open, &c.High, &c.Low, &c.Close,
		)
		if err != nil {
			return nil, fmt.Errorf("scan candle row: %w", err)
		}

		c.Timestamp = int64(timestampMs)
		candles = append(candles, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candle rows: %w", err)
	}

	return candles, nil
}
