package memory

import (
	"context"
	"sort"
	"sync"

	"signal-lab/internal/domain"
	"signal-lab/internal/storage"
)

// CandleStore is an in-memory implementation of storage.CandleStore.
type CandleStore struct {
	mu   sync.RWMutex
	data map[string]map[int64]*domain.Candle // symbol -> timestamp -> candle
}

// NewCandleStore creates a new in-memory candle store.
func NewCandleStore() *CandleStore {
	return &CandleStore{
		data: make(map[string]map[int64]*domain.Candle),
	}
}

// InsertBulk adds multiple candles. Fails entire batch on duplicate (symbol, timestamp).
func (s *CandleStore) InsertBulk(_ context.Context, candles []*domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	type key struct {
		symbol string
		ts     int64
	}
	batchKeys := make(map[key]struct{}, len(candles))

	for _, c := range candles {
		if c == nil || c.Symbol == "" || c.Timestamp <= 0 {
			return storage.ErrInvalidInput
		}
		k := key{c.Symbol, c.Timestamp}
		if _, exists := s.data[c.Symbol][c.Timestamp]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[k]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[k] = struct{}{}
	}

	for _, c := range candles {
		bySymbol, ok := s.data[c.Symbol]
		if !ok {
			bySymbol = make(map[int64]*domain.Candle)
			s.data[c.Symbol] = bySymbol
		}
		cc := *c
		bySymbol[c.Timestamp] = &cc
	}

	return nil
}

// GetByRange retrieves candles for a symbol within [start, end) in ms,
// ordered by timestamp ASC.
func (s *CandleStore) GetByRange(_ context.Context, symbol string, start, end int64) ([]*domain.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Candle
	for ts, c := range s.data[symbol] {
		if ts >= start && ts < end {
			cc := *c
			result = append(result, &cc)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})

	return result, nil
}

var _ storage.CandleStore = (*CandleStore)(nil)
