package memory

import (
	"context"
	"sort"
	"sync"

	"signal-lab/internal/domain"
	"signal-lab/internal/storage"
)

// SignalStore is an in-memory implementation of storage.SignalStore.
type SignalStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Signal // keyed by signal_id
}

// NewSignalStore creates a new in-memory signal store.
func NewSignalStore() *SignalStore {
	return &SignalStore{
		data: make(map[string]*domain.Signal),
	}
}

// Insert adds a new signal. Returns ErrDuplicateKey if signal_id exists.
func (s *SignalStore) Insert(_ context.Context, sig *domain.Signal) error {
	if sig == nil || sig.SignalID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[sig.SignalID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[sig.SignalID] = copySignal(sig)
	return nil
}

// InsertBulk adds multiple signals atomically. Fails entire batch on any duplicate.
func (s *SignalStore) InsertBulk(_ context.Context, signals []*domain.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(signals))

	for _, sig := range signals {
		if sig == nil || sig.SignalID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[sig.SignalID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[sig.SignalID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[sig.SignalID] = struct{}{}
	}

	for _, sig := range signals {
		s.data[sig.SignalID] = copySignal(sig)
	}

	return nil
}

// GetByID retrieves a signal by its ID. Returns ErrNotFound if not exists.
func (s *SignalStore) GetByID(_ context.Context, signalID string) (*domain.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sig, exists := s.data[signalID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return copySignal(sig), nil
}

// GetBySymbol retrieves all signals for a symbol, ordered by signal_time ASC.
func (s *SignalStore) GetBySymbol(_ context.Context, symbol string) ([]*domain.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Signal
	for _, sig := range s.data {
		if sig.Symbol == symbol {
			result = append(result, copySignal(sig))
		}
	}

	sortSignals(result)
	return result, nil
}

// GetAll retrieves all signals, ordered by signal_time ASC, signal_id ASC.
func (s *SignalStore) GetAll(_ context.Context) ([]*domain.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Signal, 0, len(s.data))
	for _, sig := range s.data {
		result = append(result, copySignal(sig))
	}

	sortSignals(result)
	return result, nil
}

func sortSignals(signals []*domain.Signal) {
	sort.Slice(signals, func(i, j int) bool {
		if signals[i].SignalTime != signals[j].SignalTime {
			return signals[i].SignalTime < signals[j].SignalTime
		}
		return signals[i].SignalID < signals[j].SignalID
	})
}

// copySignal returns a defensive copy including the targets slice.
func copySignal(sig *domain.Signal) *domain.Signal {
	c := *sig
	c.Targets = append([]float64(nil), sig.Targets...)
	return &c
}

var _ storage.SignalStore = (*SignalStore)(nil)
