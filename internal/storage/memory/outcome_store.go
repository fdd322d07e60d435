package memory

import (
	"context"
	"sort"
	"sync"

	"signal-lab/internal/domain"
	"signal-lab/internal/storage"
)

// OutcomeStore is an in-memory implementation of storage.OutcomeStore.
type OutcomeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Outcome // keyed by signal_id
}

// NewOutcomeStore creates a new in-memory outcome store.
func NewOutcomeStore() *OutcomeStore {
	return &OutcomeStore{
		data: make(map[string]*domain.Outcome),
	}
}

// Insert adds a new outcome. Returns ErrDuplicateKey if signal_id exists.
func (s *OutcomeStore) Insert(_ context.Context, o *domain.Outcome) error {
	if o == nil || o.SignalID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[o.SignalID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[o.SignalID] = copyOutcome(o)
	return nil
}

// InsertBulk adds multiple outcomes atomically. Fails entire batch on any duplicate.
func (s *OutcomeStore) InsertBulk(_ context.Context, outcomes []*domain.Outcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(outcomes))

	for _, o := range outcomes {
		if o == nil || o.SignalID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[o.SignalID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[o.SignalID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[o.SignalID] = struct{}{}
	}

	for _, o := range outcomes {
		s.data[o.SignalID] = copyOutcome(o)
	}

	return nil
}

// GetBySignalID retrieves the outcome for a signal. Returns ErrNotFound if not exists.
func (s *OutcomeStore) GetBySignalID(_ context.Context, signalID string) (*domain.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, exists := s.data[signalID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return copyOutcome(o), nil
}

// GetAll retrieves all outcomes, ordered by signal_time ASC, signal_id ASC.
func (s *OutcomeStore) GetAll(_ context.Context) ([]*domain.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Outcome, 0, len(s.data))
	for _, o := range s.data {
		result = append(result, copyOutcome(o))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].SignalTime != result[j].SignalTime {
			return result[i].SignalTime < result[j].SignalTime
		}
		return result[i].SignalID < result[j].SignalID
	})

	return result, nil
}

// copyOutcome returns a defensive copy including the minutes-to pointers.
func copyOutcome(o *domain.Outcome) *domain.Outcome {
	c := *o
	c.MinutesToTarget1 = copyFloatPtr(o.MinutesToTarget1)
	c.MinutesToTarget2 = copyFloatPtr(o.MinutesToTarget2)
	c.MinutesToTarget3 = copyFloatPtr(o.MinutesToTarget3)
	c.MinutesToStopLoss = copyFloatPtr(o.MinutesToStopLoss)
	return &c
}

func copyFloatPtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

var _ storage.OutcomeStore = (*OutcomeStore)(nil)
