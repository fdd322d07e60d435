// Package rules searches outcome collections for filter combinations worth
// trading: dimension pairs with perfect win rates, and progressively
// intersected day/hour/symbol constraints with their expected uplift.
package rules

import (
	"fmt"

	"signal-lab/internal/domain"
	"signal-lab/internal/stats"
)

// KeySet is a membership filter over dimension keys.
type KeySet map[string]struct{}

// NewKeySet builds a set from keys.
func NewKeySet(keys ...string) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// HourKey formats an hour 0-23 the way the hour dimension keys groups.
func HourKey(hour int) string {
	return fmt.Sprintf("%02d", hour)
}

// Contains reports set membership. A nil set matches nothing.
func (s KeySet) Contains(key string) bool {
	_, ok := s[key]
	return ok
}

// FilterByDimension keeps outcomes whose dimension key is in the set.
// Outcomes with an undefined key are dropped.
func FilterByDimension(outcomes []*domain.Outcome, dim stats.Dimension, keep KeySet) []*domain.Outcome {
	var out []*domain.Outcome
	for _, o := range outcomes {
		k, ok := dim.Key(o)
		if !ok {
			continue
		}
		if keep.Contains(k) {
			out = append(out, o)
		}
	}
	return out
}
