package domain

import (
	"errors"
	"fmt"
)

// Direction is the side of a signal's position.
type Direction string

// Direction constants.
const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Signal represents a proposed trade issued by an upstream source at a point
// in time: entry, stop-loss, and one to three profit targets.
type Signal struct {
	SignalID   string // deterministic hash, see idhash
	Source     string // originating feed (e.g. "telegram")
	ExternalID string // message identifier within the source

	Symbol    string // normalized trading pair, e.g. "ETHUSDT"
	Direction Direction

	EntryPrice float64
	StopLoss   float64
	Targets    []float64 // 1-3 levels ordered closest to farthest from entry

	SignalTime int64 // Unix ms, UTC

	RawMessage string // original text when extracted from a chat export
}

// Target returns the n-th target (1-based) and whether it exists.
func (s *Signal) Target(n int) (float64, bool) {
	if n < 1 || n > len(s.Targets) {
		return 0, false
	}
	return s.Targets[n-1], true
}

// ValidationError describes signal geometry that cannot be simulated.
// It is a data-quality condition, not a programming error: batch runners
// count and skip, they do not abort.
type ValidationError struct {
	SignalID string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid signal %s: %s", e.SignalID, e.Reason)
}

// ErrInvalidSignal is the sentinel all ValidationErrors match via errors.Is.
var ErrInvalidSignal = errors.New("invalid signal")

// Is reports whether target is ErrInvalidSignal.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidSignal
}

// Validate checks signal geometry: positive prices, stop on the losing side
// of entry, targets on the winning side and strictly increasing in distance.
func (s *Signal) Validate() error {
	fail := func(reason string) error {
		return &ValidationError{SignalID: s.SignalID, Reason: reason}
	}

	if s.Symbol == "" {
		return fail("empty symbol")
	}
	if s.Direction != DirectionLong && s.Direction != DirectionShort {
		return fail(fmt.Sprintf("unknown direction %q", s.Direction))
	}
	if s.EntryPrice <= 0 {
		return fail("entry price must be positive")
	}
	if s.StopLoss <= 0 {
		return fail("stop loss must be positive")
	}
	if len(s.Targets) == 0 || len(s.Targets) > 3 {
		return fail(fmt.Sprintf("expected 1-3 targets, got %d", len(s.Targets)))
	}
	if s.SignalTime <= 0 {
		return fail("missing signal time")
	}

	switch s.Direction {
	case DirectionLong:
		if s.StopLoss >= s.EntryPrice {
			return fail("stop loss not below entry for LONG")
		}
		prev := s.EntryPrice
		for i, t := range s.Targets {
			if t <= prev {
				return fail(fmt.Sprintf("target%d not strictly above previous level", i+1))
			}
			prev = t
		}
	case DirectionShort:
		if s.StopLoss <= s.EntryPrice {
			return fail("stop loss not above entry for SHORT")
		}
		prev := s.EntryPrice
		for i, t := range s.Targets {
			if t >= prev {
				return fail(fmt.Sprintf("target%d not strictly below previous level", i+1))
			}
			prev = t
		}
	}

	return nil
}

// InferDirection derives the position side from price geometry: a first
// target above entry is a LONG, below entry a SHORT. Upstream direction
// labels proved unreliable, so this is the single authority for direction
// and is applied once at ingestion.
func InferDirection(entry, target1 float64) Direction {
	if entry > target1 {
		return DirectionShort
	}
	return DirectionLong
}
