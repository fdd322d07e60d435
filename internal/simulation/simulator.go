// Package simulation walks signals forward through minute candles to
// determine each signal's terminal event, level touch times, and excursion
// extremes.
package simulation

import (
	"errors"
	"fmt"

	"signal-lab/internal/domain"
)

// DefaultLookaheadHours bounds how far forward a signal is scanned.
const DefaultLookaheadHours = 72

// ErrCandlesOutOfOrder indicates the candle window violates ascending
// timestamp order. This is an upstream data-integrity bug and aborts the
// whole batch rather than producing a per-signal outcome.
var ErrCandlesOutOfOrder = errors.New("candles out of order")

// Simulate evaluates one validated signal against its candle window and
// produces the signal's Outcome.
//
// The scan is a state machine, one transition per candle, strictly forward
// in time:
//
//  1. Update running max favorable / most negative adverse excursion.
//  2. Stop-loss check precedes target checks within the same candle. A
//     candle touching both stop and a target counts as STOP_LOSS: intrabar
//     ordering is unknown and risk-first is the safer assumption.
//  3. Targets are checked in ascending order. Hitting target1 or target2
//     does not end the scan; the simulator keeps walking to see whether a
//     farther target is reached before the stop or the window ends.
//     Hitting target3 ends the scan, no farther level exists.
//  4. A window exhausted without stop/target3 leaves the terminal state at
//     the highest target reached, ONGOING when no level was touched, and
//     NO_DATA when no candles existed at all.
//
// Candles must be time-ordered ascending; violation returns
// ErrCandlesOutOfOrder. Malformed signals are rejected with the signal's
// validation error before any candle is examined.
func Simulate(sig *domain.Signal, candles []*domain.Candle, lookaheadHours int) (*domain.Outcome, error) {
	if err := sig.Validate(); err != nil {
		return nil, err
	}
	if lookaheadHours <= 0 {
		lookaheadHours = DefaultLookaheadHours
	}

	out := &domain.Outcome{
		SignalID:   sig.SignalID,
		Symbol:     sig.Symbol,
		Direction:  sig.Direction,
		EntryPrice: sig.EntryPrice,
		SignalTime: sig.SignalTime,
	}

	windowEnd := sig.SignalTime + int64(lookaheadHours)*3_600_000

	var (
		prevTs  int64
		scanned bool
	)

	for _, c := range candles {
		if c.Timestamp < sig.SignalTime || c.Timestamp >= windowEnd {
			continue
		}
		if scanned && c.Timestamp <= prevTs {
			return nil, fmt.Errorf("%w: %d after %d for %s", ErrCandlesOutOfOrder, c.Timestamp, prevTs, sig.Symbol)
		}
		prevTs = c.Timestamp
		scanned = true

		fav, adv := excursion(sig, c)
		if fav > out.MaxFavorablePct {
			out.MaxFavorablePct = fav
		}
		if adv < out.MaxAdversePct {
			out.MaxAdversePct = adv
		}

		minutes := float64(c.Timestamp-sig.SignalTime) / 60_000

		// Stop first, regardless of any target in the same candle.
		if stopTouched(sig, c) {
			out.HitStopLoss = true
			out.MinutesToStopLoss = &minutes
			out.TerminalState = domain.TerminalStopLoss
			return out, nil
		}

		if done := checkTargets(sig, c, out, minutes); done {
			return out, nil
		}
	}

	if out.TerminalState == "" {
		if scanned {
			out.TerminalState = domain.TerminalOngoing
		} else {
			out.TerminalState = domain.TerminalNoData
		}
	}

	return out, nil
}

// excursion computes the candle's favorable and adverse percentage moves
// relative to entry, signed by direction: favorable >= 0, adverse <= 0 is
// enforced by the caller keeping running extremes that start at 0.
func excursion(sig *domain.Signal, c *domain.Candle) (favorable, adverse float64) {
	switch sig.Direction {
	case domain.DirectionShort:
		favorable = (sig.EntryPrice - c.Low) / sig.EntryPrice * 100
		adverse = (sig.EntryPrice - c.High) / sig.EntryPrice * 100
	default: // LONG
		favorable = (c.High - sig.EntryPrice) / sig.EntryPrice * 100
		adverse = (c.Low - sig.EntryPrice) / sig.EntryPrice * 100
	}
	return favorable, adverse
}

// stopTouched reports whether the candle reaches the stop level.
func stopTouched(sig *domain.Signal, c *domain.Candle) bool {
	if sig.Direction == domain.DirectionShort {
		return c.High >= sig.StopLoss
	}
	return c.Low <= sig.StopLoss
}

// targetTouched reports whether the candle reaches a target level.
func targetTouched(sig *domain.Signal, c *domain.Candle, level float64) bool {
	if sig.Direction == domain.DirectionShort {
		return c.Low <= level
	}
	return c.High >= level
}

// checkTargets marks newly touched targets in ascending order and updates
// the terminal state to the highest level reached. Returns true when
// target3 is hit and the scan is over.
func checkTargets(sig *domain.Signal, c *domain.Candle, out *domain.Outcome, minutes float64) bool {
	type slot struct {
		hit     *bool
		at      **float64
		state   domain.TerminalState
		ordinal int
	}
	slots := []slot{
		{&out.HitTarget1, &out.MinutesToTarget1, domain.TerminalTarget1, 1},
		{&out.HitTarget2, &out.MinutesToTarget2, domain.TerminalTarget2, 2},
		{&out.HitTarget3, &out.MinutesToTarget3, domain.TerminalTarget3, 3},
	}

	for _, s := range slots {
		level, ok := sig.Target(s.ordinal)
		if !ok {
			break
		}
		if *s.hit || !targetTouched(sig, c, level) {
			continue
		}
		*s.hit = true
		m := minutes
		*s.at = &m
		out.TerminalState = s.state
		if s.ordinal == len(sig.Targets) && s.ordinal == 3 {
			return true
		}
	}

	return false
}
