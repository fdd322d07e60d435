package domain

// TerminalState is the event that ended simulation for a signal.
type TerminalState string

// Terminal state constants.
const (
	TerminalTarget1  TerminalState = "TARGET1"
	TerminalTarget2  TerminalState = "TARGET2"
	TerminalTarget3  TerminalState = "TARGET3"
	TerminalStopLoss TerminalState = "STOP_LOSS"
	TerminalOngoing  TerminalState = "ONGOING"   // window exhausted with data but no event
	TerminalNoData   TerminalState = "NO_DATA"   // no candle coverage at all
)

// Outcome is the simulated result of holding one signal's position against
// subsequent candles. Produced exactly once per signal, immutable thereafter.
type Outcome struct {
	SignalID   string
	Symbol     string
	Direction  Direction
	EntryPrice float64
	SignalTime int64 // Unix ms, UTC; carried for temporal grouping

	TerminalState TerminalState

	// Level touches. More than one target flag can be set when several
	// levels were reached before the scan ended; TerminalState records the
	// final determining event.
	HitTarget1  bool
	HitTarget2  bool
	HitTarget3  bool
	HitStopLoss bool

	// Elapsed minutes from signal time to the first touch of each level,
	// nil if never touched within the lookahead window.
	MinutesToTarget1  *float64
	MinutesToTarget2  *float64
	MinutesToTarget3  *float64
	MinutesToStopLoss *float64

	// Largest excursions over the scanned window, signed consistently with
	// direction: favorable >= 0, adverse <= 0.
	MaxFavorablePct float64
	MaxAdversePct   float64
}

// IsWin reports whether the terminal state is any target.
func (o *Outcome) IsWin() bool {
	switch o.TerminalState {
	case TerminalTarget1, TerminalTarget2, TerminalTarget3:
		return true
	}
	return false
}

// IsLoss reports whether the terminal state is the stop-loss.
func (o *Outcome) IsLoss() bool {
	return o.TerminalState == TerminalStopLoss
}

// HasData reports whether any candle coverage existed for the signal.
func (o *Outcome) HasData() bool {
	return o.TerminalState != TerminalNoData
}
