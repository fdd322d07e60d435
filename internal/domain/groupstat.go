package domain

// GroupStat summarizes the outcomes sharing one dimension key (a day name,
// an hour, a symbol, a month). Recomputed per query, never persisted.
type GroupStat struct {
	Key string

	Total  int // all outcomes in the group, including ONGOING/NO_DATA
	Wins   int // terminal state TARGET1..3
	Losses int // terminal state STOP_LOSS

	WinRatePct      float64 // wins / (wins + losses) * 100, 0 when decided == 0
	AvgFavorablePct float64 // mean max favorable excursion among winners
	AvgAdversePct   float64 // mean max adverse excursion among losers (negative)
	ProfitFactor    float64 // sum favorable (winners) / |sum adverse (losers)|
}

// Decided returns the number of outcomes that reached a win or loss.
func (g *GroupStat) Decided() int {
	return g.Wins + g.Losses
}
