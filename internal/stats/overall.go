// Package stats aggregates outcome collections into summary statistics:
// overall win rate and profit factor, grouping along temporal and symbol
// dimensions, and deterministic best/worst rankings.
package stats

import (
	"math"

	"signal-lab/internal/domain"
)

// Overall summarizes an outcome collection.
//
// Wins count terminal targets, losses count stop-losses. ONGOING and
// NO_DATA outcomes stay in Total for coverage reporting but are excluded
// from the win-rate denominator. AvgFavorablePct averages over winners
// only and AvgAdversePct over losers only, so undecided outcomes cannot
// dilute the reported excursions.
type Overall struct {
	Total           int
	Wins            int
	Losses          int
	WinRatePct      float64
	AvgFavorablePct float64
	AvgAdversePct   float64
	ProfitFactor    float64
}

// Decided is the number of outcomes that reached a win or loss.
func (o Overall) Decided() int {
	return o.Wins + o.Losses
}

// OverallStats computes summary statistics over outcomes.
//
// profit_factor = sum(max_favorable_pct over winners) /
// abs(sum(max_adverse_pct over losers)); +Inf when there are winners but
// no loser excursion, 0 when both sums are zero. An empty collection
// returns the zero value, no division happens.
func OverallStats(outcomes []*domain.Outcome) Overall {
	var s Overall
	s.Total = len(outcomes)

	var (
		winnerFav float64
		loserAdv  float64
	)

	for _, o := range outcomes {
		switch {
		case o.IsWin():
			s.Wins++
			winnerFav += o.MaxFavorablePct
		case o.IsLoss():
			s.Losses++
			loserAdv += o.MaxAdversePct
		}
	}

	if decided := s.Decided(); decided > 0 {
		s.WinRatePct = float64(s.Wins) / float64(decided) * 100
	}
	if s.Wins > 0 {
		s.AvgFavorablePct = winnerFav / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgAdversePct = loserAdv / float64(s.Losses)
	}

	loserAdvAbs := math.Abs(loserAdv)
	switch {
	case loserAdvAbs > 0:
		s.ProfitFactor = winnerFav / loserAdvAbs
	case winnerFav > 0:
		s.ProfitFactor = math.Inf(1)
	default:
		s.ProfitFactor = 0
	}

	return s
}

// groupStat converts an Overall into a keyed GroupStat.
func groupStat(key string, s Overall) *domain.GroupStat {
	return &domain.GroupStat{
		Key:             key,
		Total:           s.Total,
		Wins:            s.Wins,
		Losses:          s.Losses,
		WinRatePct:      s.WinRatePct,
		AvgFavorablePct: s.AvgFavorablePct,
		AvgAdversePct:   s.AvgAdversePct,
		ProfitFactor:    s.ProfitFactor,
	}
}
