package rules

import (
	"signal-lab/internal/domain"
	"signal-lab/internal/stats"
)

// Tier labels, in escalating filter order.
const (
	TierBestDays          = "best_days"
	TierBestDaysHours     = "best_days_hours"
	TierBestCoins         = "best_coins"
	TierBestDaysCoins     = "best_days_coins"
	TierBestDaysHoursCoin = "best_days_hours_coins"
)

// TierStat is one tier's summary: its filtered subset's overall stats plus
// the subset's share of the unfiltered baseline.
type TierStat struct {
	Label      string
	Stats      stats.Overall
	PctOfTotal float64
}

// ProgressiveFilterTiers builds five filtered subsets by intersecting
// outcomes' day/hour/symbol membership with the supplied "good" sets in
// escalating combinations, quantifying how much win rate is bought at the
// price of how many fewer signals.
//
// Tiers, in order: days only; days+hours; coins only; days+coins;
// days+hours+coins.
func ProgressiveFilterTiers(outcomes []*domain.Outcome, bestDays, bestHours, bestCoins KeySet) []TierStat {
	baseline := len(outcomes)

	days := FilterByDimension(outcomes, stats.DayOfWeek, bestDays)
	daysHours := FilterByDimension(days, stats.HourOfDay, bestHours)
	coins := FilterByDimension(outcomes, stats.Symbol, bestCoins)
	daysCoins := FilterByDimension(days, stats.Symbol, bestCoins)
	daysHoursCoins := FilterByDimension(daysHours, stats.Symbol, bestCoins)

	tiers := []struct {
		label  string
		subset []*domain.Outcome
	}{
		{TierBestDays, days},
		{TierBestDaysHours, daysHours},
		{TierBestCoins, coins},
		{TierBestDaysCoins, daysCoins},
		{TierBestDaysHoursCoin, daysHoursCoins},
	}

	result := make([]TierStat, 0, len(tiers))
	for _, t := range tiers {
		ts := TierStat{
			Label: t.label,
			Stats: stats.OverallStats(t.subset),
		}
		if baseline > 0 {
			ts.PctOfTotal = float64(len(t.subset)) / float64(baseline) * 100
		}
		result = append(result, ts)
	}
	return result
}
