package stats

import (
	"sort"

	"signal-lab/internal/domain"
)

// Best returns groups ranked by win rate descending; Worst ascending. Ties
// break by total descending (prefer the better-supported group), then by
// the dimension's natural key order for determinism. Groups below
// minSignals are dropped before ranking; pass 0 to keep all.
func Best(outcomes []*domain.Outcome, dim Dimension, minSignals int) []*domain.GroupStat {
	return rank(outcomes, dim, minSignals, false)
}

// Worst is the ascending counterpart of Best.
func Worst(outcomes []*domain.Outcome, dim Dimension, minSignals int) []*domain.GroupStat {
	return rank(outcomes, dim, minSignals, true)
}

func rank(outcomes []*domain.Outcome, dim Dimension, minSignals int, ascending bool) []*domain.GroupStat {
	groups := GroupBy(outcomes, dim)

	filtered := groups[:0]
	for _, g := range groups {
		if g.Total >= minSignals {
			filtered = append(filtered, g)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		if a.WinRatePct != b.WinRatePct {
			if ascending {
				return a.WinRatePct < b.WinRatePct
			}
			return a.WinRatePct > b.WinRatePct
		}
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return dim.less(a.Key, b.Key)
	})

	return filtered
}
