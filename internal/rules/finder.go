package rules

import (
	"sort"

	"signal-lab/internal/domain"
	"signal-lab/internal/stats"
)

// Combination is a (dimension-A key, dimension-B key) pair whose joint
// outcome subset met the perfect-win-rate bar.
//
// AvgFavorablePct is the mean over the whole subset, undecided outcomes
// included: a combo with many open trades should look weaker than one
// where every trade already ran to target.
type Combination struct {
	KeyA            string
	KeyB            string
	Total           int
	Wins            int
	AvgFavorablePct float64
}

// PerfectCombinations searches the Cartesian product of observed keys in
// two dimensions for joint subsets with total >= minSignals and a 100%
// win rate. Exhaustive scan: key counts are tiny (7 days x 24 hours at
// worst) and this runs offline.
//
// Results are ordered by total descending, then key pair natural order.
func PerfectCombinations(outcomes []*domain.Outcome, dimA, dimB stats.Dimension, minSignals int) []Combination {
	if minSignals < 1 {
		minSignals = 1
	}

	byA := stats.Partition(outcomes, dimA)

	keysA := make([]string, 0, len(byA))
	for k := range byA {
		keysA = append(keysA, k)
	}
	sort.Strings(keysA)

	var combos []Combination
	for _, keyA := range keysA {
		byB := stats.Partition(byA[keyA], dimB)

		keysB := make([]string, 0, len(byB))
		for k := range byB {
			keysB = append(keysB, k)
		}
		sort.Strings(keysB)

		for _, keyB := range keysB {
			subset := byB[keyB]
			s := stats.OverallStats(subset)
			if s.Total < minSignals || s.Wins == 0 || s.Losses > 0 {
				continue
			}
			combos = append(combos, Combination{
				KeyA:            keyA,
				KeyB:            keyB,
				Total:           s.Total,
				Wins:            s.Wins,
				AvgFavorablePct: subsetFavorableMean(subset),
			})
		}
	}

	return sortCombinations(combos)
}

// subsetFavorableMean is the mean max favorable excursion over every
// outcome in the subset.
func subsetFavorableMean(subset []*domain.Outcome) float64 {
	if len(subset) == 0 {
		return 0
	}
	var sum float64
	for _, o := range subset {
		sum += o.MaxFavorablePct
	}
	return sum / float64(len(subset))
}

func sortCombinations(combos []Combination) []Combination {
	sort.SliceStable(combos, func(i, j int) bool {
		if combos[i].Total != combos[j].Total {
			return combos[i].Total > combos[j].Total
		}
		if combos[i].KeyA != combos[j].KeyA {
			return combos[i].KeyA < combos[j].KeyA
		}
		return combos[i].KeyB < combos[j].KeyB
	})

	return combos
}
