package stats

import (
	"fmt"
	"sort"
	"time"

	"signal-lab/internal/domain"
)

// Dimension maps an outcome to a categorical key. Temporal dimensions use
// the signal time interpreted in UTC.
type Dimension struct {
	Name string

	// key extracts the group key; ok=false excludes the outcome from the
	// grouping (e.g. missing symbol).
	key func(o *domain.Outcome) (string, bool)

	// less orders keys naturally for deterministic output: weekday order
	// for days, numeric order for hours, calendar order for months,
	// lexical order for symbols.
	less func(a, b string) bool
}

// Grouping dimensions.
var (
	DayOfWeek = Dimension{
		Name: "day_of_week",
		key: func(o *domain.Outcome) (string, bool) {
			return signalTimeUTC(o).Weekday().String(), true
		},
		less: orderedKeyLess(weekdayOrder),
	}

	HourOfDay = Dimension{
		Name: "hour_of_day",
		key: func(o *domain.Outcome) (string, bool) {
			return fmt.Sprintf("%02d", signalTimeUTC(o).Hour()), true
		},
		less: func(a, b string) bool { return a < b }, // zero-padded, lexical == numeric
	}

	Month = Dimension{
		Name: "month",
		key: func(o *domain.Outcome) (string, bool) {
			return signalTimeUTC(o).Month().String(), true
		},
		less: orderedKeyLess(monthOrder),
	}

	Symbol = Dimension{
		Name: "symbol",
		key: func(o *domain.Outcome) (string, bool) {
			return o.Symbol, o.Symbol != ""
		},
		less: func(a, b string) bool { return a < b },
	}
)

// Dimensions lists every supported grouping dimension.
var Dimensions = []Dimension{DayOfWeek, HourOfDay, Month, Symbol}

// DimensionByName looks up a dimension by its name.
func DimensionByName(name string) (Dimension, bool) {
	for _, d := range Dimensions {
		if d.Name == name {
			return d, true
		}
	}
	return Dimension{}, false
}

// Key returns the outcome's group key under this dimension.
func (d Dimension) Key(o *domain.Outcome) (string, bool) {
	return d.key(o)
}

// GroupBy partitions outcomes by the dimension's key and computes overall
// stats per group. Outcomes with an undefined key are excluded; every
// other outcome lands in exactly one group. Groups are returned in the
// dimension's natural key order.
func GroupBy(outcomes []*domain.Outcome, dim Dimension) []*domain.GroupStat {
	groups := Partition(outcomes, dim)

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sortKeys(keys, dim.less)

	result := make([]*domain.GroupStat, 0, len(keys))
	for _, k := range keys {
		result = append(result, groupStat(k, OverallStats(groups[k])))
	}
	return result
}

// Partition splits outcomes into per-key subsets without aggregating.
func Partition(outcomes []*domain.Outcome, dim Dimension) map[string][]*domain.Outcome {
	groups := make(map[string][]*domain.Outcome)
	for _, o := range outcomes {
		k, ok := dim.key(o)
		if !ok {
			continue
		}
		groups[k] = append(groups[k], o)
	}
	return groups
}

func signalTimeUTC(o *domain.Outcome) time.Time {
	return time.UnixMilli(o.SignalTime).UTC()
}

var weekdayOrder = []string{
	time.Monday.String(), time.Tuesday.String(), time.Wednesday.String(),
	time.Thursday.String(), time.Friday.String(), time.Saturday.String(),
	time.Sunday.String(),
}

var monthOrder = []string{
	time.January.String(), time.February.String(), time.March.String(),
	time.April.String(), time.May.String(), time.June.String(),
	time.July.String(), time.August.String(), time.September.String(),
	time.October.String(), time.November.String(), time.December.String(),
}

// orderedKeyLess builds a comparator from an explicit key ordering.
// Unknown keys sort last, lexically.
func orderedKeyLess(order []string) func(a, b string) bool {
	rank := make(map[string]int, len(order))
	for i, k := range order {
		rank[k] = i
	}
	return func(a, b string) bool {
		ra, okA := rank[a]
		rb, okB := rank[b]
		switch {
		case okA && okB:
			return ra < rb
		case okA:
			return true
		case okB:
			return false
		default:
			return a < b
		}
	}
}

func sortKeys(keys []string, less func(a, b string) bool) {
	sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
}
