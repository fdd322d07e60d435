package reporting

import (
	"time"

	"signal-lab/internal/domain"
	"signal-lab/internal/rules"
	"signal-lab/internal/stats"
)

// Report is the full analysis over one outcome collection.
type Report struct {
	// Metadata
	GeneratedAt time.Time

	// Coverage
	TotalSignals int
	WithData     int     // outcomes with any candle coverage
	Coverage     float64 // WithData / TotalSignals

	// Overall
	Overall stats.Overall

	// Per-dimension group stats, in each dimension's natural key order
	ByDay    []*domain.GroupStat
	ByHour   []*domain.GroupStat
	ByMonth  []*domain.GroupStat
	BySymbol []*domain.GroupStat

	// Ranked lists (min-signals floor applied)
	BestDays    []*domain.GroupStat
	WorstDays   []*domain.GroupStat
	BestHours   []*domain.GroupStat
	BestSymbols []*domain.GroupStat

	// Combination search
	PerfectDayHour   []rules.Combination
	PerfectDaySymbol []rules.Combination

	// Progressive filter tiers with the good sets that produced them
	GoodDays    []string
	GoodHours   []string
	GoodSymbols []string
	Tiers       []rules.TierStat
}
