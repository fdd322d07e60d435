package reporting

import (
	"context"
	"fmt"
	"time"

	"signal-lab/internal/domain"
	"signal-lab/internal/rules"
	"signal-lab/internal/stats"
	"signal-lab/internal/storage"
)

// Default report thresholds.
const (
	DefaultMinSignals   = 3
	DefaultGoodWinRate  = 60.0
	DefaultPerfectFloor = 3
)

// Generator produces reports from stored outcomes.
type Generator struct {
	outcomeStore storage.OutcomeStore

	minSignals   int     // floor for ranked lists and good sets
	goodWinRate  float64 // win-rate bar for a group to join the good sets
	perfectFloor int     // min_signals for perfect combination search

	now func() time.Time // injectable clock for deterministic output
}

// NewGenerator creates a report generator with default thresholds.
func NewGenerator(outcomeStore storage.OutcomeStore) *Generator {
	return &Generator{
		outcomeStore: outcomeStore,
		minSignals:   DefaultMinSignals,
		goodWinRate:  DefaultGoodWinRate,
		perfectFloor: DefaultPerfectFloor,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithThresholds overrides the ranked-list floor, the good-set win-rate
// bar, and the perfect-combination sample floor.
func (g *Generator) WithThresholds(minSignals int, goodWinRate float64, perfectFloor int) *Generator {
	g.minSignals = minSignals
	g.goodWinRate = goodWinRate
	g.perfectFloor = perfectFloor
	return g
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate loads all outcomes and computes the full report.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	outcomes, err := g.outcomeStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load outcomes: %w", err)
	}
	return g.build(outcomes), nil
}

// build computes the report over an in-memory outcome collection.
func (g *Generator) build(outcomes []*domain.Outcome) *Report {
	r := &Report{
		GeneratedAt:  g.now(),
		TotalSignals: len(outcomes),
		Overall:      stats.OverallStats(outcomes),

		ByDay:    stats.GroupBy(outcomes, stats.DayOfWeek),
		ByHour:   stats.GroupBy(outcomes, stats.HourOfDay),
		ByMonth:  stats.GroupBy(outcomes, stats.Month),
		BySymbol: stats.GroupBy(outcomes, stats.Symbol),

		BestDays:    stats.Best(outcomes, stats.DayOfWeek, g.minSignals),
		WorstDays:   stats.Worst(outcomes, stats.DayOfWeek, g.minSignals),
		BestHours:   stats.Best(outcomes, stats.HourOfDay, g.minSignals),
		BestSymbols: stats.Best(outcomes, stats.Symbol, g.minSignals),

		PerfectDayHour:   rules.PerfectCombinations(outcomes, stats.DayOfWeek, stats.HourOfDay, g.perfectFloor),
		PerfectDaySymbol: rules.PerfectCombinations(outcomes, stats.DayOfWeek, stats.Symbol, g.perfectFloor),
	}

	for _, o := range outcomes {
		if o.HasData() {
			r.WithData++
		}
	}
	if r.TotalSignals > 0 {
		r.Coverage = float64(r.WithData) / float64(r.TotalSignals)
	}

	r.GoodDays = g.goodKeys(r.BestDays)
	r.GoodHours = g.goodKeys(r.BestHours)
	r.GoodSymbols = g.goodKeys(r.BestSymbols)

	r.Tiers = rules.ProgressiveFilterTiers(outcomes,
		rules.NewKeySet(r.GoodDays...),
		rules.NewKeySet(r.GoodHours...),
		rules.NewKeySet(r.GoodSymbols...),
	)

	return r
}

// goodKeys picks the keys of ranked groups clearing the win-rate bar.
// The input is already floored by minSignals and sorted best-first.
func (g *Generator) goodKeys(ranked []*domain.GroupStat) []string {
	var keys []string
	for _, gs := range ranked {
		if gs.WinRatePct >= g.goodWinRate {
			keys = append(keys, gs.Key)
		}
	}
	return keys
}
