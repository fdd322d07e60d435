package stats

import (
	"math"
	"testing"
	"time"

	"signal-lab/internal/domain"
)

func win(state domain.TerminalState, fav float64) *domain.Outcome {
	return &domain.Outcome{
		TerminalState:   state,
		MaxFavorablePct: fav,
		MaxAdversePct:   -0.5,
	}
}

func loss(adv float64) *domain.Outcome {
	return &domain.Outcome{
		TerminalState: domain.TerminalStopLoss,
		MaxAdversePct: adv,
	}
}

func at(t time.Time, symbol string, state domain.TerminalState) *domain.Outcome {
	return &domain.Outcome{
		SignalID:      symbol + t.Format("20060102T1504"),
		Symbol:        symbol,
		SignalTime:    t.UnixMilli(),
		TerminalState: state,
	}
}

func TestOverallStats_Empty(t *testing.T) {
	s := OverallStats(nil)

	if s.Total != 0 || s.Wins != 0 || s.Losses != 0 {
		t.Errorf("Expected zero counts, got %+v", s)
	}
	if s.WinRatePct != 0 {
		t.Errorf("Expected win rate 0 with no division, got %f", s.WinRatePct)
	}
	if s.ProfitFactor != 0 {
		t.Errorf("Expected profit factor 0, got %f", s.ProfitFactor)
	}
}

func TestOverallStats_WinRateExcludesUndecided(t *testing.T) {
	outcomes := []*domain.Outcome{
		win(domain.TerminalTarget1, 3),
		win(domain.TerminalTarget3, 8),
		loss(-2),
		{TerminalState: domain.TerminalOngoing},
		{TerminalState: domain.TerminalNoData},
	}

	s := OverallStats(outcomes)

	if s.Total != 5 {
		t.Errorf("Total must include undecided outcomes: got %d", s.Total)
	}
	if s.Wins != 2 || s.Losses != 1 {
		t.Errorf("Expected 2 wins / 1 loss, got %d/%d", s.Wins, s.Losses)
	}
	// 2 of 3 decided
	want := 2.0 / 3.0 * 100
	if math.Abs(s.WinRatePct-want) > 1e-9 {
		t.Errorf("Win rate = %f, want %f", s.WinRatePct, want)
	}
}

func TestOverallStats_AvgExcursionPopulations(t *testing.T) {
	// Averages are per-population: favorable over winners only, adverse
	// over losers only. Undecided outcomes must not dilute either mean.
	outcomes := []*domain.Outcome{
		win(domain.TerminalTarget1, 10),
		{TerminalState: domain.TerminalOngoing, MaxFavorablePct: 2, MaxAdversePct: -9},
	}

	s := OverallStats(outcomes)

	if math.Abs(s.AvgFavorablePct-10) > 1e-9 {
		t.Errorf("AvgFavorablePct = %f, want 10 (winners only)", s.AvgFavorablePct)
	}
	if s.AvgAdversePct != 0 {
		t.Errorf("AvgAdversePct = %f, want 0 with no losers", s.AvgAdversePct)
	}

	withLosers := append(outcomes, loss(-4), loss(-2))
	s = OverallStats(withLosers)

	if math.Abs(s.AvgAdversePct-(-3)) > 1e-9 {
		t.Errorf("AvgAdversePct = %f, want -3 (losers only)", s.AvgAdversePct)
	}
	if math.Abs(s.AvgFavorablePct-10) > 1e-9 {
		t.Errorf("AvgFavorablePct = %f, want 10 unchanged by losers", s.AvgFavorablePct)
	}
}

func TestOverallStats_ProfitFactor(t *testing.T) {
	outcomes := []*domain.Outcome{
		win(domain.TerminalTarget1, 6),
		loss(-2),
		loss(-1),
	}

	s := OverallStats(outcomes)

	if math.Abs(s.ProfitFactor-2.0) > 1e-9 {
		t.Errorf("Profit factor = %f, want 2.0", s.ProfitFactor)
	}
}

func TestOverallStats_ProfitFactorNoLosers(t *testing.T) {
	s := OverallStats([]*domain.Outcome{win(domain.TerminalTarget1, 4)})

	if !math.IsInf(s.ProfitFactor, 1) {
		t.Errorf("Expected +Inf profit factor with winners and no losers, got %f", s.ProfitFactor)
	}
}

func TestOverallStats_ProfitFactorZeroBoth(t *testing.T) {
	s := OverallStats([]*domain.Outcome{
		{TerminalState: domain.TerminalOngoing},
	})

	if s.ProfitFactor != 0 {
		t.Errorf("Expected profit factor 0, got %f", s.ProfitFactor)
	}
}

func TestGroupBy_PartitionProperty(t *testing.T) {
	// Thursday and Friday in UTC
	thu := time.Date(2024, 3, 7, 14, 0, 0, 0, time.UTC)
	fri := time.Date(2024, 3, 8, 9, 0, 0, 0, time.UTC)

	outcomes := []*domain.Outcome{
		at(thu, "BTCUSDT", domain.TerminalTarget1),
		at(thu, "ETHUSDT", domain.TerminalStopLoss),
		at(fri, "BTCUSDT", domain.TerminalTarget2),
	}

	groups := GroupBy(outcomes, DayOfWeek)

	total := 0
	for _, g := range groups {
		total += g.Total
	}
	if total != len(outcomes) {
		t.Errorf("Union of groups (%d) must equal input size (%d)", total, len(outcomes))
	}

	if len(groups) != 2 {
		t.Fatalf("Expected 2 day groups, got %d", len(groups))
	}
	// Natural weekday order: Thursday before Friday
	if groups[0].Key != "Thursday" || groups[1].Key != "Friday" {
		t.Errorf("Groups not in weekday order: %s, %s", groups[0].Key, groups[1].Key)
	}
}

func TestGroupBy_SymbolExcludesUndefinedKey(t *testing.T) {
	outcomes := []*domain.Outcome{
		{Symbol: "BTCUSDT", TerminalState: domain.TerminalTarget1},
		{Symbol: "", TerminalState: domain.TerminalTarget1}, // undefined key
	}

	groups := GroupBy(outcomes, Symbol)

	if len(groups) != 1 {
		t.Fatalf("Expected 1 group, got %d", len(groups))
	}
	if groups[0].Total != 1 {
		t.Errorf("Empty-symbol outcome must be excluded, got total %d", groups[0].Total)
	}
}

func TestGroupBy_HourOfDayUTC(t *testing.T) {
	// 23:30 UTC; any local interpretation would be a different hour
	ts := time.Date(2024, 3, 7, 23, 30, 0, 0, time.UTC)
	outcomes := []*domain.Outcome{at(ts, "BTCUSDT", domain.TerminalTarget1)}

	groups := GroupBy(outcomes, HourOfDay)

	if len(groups) != 1 || groups[0].Key != "23" {
		t.Fatalf("Expected hour key 23, got %+v", groups)
	}
}

func TestGroupBy_MonthOrder(t *testing.T) {
	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	dec := time.Date(2023, 12, 10, 0, 0, 0, 0, time.UTC)

	outcomes := []*domain.Outcome{
		at(jan, "BTCUSDT", domain.TerminalTarget1),
		at(dec, "BTCUSDT", domain.TerminalTarget1),
	}

	groups := GroupBy(outcomes, Month)

	if len(groups) != 2 {
		t.Fatalf("Expected 2 month groups, got %d", len(groups))
	}
	if groups[0].Key != "January" || groups[1].Key != "December" {
		t.Errorf("Months not in calendar order: %s, %s", groups[0].Key, groups[1].Key)
	}
}

func TestBest_RankingAndTieBreaks(t *testing.T) {
	mon := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	outcomes := []*domain.Outcome{
		// AAAUSDT: 2 signals, 100% win rate
		at(mon, "AAAUSDT", domain.TerminalTarget1),
		at(mon.Add(time.Hour), "AAAUSDT", domain.TerminalTarget2),
		// BBBUSDT: 3 signals, 100% win rate — tie broken by total desc
		at(mon, "BBBUSDT", domain.TerminalTarget1),
		at(mon.Add(time.Hour), "BBBUSDT", domain.TerminalTarget1),
		at(mon.Add(2*time.Hour), "BBBUSDT", domain.TerminalTarget3),
		// CCCUSDT: 50% win rate
		at(mon, "CCCUSDT", domain.TerminalTarget1),
		at(mon.Add(time.Hour), "CCCUSDT", domain.TerminalStopLoss),
	}

	best := Best(outcomes, Symbol, 0)

	want := []string{"BBBUSDT", "AAAUSDT", "CCCUSDT"}
	for i, key := range want {
		if best[i].Key != key {
			t.Errorf("Best[%d] = %s, want %s", i, best[i].Key, key)
		}
	}

	worst := Worst(outcomes, Symbol, 0)
	if worst[0].Key != "CCCUSDT" {
		t.Errorf("Worst[0] = %s, want CCCUSDT", worst[0].Key)
	}
}

func TestBest_MinSignalsFloor(t *testing.T) {
	mon := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	outcomes := []*domain.Outcome{
		at(mon, "AAAUSDT", domain.TerminalTarget1), // thin group
		at(mon, "BBBUSDT", domain.TerminalTarget1),
		at(mon.Add(time.Hour), "BBBUSDT", domain.TerminalTarget1),
	}

	best := Best(outcomes, Symbol, 2)

	if len(best) != 1 || best[0].Key != "BBBUSDT" {
		t.Errorf("Expected only BBBUSDT above the floor, got %+v", best)
	}
}
