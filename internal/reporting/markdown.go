package reporting

import (
	"fmt"
	"math"
	"strings"
	"time"

	"signal-lab/internal/domain"
	"signal-lab/internal/rules"
)

// RenderMarkdown renders a report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Signal Backtest Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Coverage
	sb.WriteString("## Coverage\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Signals | %d |\n", r.TotalSignals))
	sb.WriteString(fmt.Sprintf("| With Candle Data | %d |\n", r.WithData))
	sb.WriteString(fmt.Sprintf("| Coverage | %.1f%% |\n", r.Coverage*100))
	sb.WriteString("\n")

	// Overall
	sb.WriteString("## Overall\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Wins | %d |\n", r.Overall.Wins))
	sb.WriteString(fmt.Sprintf("| Losses | %d |\n", r.Overall.Losses))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.1f%% |\n", r.Overall.WinRatePct))
	sb.WriteString(fmt.Sprintf("| Profit Factor | %s |\n", formatProfitFactor(r.Overall.ProfitFactor)))
	sb.WriteString(fmt.Sprintf("| Avg Favorable | %.2f%% |\n", r.Overall.AvgFavorablePct))
	sb.WriteString(fmt.Sprintf("| Avg Adverse | %.2f%% |\n", r.Overall.AvgAdversePct))
	sb.WriteString("\n")

	// Group sections
	writeGroupSection(&sb, "By Day of Week", r.ByDay)
	writeGroupSection(&sb, "By Hour (UTC)", r.ByHour)
	writeGroupSection(&sb, "By Month", r.ByMonth)
	writeGroupSection(&sb, "By Symbol", r.BySymbol)

	// Ranked
	writeGroupSection(&sb, "Best Days", r.BestDays)
	writeGroupSection(&sb, "Worst Days", r.WorstDays)

	// Perfect combinations
	writeComboSection(&sb, "Perfect Day x Hour Combinations", r.PerfectDayHour)
	writeComboSection(&sb, "Perfect Day x Symbol Combinations", r.PerfectDaySymbol)

	// Strategy tiers
	sb.WriteString("## Strategy Tiers\n\n")
	sb.WriteString(fmt.Sprintf("Good days: %s\n\n", orNone(r.GoodDays)))
	sb.WriteString(fmt.Sprintf("Good hours: %s\n\n", orNone(r.GoodHours)))
	sb.WriteString(fmt.Sprintf("Good symbols: %s\n\n", orNone(r.GoodSymbols)))
	writeTierSection(&sb, r.Tiers)

	return sb.String()
}

func writeGroupSection(sb *strings.Builder, title string, groups []*domain.GroupStat) {
	sb.WriteString(fmt.Sprintf("## %s\n\n", title))
	if len(groups) == 0 {
		sb.WriteString("No data.\n\n")
		return
	}

	sb.WriteString("| Key | Total | Wins | Losses | Win Rate | Profit Factor | Avg Fav | Avg Adv |\n")
	sb.WriteString("|-----|-------|------|--------|----------|---------------|---------|---------|\n")
	for _, g := range groups {
		sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %.1f%% | %s | %.2f%% | %.2f%% |\n",
			g.Key, g.Total, g.Wins, g.Losses, g.WinRatePct,
			formatProfitFactor(g.ProfitFactor), g.AvgFavorablePct, g.AvgAdversePct))
	}
	sb.WriteString("\n")
}

func writeComboSection(sb *strings.Builder, title string, combos []rules.Combination) {
	sb.WriteString(fmt.Sprintf("## %s\n\n", title))
	if len(combos) == 0 {
		sb.WriteString("None found.\n\n")
		return
	}

	sb.WriteString("| Key A | Key B | Total | Wins | Avg Fav |\n")
	sb.WriteString("|-------|-------|-------|------|---------|\n")
	for _, c := range combos {
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %.2f%% |\n",
			c.KeyA, c.KeyB, c.Total, c.Wins, c.AvgFavorablePct))
	}
	sb.WriteString("\n")
}

func writeTierSection(sb *strings.Builder, tiers []rules.TierStat) {
	if len(tiers) == 0 {
		sb.WriteString("No tiers computed.\n\n")
		return
	}

	sb.WriteString("| Tier | Total | Win Rate | Profit Factor | % of Total |\n")
	sb.WriteString("|------|-------|----------|---------------|------------|\n")
	for _, t := range tiers {
		sb.WriteString(fmt.Sprintf("| %s | %d | %.1f%% | %s | %.1f%% |\n",
			t.Label, t.Stats.Total, t.Stats.WinRatePct,
			formatProfitFactor(t.Stats.ProfitFactor), t.PctOfTotal))
	}
	sb.WriteString("\n")
}

// formatProfitFactor renders +Inf as "inf" rather than Go's "+Inf".
func formatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", pf)
}

func orNone(keys []string) string {
	if len(keys) == 0 {
		return "none"
	}
	return strings.Join(keys, ", ")
}
