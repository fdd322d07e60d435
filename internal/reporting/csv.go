package reporting

import (
	"fmt"
	"strings"

	"signal-lab/internal/domain"
)

// RenderOutcomesCSV renders outcomes as a flat CSV string, one row per
// signal, nullable minutes rendered as empty cells.
func RenderOutcomesCSV(outcomes []*domain.Outcome) string {
	var sb strings.Builder

	sb.WriteString("signal_id,symbol,direction,entry_price,signal_time,terminal_state,")
	sb.WriteString("hit_target1,hit_target2,hit_target3,hit_stop_loss,")
	sb.WriteString("minutes_to_target1,minutes_to_target2,minutes_to_target3,minutes_to_stop_loss,")
	sb.WriteString("max_favorable_pct,max_adverse_pct\n")

	for _, o := range outcomes {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%.8f,%d,%s,%t,%t,%t,%t,%s,%s,%s,%s,%.6f,%.6f\n",
			o.SignalID,
			o.Symbol,
			o.Direction,
			o.EntryPrice,
			o.SignalTime,
			o.TerminalState,
			o.HitTarget1,
			o.HitTarget2,
			o.HitTarget3,
			o.HitStopLoss,
			nullableMinutes(o.MinutesToTarget1),
			nullableMinutes(o.MinutesToTarget2),
			nullableMinutes(o.MinutesToTarget3),
			nullableMinutes(o.MinutesToStopLoss),
			o.MaxFavorablePct,
			o.MaxAdversePct,
		))
	}

	return sb.String()
}

// RenderGroupsCSV renders group stats as a CSV string.
func RenderGroupsCSV(groups []*domain.GroupStat) string {
	var sb strings.Builder

	sb.WriteString("key,total,wins,losses,win_rate_pct,avg_favorable_pct,avg_adverse_pct,profit_factor\n")

	for _, g := range groups {
		sb.WriteString(fmt.Sprintf("%s,%d,%d,%d,%.2f,%.6f,%.6f,%s\n",
			g.Key,
			g.Total,
			g.Wins,
			g.Losses,
			g.WinRatePct,
			g.AvgFavorablePct,
			g.AvgAdversePct,
			formatProfitFactor(g.ProfitFactor),
		))
	}

	return sb.String()
}

func nullableMinutes(m *float64) string {
	if m == nil {
		return ""
	}
	return fmt.Sprintf("%.1f", *m)
}
