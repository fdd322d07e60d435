package pipeline

import (
	"context"
	"time"

	"signal-lab/internal/domain"
	"signal-lab/internal/storage"
)

// Fixture timeline: all signals in the first week of March 2024.
var (
	fixtureMonday  = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	fixtureTuesday = time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)
)

// LoadFixtures populates the stores with a deterministic dataset covering
// every terminal state: a full target ladder, a single target hit, a
// stopped-out short, a symbol without candles, and an open drift.
func LoadFixtures(ctx context.Context, signalStore storage.SignalStore, candleStore storage.CandleStore) error {
	signals := []*domain.Signal{
		{
			SignalID: "fix_btc_ladder", Source: "fixtures", ExternalID: "1",
			Symbol: "BTCUSDT", Direction: domain.DirectionLong,
			EntryPrice: 65000, StopLoss: 63000,
			Targets:    []float64{66000, 67000, 68000},
			SignalTime: fixtureMonday.UnixMilli(),
		},
		{
			SignalID: "fix_btc_single", Source: "fixtures", ExternalID: "2",
			Symbol: "BTCUSDT", Direction: domain.DirectionLong,
			EntryPrice: 65000, StopLoss: 63000,
			Targets:    []float64{65500},
			SignalTime: fixtureMonday.Add(2 * time.Hour).UnixMilli(),
		},
		{
			SignalID: "fix_eth_stopped", Source: "fixtures", ExternalID: "3",
			Symbol: "ETHUSDT", Direction: domain.DirectionShort,
			EntryPrice: 2000, StopLoss: 2100,
			Targets:    []float64{1900},
			SignalTime: fixtureMonday.Add(4 * time.Hour).UnixMilli(),
		},
		{
			SignalID: "fix_xrp_missing", Source: "fixtures", ExternalID: "4",
			Symbol: "XRPUSDT", Direction: domain.DirectionLong,
			EntryPrice: 0.60, StopLoss: 0.55,
			Targets:    []float64{0.70},
			SignalTime: fixtureTuesday.UnixMilli(),
		},
		{
			SignalID: "fix_sol_drift", Source: "fixtures", ExternalID: "5",
			Symbol: "SOLUSDT", Direction: domain.DirectionLong,
			EntryPrice: 150, StopLoss: 140,
			Targets:    []float64{165},
			SignalTime: fixtureTuesday.Add(time.Hour).UnixMilli(),
		},
	}
	if err := signalStore.InsertBulk(ctx, signals); err != nil {
		return err
	}

	var candles []*domain.Candle

	// BTC ladder: targets 1-3 hit at minutes 5, 12 and 20.
	candles = append(candles, fixturePath("BTCUSDT", fixtureMonday.UnixMilli(), 65000, 30,
		spike{minute: 5, high: 66100}, spike{minute: 12, high: 67100}, spike{minute: 20, high: 68100})...)

	// BTC single target hit at minute 8, then flat.
	candles = append(candles, fixturePath("BTCUSDT", fixtureMonday.Add(2*time.Hour).UnixMilli(), 65000, 30,
		spike{minute: 8, high: 65600})...)

	// ETH short stopped out at minute 15.
	candles = append(candles, fixturePath("ETHUSDT", fixtureMonday.Add(4*time.Hour).UnixMilli(), 2000, 30,
		spike{minute: 15, high: 2150})...)

	// SOL drifts sideways: no target, no stop.
	candles = append(candles, fixturePath("SOLUSDT", fixtureTuesday.Add(time.Hour).UnixMilli(), 150, 30)...)

	// XRPUSDT gets no candles at all.

	return candleStore.InsertBulk(ctx, candles)
}

// spike widens one minute's range.
type spike struct {
	minute int
	high   float64
	low    float64
}

// fixturePath builds a flat minute-candle run at base, widened by spikes.
func fixturePath(symbol string, startMs int64, base float64, minutes int, spikes ...spike) []*domain.Candle {
	bySpike := make(map[int]spike, len(spikes))
	for _, s := range spikes {
		bySpike[s.minute] = s
	}

	out := make([]*domain.Candle, 0, minutes)
	for i := 0; i < minutes; i++ {
		c := &domain.Candle{
			Symbol:    symbol,
			Timestamp: startMs + int64(i)*domain.CandleIntervalMs,
			Open:      base, High: base, Low: base, Close: base,
		}
		if s, ok := bySpike[i]; ok {
			if s.high > 0 {
				c.High = s.high
			}
			if s.low > 0 {
				c.Low = s.low
			}
		}
		out = append(out, c)
	}
	return out
}
