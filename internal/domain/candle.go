package domain

// CandleIntervalMs is the resolution of stored candles (one minute).
const CandleIntervalMs int64 = 60_000

// Candle is one interval's OHLC price summary.
type Candle struct {
	Symbol    string
	Timestamp int64 // Unix ms, UTC, start of interval
	Open      float64
	High      float64
	Low       float64
	Close     float64
}
