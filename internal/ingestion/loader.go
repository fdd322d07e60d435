package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"signal-lab/internal/domain"
	"signal-lab/internal/idhash"
)

// Timestamp layouts accepted in signal exports. Offsetless layouts are
// interpreted as UTC.
var csvTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Loader reads signal exports in CSV form. Rows that fail to parse are
// counted and logged, not fatal: one bad export line should not sink a
// multi-thousand-row import.
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a CSV signal loader.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger}
}

// LoadResult summarizes one CSV import.
type LoadResult struct {
	Signals []*domain.Signal
	Skipped int // rows dropped for missing or malformed fields
}

// Load reads a signal CSV with a header row. Recognized columns: symbol,
// entry_price, stop_loss, target1..target3, timestamp (required), plus
// message_id, source, action (optional; the action label is ignored, the
// direction is inferred from price geometry).
func (l *Loader) Load(r io.Reader, defaultSource string) (*LoadResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"symbol", "entry_price", "stop_loss", "target1", "timestamp"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("csv missing required column %q", required)
		}
	}

	result := &LoadResult{}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		sig, err := l.parseRow(cols, record, defaultSource)
		if err != nil {
			l.logger.Warn("skipping csv row",
				zap.Int("line", line),
				zap.Error(err),
			)
			result.Skipped++
			continue
		}
		result.Signals = append(result.Signals, sig)
	}

	return result, nil
}

func (l *Loader) parseRow(cols map[string]int, record []string, defaultSource string) (*domain.Signal, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	symbol := NormalizeSymbol(field("symbol"))
	if symbol == "" {
		return nil, fmt.Errorf("unusable symbol %q", field("symbol"))
	}

	entry, ok := parsePrice(field("entry_price"))
	if !ok {
		return nil, fmt.Errorf("bad entry_price %q", field("entry_price"))
	}
	stop, ok := parsePrice(field("stop_loss"))
	if !ok {
		return nil, fmt.Errorf("bad stop_loss %q", field("stop_loss"))
	}

	var targets []float64
	for _, name := range []string{"target1", "target2", "target3"} {
		raw := field(name)
		if raw == "" {
			continue
		}
		t, ok := parsePrice(raw)
		if !ok {
			return nil, fmt.Errorf("bad %s %q", name, raw)
		}
		targets = append(targets, t)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no targets")
	}

	signalTime, err := parseTimestamp(field("timestamp"))
	if err != nil {
		return nil, err
	}

	source := field("source")
	if source == "" {
		source = defaultSource
	}
	externalID := field("message_id")

	return &domain.Signal{
		SignalID:   idhash.ComputeSignalID(source, externalID, symbol, signalTime),
		Source:     source,
		ExternalID: externalID,
		Symbol:     symbol,
		Direction:  domain.InferDirection(entry, targets[0]),
		EntryPrice: entry,
		StopLoss:   stop,
		Targets:    targets,
		SignalTime: signalTime,
		RawMessage: field("raw_message"),
	}, nil
}

func parseTimestamp(raw string) (int64, error) {
	for _, layout := range csvTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, fmt.Errorf("bad timestamp %q", raw)
}
