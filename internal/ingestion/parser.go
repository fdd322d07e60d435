// Package ingestion turns upstream signal feeds into validated domain
// signals: regex extraction from raw chat messages, CSV imports of exported
// signal tables, and candle backfill for the resulting batch.
package ingestion

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"signal-lab/internal/domain"
	"signal-lab/internal/idhash"
)

// ErrNoSignal is returned when a message does not contain a parseable
// signal. It is the expected outcome for most chat traffic, not a failure.
var ErrNoSignal = errors.New("no signal in message")

// Message patterns. Feeds decorate fields with markdown bold markers and
// the occasional currency sign, so every price capture tolerates both.
var (
	actionRe = regexp.MustCompile(`\*{0,2}\b(LONG|SHORT|BUY|SELL)\b\*{0,2}`)
	pairRe   = regexp.MustCompile(`(?:PAIR:|#|\$)\s*\*{0,2}\s*([A-Za-z0-9]{2,15})`)
	entryRe  = regexp.MustCompile(`(?i)\bENTRY:?\s*\*{0,2}\s*\$?([\d,]*\.?\d+)`)
	stopRe   = regexp.MustCompile(`(?i)\bSL(?:\s*CLOSE\s*(?:BELOW|ABOVE))?:?\s*\*{0,2}\s*\$?([\d,]*\.?\d+)`)

	// Numbered targets first ("TP1:", "Target 2:"), single "TP:" as fallback.
	numberedTargetRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:TP|TARGET)\s*1:?\s*\*{0,2}\s*\$?([\d,]*\.?\d+)`),
		regexp.MustCompile(`(?i)\b(?:TP|TARGET)\s*2:?\s*\*{0,2}\s*\$?([\d,]*\.?\d+)`),
		regexp.MustCompile(`(?i)\b(?:TP|TARGET)\s*3:?\s*\*{0,2}\s*\$?([\d,]*\.?\d+)`),
	}
	singleTargetRe = regexp.MustCompile(`(?i)\bTP:?\s*\*{0,2}\s*\$?([\d,]*\.?\d+)`)
)

// Parser extracts signals from raw feed messages.
type Parser struct {
	source string
}

// NewParser creates a parser tagging extracted signals with the given
// source name.
func NewParser(source string) *Parser {
	return &Parser{source: source}
}

// Parse extracts a signal from one message. The direction recorded on the
// signal comes from price geometry, not from the LONG/SHORT label: the
// label only gates whether the message is a signal at all.
func (p *Parser) Parse(text, externalID string, signalTime int64) (*domain.Signal, error) {
	if !actionRe.MatchString(strings.ToUpper(text)) {
		return nil, ErrNoSignal
	}

	pairMatch := pairRe.FindStringSubmatch(text)
	if pairMatch == nil {
		return nil, ErrNoSignal
	}
	symbol := NormalizeSymbol(pairMatch[1])
	if symbol == "" {
		return nil, ErrNoSignal
	}

	entry, ok := parsePriceMatch(entryRe, text)
	if !ok {
		return nil, ErrNoSignal
	}
	stop, ok := parsePriceMatch(stopRe, text)
	if !ok {
		return nil, fmt.Errorf("%w: entry without stop loss", ErrNoSignal)
	}

	targets := extractTargets(text)
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: entry without targets", ErrNoSignal)
	}

	// Targets ordered closest to farthest from entry regardless of how the
	// message listed them.
	sort.Slice(targets, func(i, j int) bool {
		return math.Abs(targets[i]-entry) < math.Abs(targets[j]-entry)
	})

	return &domain.Signal{
		SignalID:   idhash.ComputeSignalID(p.source, externalID, symbol, signalTime),
		Source:     p.source,
		ExternalID: externalID,
		Symbol:     symbol,
		Direction:  domain.InferDirection(entry, targets[0]),
		EntryPrice: entry,
		StopLoss:   stop,
		Targets:    targets,
		SignalTime: signalTime,
		RawMessage: text,
	}, nil
}

func extractTargets(text string) []float64 {
	var targets []float64
	for _, re := range numberedTargetRes {
		if t, ok := parsePriceMatch(re, text); ok {
			targets = append(targets, t)
		}
	}
	if len(targets) > 0 {
		return targets
	}
	if t, ok := parsePriceMatch(singleTargetRe, text); ok {
		targets = append(targets, t)
	}
	return targets
}

func parsePriceMatch(re *regexp.Regexp, text string) (float64, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return parsePrice(m[1])
}

// parsePrice parses a price string through decimal, tolerating thousands
// separators, so "3,825.25" survives the round trip exactly.
func parsePrice(s string) (float64, bool) {
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0, false
	}
	f, _ := d.Float64()
	if f <= 0 {
		return 0, false
	}
	return f, true
}
