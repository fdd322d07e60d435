package ingestion

import (
	"strings"
	"testing"

	"signal-lab/internal/domain"
)

func TestLoader_Load(t *testing.T) {
	csv := strings.Join([]string{
		"message_id,symbol,action,entry_price,stop_loss,target1,target2,target3,timestamp,source",
		"101,BTCUSDT,LONG,65000,63000,66000,68000,70000,2024-03-04T10:00:00Z,discord",
		"102,eth,SHORT,2000,2100,1900,,,2024-03-04 11:30:00,",
	}, "\n")

	result, err := NewLoader(nil).Load(strings.NewReader(csv), "fallback")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if result.Skipped != 0 {
		t.Errorf("Skipped = %d, want 0", result.Skipped)
	}
	if len(result.Signals) != 2 {
		t.Fatalf("Expected 2 signals, got %d", len(result.Signals))
	}

	btc := result.Signals[0]
	if btc.Symbol != "BTCUSDT" || btc.Direction != domain.DirectionLong {
		t.Errorf("Row 1 = %s %s, want BTCUSDT LONG", btc.Symbol, btc.Direction)
	}
	if len(btc.Targets) != 3 || btc.Targets[2] != 70000 {
		t.Errorf("Row 1 targets = %v, want three up to 70000", btc.Targets)
	}
	if btc.Source != "discord" || btc.ExternalID != "101" {
		t.Errorf("Row 1 source/id = %s/%s", btc.Source, btc.ExternalID)
	}
	if btc.SignalTime != 1709546400000 {
		t.Errorf("Row 1 SignalTime = %d, want 1709546400000", btc.SignalTime)
	}
	if err := btc.Validate(); err != nil {
		t.Errorf("Row 1 failed validation: %v", err)
	}

	eth := result.Signals[1]
	if eth.Symbol != "ETHUSDT" {
		t.Errorf("Row 2 symbol = %q, want normalized ETHUSDT", eth.Symbol)
	}
	if eth.Direction != domain.DirectionShort {
		t.Errorf("Row 2 direction = %q, want SHORT", eth.Direction)
	}
	if len(eth.Targets) != 1 {
		t.Errorf("Row 2 targets = %v, want single target", eth.Targets)
	}
	if eth.Source != "fallback" {
		t.Errorf("Row 2 source = %q, want fallback default", eth.Source)
	}
	// Offsetless timestamps are UTC: 2024-03-04 11:30:00Z
	if eth.SignalTime != 1709551800000 {
		t.Errorf("Row 2 SignalTime = %d, want 1709551800000", eth.SignalTime)
	}
}

func TestLoader_SkipsBadRows(t *testing.T) {
	csv := strings.Join([]string{
		"symbol,entry_price,stop_loss,target1,timestamp",
		"BTCUSDT,65000,63000,66000,2024-03-04T10:00:00Z",
		"ETHUSDT,not-a-price,1900,2100,2024-03-04T10:00:00Z",
		"ADAUSDT,0.55,0.57,,2024-03-04T10:00:00Z",
		"SOLUSDT,150,140,160,yesterday",
	}, "\n")

	result, err := NewLoader(nil).Load(strings.NewReader(csv), "test")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(result.Signals) != 1 {
		t.Errorf("Expected 1 signal, got %d", len(result.Signals))
	}
	if result.Skipped != 3 {
		t.Errorf("Skipped = %d, want 3", result.Skipped)
	}
}

func TestLoader_MissingColumn(t *testing.T) {
	csv := "symbol,entry_price,target1,timestamp\nBTCUSDT,65000,66000,2024-03-04T10:00:00Z"

	_, err := NewLoader(nil).Load(strings.NewReader(csv), "test")
	if err == nil || !strings.Contains(err.Error(), "stop_loss") {
		t.Errorf("Expected missing-column error naming stop_loss, got %v", err)
	}
}

func TestLoader_Empty(t *testing.T) {
	if _, err := NewLoader(nil).Load(strings.NewReader(""), "test"); err == nil {
		t.Error("Expected error for empty input")
	}
}
