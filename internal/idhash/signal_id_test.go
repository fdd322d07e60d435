package idhash

import "testing"

func TestComputeSignalID_Deterministic(t *testing.T) {
	a := ComputeSignalID("telegram", "12345", "ETHUSDT", 1700000000000)
	b := ComputeSignalID("telegram", "12345", "ETHUSDT", 1700000000000)

	if a != b {
		t.Errorf("same inputs produced different ids: %s vs %s", a, b)
	}
	if a == "" {
		t.Error("expected non-empty id")
	}
}

func TestComputeSignalID_DistinctInputs(t *testing.T) {
	base := ComputeSignalID("telegram", "12345", "ETHUSDT", 1700000000000)

	variants := []string{
		ComputeSignalID("discord", "12345", "ETHUSDT", 1700000000000),
		ComputeSignalID("telegram", "12346", "ETHUSDT", 1700000000000),
		ComputeSignalID("telegram", "12345", "BTCUSDT", 1700000000000),
		ComputeSignalID("telegram", "12345", "ETHUSDT", 1700000060000),
	}

	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collided with base id", i)
		}
	}
}
