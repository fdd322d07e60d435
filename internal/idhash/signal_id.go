package idhash

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// ComputeSignalID computes a deterministic signal_id using SHA256.
// Formula: SHA256(source|external_id|symbol|signal_time)
// Returns the base58-encoded digest (44 characters at most), compact enough
// for report tables and CSV rows.
func ComputeSignalID(source, externalID, symbol string, signalTime int64) string {
	data := fmt.Sprintf("%s|%s|%s|%d", source, externalID, symbol, signalTime)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}
