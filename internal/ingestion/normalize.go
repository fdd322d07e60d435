package ingestion

import "strings"

// Quote suffixes a pair may already carry. Anything else gets USDT
// appended, since every upstream feed quotes against USDT.
var quoteSuffixes = []string{"USDT", "USDC", "BUSD"}

// NormalizeSymbol canonicalizes a raw pair string: uppercase, cashtag and
// hash prefixes stripped, USDT appended when no quote suffix is present.
// An empty or non-alphanumeric result normalizes to "".
func NormalizeSymbol(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.TrimLeft(s, "#$")
	s = strings.TrimSuffix(s, "PERP")
	s = strings.ReplaceAll(s, "/", "")
	s = strings.ReplaceAll(s, "-", "")

	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return ""
		}
	}
	if s == "" {
		return ""
	}

	for _, q := range quoteSuffixes {
		if strings.HasSuffix(s, q) && len(s) > len(q) {
			return s
		}
	}
	return s + "USDT"
}
