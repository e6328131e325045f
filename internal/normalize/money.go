package normalize

import (
	"math"
	"strconv"
	"strings"
)

// ParseMoney parses a dollar amount from free-text CSV cells: tolerates a
// leading currency symbol, thousands separators, and surrounding whitespace.
// Returns nil for empty or unparseable input; absence is not zero.
func ParseMoney(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// RoundCents rounds a dollar amount to the nearest cent. Dedup keys compare
// effective prices at cent precision so float noise does not split rows.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
