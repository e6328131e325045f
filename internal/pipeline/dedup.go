package pipeline

import (
	"github.com/gyeh/pricebench/internal/model"
	"github.com/gyeh/pricebench/internal/normalize"
)

// dedupKey is the full identity of a price observation. Rows that agree on
// every component are wide-unpivot artifacts of the same publication; rows
// that differ in effective price are real variation and are never collapsed.
type dedupKey struct {
	hospital string
	code     string
	payer    string
	price    float64 // cent precision
	setting  model.Setting
}

// Dedup collapses rows with identical (hospital, code, payer, price,
// setting) keys, keeping the first occurrence. Running it on its own output
// is a no-op.
func Dedup(records []model.PriceRecord) []model.PriceRecord {
	seen := make(map[dedupKey]bool, len(records))
	out := records[:0:0]
	for _, r := range records {
		k := dedupKey{
			hospital: r.HospitalName,
			code:     r.Code,
			payer:    r.PayerName,
			price:    normalize.RoundCents(r.EffectivePrice),
			setting:  r.Setting,
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}
