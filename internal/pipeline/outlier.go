package pipeline

import (
	"github.com/gyeh/pricebench/internal/model"
	"github.com/gyeh/pricebench/internal/stats"
)

// FlagOutliers marks statistically implausible prices per (code, code_type)
// group without removing them: a price more than iqrMult times the p10-p90
// spread outside that band is flagged for manual review. The band is
// deliberately wide; the target is unit-basis and percentage-computation
// errors, not ordinary dispersion.
func FlagOutliers(records []model.PriceRecord, iqrMult float64) int64 {
	type groupKey struct {
		code     string
		codeType model.CodeType
	}
	groups := make(map[groupKey][]float64)
	for i := range records {
		k := groupKey{code: records[i].Code, codeType: records[i].CodeType}
		groups[k] = append(groups[k], records[i].EffectivePrice)
	}

	type band struct{ lower, upper float64 }
	bands := make(map[groupKey]band, len(groups))
	for k, prices := range groups {
		p10 := stats.Quantile(prices, 0.10)
		p90 := stats.Quantile(prices, 0.90)
		iqr := p90 - p10
		lower := p10 - iqrMult*iqr
		if lower < 0 {
			lower = 0
		}
		bands[k] = band{lower: lower, upper: p90 + iqrMult*iqr}
	}

	var flagged int64
	for i := range records {
		k := groupKey{code: records[i].Code, codeType: records[i].CodeType}
		b := bands[k]
		if records[i].EffectivePrice < b.lower || records[i].EffectivePrice > b.upper {
			records[i].IsOutlier = true
			flagged++
		}
	}
	return flagged
}
