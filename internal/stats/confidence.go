package stats

import (
	"sort"

	"github.com/gyeh/pricebench/internal/model"
)

// Confidence thresholds. The grade is a deterministic function of hospital,
// rate, and unique-payer counts, monotonic in each: raising a count never
// downgrades a procedure.
const (
	highMinHospitals = 4
	highMinRates     = 30
	highMinPayers    = 12

	mediumMinHospitals = 2
	mediumMinRates     = 12
	mediumMinPayers    = 5
)

// Grade classifies one procedure's coverage counts.
func Grade(hospitals, rates, payers int) (model.Confidence, string) {
	switch {
	case hospitals >= highMinHospitals && rates >= highMinRates && payers >= highMinPayers:
		return model.ConfidenceHigh, "Broad hospital + payer coverage"
	case hospitals >= mediumMinHospitals && rates >= mediumMinRates && payers >= mediumMinPayers:
		return model.ConfidenceMedium, "Some cross-hospital comparability"
	default:
		return model.ConfidenceLow, "Insufficient cross-hospital and/or payer coverage"
	}
}

// ProcedureConfidences grades every in-scope procedure, ordered best grade
// first, then by breadth of coverage.
func ProcedureConfidences(records []model.PriceRecord) []model.ProcedureConfidence {
	groups, order := groupByProcedure(records)
	out := make([]model.ProcedureConfidence, 0, len(order))
	for _, k := range order {
		g := groups[k]
		p10 := Quantile(g.prices, 0.10)
		p90 := Quantile(g.prices, 0.90)
		grade, reason := Grade(len(g.hospitals), len(g.prices), len(g.payers))
		out = append(out, model.ProcedureConfidence{
			Code:             k.code,
			CodeType:         k.codeType,
			Description:      g.description,
			NRates:           len(g.prices),
			NHospitals:       len(g.hospitals),
			NUniquePayers:    len(g.payers),
			MedianPrice:      Median(g.prices),
			P90P10Ratio:      ratio(p90, p10),
			Confidence:       grade,
			ConfidenceReason: reason,
		})
	}

	rank := map[model.Confidence]int{
		model.ConfidenceHigh:   0,
		model.ConfidenceMedium: 1,
		model.ConfidenceLow:    2,
	}
	sort.SliceStable(out, func(i, j int) bool {
		if rank[out[i].Confidence] != rank[out[j].Confidence] {
			return rank[out[i].Confidence] < rank[out[j].Confidence]
		}
		if out[i].NHospitals != out[j].NHospitals {
			return out[i].NHospitals > out[j].NHospitals
		}
		return out[i].NRates > out[j].NRates
	})
	return out
}
