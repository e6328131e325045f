package stats

import (
	"sort"

	"github.com/gyeh/pricebench/internal/model"
	"github.com/gyeh/pricebench/internal/normalize"
)

type procKey struct {
	code     string
	codeType model.CodeType
}

type procGroup struct {
	description string
	prices      []float64
	hospitals   map[string]bool
	payers      map[string]bool
}

func groupByProcedure(records []model.PriceRecord) (map[procKey]*procGroup, []procKey) {
	groups := make(map[procKey]*procGroup)
	var order []procKey
	for i := range records {
		r := &records[i]
		k := procKey{code: r.Code, codeType: r.CodeType}
		g, ok := groups[k]
		if !ok {
			g = &procGroup{
				description: r.Description,
				hospitals:   make(map[string]bool),
				payers:      make(map[string]bool),
			}
			groups[k] = g
			order = append(order, k)
		}
		g.prices = append(g.prices, r.EffectivePrice)
		g.hospitals[r.HospitalName] = true
		g.payers[payerOrUnknown(r.PayerName)] = true
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].code != order[j].code {
			return order[i].code < order[j].code
		}
		return order[i].codeType < order[j].codeType
	})
	return groups, order
}

func payerOrUnknown(p string) string {
	if p == "" {
		return "UNKNOWN"
	}
	return p
}

// ProcedureBenchmarks computes the per-procedure cross-hospital table.
func ProcedureBenchmarks(records []model.PriceRecord) []model.ProcedureBenchmark {
	groups, order := groupByProcedure(records)
	out := make([]model.ProcedureBenchmark, 0, len(order))
	for _, k := range order {
		g := groups[k]
		p10 := Quantile(g.prices, 0.10)
		p90 := Quantile(g.prices, 0.90)
		q1 := Quantile(g.prices, 0.25)
		q3 := Quantile(g.prices, 0.75)
		out = append(out, model.ProcedureBenchmark{
			Code:        k.code,
			CodeType:    k.codeType,
			Description: g.description,
			NRates:      len(g.prices),
			MedianPrice: Median(g.prices),
			MeanPrice:   Mean(g.prices),
			MinPrice:    Min(g.prices),
			MaxPrice:    Max(g.prices),
			P10:         p10,
			P90:         p90,
			IQR:         q3 - q1,
			P90P10Ratio: ratio(p90, p10),
			CV:          CV(g.prices),
		})
	}
	return out
}

// HospitalBenchmarks aggregates all in-scope rates per hospital.
func HospitalBenchmarks(records []model.PriceRecord) []model.HospitalBenchmark {
	groups := make(map[string][]float64)
	for i := range records {
		groups[records[i].HospitalName] = append(groups[records[i].HospitalName], records[i].EffectivePrice)
	}
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]model.HospitalBenchmark, 0, len(names))
	for _, name := range names {
		prices := groups[name]
		q1 := Quantile(prices, 0.25)
		q3 := Quantile(prices, 0.75)
		out = append(out, model.HospitalBenchmark{
			HospitalName: name,
			NRates:       len(prices),
			MedianPrice:  Median(prices),
			MeanPrice:    Mean(prices),
			P10:          Quantile(prices, 0.10),
			P90:          Quantile(prices, 0.90),
			IQR:          q3 - q1,
			CV:           CV(prices),
		})
	}
	return out
}

// FocusRanks ranks the focus hospital among all hospitals reporting each
// code, 1 = lowest median price. Ties break on stable hospital-name order so
// ranks always form a permutation of 1..N.
func FocusRanks(records []model.PriceRecord, focusHospital string) []model.FocusHospitalRank {
	type hospCode struct {
		hospital string
		code     string
	}
	groups := make(map[hospCode][]float64)
	descriptions := make(map[string]string)
	for i := range records {
		r := &records[i]
		k := hospCode{hospital: r.HospitalName, code: r.Code}
		groups[k] = append(groups[k], r.EffectivePrice)
		if _, ok := descriptions[r.Code]; !ok {
			descriptions[r.Code] = r.Description
		}
	}

	type hospMedian struct {
		hospital string
		median   float64
	}
	byCode := make(map[string][]hospMedian)
	for k, prices := range groups {
		byCode[k.code] = append(byCode[k.code], hospMedian{hospital: k.hospital, median: Median(prices)})
	}

	focusKey := normalize.CanonicalKey(focusHospital)
	var out []model.FocusHospitalRank
	for code, hms := range byCode {
		sort.Slice(hms, func(i, j int) bool {
			if hms[i].median != hms[j].median {
				return hms[i].median < hms[j].median
			}
			return hms[i].hospital < hms[j].hospital
		})
		for rank, hm := range hms {
			if normalize.CanonicalKey(hm.hospital) != focusKey {
				continue
			}
			out = append(out, model.FocusHospitalRank{
				HospitalName:        hm.hospital,
				Code:                code,
				Description:         descriptions[code],
				HospitalMedianPrice: hm.median,
				RankLowToHigh:       rank + 1,
				NHospitals:          len(hms),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// PayerDispersions measures within-hospital payer-driven spread per
// (hospital, code), independent of cross-hospital comparability.
func PayerDispersions(records []model.PriceRecord) []model.PayerDispersion {
	type hospCode struct {
		hospital string
		code     string
	}
	type group struct {
		description string
		prices      []float64
		payers      map[string]bool
	}
	groups := make(map[hospCode]*group)
	var order []hospCode
	for i := range records {
		r := &records[i]
		k := hospCode{hospital: r.HospitalName, code: r.Code}
		g, ok := groups[k]
		if !ok {
			g = &group{description: r.Description, payers: make(map[string]bool)}
			groups[k] = g
			order = append(order, k)
		}
		g.prices = append(g.prices, r.EffectivePrice)
		g.payers[payerOrUnknown(r.PayerName)] = true
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].hospital != order[j].hospital {
			return order[i].hospital < order[j].hospital
		}
		return order[i].code < order[j].code
	})

	out := make([]model.PayerDispersion, 0, len(order))
	for _, k := range order {
		g := groups[k]
		p10 := Quantile(g.prices, 0.10)
		p90 := Quantile(g.prices, 0.90)
		q1 := Quantile(g.prices, 0.25)
		q3 := Quantile(g.prices, 0.75)
		out = append(out, model.PayerDispersion{
			HospitalName:  k.hospital,
			Code:          k.code,
			Description:   g.description,
			NRates:        len(g.prices),
			NUniquePayers: len(g.payers),
			MedianPrice:   Median(g.prices),
			MinPrice:      Min(g.prices),
			MaxPrice:      Max(g.prices),
			P10:           p10,
			P90:           p90,
			IQR:           q3 - q1,
			P90P10Ratio:   ratio(p90, p10),
			CV:            CV(g.prices),
		})
	}
	return out
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
