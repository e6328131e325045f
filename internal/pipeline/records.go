package pipeline

import (
	"strings"

	"github.com/gyeh/pricebench/internal/config"
	"github.com/gyeh/pricebench/internal/model"
	"github.com/gyeh/pricebench/internal/normalize"
	"github.com/gyeh/pricebench/internal/payer"
	"github.com/gyeh/pricebench/internal/resolve"
)

// recordStats counts per-file row outcomes during normalization.
type recordStats struct {
	Raw           int64
	Kept          int64
	NoPrice       int64
	UnmappedPayer int64
}

// buildRecords assembles canonical PriceRecords from one source file's raw
// rows: resolve the effective price, canonicalize codes and code types,
// resolve the hospital from the inference table, and attach the two-level
// payer identity. Rows with no derivable price are excluded here, never
// passed downstream with a null price.
func buildRecords(
	raw []model.RawRow,
	sourceFile string,
	inference *config.HospitalInference,
	payers *payer.Normalizer,
	catalog *config.Catalog,
) ([]model.PriceRecord, recordStats) {
	var (
		out   []model.PriceRecord
		stats recordStats
	)
	for i := range raw {
		r := &raw[i]
		stats.Raw++

		price, basis, ok := resolve.FromRaw(r)
		if !ok {
			stats.NoPrice++
			continue
		}

		code, codeType := canonicalCode(r.Code, r.CodeType, catalog)
		identity := payers.Normalize(r.PayerName)
		if !identity.Matched {
			stats.UnmappedPayer++
		}

		rec := model.PriceRecord{
			HospitalName:   inference.Infer(sourceFile, r.HospitalName),
			PayerName:      r.PayerName,
			PayerGroup:     identity.Group,
			PayerCanonical: identity.Canonical,
			Code:           code,
			CodeType:       codeType,
			Description:    r.Description,
			NegotiatedRate: r.NegotiatedDollar,
			CashPrice:      r.CashPrice,
			GrossCharge:    r.GrossCharge,
			ChargeMin:      r.ChargeMin,
			ChargeMax:      r.ChargeMax,
			EffectivePrice: price,
			PriceBasis:     basis,
			Setting:        model.ParseSetting(normalize.Name(r.Setting)),
			SourceFile:     sourceFile,
			ColumnGroup:    r.ColumnGroup,
		}
		if basis == model.BasisEstimatedAmount {
			rec.NegotiatedRate = r.EstimatedAmount
		}
		out = append(out, rec)
		stats.Kept++
	}
	return out, stats
}

// canonicalCode maps a raw (code, code_type) pair onto the fixed vocabulary.
// Known families collapse directly (MS-DRG to DRG, HCPCS to CPT). Catalog
// inference runs only for blank labels: a row labeled with a foreign code
// system (revenue code, ICD, NDC) stays untyped rather than being rewritten
// into a numerically colliding CPT or DRG.
func canonicalCode(rawCode, rawType string, catalog *config.Catalog) (string, model.CodeType) {
	code := normalize.Code(rawCode)
	ctr := normalize.CodeTypeOf(rawType)
	if ctr.Known {
		return extractDigits(code, ctr.Type), ctr.Type
	}
	if strings.TrimSpace(rawType) != "" {
		return code, ""
	}
	if code2, inferred, ok := normalize.InferCodeType(code, catalog.CPTCodes(), catalog.DRGCodes()); ok {
		return code2, inferred
	}
	return code, ""
}

// extractDigits pulls the expected digit run out of noisy code cells, e.g.
// "27447-TC" for CPT or "DRG 0470" leftovers for DRG. The original string is
// kept when no run of the expected width exists.
func extractDigits(code string, t model.CodeType) string {
	var want int
	switch t {
	case model.CodeTypeCPT:
		want = 5
	case model.CodeTypeDRG:
		want = 3
	default:
		return code
	}
	run := 0
	start := -1
	for i, c := range code {
		if c >= '0' && c <= '9' {
			if run == 0 {
				start = i
			}
			run++
			if run == want {
				// Only accept a bounded run: a longer digit string is not a
				// valid CPT/DRG and must not be truncated into one.
				if end := start + want; end == len(code) || !isDigit(code[end]) {
					return code[start:end]
				}
				run = 0
				start = -1
			}
		} else {
			run = 0
			start = -1
		}
	}
	return code
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
