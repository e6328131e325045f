package parser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/gyeh/pricebench/internal/model"
	"github.com/gyeh/pricebench/internal/normalize"
)

// Wide-format column patterns: payer and plan names are embedded in the
// header, one column group per (payer, plan, charge kind).
var (
	wideChargeCol = regexp.MustCompile(`^standard_charge\|([^|]+)\|([^|]+)\|(negotiated_dollar|negotiated_percentage|negotiated_algorithm)$`)
	wideEstCol    = regexp.MustCompile(`^estimated_amount\|([^|]+)\|([^|]+)$`)
)

// payerStem is one logical (payer, plan) column group in a wide file.
type payerStem struct {
	payer, plan string
	dollarCol   string
	pctCol      string
	algoCol     string
	estCol      string
}

// ParseWideCSV unpivots a wide-format standard charges CSV: every column
// group sharing a payer+plan stem becomes one logical row per source line,
// tagged with the physical group it came from so the deduplicator can spot
// unpivot artifacts.
func ParseWideCSV(path string) ([]model.RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wide csv: %w", err)
	}
	defer f.Close()
	return parseWide(f, filepath.Base(path))
}

func parseWide(r io.Reader, name string) ([]model.RawRow, error) {
	cr := newCSVReader(r)

	ht, err := findHeader(cr, isWideHeader)
	if err != nil {
		return nil, &SchemaViolation{File: name, Reason: err.Error()}
	}
	if !ht.has("description") {
		return nil, &SchemaViolation{File: name, Reason: "missing description column"}
	}

	stems, order := collectStems(ht)
	cashCol := ht.firstColumn("standard_charge|discounted_cash")
	if len(stems) == 0 && cashCol == "" {
		return nil, &SchemaViolation{File: name, Reason: "no price-bearing columns"}
	}

	codeCols := presentColumns(ht, "code|1", "code|2", "code|3")
	codeTypeCols := presentColumns(ht, "code|1|type", "code|2|type", "code|3|type")

	var rows []model.RawRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &SchemaViolation{File: name, Reason: fmt.Sprintf("malformed csv row: %v", err)}
		}

		base := model.RawRow{
			HospitalName: ht.get(rec, "hospital_name"),
			Code:         ht.first(rec, codeCols...),
			CodeType:     ht.first(rec, codeTypeCols...),
			Description:  ht.get(rec, "description"),
			Setting:      ht.get(rec, "setting"),
			GrossCharge:  normalize.ParseMoney(ht.get(rec, "standard_charge|gross")),
			ChargeMin:    normalize.ParseMoney(ht.get(rec, "standard_charge|min")),
			ChargeMax:    normalize.ParseMoney(ht.get(rec, "standard_charge|max")),
		}

		if cashCol != "" {
			if cash := normalize.ParseMoney(ht.get(rec, cashCol)); cash != nil {
				row := base
				row.PayerName = "DISCOUNTED_CASH"
				row.CashPrice = cash
				row.ColumnGroup = cashCol
				rows = append(rows, row)
			}
		}

		for _, key := range order {
			st := stems[key]
			dollar := normalize.ParseMoney(ht.get(rec, st.dollarCol))
			pct := normalize.ParseMoney(ht.get(rec, st.pctCol))
			algo := ht.get(rec, st.algoCol)
			est := normalize.ParseMoney(ht.get(rec, st.estCol))
			if dollar == nil && pct == nil && algo == "" && est == nil {
				continue
			}

			row := base
			row.PayerName = st.payer + " - " + st.plan
			row.PlanName = st.plan
			row.NegotiatedDollar = dollar
			row.NegotiatedPercentage = pct
			row.NegotiatedAlgorithm = algo
			row.EstimatedAmount = est
			if dollar != nil || pct != nil || algo != "" {
				row.ColumnGroup = "standard_charge|" + st.payer + "|" + st.plan
			} else {
				row.ColumnGroup = "estimated_amount|" + st.payer + "|" + st.plan
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// collectStems groups the wide columns by (payer, plan) stem, preserving
// header order so output is deterministic.
func collectStems(ht *headerTable) (map[string]*payerStem, []string) {
	stems := make(map[string]*payerStem)
	var order []string

	stemFor := func(payer, plan string) *payerStem {
		key := payer + "|" + plan
		st, ok := stems[key]
		if !ok {
			st = &payerStem{payer: payer, plan: plan}
			stems[key] = st
			order = append(order, key)
		}
		return st
	}

	for _, col := range ht.cols {
		if m := wideChargeCol.FindStringSubmatch(col); m != nil {
			st := stemFor(m[1], m[2])
			switch m[3] {
			case "negotiated_dollar":
				st.dollarCol = col
			case "negotiated_percentage":
				st.pctCol = col
			case "negotiated_algorithm":
				st.algoCol = col
			}
			continue
		}
		if m := wideEstCol.FindStringSubmatch(col); m != nil {
			stemFor(m[1], m[2]).estCol = col
		}
	}
	return stems, order
}

func isWideHeader(rec []string) bool {
	for _, h := range rec {
		if wideChargeCol.MatchString(h) || wideEstCol.MatchString(h) {
			return true
		}
	}
	return false
}

func presentColumns(ht *headerTable, names ...string) []string {
	var out []string
	for _, n := range names {
		if ht.has(n) {
			out = append(out, n)
		}
	}
	return out
}
