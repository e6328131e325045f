package parser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gyeh/pricebench/internal/model"
	"github.com/gyeh/pricebench/internal/normalize"
)

// Column alias tables for flat layouts. Each canonical field resolves to the
// first matching column, a fixed priority rather than an arbitrary pick.
// CMS v3 pipe-delimited names come before the generic aliases.
var (
	aliasHospital    = []string{"hospital_name", "hospital", "facility_name", "provider_name", "organization"}
	aliasPayer       = []string{"payer_name", "payer", "insurance", "insurance_plan"}
	aliasPlan        = []string{"plan_name"}
	aliasCode        = []string{"code|1", "code|2", "code|3", "code", "billing_code", "procedure_code", "cpt", "drg", "service_code"}
	aliasCodeType    = []string{"code|1|type", "code|2|type", "code|3|type", "code_type", "billing_code_type", "type", "code_system"}
	aliasDescription = []string{"description", "service_description", "item_description", "procedure_description"}
	aliasNegotiated  = []string{"standard_charge|negotiated_dollar", "negotiated_rate", "price", "negotiated_price", "allowed_amount", "rate"}
	aliasPercentage  = []string{"standard_charge|negotiated_percentage", "negotiated_percentage"}
	aliasAlgorithm   = []string{"standard_charge|negotiated_algorithm", "negotiated_algorithm"}
	aliasEstimated   = []string{"estimated_amount"}
	aliasCash        = []string{"standard_charge|discounted_cash", "cash_price", "discounted_cash_price", "cash", "self_pay_price"}
	aliasGross       = []string{"standard_charge|gross", "gross_charge"}
	aliasMin         = []string{"standard_charge|min", "charge_min"}
	aliasMax         = []string{"standard_charge|max", "charge_max"}
	aliasSetting     = []string{"setting"}
)

// ParseFlatCSV parses one-row-per-payer layouts: CMS v3 flat files and
// generic exports matching the alias table.
func ParseFlatCSV(path string) ([]model.RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open flat csv: %w", err)
	}
	defer f.Close()
	return parseFlat(f, filepath.Base(path))
}

func parseFlat(r io.Reader, name string) ([]model.RawRow, error) {
	cr := newCSVReader(r)

	ht, err := findHeader(cr, isFlatHeader)
	if err != nil {
		return nil, &SchemaViolation{File: name, Reason: err.Error()}
	}
	if ht.firstColumn(aliasCode...) == "" {
		return nil, &SchemaViolation{File: name, Reason: "no code column"}
	}
	if ht.firstColumn(aliasNegotiated...) == "" &&
		ht.firstColumn(aliasEstimated...) == "" &&
		ht.firstColumn(aliasCash...) == "" {
		return nil, &SchemaViolation{File: name, Reason: "no price-bearing columns"}
	}

	joinPlan := ht.has("payer_name") && ht.has("plan_name")

	var rows []model.RawRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &SchemaViolation{File: name, Reason: fmt.Sprintf("malformed csv row: %v", err)}
		}

		row := model.RawRow{
			HospitalName:         ht.first(rec, aliasHospital...),
			PayerName:            ht.first(rec, aliasPayer...),
			PlanName:             ht.first(rec, aliasPlan...),
			Code:                 ht.first(rec, aliasCode...),
			CodeType:             ht.first(rec, aliasCodeType...),
			Description:          ht.first(rec, aliasDescription...),
			NegotiatedDollar:     normalize.ParseMoney(ht.first(rec, aliasNegotiated...)),
			NegotiatedPercentage: normalize.ParseMoney(ht.first(rec, aliasPercentage...)),
			NegotiatedAlgorithm:  ht.first(rec, aliasAlgorithm...),
			EstimatedAmount:      normalize.ParseMoney(ht.first(rec, aliasEstimated...)),
			CashPrice:            normalize.ParseMoney(ht.first(rec, aliasCash...)),
			GrossCharge:          normalize.ParseMoney(ht.first(rec, aliasGross...)),
			ChargeMin:            normalize.ParseMoney(ht.first(rec, aliasMin...)),
			ChargeMax:            normalize.ParseMoney(ht.first(rec, aliasMax...)),
			Setting:              ht.first(rec, aliasSetting...),
		}

		// CMS flat files split the payer identity across payer_name and
		// plan_name; join them the same way the wide unpivot labels payers.
		if joinPlan && row.PlanName != "" {
			if row.PayerName != "" {
				row.PayerName = row.PayerName + " - " + row.PlanName
			} else {
				row.PayerName = row.PlanName
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isFlatHeader(rec []string) bool {
	hits := 0
	for _, h := range rec {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
		for _, aliases := range [][]string{
			aliasHospital, aliasPayer, aliasPlan, aliasCode, aliasCodeType,
			aliasDescription, aliasNegotiated, aliasCash, aliasEstimated,
		} {
			for _, a := range aliases {
				if h == a {
					hits++
				}
			}
		}
	}
	return hits >= 2
}
