package parser

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gyeh/pricebench/internal/model"
	"github.com/gyeh/pricebench/internal/normalize"
)

// flexString tolerates JSON values that hospitals emit as either strings or
// numbers (billing codes in particular).
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(strings.TrimSpace(v))
		return nil
	}
	*s = flexString(strings.TrimSpace(string(b)))
	return nil
}

// flexFloat tolerates amounts published as numbers, numeric strings, or
// empty strings. An empty string decodes to absence, not zero.
type flexFloat struct {
	v *float64
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		f.v = nil
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f.v = normalize.ParseMoney(s)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	f.v = &v
	return nil
}

type cmsCodeInfo struct {
	Code flexString `json:"code"`
	Type flexString `json:"type"`
}

type cmsPayerInfo struct {
	PayerName            flexString `json:"payer_name"`
	PlanName             flexString `json:"plan_name"`
	NegotiatedDollar     flexFloat  `json:"negotiated_dollar"`
	NegotiatedRate       flexFloat  `json:"negotiated_rate"`
	StandardChargeDollar flexFloat  `json:"standard_charge_dollar"`
	NegotiatedPercentage flexFloat  `json:"negotiated_percentage"`
	NegotiatedAlgorithm  flexString `json:"negotiated_algorithm"`
	EstimatedAmount      flexFloat  `json:"estimated_amount"`
}

type cmsCharge struct {
	Setting           flexString     `json:"setting"`
	GrossCharge       flexFloat      `json:"gross_charge"`
	DiscountedCash    flexFloat      `json:"discounted_cash"`
	Minimum           flexFloat      `json:"minimum"`
	Maximum           flexFloat      `json:"maximum"`
	PayerName         flexString     `json:"payer_name"`
	Payer             flexString     `json:"payer"`
	NegotiatedDollar  flexFloat      `json:"negotiated_dollar"`
	NegotiatedRate    flexFloat      `json:"negotiated_rate"`
	Price             flexFloat      `json:"price"`
	PayersInformation []cmsPayerInfo `json:"payers_information"`
}

type cmsItem struct {
	Description     flexString    `json:"description"`
	CodeInformation []cmsCodeInfo `json:"code_information"`
	StandardCharges []cmsCharge   `json:"standard_charges"`
}

// ParseCMSJSON streams a nested CMS schema file. The
// standard_charge_information array is decoded one item at a time so 90MB+
// sources never load whole into memory.
func ParseCMSJSON(path string) ([]model.RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cms json: %w", err)
	}
	defer f.Close()
	return parseCMSJSON(bufio.NewReaderSize(f, 256*1024), filepath.Base(path))
}

func parseCMSJSON(r io.Reader, name string) ([]model.RawRow, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, &SchemaViolation{File: name, Reason: fmt.Sprintf("invalid json: %v", err)}
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, &SchemaViolation{File: name, Reason: "top-level value is not an object"}
	}

	var (
		hospitalName string
		rows         []model.RawRow
		sawCharges   bool
	)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, &SchemaViolation{File: name, Reason: fmt.Sprintf("read key: %v", err)}
		}
		key, _ := keyTok.(string)

		switch key {
		case "hospital_name":
			var v flexString
			if err := dec.Decode(&v); err != nil {
				return nil, &SchemaViolation{File: name, Reason: fmt.Sprintf("hospital_name: %v", err)}
			}
			hospitalName = string(v)

		case "standard_charge_information":
			sawCharges = true
			if tok, err := dec.Token(); err != nil {
				return nil, &SchemaViolation{File: name, Reason: fmt.Sprintf("charge array: %v", err)}
			} else if d, ok := tok.(json.Delim); !ok || d != '[' {
				return nil, &SchemaViolation{File: name, Reason: "standard_charge_information is not an array"}
			}
			for dec.More() {
				var item cmsItem
				if err := dec.Decode(&item); err != nil {
					return nil, &SchemaViolation{File: name, Reason: fmt.Sprintf("charge item: %v", err)}
				}
				rows = append(rows, flattenCMSItem(hospitalName, &item)...)
			}
			if _, err := dec.Token(); err != nil { // closing ']'
				return nil, &SchemaViolation{File: name, Reason: fmt.Sprintf("charge array end: %v", err)}
			}

		default:
			// Other top-level keys are small metadata; skip their values.
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return nil, &SchemaViolation{File: name, Reason: fmt.Sprintf("skip %s: %v", key, err)}
			}
		}
	}

	if !sawCharges {
		return nil, &SchemaViolation{File: name, Reason: "missing standard_charge_information"}
	}
	// Key order is not fixed: when hospital_name follows the charge array,
	// rows flattened before it saw an empty name. Backfill them.
	if hospitalName != "" {
		for i := range rows {
			if rows[i].HospitalName == "" {
				rows[i].HospitalName = hospitalName
			}
		}
	}
	return rows, nil
}

// flattenCMSItem emits one RawRow per (code, charge, payer), plus a cash row
// per charge when a discounted cash price is published. Setting, gross, and
// min/max propagate from the charge to every row derived from it.
func flattenCMSItem(hospitalName string, item *cmsItem) []model.RawRow {
	codes := item.CodeInformation
	if len(codes) == 0 {
		codes = []cmsCodeInfo{{}}
	}

	var rows []model.RawRow
	for _, code := range codes {
		for ci := range item.StandardCharges {
			charge := &item.StandardCharges[ci]
			base := model.RawRow{
				HospitalName: hospitalName,
				Code:         string(code.Code),
				CodeType:     string(code.Type),
				Description:  string(item.Description),
				Setting:      string(charge.Setting),
				GrossCharge:  charge.GrossCharge.v,
				ChargeMin:    charge.Minimum.v,
				ChargeMax:    charge.Maximum.v,
			}

			if charge.DiscountedCash.v != nil {
				row := base
				row.PayerName = "DISCOUNTED_CASH"
				row.CashPrice = charge.DiscountedCash.v
				rows = append(rows, row)
			}

			if len(charge.PayersInformation) > 0 {
				for _, p := range charge.PayersInformation {
					row := base
					row.PayerName = joinPayerPlan(string(p.PayerName), string(p.PlanName))
					if row.PayerName == "" {
						row.PayerName = "UNKNOWN_PAYER"
					}
					row.PlanName = string(p.PlanName)
					row.NegotiatedDollar = firstFloat(p.NegotiatedDollar, p.NegotiatedRate, p.StandardChargeDollar)
					row.NegotiatedPercentage = p.NegotiatedPercentage.v
					row.NegotiatedAlgorithm = string(p.NegotiatedAlgorithm)
					row.EstimatedAmount = p.EstimatedAmount.v
					rows = append(rows, row)
				}
			} else if charge.PayerName != "" || charge.Payer != "" {
				// Older files inline a single payer on the charge object.
				row := base
				row.PayerName = string(charge.PayerName)
				if row.PayerName == "" {
					row.PayerName = string(charge.Payer)
				}
				row.NegotiatedDollar = firstFloat(charge.NegotiatedDollar, charge.NegotiatedRate, charge.Price)
				rows = append(rows, row)
			}
		}
	}
	return rows
}

func joinPayerPlan(payer, plan string) string {
	switch {
	case payer != "" && plan != "":
		return payer + " - " + plan
	case payer != "":
		return payer
	default:
		return plan
	}
}

func firstFloat(candidates ...flexFloat) *float64 {
	for _, c := range candidates {
		if c.v != nil {
			return c.v
		}
	}
	return nil
}
