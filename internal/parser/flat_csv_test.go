package parser

import (
	"errors"
	"strings"
	"testing"
)

func TestParseFlat_CMSPipedColumns(t *testing.T) {
	in := strings.Join([]string{
		"hospital_name,description,code|1,code|1|type,payer_name,plan_name,setting," +
			"standard_charge|negotiated_dollar,standard_charge|discounted_cash,estimated_amount",
		"General,knee replacement,27447,CPT,Aetna,Commercial,outpatient,18000,20000,",
	}, "\n")

	rows, err := parseFlat(strings.NewReader(in), "t.csv")
	if err != nil {
		t.Fatalf("parseFlat: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	r := rows[0]
	if r.PayerName != "Aetna - Commercial" {
		t.Errorf("payer = %q, want joined payer - plan", r.PayerName)
	}
	if r.NegotiatedDollar == nil || *r.NegotiatedDollar != 18000 {
		t.Errorf("negotiated = %v", r.NegotiatedDollar)
	}
	if r.CashPrice == nil || *r.CashPrice != 20000 {
		t.Errorf("cash = %v", r.CashPrice)
	}
	if r.Setting != "outpatient" {
		t.Errorf("setting = %q", r.Setting)
	}
}

func TestParseFlat_GenericAliases(t *testing.T) {
	in := strings.Join([]string{
		"facility_name,insurance,procedure_code,code_type,service_description,negotiated_price",
		`General,Cigna,470,MS-DRG,hip replacement,"$41,000.00"`,
	}, "\n")

	rows, err := parseFlat(strings.NewReader(in), "t.csv")
	if err != nil {
		t.Fatalf("parseFlat: %v", err)
	}
	r := rows[0]
	if r.HospitalName != "General" || r.PayerName != "Cigna" {
		t.Errorf("row = %+v", r)
	}
	if r.Code != "470" || r.CodeType != "MS-DRG" {
		t.Errorf("code = %q %q", r.Code, r.CodeType)
	}
	if r.NegotiatedDollar == nil || *r.NegotiatedDollar != 41000 {
		t.Errorf("negotiated = %v", r.NegotiatedDollar)
	}
}

func TestParseFlat_EstimatedOnlyRowsSurvive(t *testing.T) {
	in := strings.Join([]string{
		"payer_name,code,description,negotiated_rate,estimated_amount",
		"Kaiser,27447,knee,,8500",
	}, "\n")

	rows, err := parseFlat(strings.NewReader(in), "t.csv")
	if err != nil {
		t.Fatalf("parseFlat: %v", err)
	}
	r := rows[0]
	if r.NegotiatedDollar != nil {
		t.Errorf("negotiated should be absent, got %v", *r.NegotiatedDollar)
	}
	if r.EstimatedAmount == nil || *r.EstimatedAmount != 8500 {
		t.Fatalf("estimated = %v", r.EstimatedAmount)
	}
}

func TestParseFlat_NoCodeColumn(t *testing.T) {
	in := "payer_name,description,negotiated_rate\nAetna,knee,100\n"
	_, err := parseFlat(strings.NewReader(in), "t.csv")
	var sv *SchemaViolation
	if !errors.As(err, &sv) {
		t.Fatalf("err = %v, want SchemaViolation", err)
	}
}

func TestParseFlat_NoPriceColumns(t *testing.T) {
	in := "payer_name,code,description\nAetna,27447,knee\n"
	_, err := parseFlat(strings.NewReader(in), "t.csv")
	var sv *SchemaViolation
	if !errors.As(err, &sv) {
		t.Fatalf("err = %v, want SchemaViolation", err)
	}
}
