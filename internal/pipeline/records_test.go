package pipeline

import (
	"testing"

	"github.com/gyeh/pricebench/internal/config"
	"github.com/gyeh/pricebench/internal/model"
	"github.com/gyeh/pricebench/internal/payer"
)

func fp(v float64) *float64 { return &v }

func testDeps(t *testing.T) (*config.HospitalInference, *payer.Normalizer, *config.Catalog) {
	t.Helper()
	reg := testRegistry(t)
	payers, err := payer.NewNormalizer(nil)
	if err != nil {
		t.Fatalf("NewNormalizer: %v", err)
	}
	return config.NewHospitalInference(nil), payers, reg.Catalog
}

func TestBuildRecords(t *testing.T) {
	inference, payers, catalog := testDeps(t)

	raw := []model.RawRow{
		{
			HospitalName:     "Self-Reported Name",
			PayerName:        "Premera Blue Cross - Commercial",
			Code:             "MS-DRG 470",
			CodeType:         "MS-DRG",
			Description:      "joint replacement",
			NegotiatedDollar: fp(41000),
			Setting:          "Inpatient",
		},
		{
			PayerName: "Aetna",
			Code:      "27447",
			CodeType:  "CPT",
			// No price in any field.
		},
	}

	records, stats := buildRecords(raw, "some_export.csv", inference, payers, catalog)
	if stats.Raw != 2 || stats.Kept != 1 || stats.NoPrice != 1 {
		t.Fatalf("stats: %+v", stats)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records", len(records))
	}

	r := records[0]
	if r.Code != "470" || r.CodeType != model.CodeTypeDRG {
		t.Errorf("code = %q %q", r.Code, r.CodeType)
	}
	if r.PayerGroup != "Premera Blue Cross" {
		t.Errorf("payer group = %q", r.PayerGroup)
	}
	if r.EffectivePrice != 41000 || r.PriceBasis != model.BasisNegotiatedDollar {
		t.Errorf("price = %v basis %q", r.EffectivePrice, r.PriceBasis)
	}
	if r.Setting != model.SettingInpatient {
		t.Errorf("setting = %q", r.Setting)
	}
	// No inference rule matched; self-reported name survives.
	if r.HospitalName != "Self-Reported Name" {
		t.Errorf("hospital = %q", r.HospitalName)
	}
	if r.SourceFile != "some_export.csv" {
		t.Errorf("source = %q", r.SourceFile)
	}
}

func TestBuildRecords_FilenameWinsOverSelfReport(t *testing.T) {
	inference, payers, catalog := testDeps(t)

	raw := []model.RawRow{{
		HospitalName:     "Providence Health & Services",
		PayerName:        "Aetna",
		Code:             "27447",
		CodeType:         "CPT",
		NegotiatedDollar: fp(100),
	}}

	records, _ := buildRecords(raw, "overlake_standardcharges.csv", inference, payers, catalog)
	if records[0].HospitalName != "Overlake Medical Center" {
		t.Fatalf("hospital = %q", records[0].HospitalName)
	}
}

func TestBuildRecords_EstimatedBasisFillsRate(t *testing.T) {
	inference, payers, catalog := testDeps(t)

	raw := []model.RawRow{{
		PayerName:       "Cigna",
		Code:            "27447",
		CodeType:        "CPT",
		EstimatedAmount: fp(8500),
	}}

	records, _ := buildRecords(raw, "f.csv", inference, payers, catalog)
	r := records[0]
	if r.PriceBasis != model.BasisEstimatedAmount || r.EffectivePrice != 8500 {
		t.Fatalf("basis %q price %v", r.PriceBasis, r.EffectivePrice)
	}
	if r.NegotiatedRate == nil || *r.NegotiatedRate != 8500 {
		t.Fatalf("negotiated rate = %v", r.NegotiatedRate)
	}
}

func TestBuildRecords_UnmappedPayerCounted(t *testing.T) {
	inference, payers, catalog := testDeps(t)

	raw := []model.RawRow{
		{
			PayerName:        "Puget Sound Fishermen's Mutual",
			Code:             "27447",
			CodeType:         "CPT",
			NegotiatedDollar: fp(100),
		},
		{
			PayerName:        "Aetna",
			Code:             "27447",
			CodeType:         "CPT",
			NegotiatedDollar: fp(120),
		},
	}

	records, stats := buildRecords(raw, "f.csv", inference, payers, catalog)
	if stats.UnmappedPayer != 1 {
		t.Fatalf("stats: %+v", stats)
	}
	// The row itself is kept, its verbatim payer intact.
	if len(records) != 2 || records[0].PayerGroup != "Puget Sound Fishermen's Mutual" {
		t.Fatalf("records: %+v", records)
	}
}

// A listed rate of exactly zero dollars is unusable as a price, but the raw
// value must still ride along on the record so the lineage columns show what
// the hospital published.
func TestBuildRecords_ZeroRateKeptOnRecord(t *testing.T) {
	inference, payers, catalog := testDeps(t)

	raw := []model.RawRow{{
		PayerName:        "Aetna",
		Code:             "27447",
		CodeType:         "CPT",
		NegotiatedDollar: fp(0),
		CashPrice:        fp(50),
	}}

	records, stats := buildRecords(raw, "f.csv", inference, payers, catalog)
	if stats.Kept != 1 || len(records) != 1 {
		t.Fatalf("stats %+v, %d records", stats, len(records))
	}
	r := records[0]
	if r.PriceBasis != model.BasisCashPrice || r.EffectivePrice != 50 {
		t.Fatalf("basis %q price %v", r.PriceBasis, r.EffectivePrice)
	}
	if r.NegotiatedRate == nil || *r.NegotiatedRate != 0 {
		t.Fatalf("negotiated rate = %v, want published zero preserved", r.NegotiatedRate)
	}
}

func TestCanonicalCode_InferenceFromCatalog(t *testing.T) {
	_, _, catalog := testDeps(t)

	// Blank code type, catalog knows 27447 as CPT.
	code, typ := canonicalCode("27447", "", catalog)
	if code != "27447" || typ != model.CodeTypeCPT {
		t.Fatalf("got %q %q", code, typ)
	}

	// Known type with noisy code cell.
	code, typ = canonicalCode("27447-TC", "CPT", catalog)
	if code != "27447" || typ != model.CodeTypeCPT {
		t.Fatalf("got %q %q", code, typ)
	}

	// Unknown label, code absent from catalog: passes through untyped.
	code, typ = canonicalCode("J1885", "NDC", catalog)
	if typ != "" || code != "J1885" {
		t.Fatalf("got %q %q", code, typ)
	}
}

// A row labeled with a foreign code system must not be rewritten into a
// numerically colliding catalog code: 470 the revenue code is not 470 the
// DRG, and it must not reach the in-scope set.
func TestCanonicalCode_ForeignLabelNeverInferred(t *testing.T) {
	inference, payers, _ := testDeps(t)
	reg := testRegistry(t)

	code, typ := canonicalCode("470", "RC", reg.Catalog)
	if typ != "" || code != "470" {
		t.Fatalf("got %q %q, want untyped 470", code, typ)
	}

	raw := []model.RawRow{{
		PayerName:        "Aetna",
		Code:             "470",
		CodeType:         "RC",
		NegotiatedDollar: fp(950),
	}}
	records, _ := buildRecords(raw, "f.csv", inference, payers, reg.Catalog)
	records[0].HospitalName = "General Hospital"
	if out := ScopeFilter(records, reg); len(out) != 0 {
		t.Fatalf("revenue-code row leaked into scope: %+v", out)
	}
}

func TestExtractDigits_BoundedRunsOnly(t *testing.T) {
	// A 4-digit run contains no bounded 3-digit run; the original survives
	// rather than being truncated into a fake DRG.
	if got := extractDigits("DRG 0470", model.CodeTypeDRG); got != "DRG 0470" {
		t.Fatalf("got %q, want original preserved", got)
	}
	if got := extractDigits("123456", model.CodeTypeCPT); got != "123456" {
		t.Fatalf("6-digit run truncated to %q", got)
	}
	if got := extractDigits("27447-TC", model.CodeTypeCPT); got != "27447" {
		t.Fatalf("got %q", got)
	}
	if got := extractDigits("rev 470", model.CodeTypeDRG); got != "470" {
		t.Fatalf("got %q", got)
	}
}
