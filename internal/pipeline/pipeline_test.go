package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gyeh/pricebench/internal/config"
)

func writeTestFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func testRunConfig(t *testing.T) (*config.Config, *config.Registry) {
	t.Helper()
	dir := t.TempDir()
	inputDir := filepath.Join(dir, "input")
	os.MkdirAll(inputDir, 0755)

	writeTestFile(t, dir, "hospitals.csv",
		"hospital_name,city,region\n"+
			"General Hospital,Seattle,WA\n"+
			"Mercy Medical Center,Tacoma,WA\n")
	writeTestFile(t, dir, "sources.csv",
		"hospital_name,filename,download_status,format_hint\n"+
			"General Hospital,general_hospital,ok,wide\n"+
			"Mercy Medical Center,mercy,ok,flat\n")
	writeTestFile(t, dir, "procedures.csv",
		"code,code_type,description\n"+
			"27447,CPT,Total knee arthroplasty\n")

	writeTestFile(t, inputDir, "general_hospital.csv",
		"description,code|1,code|1|type,standard_charge|discounted_cash,standard_charge|Aetna|Commercial|negotiated_dollar\n"+
			"knee total,27447,CPT,20000,18000\n")
	writeTestFile(t, inputDir, "mercy.csv",
		"payer_name,code,code_type,description,negotiated_rate\n"+
			"Aetna,27447,CPT,knee,15000\n")
	writeTestFile(t, inputDir, "junk.csv", "a,b\n1,2\n")

	reg, err := config.LoadRegistry(
		filepath.Join(dir, "hospitals.csv"),
		filepath.Join(dir, "sources.csv"),
		filepath.Join(dir, "procedures.csv"))
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}

	cfg := &config.Config{
		InputDir:       inputDir,
		FocusHospital:  "General Hospital",
		OutputDir:      filepath.Join(dir, "out"),
		Workers:        2,
		OutlierIQRMult: 3.0,
	}
	return cfg, reg
}

func TestRun_EndToEnd(t *testing.T) {
	cfg, reg := testRunConfig(t)

	summary, err := Run(context.Background(), zerolog.Nop(), cfg, reg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.FilesParsed != 2 {
		t.Errorf("files parsed = %d, want 2", summary.FilesParsed)
	}
	if summary.FilesFailed != 1 {
		t.Errorf("files failed = %d, want 1 (junk.csv)", summary.FilesFailed)
	}
	// Wide file contributes a cash row and an Aetna row, flat file one row.
	if summary.RowsInScope != 3 {
		t.Errorf("rows in scope = %d, want 3", summary.RowsInScope)
	}
	if summary.RunID == "" {
		t.Error("missing run id")
	}

	for _, name := range []string{
		"normalized_prices.csv",
		"normalized_prices.parquet",
		"procedure_benchmark.csv",
		"hospital_benchmark.csv",
		"focus_hospital_rank.csv",
		"payer_dispersion.csv",
		"procedure_confidence.csv",
		"ingest_failures.csv",
		"run_manifest.json",
	} {
		if _, err := os.Stat(filepath.Join(cfg.OutputDir, name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}
}

func TestRun_FocusRankAcrossHospitals(t *testing.T) {
	cfg, reg := testRunConfig(t)

	if _, err := Run(context.Background(), zerolog.Nop(), cfg, reg); err != nil {
		t.Fatalf("Run: %v", err)
	}

	f, err := os.Open(filepath.Join(cfg.OutputDir, "focus_hospital_rank.csv"))
	if err != nil {
		t.Fatalf("open ranks: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read ranks: %v", err)
	}
	// Header plus one rank row for code 27447.
	if len(rows) != 2 {
		t.Fatalf("got %d rows: %v", len(rows), rows)
	}
	row := rows[1]
	// General's median (cash 20000, Aetna 18000 -> 19000) is above Mercy's
	// 15000, so the focus hospital ranks 2 of 2.
	if row[0] != "General Hospital" || row[4] != "2" || row[5] != "2" {
		t.Fatalf("rank row: %v", row)
	}
}

func TestRun_AuditRowsPerSource(t *testing.T) {
	cfg, reg := testRunConfig(t)

	if _, err := Run(context.Background(), zerolog.Nop(), cfg, reg); err != nil {
		t.Fatalf("Run: %v", err)
	}

	f, err := os.Open(filepath.Join(cfg.OutputDir, "ingest_failures.csv"))
	if err != nil {
		t.Fatalf("open audits: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read audits: %v", err)
	}
	if len(rows) != 4 { // header + three sources
		t.Fatalf("got %d audit rows: %v", len(rows), rows)
	}

	statuses := make(map[string]string)
	for _, row := range rows[1:] {
		statuses[row[0]] = row[4]
	}
	if statuses["general_hospital.csv"] != "parsed" || statuses["mercy.csv"] != "parsed" {
		t.Errorf("statuses: %v", statuses)
	}
	if statuses["junk.csv"] != "failed_parse" {
		t.Errorf("junk.csv status = %q", statuses["junk.csv"])
	}
}

func TestRun_NoParsableSources(t *testing.T) {
	cfg, reg := testRunConfig(t)
	emptyDir := t.TempDir()
	cfg.InputDir = emptyDir

	_, err := Run(context.Background(), zerolog.Nop(), cfg, reg)
	if !errors.Is(err, ErrNoParsableSources) {
		t.Fatalf("err = %v, want ErrNoParsableSources", err)
	}
	var pe *PipelineError
	if !errors.As(err, &pe) || pe.Phase != "ingest" {
		t.Fatalf("err = %v, want ingest phase", err)
	}
}

func TestDiscoverSources_SkipsExtractedZips(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "bundle.zip", "PK\x03\x04stub")
	os.MkdirAll(filepath.Join(dir, "bundle_unzipped"), 0755)
	writeTestFile(t, filepath.Join(dir, "bundle_unzipped"), "charges.csv", "code,price\n")
	writeTestFile(t, dir, "other.zip", "PK\x03\x04stub")

	candidates, skipped, err := DiscoverSources(dir)
	if err != nil {
		t.Fatalf("DiscoverSources: %v", err)
	}
	if len(skipped) != 1 || filepath.Base(skipped[0]) != "bundle.zip" {
		t.Fatalf("skipped = %v", skipped)
	}
	// The extracted member and the sibling zip without an extraction remain.
	names := make(map[string]bool)
	for _, c := range candidates {
		names[filepath.Base(c)] = true
	}
	if !names["charges.csv"] || !names["other.zip"] || names["bundle.zip"] {
		t.Fatalf("candidates = %v", candidates)
	}
}
