package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gyeh/pricebench/internal/model"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadRegistry(t *testing.T) {
	dir := t.TempDir()
	hospitals := writeCSV(t, dir, "hospitals.csv",
		"hospital_name,city,region\nGeneral Hospital,Seattle,WA\n")
	sources := writeCSV(t, dir, "sources.csv",
		"hospital_name,filename,download_status,format_hint\nGeneral Hospital,general,ok,wide\n")
	procedures := writeCSV(t, dir, "procedures.csv",
		"code,code_type,description\n27447,CPT,Total knee arthroplasty\nMS-DRG 470,MS-DRG,Major joint replacement\n")

	reg, err := LoadRegistry(hospitals, sources, procedures)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if len(reg.Hospitals) != 1 || len(reg.Sources) != 1 {
		t.Fatalf("hospitals=%d sources=%d", len(reg.Hospitals), len(reg.Sources))
	}

	if !reg.KnownHospital("GENERAL HOSPITAL") {
		t.Error("case variant not recognized")
	}
	if reg.KnownHospital("Elsewhere Clinic") {
		t.Error("unknown hospital accepted")
	}

	// Catalog codes are normalized on load: "MS-DRG 470" became bare 470/DRG.
	if _, ok := reg.Catalog.Lookup("470", model.CodeTypeDRG); !ok {
		t.Error("normalized DRG lookup failed")
	}
	if _, ok := reg.Catalog.Lookup("27447", model.CodeTypeCPT); !ok {
		t.Error("CPT lookup failed")
	}
	if _, ok := reg.Catalog.Lookup("27447", model.CodeTypeDRG); ok {
		t.Error("cross-family lookup succeeded")
	}
}

func TestLoadRegistry_SourcesOptional(t *testing.T) {
	dir := t.TempDir()
	hospitals := writeCSV(t, dir, "hospitals.csv", "hospital_name\nGeneral Hospital\n")
	procedures := writeCSV(t, dir, "procedures.csv", "code,code_type\n27447,CPT\n")

	reg, err := LoadRegistry(hospitals, "", procedures)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if len(reg.Sources) != 0 {
		t.Fatalf("sources = %d, want 0", len(reg.Sources))
	}
}

func TestLoadCatalog_RejectsEmptyAndUnknown(t *testing.T) {
	dir := t.TempDir()

	path := writeCSV(t, dir, "bad.csv", "code,code_type\n123,NDC\n,CPT\n")
	if _, err := LoadCatalog(path); err == nil {
		t.Fatal("expected error for catalog with no usable rows")
	}

	path = writeCSV(t, dir, "missing.csv", "code,description\n27447,knee\n")
	if _, err := LoadCatalog(path); err == nil {
		t.Fatal("expected error for missing code_type column")
	}
}

func TestHospitalInference(t *testing.T) {
	inf := NewHospitalInference([]Source{
		{HospitalName: "Custom Hospital", Filename: "custom_export"},
	})

	// Registry rule wins.
	if got := inf.Infer("custom_export_2025.csv", "Self Reported"); got != "Custom Hospital" {
		t.Errorf("got %q", got)
	}
	// Built-in rules: the most specific substring wins over its prefix.
	if got := inf.Infer("peacehealth_united_general_charges.csv", ""); got != "PeaceHealth United General Hospital" {
		t.Errorf("got %q", got)
	}
	if got := inf.Infer("peacehealth_st_joseph.csv", ""); got != "PeaceHealth St Joseph Medical Center" {
		t.Errorf("got %q", got)
	}
	// No rule: self-reported name survives.
	if got := inf.Infer("mystery.csv", "Self Reported"); got != "Self Reported" {
		t.Errorf("got %q", got)
	}
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()
	valid := Config{
		InputDir:       dir,
		HospitalsPath:  "h.csv",
		ProceduresPath: "p.csv",
		FocusHospital:  "General",
		OutputDir:      filepath.Join(dir, "out"),
		Workers:        4,
		OutlierIQRMult: 3.0,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	broken := valid
	broken.Workers = 0
	if err := broken.Validate(); err == nil {
		t.Error("zero workers accepted")
	}

	broken = valid
	broken.InputDir = filepath.Join(dir, "missing")
	if err := broken.Validate(); err == nil {
		t.Error("missing input dir accepted")
	}

	broken = valid
	broken.OutlierIQRMult = -1
	if err := broken.Validate(); err == nil {
		t.Error("negative outlier multiplier accepted")
	}
}

func TestLoadPayerRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payers.yaml")
	os.WriteFile(path, []byte(
		"insurers:\n  - pattern: \\bacme\\b\n    group: Acme Health\n"), 0644)

	rules, err := LoadPayerRules(path)
	if err != nil {
		t.Fatalf("LoadPayerRules: %v", err)
	}
	if len(rules) != 1 || rules[0].Group != "Acme Health" {
		t.Fatalf("rules = %+v", rules)
	}

	if rules, err := LoadPayerRules(""); err != nil || rules != nil {
		t.Fatalf("empty path: %v %v", rules, err)
	}

	os.WriteFile(path, []byte("insurers:\n  - pattern: x\n"), 0644)
	if _, err := LoadPayerRules(path); err == nil {
		t.Fatal("rule without group accepted")
	}
}
