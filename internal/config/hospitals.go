package config

import "strings"

// InferenceRule maps a source-filename substring onto a canonical hospital
// name. Hospital names inside the files themselves are not trusted: several
// campuses of one system publish under the same legal-entity name.
type InferenceRule struct {
	Substring string
	Hospital  string
}

// defaultInferenceRules resolve the configured source files. Order matters:
// the most specific substring comes before its generic prefix (united_general
// before peacehealth, cherry-hill before the main Swedish campus).
var defaultInferenceRules = []InferenceRule{
	{"swedish-medical-center-cherry-hill", "Swedish Medical Center Cherry Hill"},
	{"swedish-medical-center-issaquah", "Swedish Medical Center Issaquah"},
	{"swedish-medical-center_standardcharges", "Swedish Medical Center"},
	{"swedish-edmonds", "Swedish Edmonds"},
	{"providence-regional-medical-center-everett", "Providence Regional Medical Center Everett"},
	{"providence_everett", "Providence Regional Medical Center Everett"},
	{"university-of-washington-medical-center", "UW Medical Center"},
	{"uw_medical_center", "UW Medical Center"},
	{"harborview-medical-center", "Harborview Medical Center"},
	{"harborview_standardcharges", "Harborview Medical Center"},
	{"peacehealth_united_general", "PeaceHealth United General Hospital"},
	{"united-general", "PeaceHealth United General Hospital"},
	{"peacehealth", "PeaceHealth St Joseph Medical Center"},
	{"skagit-valley-hospital", "Skagit Valley Hospital"},
	{"skagit_valley", "Skagit Valley Hospital"},
	{"cascade-valley-hospital", "Cascade Valley Hospital"},
	{"cascade_valley", "Cascade Valley Hospital"},
	{"overlake", "Overlake Medical Center"},
	{"king-county-public-hospital-district", "EvergreenHealth Medical Center"},
	{"evergreenhealth", "EvergreenHealth Medical Center"},
}

// HospitalInference resolves canonical hospital names from source filenames.
type HospitalInference struct {
	rules []InferenceRule
}

// NewHospitalInference builds the inference table. Rules from the source
// registry (hospital_name + filename pairs) are consulted before the
// built-in defaults.
func NewHospitalInference(sources []Source) *HospitalInference {
	rules := make([]InferenceRule, 0, len(sources)+len(defaultInferenceRules))
	for _, s := range sources {
		if s.Filename == "" || s.HospitalName == "" {
			continue
		}
		rules = append(rules, InferenceRule{
			Substring: strings.ToLower(s.Filename),
			Hospital:  s.HospitalName,
		})
	}
	rules = append(rules, defaultInferenceRules...)
	return &HospitalInference{rules: rules}
}

// Infer returns the canonical hospital name for a source file path, falling
// back to the file's self-reported name when no rule matches.
func (h *HospitalInference) Infer(sourceFile, selfReported string) string {
	low := strings.ToLower(sourceFile)
	for _, r := range h.rules {
		if strings.Contains(low, r.Substring) {
			return r.Hospital
		}
	}
	return selfReported
}
