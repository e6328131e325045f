package normalize

import (
	"regexp"
	"strings"

	"github.com/gyeh/pricebench/internal/model"
)

var (
	drgPrefix      = regexp.MustCompile(`(?i)^(?:MS[- ]?DRG|APR[- ]?DRG|DRG)\s*[-: ]*([0-9]{3})$`)
	cptPrefix      = regexp.MustCompile(`(?i)^CPT\s*[-: ]*([0-9]{5})$`)
	trailingZeroes = regexp.MustCompile(`\.0+$`)
	multiSpaceCode = regexp.MustCompile(`\s+`)
	drgWord        = regexp.MustCompile(`\bDRG\b`)
	cptWord        = regexp.MustCompile(`\bCPT\b|\bHCPCS\b`)
	fiveDigits     = regexp.MustCompile(`[0-9]{5}`)
	threeDigits    = regexp.MustCompile(`[0-9]{3}`)
)

// Code strips common hospital encodings like "MS-DRG 470" or "CPT 27447"
// down to the bare code, and removes a numeric fraction suffix left by
// spreadsheet exports ("470.0"). Codes are always compared as strings.
func Code(s string) string {
	s = strings.TrimSpace(s)
	if m := drgPrefix.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if m := cptPrefix.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return trailingZeroes.ReplaceAllString(s, "")
}

// CodeTypeResult pairs the canonical code type with whether the raw label
// mapped onto the fixed vocabulary at all.
type CodeTypeResult struct {
	Type  model.CodeType
	Known bool
}

// CodeTypeOf collapses the raw code-type label into the canonical vocabulary:
// every DRG family (MS-DRG, APR-DRG, ...) becomes DRG, and HCPCS joins CPT
// because the catalog's CPT range covers the overlapping HCPCS level I codes.
func CodeTypeOf(raw string) CodeTypeResult {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "MS-DRG", "DRG")
	s = strings.ReplaceAll(s, "APR-DRG", "DRG")
	s = multiSpaceCode.ReplaceAllString(s, " ")
	switch {
	case drgWord.MatchString(s):
		return CodeTypeResult{Type: model.CodeTypeDRG, Known: true}
	case cptWord.MatchString(s):
		return CodeTypeResult{Type: model.CodeTypeCPT, Known: true}
	}
	return CodeTypeResult{}
}

// InferCodeType guesses CPT or DRG for a record whose source label was blank
// or ambiguous, by matching digit runs in the code against the catalog's own
// code sets. Returns the (possibly rewritten) code, the inferred type, and
// whether the inference succeeded.
func InferCodeType(code string, cptCodes, drgCodes map[string]bool) (string, model.CodeType, bool) {
	if m := fiveDigits.FindString(code); m != "" && cptCodes[m] {
		return m, model.CodeTypeCPT, true
	}
	if m := threeDigits.FindString(code); m != "" && drgCodes[m] {
		return m, model.CodeTypeDRG, true
	}
	return code, "", false
}
