// Package payer maps raw payer strings onto a two-level canonical identity:
// an insurer group for broad comparisons and an insurer + plan-type string,
// because mixing plan types under one insurer name conflates structurally
// different rate bases.
package payer

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule binds a case-insensitive pattern to a canonical insurer group.
// Rules are ordered: more-specific patterns must come first.
type Rule struct {
	Pattern string `yaml:"pattern"`
	Group   string `yaml:"group"`
}

// defaultInsurerRules covers the ~150 raw payer spellings observed across
// the source hospitals. Subsidiary brands map to their parent insurer.
var defaultInsurerRules = []Rule{
	{Pattern: `\bpremera\b`, Group: "Premera Blue Cross"},
	{Pattern: `\blifewise\b`, Group: "Premera Blue Cross"},
	{Pattern: `\bregence\b`, Group: "Regence BlueShield"},
	{Pattern: `\bbridgespan\b`, Group: "Regence BlueShield"},
	{Pattern: `\basuris\b`, Group: "Regence BlueShield"},
	{Pattern: `\bunitedhealth`, Group: "UnitedHealthcare"},
	{Pattern: `\buhc\b`, Group: "UnitedHealthcare"},
	{Pattern: `\bunited\s*healthcare\b`, Group: "UnitedHealthcare"},
	{Pattern: `\baetna\b`, Group: "Aetna"},
	{Pattern: `\bcigna\b`, Group: "Cigna"},
	{Pattern: `\bkaiser\b`, Group: "Kaiser Permanente"},
	{Pattern: `\bmolina\b`, Group: "Molina Healthcare"},
	{Pattern: `\bhumana\b`, Group: "Humana"},
	{Pattern: `\bamerigroup\b`, Group: "Amerigroup"},
	{Pattern: `\bcoordinated\s*care\b`, Group: "Coordinated Care"},
	{Pattern: `\bambetter\b`, Group: "Coordinated Care"},
	{Pattern: `\bfirst\s*choice\b`, Group: "First Choice Health"},
	{Pattern: `\bcommunity\s*health\s*plan\b`, Group: "Community Health Plan of WA"},
	{Pattern: `\bmultiplan\b`, Group: "MultiPlan"},
	{Pattern: `\btricare\b`, Group: "TRICARE"},
	{Pattern: `\bchampva\b`, Group: "CHAMPVA"},
	{Pattern: `\bworkers?\s*comp`, Group: "Workers Comp"},
}

// planTypeRules map plan-type keywords onto the canonical plan-type label.
// Order matters: "medicare advantage" must win over plain "medicare".
var planTypeRules = []Rule{
	{Pattern: `\bmanaged\s*medicaid\b`, Group: "Managed Medicaid"},
	{Pattern: `\bmedicaid\b`, Group: "Medicaid"},
	{Pattern: `\bmedicare\s*(?:managed\s*care|advantage|hmo|ppo)`, Group: "Medicare Advantage"},
	{Pattern: `\bmedicare\b`, Group: "Medicare"},
	{Pattern: `\bexchange\b`, Group: "Exchange"},
	{Pattern: `\bmarketplace\b`, Group: "Exchange"},
	{Pattern: `\bcommercial\b`, Group: "Commercial"},
	{Pattern: `\bhmo\b`, Group: "HMO"},
	{Pattern: `\bppo\b`, Group: "PPO"},
	{Pattern: `\bpos\b`, Group: "POS"},
	{Pattern: `\bepo\b`, Group: "EPO"},
}

type compiledRule struct {
	re    *regexp.Regexp
	group string
}

// Normalizer resolves raw payer labels into canonical identities. Build it
// once per run and pass it explicitly; it holds no mutable state.
type Normalizer struct {
	insurers  []compiledRule
	planTypes []compiledRule
}

// NewNormalizer compiles the built-in rule tables, with optional override
// rules matched before the defaults.
func NewNormalizer(overrides []Rule) (*Normalizer, error) {
	insurers, err := compile(append(append([]Rule{}, overrides...), defaultInsurerRules...))
	if err != nil {
		return nil, err
	}
	planTypes, err := compile(planTypeRules)
	if err != nil {
		return nil, err
	}
	return &Normalizer{insurers: insurers, planTypes: planTypes}, nil
}

func compile(rules []Rule) ([]compiledRule, error) {
	out := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		re, err := regexp.Compile(`(?i)` + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile payer rule %q: %w", r.Pattern, err)
		}
		out = append(out, compiledRule{re: re, group: r.Group})
	}
	return out, nil
}

// Identity holds the two-level canonical payer identity.
type Identity struct {
	Group     string // insurer only, e.g. "Aetna"
	Canonical string // insurer + plan type, e.g. "Aetna - Commercial"
	Matched   bool   // false when the raw string hit no insurer rule
}

// Normalize maps a raw payer string to its canonical identity. Matching is
// case and whitespace insensitive. An unmatched raw string is kept verbatim
// as its own group, never dropped and never merged into another insurer.
func (n *Normalizer) Normalize(raw string) Identity {
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "\uFEFF")
	low := strings.ToLower(trimmed)

	group, matched := n.insurerFor(trimmed, low)
	if group == "" {
		group = "Unknown"
	}
	return Identity{
		Group:     group,
		Canonical: group + " - " + n.planTypeFor(low),
		Matched:   matched,
	}
}

func (n *Normalizer) insurerFor(raw, low string) (string, bool) {
	for _, r := range n.insurers {
		if r.re.MatchString(low) {
			return r.group, true
		}
	}

	// Fallback heuristics before giving up on a match.
	switch {
	case strings.Contains(low, "discounted_cash"),
		strings.Contains(low, "self_pay"),
		strings.Contains(low, "self pay"):
		return "Self-Pay / Cash", true
	case strings.Contains(low, "blue cross"):
		return "Blue Cross", true
	case strings.Contains(low, "blue shield"):
		return "Blue Shield", true
	}

	// Unmatched: the raw label becomes its own group.
	return raw, false
}

func (n *Normalizer) planTypeFor(low string) string {
	for _, r := range n.planTypes {
		if r.re.MatchString(low) {
			return r.group
		}
	}
	return "Other"
}
