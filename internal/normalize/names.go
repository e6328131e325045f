package normalize

import (
	"regexp"
	"strings"
)

var (
	multiSpace  = regexp.MustCompile(`\s+`)
	nonAlphanum = regexp.MustCompile(`[^a-z0-9]+`)
)

// Name lowercases, collapses whitespace, and trims the input.
func Name(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return multiSpace.ReplaceAllString(s, " ")
}

// CanonicalKey reduces a name to its lowercase alphanumeric skeleton, so
// "PeaceHealth St. Joseph Medical Center" and "peacehealth st joseph
// medical center" compare equal for registry membership.
func CanonicalKey(s string) string {
	return nonAlphanum.ReplaceAllString(strings.ToLower(s), "")
}
