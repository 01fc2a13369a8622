package dataset

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// normalizeName canonicalizes display names from the source export:
// collapsed whitespace, and all-caps names title-cased ("VALENCIA ST"
// becomes "Valencia St"). Mixed-case input is left alone.
func normalizeName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" || s != strings.ToUpper(s) {
		return s
	}
	// Casers are stateful; build one per call rather than sharing.
	return cases.Title(language.AmericanEnglish).String(strings.ToLower(s))
}
