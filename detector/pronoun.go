package detector

import (
	"regexp"
	"strings"
)

var pronounRe = regexp.MustCompile(`(?i)\b(it's|its|it|this|that|them|these|those)\b`)

// HasPronoun reports whether text contains a bare back-reference.
func HasPronoun(text string) bool {
	return pronounRe.MatchString(text)
}

// Resolve substitutes every pronoun in text with medicine. "its" becomes
// "<medicine>'s" and "it's" becomes "<medicine> is". The second result is
// false when nothing was replaced.
func Resolve(text, medicine string) (string, bool) {
	medicine = strings.TrimSpace(medicine)
	if medicine == "" || !HasPronoun(text) {
		return text, false
	}
	out := pronounRe.ReplaceAllStringFunc(text, func(p string) string {
		switch strings.ToLower(p) {
		case "its":
			return medicine + "'s"
		case "it's":
			return medicine + " is"
		default:
			return medicine
		}
	})
	return out, true
}
