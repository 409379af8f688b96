package detector

import (
	"regexp"
	"sort"
	"strings"
)

// builtinNames are the generic and brand names recognised without a dataset.
var builtinNames = []string{
	"paracetamol", "paracip", "dolo", "crocin", "calpol",
	"ibuprofen", "brufen", "combiflam", "flexon",
	"diclofenac", "voveran", "volini",
	"nimesulide", "nise", "nicip",
	"aceclofenac", "zerodol", "hifenac",
	"amoxycillin", "augmentin", "mox", "cipmox",
	"azithromycin", "azithral", "azee", "azax",
	"cetirizine", "cetrizine", "cetzine", "alerid",
	"pantoprazole", "pantocid", "pantop",
	"metformin", "glycomet", "glyciphage",
	"glimepiride", "amaryl", "zoryl",
	"omeprazole", "omez", "omee",
	"atorvastatin", "atorva", "storvas", "lipitor",
	"losartan", "losar", "repace",
	"aspirin", "disprin", "ecosprin",
	"cyra", "domperidone", "rabeprazole",
}

// dosage forms: "dolo 650", "<word> tablet", "<word> capsule"
var formPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(dolo)\s*\d*\b`),
	regexp.MustCompile(`\b(crocin)\s*\d*\b`),
	regexp.MustCompile(`\b(brufen)\s*\d*\b`),
	regexp.MustCompile(`\b(\w+)\s*tablets?\b`),
	regexp.MustCompile(`\b(\w+)\s*capsules?\b`),
}

// words that precede "tablet"/"capsule" without naming a medicine
var stopWords = map[string]bool{
	"the": true, "this": true, "that": true, "these": true, "those": true,
	"a": true, "an": true, "one": true, "two": true, "my": true, "your": true,
	"his": true, "her": true, "our": true, "their": true, "its": true, "it": true,
	"which": true, "what": true, "any": true, "each": true, "per": true,
	"every": true, "same": true, "other": true, "another": true, "some": true,
	"take": true, "taking": true, "took": true, "taken": true, "of": true,
	"and": true, "or": true, "for": true, "with": true, "new": true,
	"half": true, "whole": true, "daily": true, "sugar": true, "pain": true,
	"sleeping": true, "medicine": true, "medical": true, "coated": true,
	"chewable": true, "soft": true, "hard": true,
}

// Detector recognises medicine names and pronoun back-references.
type Detector struct {
	vocab *regexp.Regexp
}

// New builds a detector over the built-in vocabulary plus extra names.
func New(extra ...string) *Detector {
	seen := make(map[string]bool, len(builtinNames)+len(extra))
	names := make([]string, 0, len(builtinNames)+len(extra))
	for _, n := range append(append([]string{}, builtinNames...), extra...) {
		n = strings.ToLower(strings.TrimSpace(n))
		if len(n) < 3 || seen[n] {
			continue
		}
		seen[n] = true
		names = append(names, n)
	}
	// longest first so multi-word brands win over their first word
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	return &Detector{vocab: regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)}
}

type hit struct {
	pos  int
	name string
}

// Extract returns the medicine names in text, lower-cased, ordered by
// first occurrence and without duplicates.
func (d *Detector) Extract(text string) []string {
	lower := strings.ToLower(text)
	var hits []hit
	spans := d.vocab.FindAllStringIndex(lower, -1)
	for _, loc := range spans {
		hits = append(hits, hit{pos: loc[0], name: lower[loc[0]:loc[1]]})
	}
	for _, re := range formPatterns {
		for _, m := range re.FindAllStringSubmatchIndex(lower, -1) {
			name := lower[m[2]:m[3]]
			if len(name) <= 2 || stopWords[name] || isDigits(name) || within(spans, m[2]) {
				continue
			}
			hits = append(hits, hit{pos: m[2], name: name})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	seen := make(map[string]bool, len(hits))
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		if seen[h.name] {
			continue
		}
		seen[h.name] = true
		out = append(out, h.name)
	}
	return out
}

// Last returns the medicine mentioned last in text, or "".
func (d *Detector) Last(text string) string {
	lower := strings.ToLower(text)
	last, lastPos := "", -1
	for _, name := range d.Extract(text) {
		if p := strings.LastIndex(lower, name); p > lastPos {
			last, lastPos = name, p
		}
	}
	return last
}

// within reports whether pos falls inside one of the [start,end) spans.
func within(spans [][]int, pos int) bool {
	for _, sp := range spans {
		if pos >= sp[0] && pos < sp[1] {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
