package intent

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/medicare-ai/medassist/common/logger"
	"github.com/medicare-ai/medassist/config"
	"github.com/medicare-ai/medassist/detector"
)

// Intent labels one thing the user is asking for. A query can carry several.
type Intent string

const (
	Greeting      Intent = "greeting"
	Summary       Intent = "summary"
	Price         Intent = "price"
	Symptom       Intent = "symptom"
	Alternatives  Intent = "alternatives"
	ClearDocument Intent = "clear_document"
	Details       Intent = "details"
	Medicine      Intent = "medicine"
)

// Decision is the classification of a single query.
type Decision struct {
	Intents    []Intent `json:"intents"`
	Subject    string   `json:"subject,omitempty"` // brand named by an alternatives request
	Confidence float64  `json:"confidence"`
	Reason     string   `json:"reason,omitempty"`
	Source     string   `json:"source"`
}

// Has reports whether i was detected.
func (d *Decision) Has(i Intent) bool {
	if d == nil {
		return false
	}
	for _, x := range d.Intents {
		if x == i {
			return true
		}
	}
	return false
}

func (d *Decision) add(i Intent) {
	if !d.Has(i) {
		d.Intents = append(d.Intents, i)
	}
}

// Classifier determines the intents of a query.
type Classifier interface {
	Classify(ctx context.Context, query string) (*Decision, error)
}

var (
	greetings = []string{"hi", "hello", "hey", "good morning", "good evening"}

	clearCommands = []string{"clear pdf", "detach pdf", "remove pdf", "clear attachment"}

	defaultKeywords = map[Intent][]string{
		Summary: {"summarize", "summary", "report", "overview"},
		Price:   {"price", "cheapest", "lowest price", "least cost", "cost effective"},
		Symptom: {
			"i have", "my symptoms", "i feel", "i am suffering",
			"pain", "headache", "fever", "vomiting", "cough", "nausea",
			"diagnose", "symptoms", "what should i take", "sick",
		},
	}

	alternativesPattern = regexp.MustCompile(`(?i)\b(?:alternatives?|substitutes?|generics?|replacements?)\s+(?:to|for|of)\s+([\p{L}\p{N}][\p{L}\p{N} .\-]*?)\s*[?.!]*$`)
)

// RuleBasedClassifier classifies by keyword tables.
type RuleBasedClassifier struct {
	keywords map[Intent][]string
}

// NewRuleBasedClassifier creates a classifier with the builtin tables plus rules.
func NewRuleBasedClassifier(rules []config.IntentRule) *RuleBasedClassifier {
	kw := make(map[Intent][]string, len(defaultKeywords))
	for i, words := range defaultKeywords {
		kw[i] = append([]string(nil), words...)
	}
	for _, r := range rules {
		i := Intent(strings.ToLower(strings.TrimSpace(r.Intent)))
		if i == "" {
			continue
		}
		for _, w := range r.Keywords {
			if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
				kw[i] = append(kw[i], w)
			}
		}
	}
	return &RuleBasedClassifier{keywords: kw}
}

// Classify never fails.
func (r *RuleBasedClassifier) Classify(ctx context.Context, query string) (*Decision, error) {
	d := &Decision{Source: "rule", Confidence: 0.6}
	clean := strings.ToLower(strings.TrimSpace(query))
	if clean == "" {
		return d, nil
	}

	if oneOf(clean, greetings) {
		d.add(Greeting)
		d.Confidence = 1
		d.Reason = "exact greeting"
		return d, nil
	}
	if oneOf(clean, clearCommands) {
		d.add(ClearDocument)
		d.Confidence = 1
		d.Reason = "document clear command"
		return d, nil
	}

	for i, words := range r.keywords {
		if containsAny(clean, words) {
			d.add(i)
		}
	}
	if m := alternativesPattern.FindStringSubmatch(strings.TrimSpace(query)); m != nil {
		d.add(Alternatives)
		d.Subject = strings.TrimSpace(m[1])
	}
	if detector.WantsDetails(clean) {
		d.add(Details)
	}
	if detector.IsMedicineQuery(clean) {
		d.add(Medicine)
	}
	sortIntents(d.Intents)
	if len(d.Intents) > 0 {
		d.Reason = "keyword match"
	}
	logger.Debugf("intent: rule-based decision %v subject=%q", d.Intents, d.Subject)
	return d, nil
}

var order = map[Intent]int{
	Greeting: 0, ClearDocument: 1, Summary: 2, Price: 3, Alternatives: 4,
	Symptom: 5, Details: 6, Medicine: 7,
}

// sortIntents gives decisions a stable order; map iteration does not.
func sortIntents(in []Intent) {
	sort.SliceStable(in, func(i, j int) bool { return rank(in[i]) < rank(in[j]) })
}

func rank(i Intent) int {
	if r, ok := order[i]; ok {
		return r
	}
	return len(order)
}

func oneOf(s string, set []string) bool {
	for _, x := range set {
		if s == x {
			return true
		}
	}
	return false
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// NewClassifier creates a classifier based on configuration.
func NewClassifier(cfg config.IntentConfig, httpCfg *config.HTTPClientConfig) Classifier {
	switch cfg.Provider {
	case "http":
		if cfg.Endpoint != "" {
			return NewHTTPClassifier(cfg.Endpoint, cfg.Rules, httpCfg)
		}
		return NewRuleBasedClassifier(cfg.Rules)
	default:
		return NewRuleBasedClassifier(cfg.Rules)
	}
}
