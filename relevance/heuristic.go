package relevance

import (
	"context"
	"strings"
)

const minUsefulLength = 50

var negativeMarkers = []string{
	"i don't have information",
	"no information available",
}

// HeuristicEvaluator accepts a pipeline answer as grounded when it is long
// enough and does not admit missing information.
type HeuristicEvaluator struct{}

func (HeuristicEvaluator) Evaluate(ctx context.Context, query string, text string) (float64, Verdict, error) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= minUsefulLength {
		return 0, VerdictIncorrect, nil
	}
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "i don't have") {
		return 0, VerdictIncorrect, nil
	}
	for _, m := range negativeMarkers {
		if strings.Contains(lower, m) {
			return 0, VerdictIncorrect, nil
		}
	}
	return 1, VerdictCorrect, nil
}
