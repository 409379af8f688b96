package relevance

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/medicare-ai/medassist/common/logger"
	"github.com/medicare-ai/medassist/llm"
)

// LLMEvaluator asks a model to rate relevance on a 0-1 scale.
type LLMEvaluator struct {
	Provider    llm.Provider
	CorrectTh   float64 // threshold for "correct" verdict (default 0.7)
	IncorrectTh float64 // threshold for "incorrect" verdict (default 0.3)
}

const systemPrompt = `You are an expert at judging medical answers.
Rate how well the given text answers the query on a scale from 0 to 1.
0 means it does not answer at all, 1 means it answers fully from concrete medicine information.
Provide ONLY the score as a float between 0 and 1.`

var scoreRegex = regexp.MustCompile(`(\d+(\.\d+)?)`)

func (e *LLMEvaluator) Evaluate(ctx context.Context, query string, text string) (float64, Verdict, error) {
	correctTh := e.CorrectTh
	if correctTh == 0 {
		correctTh = 0.7
	}
	incorrectTh := e.IncorrectTh
	if incorrectTh == 0 {
		incorrectTh = 0.3
	}

	prompt := fmt.Sprintf("%s\n\nQuery: %s\n\nText: %s", systemPrompt, query, text)
	response, err := e.Provider.GenerateCompletion(ctx, prompt, llm.WithMaxTokens(8))
	if err != nil {
		logger.Warnf("LLMEvaluator: failed to call LLM: %v", err)
		return 0.5, VerdictAmbiguous, err
	}

	score := 0.5 // parse failures stay ambiguous
	if match := scoreRegex.FindStringSubmatch(response); len(match) > 0 {
		parsed, err := strconv.ParseFloat(match[1], 64)
		if err == nil && parsed >= 0 && parsed <= 1 {
			score = parsed
		} else {
			logger.Warnf("LLMEvaluator: parsed score out of range or invalid: %f", parsed)
		}
	} else {
		logger.Warnf("LLMEvaluator: failed to parse score from response: %s", response)
	}

	var verdict Verdict
	switch {
	case score >= correctTh:
		verdict = VerdictCorrect
	case score < incorrectTh:
		verdict = VerdictIncorrect
	default:
		verdict = VerdictAmbiguous
	}
	logger.Debugf("LLMEvaluator: score=%.2f, verdict=%v", score, verdict)
	return score, verdict, nil
}

// New returns the evaluator named by kind: "llm" (needs p) or the heuristic.
func New(kind string, p llm.Provider) Evaluator {
	if kind == "llm" && p != nil {
		return &LLMEvaluator{Provider: p}
	}
	return HeuristicEvaluator{}
}
