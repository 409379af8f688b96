package pipeline

import (
	"context"
	"fmt"

	"github.com/medicare-ai/medassist/common/logger"
	"github.com/medicare-ai/medassist/detector"
	"github.com/medicare-ai/medassist/llm"
	"github.com/medicare-ai/medassist/metrics"
	"github.com/medicare-ai/medassist/relevance"
)

// EnhancedCaller is the registry caller of the primary provider. Medicine
// questions are first run through the pipeline; when its answer is judged
// relevant the provider rewrites it, otherwise the provider answers from
// general knowledge.
type EnhancedCaller struct {
	Pipeline  *Pipeline
	Provider  llm.Provider
	Evaluator relevance.Evaluator
	// ShortReply caps the completion unless the user asked for details.
	ShortReply int
}

func (c *EnhancedCaller) Call(ctx context.Context, prompt string, maxTokens int) (string, error) {
	details := detector.WantsDetails(prompt)
	medicine := detector.IsMedicineQuery(prompt)

	var ragText string
	if medicine && c.Pipeline != nil {
		text, err := c.Pipeline.Answer(ctx, prompt, nil)
		switch {
		case err != nil:
			logger.Warnf("rag context retrieval failed: %v", err)
		case c.relevant(ctx, prompt, text):
			ragText = text
		default:
			logger.Infof("rag answer not specific enough for %q, using general knowledge", prompt)
		}
	}

	var enhanced string
	switch {
	case ragText != "" && details:
		enhanced = fmt.Sprintf(ragDetailed, prompt, ragText)
	case ragText != "":
		enhanced = fmt.Sprintf(ragBrief, prompt, ragText)
	case medicine && details:
		enhanced = fmt.Sprintf(generalDetailed, prompt)
	case medicine:
		enhanced = fmt.Sprintf(generalBrief, prompt)
	default:
		enhanced = fmt.Sprintf(conversational, prompt)
	}

	limit := maxTokens
	if !details && c.ShortReply > 0 {
		limit = c.ShortReply
	}
	return c.Provider.GenerateCompletion(ctx, enhanced, llm.WithMaxTokens(limit))
}

func (c *EnhancedCaller) relevant(ctx context.Context, query, text string) bool {
	ev := c.Evaluator
	if ev == nil {
		ev = relevance.HeuristicEvaluator{}
	}
	_, verdict, err := ev.Evaluate(ctx, query, text)
	if err != nil {
		logger.Warnf("relevance evaluation failed: %v", err)
	}
	metrics.IncRelevance(verdict.String())
	return verdict == relevance.VerdictCorrect
}

// PlainPrompt wraps a question for providers without dataset access.
func PlainPrompt(prompt string) string {
	if detector.IsMedicineQuery(prompt) {
		return fmt.Sprintf(plainMedicine, prompt)
	}
	return fmt.Sprintf(plainConversational, prompt)
}
