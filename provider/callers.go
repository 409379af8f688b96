package provider

import (
	"context"

	"github.com/medicare-ai/medassist/llm"
)

// PromptFunc rewrites the user prompt before it is sent to a provider.
type PromptFunc func(prompt string) string

// LLMCaller sends prompts to an llm.Provider, optionally wrapped.
type LLMCaller struct {
	Provider llm.Provider
	Prompt   PromptFunc
}

func (c *LLMCaller) Call(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if c.Prompt != nil {
		prompt = c.Prompt(prompt)
	}
	return c.Provider.GenerateCompletion(ctx, prompt, llm.WithMaxTokens(maxTokens))
}
