package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/medicare-ai/medassist/config"
)

// Provider is one remote completion endpoint with fixed sampling settings.
type Provider interface {
	GenerateCompletion(ctx context.Context, prompt string, opts ...CallOption) (string, error)
	GetProviderType() string
}

// CallOptions are per-call overrides.
type CallOptions struct {
	MaxTokens int
}

type CallOption func(*CallOptions)

// WithMaxTokens caps the completion length of a single call.
func WithMaxTokens(n int) CallOption {
	return func(o *CallOptions) {
		if n > 0 {
			o.MaxTokens = n
		}
	}
}

func applyOptions(defaultMax int, opts []CallOption) CallOptions {
	o := CallOptions{MaxTokens: defaultMax}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// NewProvider builds the client matching cfg.Kind.
func NewProvider(ctx context.Context, cfg config.ProviderConfig) (Provider, error) {
	switch strings.ToLower(cfg.Kind) {
	case "openai":
		return NewOpenAIProvider(cfg), nil
	case "gemini":
		return NewGeminiProvider(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported llm provider kind: %s", cfg.Kind)
	}
}
