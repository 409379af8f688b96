package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/medicare-ai/medassist/config"
)

// OpenAIProvider talks to any OpenAI compatible chat endpoint (Groq, OpenRouter).
type OpenAIProvider struct {
	client      openai.Client
	name        string
	model       string
	temperature float64
	topP        float64
	maxTokens   int
}

func NewOpenAIProvider(cfg config.ProviderConfig) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.TimeoutSeconds > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second))
	}
	for k, v := range cfg.Headers {
		opts = append(opts, option.WithHeader(k, v))
	}
	return &OpenAIProvider{
		client:      openai.NewClient(opts...),
		name:        cfg.Name,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		maxTokens:   cfg.MaxTokens,
	}
}

func (p *OpenAIProvider) GenerateCompletion(ctx context.Context, prompt string, opts ...CallOption) (string, error) {
	o := applyOptions(p.maxTokens, opts)
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if p.temperature > 0 {
		params.Temperature = openai.Float(p.temperature)
	}
	if p.topP > 0 {
		params.TopP = openai.Float(p.topP)
	}
	if o.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(o.MaxTokens))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%s chat completion failed, err: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned from " + p.name)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("empty completion from " + p.name)
	}
	return content, nil
}

func (p *OpenAIProvider) GetProviderType() string {
	return p.name
}
