package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/medicare-ai/medassist/config"
)

type GeminiProvider struct {
	client      *genai.Client
	name        string
	model       string
	temperature float64
	topP        float64
	maxTokens   int
	timeout     time.Duration
}

func NewGeminiProvider(ctx context.Context, cfg config.ProviderConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("missing gemini api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client failed, err: %w", err)
	}
	name := cfg.Name
	if name == "" {
		name = "gemini"
	}
	return &GeminiProvider{
		client:      c,
		name:        name,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		maxTokens:   cfg.MaxTokens,
		timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
	}, nil
}

func (g *GeminiProvider) GenerateCompletion(ctx context.Context, prompt string, opts ...CallOption) (string, error) {
	o := applyOptions(g.maxTokens, opts)
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	cfg := &genai.GenerateContentConfig{}
	if g.temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(g.temperature))
	}
	if g.topP > 0 {
		cfg.TopP = genai.Ptr(float32(g.topP))
	}
	if o.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(o.MaxTokens)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generateContent failed, err: %w", err)
	}
	if resp == nil {
		return "", errors.New("empty response from gemini")
	}
	txt := strings.TrimSpace(resp.Text())
	if txt == "" {
		return "", errors.New("model returned empty text")
	}
	return txt, nil
}

func (g *GeminiProvider) GetProviderType() string {
	return g.name
}
