package llm

import (
	"context"
	"sync"
)

// MockLLMProvider is a scripted Provider for tests of dependent packages.
type MockLLMProvider struct {
	Name     string
	Response string
	Err      error
	// Respond, when set, overrides Response/Err.
	Respond func(prompt string, opts CallOptions) (string, error)

	mu      sync.Mutex
	Prompts []string
	Options []CallOptions
}

func (m *MockLLMProvider) GenerateCompletion(ctx context.Context, prompt string, opts ...CallOption) (string, error) {
	o := applyOptions(0, opts)
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.Options = append(m.Options, o)
	m.mu.Unlock()
	if m.Respond != nil {
		return m.Respond(prompt, o)
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

func (m *MockLLMProvider) GetProviderType() string {
	if m.Name == "" {
		return "mock"
	}
	return m.Name
}

// Calls returns how many completions were requested.
func (m *MockLLMProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}

// LastPrompt returns the most recent prompt, or "".
func (m *MockLLMProvider) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Prompts) == 0 {
		return ""
	}
	return m.Prompts[len(m.Prompts)-1]
}
