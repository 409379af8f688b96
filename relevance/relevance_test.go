package relevance

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/medicare-ai/medassist/llm"
)

func TestHeuristicEvaluator(t *testing.T) {
	long := strings.Repeat("Paracetamol is an analgesic and antipyretic. ", 3)
	tests := []struct {
		name string
		text string
		want Verdict
	}{
		{"grounded answer", long, VerdictCorrect},
		{"too short", "Paracetamol treats fever.", VerdictIncorrect},
		{"admits missing info", "I don't have details on that brand. " + long, VerdictIncorrect},
		{"no information marker", long + " No information available for dosage.", VerdictIncorrect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, verdict, err := HeuristicEvaluator{}.Evaluate(context.Background(), "q", tt.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if verdict != tt.want {
				t.Errorf("expected verdict %v, got %v", tt.want, verdict)
			}
		})
	}
}

func TestLLMEvaluator_Evaluate(t *testing.T) {
	tests := []struct {
		name            string
		llmResponse     string
		llmError        error
		expectedScore   float64
		expectedVerdict Verdict
	}{
		{name: "High relevance score", llmResponse: "0.9", expectedScore: 0.9, expectedVerdict: VerdictCorrect},
		{name: "Low relevance score", llmResponse: "0.2", expectedScore: 0.2, expectedVerdict: VerdictIncorrect},
		{name: "Medium relevance score", llmResponse: "0.5", expectedScore: 0.5, expectedVerdict: VerdictAmbiguous},
		{name: "Score with text prefix", llmResponse: "The score is 0.85", expectedScore: 0.85, expectedVerdict: VerdictCorrect},
		{name: "Invalid score returns default", llmResponse: "invalid", expectedScore: 0.5, expectedVerdict: VerdictAmbiguous},
		{name: "Provider error", llmError: errors.New("timeout"), expectedScore: 0.5, expectedVerdict: VerdictAmbiguous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evaluator := &LLMEvaluator{
				Provider: &llm.MockLLMProvider{Response: tt.llmResponse, Err: tt.llmError},
			}
			score, verdict, err := evaluator.Evaluate(context.Background(), "test query", "test text")
			if err != nil && tt.llmError == nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if score != tt.expectedScore {
				t.Errorf("Expected score %f, got %f", tt.expectedScore, score)
			}
			if verdict != tt.expectedVerdict {
				t.Errorf("Expected verdict %v, got %v", tt.expectedVerdict, verdict)
			}
		})
	}
}

func TestNew(t *testing.T) {
	if _, ok := New("llm", nil).(HeuristicEvaluator); !ok {
		t.Errorf("llm without provider should fall back to heuristic")
	}
	if _, ok := New("llm", &llm.MockLLMProvider{}).(*LLMEvaluator); !ok {
		t.Errorf("expected LLMEvaluator")
	}
}
