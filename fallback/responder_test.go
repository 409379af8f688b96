package fallback

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeCaller struct {
	answer  string
	err     error
	prompts []string
}

func (f *fakeCaller) CallWithFallback(ctx context.Context, prompt string, maxTokens int) (string, string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.answer, "fake", f.err
}

func TestRespondLayers(t *testing.T) {
	down := errors.New("All inference providers failed. Last error: 503")
	tests := []struct {
		name      string
		query     string
		caller    *fakeCaller
		layer     Layer
		prefix    string
		wantCalls int
	}{
		{"medicine fact", "Tell me about PARACETAMOL", &fakeCaller{err: down}, LayerMedicineFact, "💊 Paracetamol (Acetaminophen)", 0},
		{"health fact", "my blood pressure is high", &fakeCaller{err: down}, LayerHealthFact, "🏥 Blood pressure measures", 0},
		{"greeting word", "Hey there", &fakeCaller{err: down}, LayerGreeting, "Hello! I'm your MediCare AI Assistant.", 0},
		{"greeting needs whole word", "this and that", &fakeCaller{err: down}, LayerMenu, "I'm here to help", 1},
		{"medicine via provider", "is this syrup safe", &fakeCaller{answer: "Probably."}, LayerMedicine, "Probably.", 1},
		{"medicine offline", "does this drug raise levels", &fakeCaller{err: down}, LayerMedicine, "I don't have specific information about the medication mentioned in your question: \"does this drug raise levels\"", 1},
		{"symptom offline", "my back hurts", &fakeCaller{err: down}, LayerSymptom, "I understand you're experiencing symptoms.", 1},
		{"question offline", "why do we yawn", &fakeCaller{err: down}, LayerQuestion, "I can help with medical questions, but I don't have specific information about 'why do we yawn'.", 1},
		{"provider catch all", "tell me a fun fact", &fakeCaller{answer: "Octopuses have three hearts."}, LayerProvider, "Octopuses", 1},
		{"menu", "tell me a fun fact", &fakeCaller{err: down}, LayerMenu, "I'm here to help with medical and health questions!", 1},
		{"empty provider answer", "tell me a fun fact", &fakeCaller{answer: "  "}, LayerMenu, "I'm here to help", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.caller, 0)
			out, layer := r.Respond(context.Background(), tt.query)
			assert.Equal(t, tt.layer, layer)
			assert.True(t, strings.HasPrefix(out, tt.prefix), out)
			assert.Len(t, tt.caller.prompts, tt.wantCalls)
		})
	}
}

func TestSymptomPromptIsRephrased(t *testing.T) {
	c := &fakeCaller{answer: "Rest and hydrate."}
	out, layer := New(c, 0).Respond(context.Background(), "I feel dizzy")
	assert.Equal(t, LayerSymptom, layer)
	assert.Equal(t, "Rest and hydrate.", out)
	assert.Equal(t, []string{"Someone has these symptoms: I feel dizzy. What general medical advice can you give?"}, c.prompts)
}

func TestRespondWithoutCallerNeverEmpty(t *testing.T) {
	r := New(nil, 0)
	for _, q := range []string{"", "xyz", "what is life", "some tablet", "it aches"} {
		out, _ := r.Respond(context.Background(), q)
		assert.NotEmpty(t, strings.TrimSpace(out), q)
	}
}
