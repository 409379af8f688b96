package intent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicare-ai/medassist/config"
)

func TestRuleBasedClassifier(t *testing.T) {
	c := NewRuleBasedClassifier(nil)
	tests := []struct {
		query   string
		want    []Intent
		without []Intent
	}{
		{"  Hello ", []Intent{Greeting}, []Intent{Medicine}},
		{"hello, what is paracetamol?", []Intent{Medicine}, []Intent{Greeting}},
		{"Clear PDF", []Intent{ClearDocument}, nil},
		{"Summarize this report", []Intent{Summary}, nil},
		{"what is the cheapest paracetamol", []Intent{Price, Medicine}, nil},
		{"I have a headache", []Intent{Symptom}, []Intent{Price}},
		{"side effects of ibuprofen", []Intent{Details, Medicine}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			d, err := c.Classify(context.Background(), tt.query)
			require.NoError(t, err)
			for _, i := range tt.want {
				assert.True(t, d.Has(i), "expected %s in %v", i, d.Intents)
			}
			for _, i := range tt.without {
				assert.False(t, d.Has(i), "unexpected %s in %v", i, d.Intents)
			}
		})
	}
}

func TestAlternativesSubject(t *testing.T) {
	c := NewRuleBasedClassifier(nil)
	d, err := c.Classify(context.Background(), "Suggest an alternative to Crocin 650?")
	require.NoError(t, err)
	assert.True(t, d.Has(Alternatives))
	assert.Equal(t, "Crocin 650", d.Subject)
}

func TestRulesExtendKeywords(t *testing.T) {
	c := NewRuleBasedClassifier([]config.IntentRule{{Intent: "price", Keywords: []string{"MRP"}}})
	d, _ := c.Classify(context.Background(), "what is the mrp of dolo")
	assert.True(t, d.Has(Price))
}

func TestDecisionOrderIsStable(t *testing.T) {
	c := NewRuleBasedClassifier(nil)
	d, _ := c.Classify(context.Background(), "I have fever, what is the price of the cheapest tablet with dosage details")
	assert.Equal(t, []Intent{Price, Symptom, Details, Medicine}, d.Intents)
}

func TestHTTPClassifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"intents":["alternatives","medicine"],"subject":"Dolo","confidence":0.9}`))
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, nil, nil)
	d, err := c.Classify(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "http", d.Source)
	assert.Equal(t, []Intent{Alternatives, Medicine}, d.Intents)
	assert.Equal(t, "Dolo", d.Subject)
	assert.InDelta(t, 0.9, d.Confidence, 1e-9)
}

func TestHTTPClassifierFallsBackToRules(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, nil, nil)
	d, err := c.Classify(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "rule", d.Source)
	assert.True(t, d.Has(Greeting))
}

func TestNewClassifier(t *testing.T) {
	_, ok := NewClassifier(config.IntentConfig{}, nil).(*RuleBasedClassifier)
	assert.True(t, ok)
	_, ok = NewClassifier(config.IntentConfig{Provider: "http", Endpoint: "http://x"}, nil).(*HTTPClassifier)
	assert.True(t, ok)
}

func TestSortIntentsByRank(t *testing.T) {
	in := []Intent{Medicine, Intent("custom"), Price, Greeting, Details}
	sortIntents(in)
	assert.Equal(t, []Intent{Greeting, Price, Details, Medicine, Intent("custom")}, in)
}
