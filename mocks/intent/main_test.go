package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicare-ai/medassist/intent"
)

func TestClassifyHandler(t *testing.T) {
	h := classifyHandler(intent.NewRuleBasedClassifier(nil))

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/classify", strings.NewReader(`{"query":"hello"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	var d intent.Decision
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&d))
	assert.Equal(t, "mock", d.Source)
	assert.True(t, d.Has(intent.Greeting))

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/classify", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
