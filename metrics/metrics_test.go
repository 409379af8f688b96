package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(cacheLookups.WithLabelValues("hit"))
	IncCache(true)
	assert.Equal(t, before+1, testutil.ToFloat64(cacheLookups.WithLabelValues("hit")))

	beforeErr := testutil.ToFloat64(providerCalls.WithLabelValues("groq", "error"))
	ObserveProvider("groq", time.Now(), errors.New("boom"))
	assert.Equal(t, beforeErr+1, testutil.ToFloat64(providerCalls.WithLabelValues("groq", "error")))

	IncFallback("menu")
	assert.GreaterOrEqual(t, testutil.ToFloat64(fallbackLayer.WithLabelValues("menu")), 1.0)
}

func TestChatMetricsFinish(t *testing.T) {
	m := NewChatMetrics("q1", "s1", "hello")
	m.AddAttempt("groq")
	m.AddAttempt("openrouter")
	m.Finish(errors.New("all failed"))

	assert.False(t, m.Success)
	assert.Equal(t, "all failed", m.ErrorMsg)
	assert.Equal(t, []string{"groq", "openrouter"}, m.ProviderAttempts)
	assert.NotPanics(t, m.Log)
}

func TestCollectors(t *testing.T) {
	assert.Len(t, Collectors(), 11)
}
