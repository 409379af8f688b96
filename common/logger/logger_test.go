package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{" error ", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestFallbackDoesNotPanic(t *testing.T) {
	SetLevel(LevelDebug)
	defer SetLevel(LevelInfo)

	assert.NotPanics(t, func() {
		Debugf("debug %d", 1)
		Infof("info %s", "x")
		Warnf("warn")
		Errorf("error %v", nil)
		WithContext(map[string]interface{}{"b": 2, "a": 1}).Infof("with context")
	})
}

func TestWithContextPrefixIsSorted(t *testing.T) {
	c := WithContext(map[string]interface{}{"session": "s1", "provider": "groq"})
	assert.Equal(t, "provider=groq session=s1 ", c.prefix)
}
