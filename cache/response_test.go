package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseCacheDeterminism(t *testing.T) {
	rc := NewResponseCache(10, 0)
	rc.Set("what is paracetamol", "", "a pain reliever")

	got, ok := rc.Get("what is paracetamol", "")
	assert.True(t, ok)
	assert.Equal(t, "a pain reliever", got)

	_, ok = rc.Get("what is paracetamol", "attached report text")
	assert.False(t, ok, "different context must miss")
}

func TestResponseCacheKeyNormalisation(t *testing.T) {
	assert.Equal(t, Key("hi", ""), Key("  hi ", "   "))
	assert.Len(t, Key("q", "c"), 40)
	assert.NotEqual(t, Key("a||", "b"), Key("a", "||b"))
}

func TestResponseCacheBounded(t *testing.T) {
	rc := NewResponseCache(5, 0)
	for i := 0; i < 5; i++ {
		rc.Set(fmt.Sprintf("q%d", i), "", "a")
	}
	// q0 is the least recently used entry until it is touched
	_, _ = rc.Get("q1", "")
	for k := 1; k <= 3; k++ {
		rc.Set(fmt.Sprintf("extra%d", k), "", "a")
	}
	assert.Equal(t, 5, rc.Len())
	_, ok := rc.Get("q0", "")
	assert.False(t, ok)
	_, ok = rc.Get("q1", "")
	assert.True(t, ok, "recently used entry must survive")
}

func TestResponseCacheIgnoresEmptyAnswer(t *testing.T) {
	rc := NewResponseCache(5, 0)
	rc.Set("q", "", "  ")
	assert.Equal(t, 0, rc.Len())
}
