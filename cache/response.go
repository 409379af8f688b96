package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/medicare-ai/medassist/metrics"
)

// ResponseCache maps a (query, context) pair to a final answer.
type ResponseCache struct {
	lru Cache
	ttl time.Duration
}

// NewResponseCache creates a bounded answer cache. ttl 0 disables expiry.
func NewResponseCache(capacity int, ttl time.Duration) *ResponseCache {
	return &ResponseCache{lru: NewLRU(capacity, ttl), ttl: ttl}
}

// Key derives the stable cache key. A missing context and an empty one
// produce the same key.
func Key(query, context string) string {
	query, context = strings.TrimSpace(query), strings.TrimSpace(context)
	h := sha1.New()
	fmt.Fprintf(h, "%d:%s|%d:%s", len(query), query, len(context), context)
	return hex.EncodeToString(h.Sum(nil))
}

func (r *ResponseCache) Get(query, context string) (string, bool) {
	v, ok := r.lru.Get(Key(query, context))
	metrics.IncCache(ok)
	if !ok {
		return "", false
	}
	answer, ok := v.(string)
	return answer, ok
}

func (r *ResponseCache) Set(query, context, answer string) {
	if strings.TrimSpace(answer) == "" {
		return
	}
	r.lru.Set(Key(query, context), answer, r.ttl)
}

func (r *ResponseCache) Len() int { return r.lru.Len() }

func (r *ResponseCache) Purge() { r.lru.Purge() }
