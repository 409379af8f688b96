package session

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultCapacity = 10000

// MemStore keeps contexts in a size bounded LRU whose entries expire ttl
// after their last write.
type MemStore struct {
	mu  sync.Mutex
	lru *expirable.LRU[string, Context]
}

func NewMemStore(capacity int, ttl time.Duration) *MemStore {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &MemStore{lru: expirable.NewLRU[string, Context](capacity, nil, ttl)}
}

func (m *MemStore) Get(ctx context.Context, sessionID string) (Context, error) {
	c, _ := m.lru.Get(sessionID)
	return c, nil
}

func (m *MemStore) update(sessionID string, fn func(*Context)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, _ := m.lru.Get(sessionID)
	fn(&c)
	m.lru.Add(sessionID, c)
}

func (m *MemStore) SetLastMedicine(ctx context.Context, sessionID, medicine string) error {
	m.update(sessionID, func(c *Context) { c.LastMedicine = medicine })
	return nil
}

func (m *MemStore) SetDocument(ctx context.Context, sessionID string, doc Document) error {
	m.update(sessionID, func(c *Context) { c.Document = &doc })
	return nil
}

func (m *MemStore) ClearDocument(ctx context.Context, sessionID string) error {
	m.update(sessionID, func(c *Context) { c.Document = nil })
	return nil
}

// Len returns the number of live sessions.
func (m *MemStore) Len() int { return m.lru.Len() }
