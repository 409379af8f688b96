package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore 内存实现，适用于开发测试或单机部署
type MemStore struct {
	mu       sync.RWMutex
	messages map[string][]Message // by user id, in save order
	now      func() time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{messages: make(map[string][]Message), now: time.Now}
}

func (s *MemStore) SaveMessage(ctx context.Context, msg Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.UserID] = append(s.messages[msg.UserID], msg)
	return nil
}

func (s *MemStore) History(ctx context.Context, userID, sessionID string, limit int) ([]Message, error) {
	limit = orDefault(limit, defaultHistoryLimit)
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.messages[userID]
	out := []Message{}
	if sessionID != "" {
		for _, m := range all {
			if m.SessionID == sessionID {
				out = append(out, m)
				if len(out) == limit {
					break
				}
			}
		}
		return out, nil
	}
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (s *MemStore) Sessions(ctx context.Context, userID string, limit int) ([]SessionSummary, error) {
	limit = orDefault(limit, defaultSessionsLimit)
	s.mu.RLock()
	byID := make(map[string]*SessionSummary)
	var order []string
	for _, m := range s.messages[userID] {
		sum, ok := byID[m.SessionID]
		if !ok {
			sum = &SessionSummary{SessionID: m.SessionID}
			byID[m.SessionID] = sum
			order = append(order, m.SessionID)
		}
		sum.MessageCount++
		if !m.Timestamp.Before(sum.LastMessage) {
			sum.LastMessage = m.Timestamp
		}
		if sum.FirstUserMessage == "" && m.Type == TypeUser {
			sum.FirstUserMessage = preview(m.Content)
		}
	}
	s.mu.RUnlock()

	out := make([]SessionSummary, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LastMessage.After(out[j].LastMessage) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) DeleteSession(ctx context.Context, userID, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.messages[userID]
	kept := all[:0]
	for _, m := range all {
		if m.SessionID != sessionID {
			kept = append(kept, m)
		}
	}
	deleted := len(kept) != len(all)
	s.messages[userID] = kept
	return deleted, nil
}

func (s *MemStore) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, userID)
	return nil
}
