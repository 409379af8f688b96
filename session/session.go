package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/medicare-ai/medassist/config"
)

// Document is the text of a report attached to a conversation.
type Document struct {
	CID      string `json:"cid,omitempty"`
	Filename string `json:"filename,omitempty"`
	Text     string `json:"text"`
}

// Context is what the assistant remembers about one conversation between
// turns.
type Context struct {
	LastMedicine string    `json:"last_medicine,omitempty"`
	Document     *Document `json:"document,omitempty"`
}

// HasDocument reports whether a document with text is attached.
func (c Context) HasDocument() bool {
	return c.Document != nil && strings.TrimSpace(c.Document.Text) != ""
}

// Store keeps per-session conversation context. Implementations bound
// memory and expire idle sessions.
type Store interface {
	Get(ctx context.Context, sessionID string) (Context, error)
	SetLastMedicine(ctx context.Context, sessionID, medicine string) error
	SetDocument(ctx context.Context, sessionID string, doc Document) error
	ClearDocument(ctx context.Context, sessionID string) error
}

// NewStore builds the store selected by cfg.Store.
func NewStore(cfg config.SessionConfig) (Store, error) {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	switch strings.ToLower(cfg.Store) {
	case "", "memory":
		return NewMemStore(cfg.Capacity, ttl), nil
	case "redis":
		return NewRedisStore(cfg.Redis, ttl)
	default:
		return nil, fmt.Errorf("unsupported session store %q", cfg.Store)
	}
}

// NewID returns a session id of the form session_YYYYmmdd_HHMMSS_user.
func NewID(userID string, now time.Time) string {
	return fmt.Sprintf("session_%s_%s", now.Format("20060102_150405"), userID)
}
