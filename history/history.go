package history

import (
	"context"
	"time"
)

// Message types.
const (
	TypeUser = "user"
	TypeAI   = "ai"
)

const (
	defaultHistoryLimit  = 50
	defaultSessionsLimit = 20
	previewRunes         = 50
)

// Message is one persisted chat message.
type Message struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	SessionID string    `json:"session_id"`
	Type      string    `json:"message_type"`
	Content   string    `json:"message_content"`
	PDFCID    string    `json:"pdf_cid,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionSummary describes one conversation of a user.
type SessionSummary struct {
	SessionID        string    `json:"session_id"`
	LastMessage      time.Time `json:"last_message"`
	MessageCount     int       `json:"message_count"`
	FirstUserMessage string    `json:"first_user_message"`
}

// Store persists chat transcripts.
type Store interface {
	SaveMessage(ctx context.Context, msg Message) error
	// History returns the messages of sessionID oldest first, or the most
	// recent messages of every session newest first when sessionID is empty.
	History(ctx context.Context, userID, sessionID string, limit int) ([]Message, error)
	// Sessions lists the sessions of a user, most recently active first.
	Sessions(ctx context.Context, userID string, limit int) ([]SessionSummary, error)
	// DeleteSession reports whether anything was deleted.
	DeleteSession(ctx context.Context, userID, sessionID string) (bool, error)
	Clear(ctx context.Context, userID string) error
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= previewRunes {
		return s
	}
	return string(r[:previewRunes])
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
