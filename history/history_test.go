package history

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicare-ai/medassist/config"
)

func seed(t *testing.T, s Store) {
	t.Helper()
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	msgs := []Message{
		{UserID: "u1", SessionID: "s1", Type: TypeUser, Content: "what is dolo"},
		{UserID: "u1", SessionID: "s1", Type: TypeAI, Content: "Dolo is paracetamol."},
		{UserID: "u1", SessionID: "s2", Type: TypeAI, Content: "welcome"},
		{UserID: "u1", SessionID: "s2", Type: TypeUser, Content: strings.Repeat("x", 80)},
		{UserID: "u2", SessionID: "s9", Type: TypeUser, Content: "other user"},
		{UserID: "u1", SessionID: "s1", Type: TypeUser, Content: "and its side effects?", PDFCID: "QmCID"},
	}
	for i, m := range msgs {
		m.Timestamp = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.SaveMessage(context.Background(), m))
	}
}

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()
	seed(t, s)

	hist, err := s.History(ctx, "u1", "s1", 0)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, "what is dolo", hist[0].Content)
	assert.Equal(t, "and its side effects?", hist[2].Content)
	assert.Equal(t, "QmCID", hist[2].PDFCID)
	assert.NotEmpty(t, hist[0].ID)

	recent, err := s.History(ctx, "u1", "", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "and its side effects?", recent[0].Content)

	sessions, err := s.Sessions(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "s1", sessions[0].SessionID)
	assert.Equal(t, 3, sessions[0].MessageCount)
	assert.Equal(t, "what is dolo", sessions[0].FirstUserMessage)
	assert.Equal(t, "s2", sessions[1].SessionID)
	assert.Equal(t, strings.Repeat("x", 50), sessions[1].FirstUserMessage)
	assert.True(t, sessions[0].LastMessage.After(sessions[1].LastMessage))

	ok, err := s.DeleteSession(ctx, "u1", "s2")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.DeleteSession(ctx, "u1", "s2")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Clear(ctx, "u1"))
	hist, err = s.History(ctx, "u1", "", 0)
	require.NoError(t, err)
	assert.Empty(t, hist)
	hist, err = s.History(ctx, "u2", "s9", 0)
	require.NoError(t, err)
	assert.Len(t, hist, 1)
}

func TestMemStore(t *testing.T) {
	exerciseStore(t, NewMemStore())
}

func TestGormStoreSQLite(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	s, err := Open(context.Background(), config.HistoryConfig{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), config.HistoryConfig{})
	require.NoError(t, err)
	assert.IsType(t, &MemStore{}, s)

	_, err = Open(context.Background(), config.HistoryConfig{Driver: "oracle", DSN: "x"})
	assert.Error(t, err)
	_, err = Open(context.Background(), config.HistoryConfig{Driver: "postgres"})
	assert.Error(t, err)
}
