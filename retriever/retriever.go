package retriever

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medicare-ai/medassist/metrics"
	"github.com/medicare-ai/medassist/schema"
)

// ErrRetrievalEmpty is returned when a search found nothing relevant.
var ErrRetrievalEmpty = errors.New("no relevant chunks found")

// Retriever defines a unified search interface across different backends.
type Retriever interface {
	Type() string
	Search(ctx context.Context, query string, topK int) ([]schema.SearchResult, error)
}

// Store answers retrieve(query) with text chunks, most relevant first.
type Store struct {
	Retriever Retriever
	TopK      int
	// Reranker, when set, sees twice TopK candidates.
	Reranker Reranker
}

func NewStore(r Retriever, topK int) *Store {
	if topK <= 0 {
		topK = 5
	}
	return &Store{Retriever: r, TopK: topK}
}

// Retrieve returns the chunk texts for query, or ErrRetrievalEmpty.
func (s *Store) Retrieve(ctx context.Context, query string) ([]string, error) {
	if s == nil || s.Retriever == nil {
		return nil, ErrRetrievalEmpty
	}
	k := s.TopK
	if s.Reranker != nil {
		k *= 2
	}
	start := time.Now()
	results, err := s.Retriever.Search(ctx, query, k)
	metrics.ObserveRetriever(s.Retriever.Type(), start, len(results))
	if err != nil {
		return nil, fmt.Errorf("%s search failed, err: %w", s.Retriever.Type(), err)
	}
	if s.Reranker != nil {
		if results, err = s.Reranker.Rerank(ctx, query, results, s.TopK); err != nil {
			return nil, fmt.Errorf("rerank failed, err: %w", err)
		}
	}
	chunks := make([]string, 0, len(results))
	for _, c := range schema.Contents(results) {
		if c != "" {
			chunks = append(chunks, c)
		}
	}
	if len(chunks) == 0 {
		return nil, ErrRetrievalEmpty
	}
	return chunks, nil
}
