package fusion

import (
	"context"
	"sort"

	"github.com/medicare-ai/medassist/schema"
)

// MaxScoreStrategy merges results by document ID, keeping the highest score
// for each document. Only meaningful when retrievers share a score scale.
type MaxScoreStrategy struct {
	TopK int
}

func NewMaxScoreStrategy(topK int) *MaxScoreStrategy {
	return &MaxScoreStrategy{TopK: topK}
}

func (s *MaxScoreStrategy) Fuse(ctx context.Context, inputs []RetrieverResult, params map[string]any) ([]schema.SearchResult, error) {
	if len(inputs) == 0 {
		return []schema.SearchResult{}, nil
	}
	topK := s.TopK
	if v := lookupInt(params, "top_k"); v > 0 {
		topK = v
	}

	scores := make(map[string]schema.SearchResult)
	for _, in := range inputs {
		for _, item := range in.Results {
			id := item.Document.ID
			if id == "" {
				continue
			}
			if item.Document.Metadata == nil {
				item.Document.Metadata = make(map[string]interface{})
			}
			item.Document.Metadata["retriever_type"] = in.Retriever
			if existing, ok := scores[id]; !ok || item.Score > existing.Score {
				scores[id] = item
			}
		}
	}

	out := make([]schema.SearchResult, 0, len(scores))
	for _, result := range scores {
		out = append(out, result)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Document.ID < out[j].Document.ID
	})
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (s *MaxScoreStrategy) Name() string { return "max" }

var _ Strategy = (*MaxScoreStrategy)(nil)
