package retriever

import (
	"context"
	"sort"
	"strings"

	"github.com/medicare-ai/medassist/common/logger"
	"github.com/medicare-ai/medassist/schema"
)

// Reranker reorders candidates for query and keeps at most topN.
type Reranker interface {
	Rerank(ctx context.Context, query string, in []schema.SearchResult, topN int) ([]schema.SearchResult, error)
}

// TermReranker boosts candidates that contain the query terms, early and
// often. The original score keeps BaseWeight of its value.
type TermReranker struct {
	MinTermLength int     // default 3
	BaseWeight    float64 // default 0.5
}

func (k *TermReranker) Rerank(ctx context.Context, query string, in []schema.SearchResult, topN int) ([]schema.SearchResult, error) {
	minLen := k.MinTermLength
	if minLen == 0 {
		minLen = 3
	}
	base := k.BaseWeight
	if base == 0 {
		base = 0.5
	}

	var terms []string
	for _, w := range tokenize(query) {
		if len(w) > minLen {
			terms = append(terms, w)
		}
	}

	scored := make([]schema.SearchResult, 0, len(in))
	for _, r := range in {
		text := strings.ToLower(r.Document.Content)
		bonus := 0.0
		for _, t := range terms {
			first := strings.Index(text, t)
			if first < 0 {
				continue
			}
			bonus += 0.1
			if first < len(text)/4 {
				bonus += 0.1
			}
			if f := 0.05 * float64(strings.Count(text, t)); f < 0.2 {
				bonus += f
			} else {
				bonus += 0.2
			}
		}
		r.Score = r.Score*base + bonus
		scored = append(scored, r)
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if topN > 0 && len(scored) > topN {
		scored = scored[:topN]
	}
	logger.Debugf("rerank: %d terms, kept %d of %d candidates", len(terms), len(scored), len(in))
	return scored, nil
}
