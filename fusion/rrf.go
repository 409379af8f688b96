package fusion

import (
	"context"
	"sort"

	"github.com/medicare-ai/medassist/schema"
)

// RRFScore computes Reciprocal Rank Fusion score across multiple ranked lists.
func RRFScore(lists [][]schema.SearchResult, k int) []schema.SearchResult {
	if k <= 0 {
		k = 60
	}
	type agg struct {
		doc   schema.Document
		score float64
		first int
	}
	scores := map[string]*agg{}
	order := 0

	for _, list := range lists {
		for idx, item := range list {
			id := item.Document.ID
			if id == "" {
				continue
			}
			a, ok := scores[id]
			if !ok {
				a = &agg{doc: item.Document, first: order}
				scores[id] = a
				order++
			}
			// RRF: 1 / (k + rank)
			a.score += 1.0 / (float64(k) + float64(idx+1))
		}
	}

	aggs := make([]*agg, 0, len(scores))
	for _, v := range scores {
		aggs = append(aggs, v)
	}
	sort.Slice(aggs, func(i, j int) bool {
		if aggs[i].score != aggs[j].score {
			return aggs[i].score > aggs[j].score
		}
		return aggs[i].first < aggs[j].first
	})
	out := make([]schema.SearchResult, 0, len(aggs))
	for _, a := range aggs {
		out = append(out, schema.SearchResult{Document: a.doc, Score: a.score})
	}
	return out
}

// RRFStrategy implements Reciprocal Rank Fusion.
type RRFStrategy struct {
	K int
}

func NewRRFStrategy(k int) *RRFStrategy {
	if k <= 0 {
		k = 60
	}
	return &RRFStrategy{K: k}
}

func (s *RRFStrategy) Fuse(ctx context.Context, inputs []RetrieverResult, params map[string]any) ([]schema.SearchResult, error) {
	lists := make([][]schema.SearchResult, 0, len(inputs))
	for _, in := range inputs {
		lists = append(lists, in.Results)
	}
	return RRFScore(lists, s.K), nil
}

func (s *RRFStrategy) Name() string { return "rrf" }

var _ Strategy = (*RRFStrategy)(nil)
