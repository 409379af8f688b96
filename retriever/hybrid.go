package retriever

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/medicare-ai/medassist/common/logger"
	"github.com/medicare-ai/medassist/fusion"
	"github.com/medicare-ai/medassist/metrics"
	"github.com/medicare-ai/medassist/schema"
)

// HybridRetriever queries several retrievers concurrently and fuses their
// rankings. A failing member is logged and left out.
type HybridRetriever struct {
	Members  []Retriever
	Strategy fusion.Strategy
}

func NewHybridRetriever(strategy fusion.Strategy, members ...Retriever) *HybridRetriever {
	if strategy == nil {
		strategy = fusion.NewRRFStrategy(60)
	}
	return &HybridRetriever{Members: members, Strategy: strategy}
}

func (h *HybridRetriever) Type() string { return "hybrid" }

func (h *HybridRetriever) Search(ctx context.Context, query string, topK int) ([]schema.SearchResult, error) {
	var (
		mu     sync.Mutex
		inputs []fusion.RetrieverResult
		errs   *multierror.Error
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, m := range h.Members {
		m := m
		g.Go(func() error {
			res, err := m.Search(gctx, query, topK)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warnf("hybrid: %s search failed: %v", m.Type(), err)
				errs = multierror.Append(errs, err)
				return nil
			}
			inputs = append(inputs, fusion.RetrieverResult{Query: query, Retriever: m.Type(), Results: res})
			return nil
		})
	}
	_ = g.Wait()

	if len(inputs) == 0 && errs.ErrorOrNil() != nil {
		return nil, errs
	}
	metrics.ObserveFusion(len(inputs))
	fused, err := h.Strategy.Fuse(ctx, inputs, map[string]any{"query": query})
	if err != nil {
		return nil, err
	}
	if topK > 0 && len(fused) > topK {
		fused = fused[:topK]
	}
	return fused, nil
}
