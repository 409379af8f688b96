package medassist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/medicare-ai/medassist/cache"
	"github.com/medicare-ai/medassist/common/httpx"
	"github.com/medicare-ai/medassist/common/logger"
	"github.com/medicare-ai/medassist/config"
	"github.com/medicare-ai/medassist/dataset"
	"github.com/medicare-ai/medassist/detector"
	"github.com/medicare-ai/medassist/document"
	"github.com/medicare-ai/medassist/fallback"
	"github.com/medicare-ai/medassist/fusion"
	"github.com/medicare-ai/medassist/history"
	"github.com/medicare-ai/medassist/intent"
	"github.com/medicare-ai/medassist/llm"
	"github.com/medicare-ai/medassist/orchestrator"
	"github.com/medicare-ai/medassist/pipeline"
	"github.com/medicare-ai/medassist/provider"
	"github.com/medicare-ai/medassist/ratelimit"
	"github.com/medicare-ai/medassist/relevance"
	"github.com/medicare-ai/medassist/retriever"
	"github.com/medicare-ai/medassist/schema"
	"github.com/medicare-ai/medassist/session"
)

// indexer is implemented by retrievers whose index can be (re)built.
type indexer interface {
	Index(ctx context.Context, docs []schema.Document) error
}

type schemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

// Assistant owns every component of the chat core.
type Assistant struct {
	cfg          *config.Config
	Dataset      *dataset.Dataset
	Registry     *provider.Registry
	Pipeline     *pipeline.Pipeline
	Orchestrator *orchestrator.Orchestrator

	datasetErr error
	retriever  retriever.Retriever
	index      indexer
	closers    []func() error
}

// NewAssistant wires the components described by cfg. A missing dataset or
// vector index degrades retrieval instead of failing.
func NewAssistant(ctx context.Context, cfg *config.Config) (*Assistant, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Assistant{cfg: cfg}

	data, err := dataset.LoadCSV(cfg.Dataset.Path)
	if err != nil {
		logger.Warnf("dataset %s unavailable, continuing without it: %v", cfg.Dataset.Path, err)
		a.datasetErr = err
		data = dataset.New(nil)
	} else {
		logger.Infof("loaded %d medicine records from %s", data.Len(), cfg.Dataset.Path)
	}
	a.Dataset = data

	providers := a.buildProviders(ctx)

	embed, err := llm.NewEmbedder(ctx, cfg.Embedding)
	if err != nil {
		logger.Warnf("embedder unavailable: %v", err)
	}
	if err := a.buildRetriever(ctx, embed); err != nil {
		a.Close()
		return nil, err
	}

	a.Pipeline = pipeline.New(pipeline.Options{
		Generator:  providers[cfg.Pipeline.Generator],
		Dataset:    data,
		Retriever:  a.store(),
		Classifier: intent.NewClassifier(cfg.Intent, cfg.HTTP),
		Budget:     retriever.Budget{Limit: cfg.Retrieval.Budget, Unit: cfg.Retrieval.BudgetUnit},
		MaxTokens:  cfg.Pipeline.MaxTokens,
		Currency:   cfg.Pipeline.Currency,
	})
	a.Registry = a.buildRegistry(providers)

	sessions, err := session.NewStore(cfg.Session)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create session store failed, err: %w", err)
	}
	if c, ok := sessions.(interface{ Close() error }); ok {
		a.closers = append(a.closers, c.Close)
	}
	transcripts, err := history.Open(ctx, cfg.History)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create history store failed, err: %w", err)
	}
	if c, ok := transcripts.(interface{ Close() error }); ok {
		a.closers = append(a.closers, c.Close)
	}

	extra := cfg.Detector.ExtraNames
	if cfg.Detector.IncludeDatasetNames {
		extra = append(append([]string{}, extra...), data.Names()...)
	}

	a.Orchestrator = &orchestrator.Orchestrator{
		Registry:      a.Registry,
		Pipeline:      a.Pipeline,
		Fallback:      fallback.New(a.Registry, cfg.Pipeline.MaxTokens),
		Cache:         cache.NewResponseCache(cfg.Cache.Capacity, time.Duration(cfg.Cache.TTLSeconds)*time.Second),
		Sessions:      sessions,
		History:       transcripts,
		Detector:      detector.New(extra...),
		Documents:     document.NewFetcher(cfg.Document, httpx.NewFromConfig(cfg.HTTP)),
		MaxTokens:     cfg.Pipeline.MaxTokens,
		SummaryChars:  cfg.Document.SummaryChars,
		HistoryLimit:  cfg.History.HistoryLimit,
		SessionsLimit: cfg.History.SessionsLimit,
	}
	return a, nil
}

func (a *Assistant) buildProviders(ctx context.Context) map[string]llm.Provider {
	out := make(map[string]llm.Provider, len(a.cfg.Providers))
	for _, pc := range a.cfg.Providers {
		if pc.Disabled || !pc.KeyUsable() {
			logger.Warnf("provider %s disabled: key=%s", pc.Name, pc.MaskedKey())
			continue
		}
		p, err := llm.NewProvider(ctx, pc)
		if err != nil {
			logger.Warnf("provider %s disabled: %v", pc.Name, err)
			continue
		}
		logger.Infof("provider %s enabled (%s, key=%s)", pc.Name, pc.Model, pc.MaskedKey())
		out[pc.Name] = p
	}
	return out
}

var errProviderDisabled = errors.New("provider not configured")

func (a *Assistant) buildRegistry(providers map[string]llm.Provider) *provider.Registry {
	reg := provider.NewRegistry(
		provider.WithMaxErrors(a.cfg.Registry.MaxErrors),
		provider.WithRecoveryAfter(time.Duration(a.cfg.Registry.RecoveryAfterSeconds)*time.Second),
	)
	for _, pc := range a.cfg.Providers {
		limiter := ratelimit.New(pc.RateLimit.MaxRequests, time.Duration(pc.RateLimit.WindowSeconds)*time.Second)
		p, ok := providers[pc.Name]
		if !ok {
			reg.Register(pc.Name, false, limiter, provider.CallerFunc(func(context.Context, string, int) (string, error) {
				return "", errProviderDisabled
			}))
			continue
		}
		var caller provider.Caller
		if pc.Prompt == "rag" {
			caller = &pipeline.EnhancedCaller{
				Pipeline:   a.Pipeline,
				Provider:   p,
				Evaluator:  relevance.New(a.cfg.Pipeline.Relevance, p),
				ShortReply: a.cfg.Pipeline.ShortReply,
			}
		} else {
			caller = &provider.LLMCaller{Provider: p, Prompt: pipeline.PlainPrompt}
		}
		reg.Register(pc.Name, true, limiter, caller)
	}
	return reg
}

func (a *Assistant) buildRetriever(ctx context.Context, embed llm.Embedder) error {
	rc := a.cfg.Retrieval
	docs := retriever.DatasetDocuments(a.Dataset)

	openVector := func() (*retriever.VectorRetriever, error) {
		var fn func(context.Context, string) ([]float32, error)
		if embed != nil {
			fn = llm.EmbeddingFunc(embed)
		}
		return retriever.OpenVectorRetriever(rc.IndexPath, rc.Collection, fn)
	}

	switch strings.ToLower(rc.Provider) {
	case "keyword":
		a.retriever = retriever.NewKeywordRetriever(docs)
	case "pgvector":
		if embed == nil {
			return errors.New("pgvector retrieval needs an embedding provider")
		}
		pool, err := retriever.NewPool(ctx, rc.DatabaseURL)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		r, err := retriever.NewPgVectorRetriever(pool, rc.Table, embed)
		if err != nil {
			return err
		}
		a.retriever, a.index = r, r
	case "hybrid":
		keyword := retriever.NewKeywordRetriever(docs)
		vec, err := openVector()
		if err != nil {
			logger.Warnf("vector index unavailable, hybrid retrieval uses keywords only: %v", err)
			a.retriever = keyword
			return nil
		}
		strategy, _, err := fusion.NewStrategy("rrf", map[string]any{"k": rc.RRFK})
		if err != nil {
			return err
		}
		a.retriever = retriever.NewHybridRetriever(strategy, vec, keyword)
		a.index = vec
	default:
		vec, err := openVector()
		if err != nil {
			logger.Warnf("vector index unavailable, falling back to keyword retrieval: %v", err)
			a.retriever = retriever.NewKeywordRetriever(docs)
			return nil
		}
		a.retriever, a.index = vec, vec
	}
	return nil
}

func (a *Assistant) store() *retriever.Store {
	s := retriever.NewStore(a.retriever, a.cfg.Retrieval.TopK)
	if a.cfg.Retrieval.Rerank {
		s.Reranker = &retriever.TermReranker{}
	}
	return s
}

// Index embeds the dataset into the configured vector store.
func (a *Assistant) Index(ctx context.Context) (int, error) {
	if a.index == nil {
		return 0, fmt.Errorf("retrieval provider %q has no vector index", a.cfg.Retrieval.Provider)
	}
	if a.Dataset.Len() == 0 {
		return 0, fmt.Errorf("dataset %s is empty or missing", a.cfg.Dataset.Path)
	}
	if s, ok := a.index.(schemaEnsurer); ok {
		if err := s.EnsureSchema(ctx); err != nil {
			return 0, err
		}
	}
	docs := retriever.DatasetDocuments(a.Dataset)
	if err := a.index.Index(ctx, docs); err != nil {
		return 0, fmt.Errorf("index dataset failed, err: %w", err)
	}
	return len(docs), nil
}

// Close releases pools and clients.
func (a *Assistant) Close() error {
	var errs *multierror.Error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	a.closers = nil
	return errs.ErrorOrNil()
}

// KeyStatus describes one provider credential.
type KeyStatus struct {
	Enabled bool   `json:"enabled"`
	Status  string `json:"status"` // configured | not_configured | disabled
	Key     string `json:"key"`
}

// SystemStatus is the health report of the assistant.
type SystemStatus struct {
	Overall        string               `json:"overall"` // operational | degraded
	Version        string               `json:"version"`
	Keys           map[string]KeyStatus `json:"keys"`
	Providers      []provider.Status    `json:"providers"`
	DatasetPath    string               `json:"csv_path"`
	DatasetExists  bool                 `json:"csv_exists"`
	DatasetRows    int                  `json:"csv_rows"`
	DatasetError   string               `json:"csv_error,omitempty"`
	IndexPath      string               `json:"index_path,omitempty"`
	IndexExists    bool                 `json:"index_exists"`
	Retrieval      string               `json:"retrieval"`
	RAGInitialized bool                 `json:"rag_initialized"`
	CacheEntries   int                  `json:"cache_entries"`
}

// Status reports credentials, provider breaker state and data readiness.
// The assistant is operational when at least one registered provider is
// enabled.
func (a *Assistant) Status() SystemStatus {
	st := SystemStatus{
		Overall:        "degraded",
		Version:        Version,
		Keys:           make(map[string]KeyStatus, len(a.cfg.Providers)),
		Providers:      a.Registry.Snapshot(),
		DatasetPath:    a.cfg.Dataset.Path,
		DatasetExists:  fileExists(a.cfg.Dataset.Path),
		DatasetRows:    a.Dataset.Len(),
		IndexPath:      a.cfg.Retrieval.IndexPath,
		IndexExists:    fileExists(a.cfg.Retrieval.IndexPath),
		RAGInitialized: a.Pipeline != nil && a.Dataset.Len() > 0,
		CacheEntries:   a.Orchestrator.Cache.Len(),
	}
	if a.retriever != nil {
		st.Retrieval = a.retriever.Type()
	}
	if a.datasetErr != nil {
		st.DatasetError = a.datasetErr.Error()
	}
	for _, pc := range a.cfg.Providers {
		ks := KeyStatus{Status: "not_configured", Key: pc.MaskedKey()}
		switch {
		case pc.Disabled:
			ks.Status = "disabled"
		case pc.KeyUsable():
			ks.Enabled, ks.Status = true, "configured"
		}
		st.Keys[pc.Name] = ks
	}
	for _, p := range st.Providers {
		if p.Enabled {
			st.Overall = "operational"
			break
		}
	}
	return st
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// Config returns the configuration the assistant was built with.
func (a *Assistant) Config() *config.Config { return a.cfg }
