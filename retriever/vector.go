package retriever

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"

	"github.com/medicare-ai/medassist/common/logger"
	"github.com/medicare-ai/medassist/schema"
)

// VectorRetriever implements Retriever over a chromem-go collection.
type VectorRetriever struct {
	db         *chromem.DB
	collection *chromem.Collection
	TopK       int
	// Threshold drops results with a lower cosine similarity.
	Threshold float64
}

// OpenVectorRetriever opens (or creates) the collection. An empty path keeps
// the index in memory; embed nil selects chromem's default embedder.
func OpenVectorRetriever(path, collection string, embed chromem.EmbeddingFunc) (*VectorRetriever, error) {
	var (
		db  *chromem.DB
		err error
	)
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("open vector index %s failed, err: %w", path, err)
		}
	}
	if collection == "" {
		collection = "medicines"
	}
	c, err := db.GetOrCreateCollection(collection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("open collection %s failed, err: %w", collection, err)
	}
	logger.Infof("vector index %q ready with %d documents", collection, c.Count())
	return &VectorRetriever{db: db, collection: c}, nil
}

func (r *VectorRetriever) Type() string { return "vector" }

// Count returns the number of indexed documents.
func (r *VectorRetriever) Count() int { return r.collection.Count() }

// Index embeds and stores docs.
func (r *VectorRetriever) Index(ctx context.Context, docs []schema.Document) error {
	if len(docs) == 0 {
		return nil
	}
	batch := make([]chromem.Document, 0, len(docs))
	for _, d := range docs {
		meta := make(map[string]string, len(d.Metadata))
		for k, v := range d.Metadata {
			meta[k] = fmt.Sprintf("%v", v)
		}
		batch = append(batch, chromem.Document{ID: d.ID, Content: d.Content, Metadata: meta})
	}
	if err := r.collection.AddDocuments(ctx, batch, runtime.NumCPU()); err != nil {
		return fmt.Errorf("index documents failed, err: %w", err)
	}
	return nil
}

func (r *VectorRetriever) Search(ctx context.Context, query string, topK int) ([]schema.SearchResult, error) {
	if topK <= 0 {
		if r.TopK > 0 {
			topK = r.TopK
		} else {
			topK = 10
		}
	}
	count := r.collection.Count()
	if count == 0 {
		return []schema.SearchResult{}, nil
	}
	if topK > count {
		topK = count
	}
	hits, err := r.collection.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, err
	}
	out := make([]schema.SearchResult, 0, len(hits))
	for _, h := range hits {
		if float64(h.Similarity) < r.Threshold {
			continue
		}
		meta := make(map[string]interface{}, len(h.Metadata))
		for k, v := range h.Metadata {
			meta[k] = v
		}
		out = append(out, schema.SearchResult{
			Document: schema.Document{ID: h.ID, Content: h.Content, Metadata: meta},
			Score:    float64(h.Similarity),
		})
	}
	return out, nil
}
