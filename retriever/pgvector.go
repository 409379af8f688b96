package retriever

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/medicare-ai/medassist/llm"
	"github.com/medicare-ai/medassist/schema"
)

// PgVectorRetriever searches a Postgres table with a pgvector column.
//
//	CREATE TABLE medicine_embeddings (
//	    id        TEXT PRIMARY KEY,
//	    content   TEXT NOT NULL,
//	    embedding vector NOT NULL
//	);
type PgVectorRetriever struct {
	pool  *pgxpool.Pool
	table string
	embed llm.Embedder
}

// NewPool connects to databaseURL.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse db config failed, err: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db failed, err: %w", err)
	}
	return pool, nil
}

func NewPgVectorRetriever(pool *pgxpool.Pool, table string, embed llm.Embedder) (*PgVectorRetriever, error) {
	if pool == nil {
		return nil, errors.New("pgvector retriever requires a connection pool")
	}
	if embed == nil {
		return nil, errors.New("pgvector retriever requires an embedder")
	}
	if table == "" {
		table = "medicine_embeddings"
	}
	return &PgVectorRetriever{pool: pool, table: table, embed: embed}, nil
}

func (r *PgVectorRetriever) Type() string { return "pgvector" }

func (r *PgVectorRetriever) ident() string {
	return pgx.Identifier{r.table}.Sanitize()
}

// EnsureSchema creates the extension and table when missing.
func (r *PgVectorRetriever) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (id TEXT PRIMARY KEY, content TEXT NOT NULL, embedding vector NOT NULL)`, r.ident()),
	}
	for _, s := range stmts {
		if _, err := r.pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("ensure pgvector schema failed, err: %w", err)
		}
	}
	return nil
}

// Index embeds docs and upserts them.
func (r *PgVectorRetriever) Index(ctx context.Context, docs []schema.Document) error {
	q := fmt.Sprintf(`INSERT INTO %s (id, content, embedding) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET content = EXCLUDED.content, embedding = EXCLUDED.embedding`, r.ident())
	for _, d := range docs {
		vec, err := r.embed.Embed(ctx, d.Content)
		if err != nil {
			return fmt.Errorf("embed %s failed, err: %w", d.ID, err)
		}
		if _, err := r.pool.Exec(ctx, q, d.ID, d.Content, pgvector.NewVector(vec)); err != nil {
			return fmt.Errorf("insert %s failed, err: %w", d.ID, err)
		}
	}
	return nil
}

func (r *PgVectorRetriever) Search(ctx context.Context, query string, topK int) ([]schema.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	vec, err := r.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query failed, err: %w", err)
	}
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, content, 1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`, r.ident()), pgvector.NewVector(vec), topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schema.SearchResult
	for rows.Next() {
		var (
			d     schema.Document
			score float64
		)
		if err := rows.Scan(&d.ID, &d.Content, &score); err != nil {
			return nil, err
		}
		out = append(out, schema.SearchResult{Document: d, Score: score})
	}
	return out, rows.Err()
}
