package retriever

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/medicare-ai/medassist/schema"
)

const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// KeywordRetriever ranks documents in memory with Okapi BM25. It needs no
// embedding credentials and backs the hybrid retriever.
type KeywordRetriever struct {
	docs    []schema.Document
	terms   []map[string]int
	lengths []int
	df      map[string]int
	avgLen  float64
	MaxTopK int
}

func NewKeywordRetriever(docs []schema.Document) *KeywordRetriever {
	r := &KeywordRetriever{
		docs:    docs,
		terms:   make([]map[string]int, len(docs)),
		lengths: make([]int, len(docs)),
		df:      make(map[string]int),
	}
	total := 0
	for i, d := range docs {
		tf := make(map[string]int)
		toks := tokenize(d.Content)
		for _, t := range toks {
			tf[t]++
		}
		for t := range tf {
			r.df[t]++
		}
		r.terms[i] = tf
		r.lengths[i] = len(toks)
		total += len(toks)
	}
	if len(docs) > 0 {
		r.avgLen = float64(total) / float64(len(docs))
	}
	return r
}

func (r *KeywordRetriever) Type() string { return "keyword" }

func (r *KeywordRetriever) Search(ctx context.Context, query string, topK int) ([]schema.SearchResult, error) {
	if topK <= 0 {
		topK = 10
	}
	if r.MaxTopK > 0 && r.MaxTopK < topK {
		topK = r.MaxTopK
	}
	qterms := tokenize(query)
	if len(qterms) == 0 || len(r.docs) == 0 {
		return []schema.SearchResult{}, nil
	}

	n := float64(len(r.docs))
	var out []schema.SearchResult
	for i, tf := range r.terms {
		score := 0.0
		for _, q := range qterms {
			f := float64(tf[q])
			if f == 0 {
				continue
			}
			df := float64(r.df[q])
			idf := math.Log(1 + (n-df+0.5)/(df+0.5))
			norm := 1 - bm25B + bm25B*float64(r.lengths[i])/r.avgLen
			score += idf * f * (bm25K1 + 1) / (f + bm25K1*norm)
		}
		if score > 0 {
			out = append(out, schema.SearchResult{Document: r.docs[i], Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

var stopTerms = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "of": true,
	"to": true, "in": true, "for": true, "and": true, "or": true, "what": true,
	"which": true, "how": true, "me": true, "about": true, "tell": true,
	"it": true, "does": true, "do": true, "can": true, "i": true,
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if !stopTerms[f] {
			out = append(out, f)
		}
	}
	return out
}
