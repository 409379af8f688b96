package schema

// Document is one retrievable chunk of text.
type Document struct {
	ID       string                 `json:"id"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// SearchResult is a document with its retrieval score, higher is better.
type SearchResult struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}

// Contents returns the text of results in order.
func Contents(results []SearchResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Document.Content)
	}
	return out
}
