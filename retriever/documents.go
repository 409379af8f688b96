package retriever

import (
	"fmt"

	"github.com/medicare-ai/medassist/dataset"
	"github.com/medicare-ai/medassist/schema"
)

// DatasetDocuments turns each dataset row into one indexable document.
func DatasetDocuments(d *dataset.Dataset) []schema.Document {
	if d == nil {
		return nil
	}
	docs := make([]schema.Document, 0, d.Len())
	for i, r := range d.Records {
		docs = append(docs, schema.Document{
			ID:      fmt.Sprintf("med-%d", i),
			Content: r.Text(),
			Metadata: map[string]interface{}{
				"generic_name": r.GenericName,
				"brand_name":   r.BrandName,
				"row":          i,
			},
		})
	}
	return docs
}
