// Package keyword provides keyword (BM25) search over collected documents.
package keyword

import (
	"context"

	"github.com/carebound/postop/internal/models"
)

// KeywordIndex defines keyword search operations.
type KeywordIndex interface {
	// Index adds or replaces a document in the index. procedure is the
	// classified procedure label, stored for filtered search.
	Index(ctx context.Context, doc *models.Document, procedure string) error
	Search(ctx context.Context, query *models.SearchQuery) ([]*KeywordResult, error)
	Delete(ctx context.Context, id string) error
	// DocCount returns the total number of documents in the index.
	DocCount() (uint64, error)
	Close() error
}

// KeywordResult is a single keyword search hit.
type KeywordResult struct {
	ID        string
	Score     float64
	Highlight string
}
