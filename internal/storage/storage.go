// Package storage defines the persistence interface for collected
// documents, analysis results, and collection runs.
package storage

import (
	"context"
	"errors"

	"github.com/carebound/postop/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines persistence operations for the collection and
// analysis pipeline.
type Storage interface {
	// Document operations
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	// GetDocumentByHash looks up a document by content hash, used to
	// detect re-downloads of the same file from different URLs.
	GetDocumentByHash(ctx context.Context, contentHash string) (*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)

	// Analysis operations. SaveAnalysis replaces the result and its
	// tasks wholesale; re-analysis never leaves stale tasks behind.
	SaveAnalysis(ctx context.Context, result *models.AnalysisResult) error
	GetAnalysis(ctx context.Context, docID string) (*models.AnalysisResult, error)
	ListTasksByCategory(ctx context.Context, category string, limit int) ([]*models.Task, error)

	// Category operations. CreateCategory is idempotent; the registry
	// is append-only.
	CreateCategory(ctx context.Context, cat *models.Category) error
	ListCategories(ctx context.Context) ([]*models.Category, error)
	ReplaceProposals(ctx context.Context, proposals []*models.CategoryProposal) error
	ListProposals(ctx context.Context) ([]*models.CategoryProposal, error)

	// Collection run operations
	CreateRun(ctx context.Context, run *models.CollectionRun) error
	UpdateRun(ctx context.Context, run *models.CollectionRun) error
	GetRun(ctx context.Context, id string) (*models.CollectionRun, error)
	ListRuns(ctx context.Context, limit int) ([]*models.CollectionRun, error)

	// Stats
	CountDocuments(ctx context.Context) (int64, error)
	CountTasks(ctx context.Context) (int64, error)

	Close() error
}
