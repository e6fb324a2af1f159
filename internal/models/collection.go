package models

import (
	"fmt"
	"time"
)

// CollectionRequest configures one collection run.
type CollectionRequest struct {
	Queries       []string `json:"queries"`
	DirectURLs    []string `json:"direct_urls,omitempty"`
	MaxPDFs       int      `json:"max_pdfs,omitempty"`
	MinConfidence float64  `json:"min_confidence,omitempty"`
}

// Validate ensures the request has at least one source and sets defaults.
func (r *CollectionRequest) Validate() error {
	if len(r.Queries) == 0 && len(r.DirectURLs) == 0 {
		return fmt.Errorf("collection request needs at least one query or URL")
	}
	if r.MaxPDFs <= 0 {
		r.MaxPDFs = 100
	}
	if r.MinConfidence < 0 || r.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be within [0,1]")
	}
	return nil
}

// CollectionRun records one collection run and its outcome.
type CollectionRun struct {
	ID             string    `json:"id" db:"id"`
	Status         string    `json:"status" db:"status"`
	URLsDiscovered int       `json:"urls_discovered" db:"urls_discovered"`
	PDFsCollected  int       `json:"pdfs_collected" db:"pdfs_collected"`
	PDFsSkipped    int       `json:"pdfs_skipped" db:"pdfs_skipped"`
	Errors         []string  `json:"errors,omitempty" db:"-"`
	StartedAt      time.Time `json:"started_at" db:"started_at"`
	FinishedAt     time.Time `json:"finished_at,omitempty" db:"finished_at"`
}

// SuccessRate returns collected PDFs over discovered URLs.
func (r *CollectionRun) SuccessRate() float64 {
	if r.URLsDiscovered == 0 {
		return 0
	}
	return float64(r.PDFsCollected) / float64(r.URLsDiscovered)
}

// SearchQuery represents a content search request over collected documents.
type SearchQuery struct {
	Query     string  `json:"query"`
	Limit     int     `json:"limit,omitempty"`
	Procedure string  `json:"procedure,omitempty"`
	MinScore  float64 `json:"min_score,omitempty"`
}

// Validate ensures the search query has valid fields and sets defaults.
func (q *SearchQuery) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}

// SearchResult is one hit from a content search.
type SearchResult struct {
	Document  *Document       `json:"document"`
	Analysis  *AnalysisResult `json:"analysis,omitempty"`
	Score     float64         `json:"score"`
	Highlight string          `json:"highlight,omitempty"`
}
