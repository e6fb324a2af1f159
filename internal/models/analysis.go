package models

import "time"

// QualityTier is a coarse quality bucket derived from the relevance score.
type QualityTier string

const (
	QualityHigh   QualityTier = "high"
	QualityMedium QualityTier = "medium"
	QualityLow    QualityTier = "low"
)

// Importance is the inferred importance level of a care task.
type Importance string

const (
	ImportanceCritical Importance = "critical"
	ImportanceHigh     Importance = "high"
	ImportanceMedium   Importance = "medium"
	ImportanceLow      Importance = "low"
)

// AnalysisResult holds the derived analysis for one document. It is
// one-to-one with Document and replaced wholesale on re-analysis.
type AnalysisResult struct {
	DocumentID     string      `json:"document_id" db:"document_id"`
	RelevanceScore float64     `json:"relevance_score" db:"relevance_score"`
	Quality        QualityTier `json:"quality" db:"quality"`
	Procedure      string      `json:"procedure,omitempty" db:"procedure"`
	SentenceCount  int         `json:"sentence_count" db:"sentence_count"`
	WordCount      int         `json:"word_count" db:"word_count"`
	Tasks          []*Task     `json:"tasks,omitempty" db:"-"`
	AnalyzedAt     time.Time   `json:"analyzed_at" db:"analyzed_at"`
}

// Task is one extracted care instruction. Tasks are created during
// extraction and never mutated; many tasks belong to one document.
type Task struct {
	ID          string     `json:"id" db:"id"`
	DocumentID  string     `json:"document_id" db:"document_id"`
	Category    string     `json:"category" db:"category"`
	Description string     `json:"description" db:"description"`
	Timing      string     `json:"timing,omitempty" db:"timing"`
	Importance  Importance `json:"importance" db:"importance"`
	Position    int        `json:"position" db:"position"`
}

// Category is a label for a class of care instruction. Predefined
// categories are known at build time; discovered ones carry provenance.
type Category struct {
	Name            string    `json:"name" db:"name"`
	Discovered      bool      `json:"discovered" db:"discovered"`
	FirstDocumentID string    `json:"first_document_id,omitempty" db:"first_document_id"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// CategoryProposal is a candidate category produced by corpus-level
// discovery over sentences no pattern matched. Proposals are surfaced
// for review and never relabel already-emitted tasks.
type CategoryProposal struct {
	Name            string    `json:"name" db:"name"`
	Examples        []string  `json:"examples" db:"-"`
	DocumentCount   int       `json:"document_count" db:"document_count"`
	SentenceCount   int       `json:"sentence_count" db:"sentence_count"`
	FirstDocumentID string    `json:"first_document_id" db:"first_document_id"`
	ProposedAt      time.Time `json:"proposed_at" db:"proposed_at"`
}
