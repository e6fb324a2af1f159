// Package analysis implements the relevance scoring, procedure categorization,
// care-task extraction, and category discovery pipeline for post-operative
// instruction documents.
package analysis

// Config holds the tunable thresholds for the analysis pipeline. A Config is
// constructed once and passed into each stage; stages never mutate it.
type Config struct {
	// MinTextLength is the minimum normalized text length (in bytes) a
	// document needs before it is considered analyzable.
	MinTextLength int

	// HighQualityScore is the relevance score at or above which a document
	// is rated high quality.
	HighQualityScore float64

	// MediumQualityScore is the relevance score at or above which a document
	// is rated medium quality.
	MediumQualityScore float64

	// MaxNeighborSentences is how many trailing sentences a matched task
	// description may absorb when they carry a continuation cue.
	MaxNeighborSentences int

	// SimilarityThreshold is the minimum token-set Jaccard similarity for a
	// residual sentence to join an existing discovery cluster.
	SimilarityThreshold float64

	// MinDocumentFraction is the fraction of corpus documents a discovery
	// cluster must span before a category is proposed.
	MinDocumentFraction float64

	// MaxProposalExamples caps the example sentences kept per proposal.
	MaxProposalExamples int
}

// DefaultConfig returns the default analysis configuration.
func DefaultConfig() Config {
	return Config{
		MinTextLength:        200,
		HighQualityScore:     0.8,
		MediumQualityScore:   0.5,
		MaxNeighborSentences: 2,
		SimilarityThreshold:  0.4,
		MinDocumentFraction:  0.05,
		MaxProposalExamples:  5,
	}
}
