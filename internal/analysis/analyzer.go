package analysis

import (
	"time"

	"github.com/carebound/postop/internal/models"
)

// Analyzer composes the normalizer, scorer, procedure categorizer, and task
// extractor into the per-document pipeline. Each stage is a pure function of
// its input; an Analyzer is safe for concurrent use once constructed.
type Analyzer struct {
	config      Config
	normalizer  *Normalizer
	scorer      *Scorer
	categorizer *Categorizer
	extractor   *Extractor
}

// NewAnalyzer creates an Analyzer from an immutable config.
func NewAnalyzer(config Config) *Analyzer {
	return &Analyzer{
		config:      config,
		normalizer:  NewNormalizer(config.MinTextLength),
		scorer:      NewScorer(config),
		categorizer: NewCategorizer(),
		extractor:   NewExtractor(NewPatternLibrary(), config),
	}
}

// Extractor returns the underlying task extractor.
func (a *Analyzer) Extractor() *Extractor {
	return a.extractor
}

// Config returns the analyzer's configuration.
func (a *Analyzer) Config() Config {
	return a.config
}

// Analyze runs the full pipeline over raw text. On ErrInsufficientContent or
// ErrMalformedInput the returned result is still non-nil with score 0, tier
// low, and no tasks, so callers can record the skip and move on; the error
// never aborts a batch.
func (a *Analyzer) Analyze(docID, raw string) (*models.AnalysisResult, []Residual, error) {
	norm, err := a.normalizer.Normalize(raw)
	if err != nil {
		return &models.AnalysisResult{
			DocumentID: docID,
			Quality:    models.QualityLow,
			Procedure:  ProcedureUnknown,
			AnalyzedAt: time.Now(),
		}, nil, err
	}

	score, tier := a.scorer.Score(norm)
	procedure, _ := a.categorizer.Categorize(norm)
	tasks, residuals := a.extractor.Extract(docID, norm)

	return &models.AnalysisResult{
		DocumentID:     docID,
		RelevanceScore: score,
		Quality:        tier,
		Procedure:      procedure,
		SentenceCount:  len(norm.Sentences),
		WordCount:      norm.WordCount(),
		Tasks:          tasks,
		AnalyzedAt:     time.Now(),
	}, residuals, nil
}
