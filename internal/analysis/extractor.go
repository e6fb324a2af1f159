package analysis

import (
	"strings"

	"github.com/carebound/postop/internal/models"
)

// Residual is a sentence no pattern class claimed but that still reads like a
// care instruction. Residuals feed corpus-level category discovery.
type Residual struct {
	DocumentID string
	Sentence   string
}

// Extractor turns normalized text into an ordered sequence of care tasks.
// Extraction is deterministic: patterns are applied in fixed priority order
// and a sentence is claimed by at most one category.
type Extractor struct {
	library *PatternLibrary
	config  Config
}

// NewExtractor creates an Extractor with the given pattern library.
func NewExtractor(library *PatternLibrary, config Config) *Extractor {
	return &Extractor{library: library, config: config}
}

// Library returns the extractor's pattern library.
func (e *Extractor) Library() *PatternLibrary {
	return e.library
}

// Extract walks the sentences of norm and emits one task per matched
// sentence. A matched description absorbs up to MaxNeighborSentences
// following sentences when they start with a continuation cue; absorbed
// sentences are not matched again. Unmatched sentences containing a care
// verb are returned as residuals. A document matching nothing yields zero
// tasks and is not an error.
func (e *Extractor) Extract(docID string, norm *Normalized) ([]*models.Task, []Residual) {
	if norm == nil || len(norm.Sentences) == 0 {
		return nil, nil
	}

	var tasks []*models.Task
	var residuals []Residual
	consumed := make([]bool, len(norm.Sentences))

	for i, sentence := range norm.Sentences {
		if consumed[i] {
			continue
		}
		category := e.library.Match(sentence)
		if category == "" {
			if careVerb.MatchString(sentence) {
				residuals = append(residuals, Residual{DocumentID: docID, Sentence: sentence})
			}
			continue
		}

		span := sentence
		absorbed := 0
		for j := i + 1; j < len(norm.Sentences) && absorbed < e.config.MaxNeighborSentences; j++ {
			if consumed[j] || !continuationCue.MatchString(norm.Sentences[j]) {
				break
			}
			span += " " + norm.Sentences[j]
			consumed[j] = true
			absorbed++
		}

		tasks = append(tasks, &models.Task{
			DocumentID:  docID,
			Category:    category,
			Description: span,
			Timing:      extractTiming(span),
			Importance:  inferImportance(span),
			Position:    i,
		})
	}
	return tasks, residuals
}

// extractTiming runs the secondary timing pass over a matched span and joins
// the distinct duration/frequency phrases found. An empty result means no
// timing was present, which is not an error.
func extractTiming(span string) string {
	var phrases []string
	seen := make(map[string]bool)
	for _, p := range timingPatterns {
		for _, m := range p.FindAllString(span, -1) {
			key := strings.ToLower(strings.Join(strings.Fields(m), " "))
			if seen[key] {
				continue
			}
			seen[key] = true
			phrases = append(phrases, key)
		}
	}
	return strings.Join(phrases, "; ")
}

// inferImportance maps importance cue hits to a level; medium when nothing
// matches.
func inferImportance(span string) models.Importance {
	for _, cue := range importanceCues {
		for _, p := range cue.patterns {
			if p.MatchString(span) {
				switch cue.level {
				case "critical":
					return models.ImportanceCritical
				case "high":
					return models.ImportanceHigh
				case "low":
					return models.ImportanceLow
				}
			}
		}
	}
	return models.ImportanceMedium
}
