package analysis

import (
	"regexp"
	"strings"

	"github.com/carebound/postop/internal/models"
)

// Scorer computes a [0,1] relevance score and a quality tier for normalized
// text. The score is a weighted sum of keyword-hit components, structural
// markers, and a length factor; keyword components dominate so that a
// document with zero keyword hits can never reach the medium tier.
type Scorer struct {
	config Config
}

// NewScorer creates a Scorer with the given config.
func NewScorer(config Config) *Scorer {
	return &Scorer{config: config}
}

// Component weights. Keyword components account for 0.9 of the maximum
// score; length and structure alone top out at 0.1 + 0.05.
const (
	primaryWeight    = 0.4
	secondaryWeight  = 0.3
	procedureWeight  = 0.2
	lengthWeight     = 0.1
	structureBonus   = 0.05
	perPrimaryHit    = 0.1
	perSecondaryHit  = 0.05
	perProcedureHit  = 0.1
)

var (
	numberedListMarker = regexp.MustCompile(`(?m)(^|\s)\d{1,2}[.)]\s`)
	dayMarker          = regexp.MustCompile(`(?i)\b(day|week)\s+\d+\b`)
)

// Score returns the relevance score and quality tier for norm. An empty or
// nil input scores 0 with tier low.
func (s *Scorer) Score(norm *Normalized) (float64, models.QualityTier) {
	if norm == nil || norm.Lower == "" {
		return 0, models.QualityLow
	}

	score := 0.0
	hits := 0

	if c := countKeywordHits(norm.Lower, primaryKeywords); c > 0 {
		hits += c
		score += clampF(float64(c)*perPrimaryHit, primaryWeight)
	}
	if c := countKeywordHits(norm.Lower, secondaryKeywords); c > 0 {
		hits += c
		score += clampF(float64(c)*perSecondaryHit, secondaryWeight)
	}
	if c := countKeywordHits(norm.Lower, procedureKeywords); c > 0 {
		hits += c
		score += clampF(float64(c)*perProcedureHit, procedureWeight)
	}

	// Length factor against the expected range for patient handouts.
	words := norm.WordCount()
	switch {
	case words > 500:
		score += lengthWeight
	case words > 200:
		score += lengthWeight / 2
	}

	// Structural markers: numbered lists and "Day X" timeline headings.
	if hits > 0 && (numberedListMarker.MatchString(norm.Text) || dayMarker.MatchString(norm.Text)) {
		score += structureBonus
	}

	if score > 1 {
		score = 1
	}
	return score, s.tier(score, hits)
}

func (s *Scorer) tier(score float64, keywordHits int) models.QualityTier {
	if keywordHits == 0 {
		return models.QualityLow
	}
	switch {
	case score >= s.config.HighQualityScore:
		return models.QualityHigh
	case score >= s.config.MediumQualityScore:
		return models.QualityMedium
	default:
		return models.QualityLow
	}
}

func countKeywordHits(lower string, keywords []string) int {
	count := 0
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			count++
		}
	}
	return count
}

func clampF(v, max float64) float64 {
	if v > max {
		return max
	}
	return v
}
