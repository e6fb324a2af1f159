package analysis

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/carebound/postop/internal/models"
)

// Discoverer clusters residual sentences across a corpus and proposes new
// task categories. It is an offline batch pass: it never touches tasks
// already emitted by the extractor, and proposals are surfaced separately
// for review. Callers must serialize writes of the resulting proposals.
type Discoverer struct {
	config Config
}

// NewDiscoverer creates a Discoverer with the given config.
func NewDiscoverer(config Config) *Discoverer {
	return &Discoverer{config: config}
}

type cluster struct {
	tokens    map[string]int // token -> occurrence count across members
	sentences []string
	documents map[string]bool
	firstDoc  string
}

// Propose groups residuals by token-set Jaccard similarity and returns a
// proposal for every cluster spanning more than MinDocumentFraction of
// totalDocs. Output order is deterministic: by document count descending,
// then by name.
func (d *Discoverer) Propose(residuals []Residual, totalDocs int) []*models.CategoryProposal {
	if len(residuals) == 0 || totalDocs == 0 {
		return nil
	}

	var clusters []*cluster
	for _, r := range residuals {
		tokens := significantTokens(r.Sentence)
		if len(tokens) == 0 {
			continue
		}
		best := -1
		bestSim := 0.0
		for i, c := range clusters {
			sim := jaccard(tokens, c.tokens)
			if sim >= d.config.SimilarityThreshold && sim > bestSim {
				best = i
				bestSim = sim
			}
		}
		if best == -1 {
			c := &cluster{tokens: make(map[string]int), documents: make(map[string]bool), firstDoc: r.DocumentID}
			clusters = append(clusters, c)
			best = len(clusters) - 1
		}
		c := clusters[best]
		for t := range tokens {
			c.tokens[t]++
		}
		c.sentences = append(c.sentences, r.Sentence)
		c.documents[r.DocumentID] = true
	}

	minDocs := d.config.MinDocumentFraction * float64(totalDocs)
	var proposals []*models.CategoryProposal
	now := time.Now()
	for _, c := range clusters {
		if float64(len(c.documents)) <= minDocs {
			continue
		}
		examples := c.sentences
		if len(examples) > d.config.MaxProposalExamples {
			examples = examples[:d.config.MaxProposalExamples]
		}
		proposals = append(proposals, &models.CategoryProposal{
			Name:            proposalName(c.tokens),
			Examples:        examples,
			DocumentCount:   len(c.documents),
			SentenceCount:   len(c.sentences),
			FirstDocumentID: c.firstDoc,
			ProposedAt:      now,
		})
	}

	sort.Slice(proposals, func(i, j int) bool {
		if proposals[i].DocumentCount != proposals[j].DocumentCount {
			return proposals[i].DocumentCount > proposals[j].DocumentCount
		}
		return proposals[i].Name < proposals[j].Name
	})
	return proposals
}

var tokenSplit = regexp.MustCompile(`[^a-z0-9]+`)

// discovery stopwords: common function words plus the care verbs themselves,
// so cluster names come from the distinguishing nouns.
var stopTokens = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"of": true, "to": true, "in": true, "on": true, "for": true, "with": true,
	"your": true, "you": true, "not": true, "no": true, "do": true, "dont": true,
	"is": true, "are": true, "be": true, "it": true, "this": true, "that": true,
	"after": true, "before": true, "until": true, "when": true, "if": true,
	"avoid": true, "keep": true, "take": true, "apply": true, "use": true,
	"wear": true, "remove": true, "call": true, "resume": true, "stop": true,
	"start": true, "continue": true, "limit": true, "elevate": true,
	"report": true, "schedule": true, "should": true, "may": true, "can": true,
	"will": true, "any": true, "as": true, "at": true, "by": true, "from": true,
}

// significantTokens returns the set of lowercase tokens of a sentence with
// stopwords and short tokens removed.
func significantTokens(sentence string) map[string]bool {
	tokens := make(map[string]bool)
	for _, t := range tokenSplit.Split(strings.ToLower(sentence), -1) {
		if len(t) < 3 || stopTokens[t] {
			continue
		}
		tokens[t] = true
	}
	return tokens
}

// jaccard computes |a∩b| / |a∪b| over a token set and a cluster's token
// occurrence map.
func jaccard(a map[string]bool, b map[string]int) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// proposalName derives a suggested category name from the most frequent
// shared token; ties break alphabetically for reproducibility.
func proposalName(tokens map[string]int) string {
	best := ""
	bestCount := 0
	for t, c := range tokens {
		if c > bestCount || (c == bestCount && (best == "" || t < best)) {
			best = t
			bestCount = c
		}
	}
	if best == "" {
		return "Uncategorized"
	}
	return strings.ToUpper(best[:1]) + best[1:]
}
