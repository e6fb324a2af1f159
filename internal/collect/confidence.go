package collect

import (
	"net/url"
	"strings"
)

// primaryURLTerms strongly indicate post-operative care content when
// found in a URL or link text.
var primaryURLTerms = []string{
	"post-op", "postop", "post-operative", "postoperative",
	"discharge", "aftercare", "after-surgery", "after-care",
}

// secondaryURLTerms weakly indicate relevant content.
var secondaryURLTerms = []string{
	"patient", "instructions", "recovery", "surgery",
	"care", "handout", "education",
}

// URLConfidence estimates how likely a candidate URL points at a
// post-operative care document, from its URL and surrounding link text.
// Returns a value in [0, 1].
func URLConfidence(rawURL, linkText string) float64 {
	haystack := strings.ToLower(rawURL + " " + linkText)

	var score float64
	for _, term := range primaryURLTerms {
		if strings.Contains(haystack, term) {
			score += 0.25
		}
	}
	for _, term := range secondaryURLTerms {
		if strings.Contains(haystack, term) {
			score += 0.1
		}
	}

	// Institutional domains publish most legitimate patient handouts.
	if u, err := url.Parse(rawURL); err == nil {
		host := strings.ToLower(u.Hostname())
		if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") ||
			strings.HasSuffix(host, ".org") || strings.Contains(host, "hospital") ||
			strings.Contains(host, "clinic") {
			score += 0.15
		}
	}

	if score > 1 {
		score = 1
	}
	return score
}
