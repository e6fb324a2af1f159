package analysis

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalized is the cleaned form of a document's text plus its sentence
// segmentation. Text preserves the original casing for task descriptions;
// Lower is the lowercased form used for keyword and synonym matching.
type Normalized struct {
	Text      string
	Lower     string
	Sentences []string
}

// WordCount returns the number of whitespace-separated words.
func (n *Normalized) WordCount() int {
	return len(strings.Fields(n.Text))
}

// Normalizer cleans raw extracted text and splits it into sentences.
type Normalizer struct {
	minLength int
}

// NewNormalizer creates a Normalizer that reports ErrInsufficientContent for
// normalized text shorter than minLength bytes.
func NewNormalizer(minLength int) *Normalizer {
	return &Normalizer{minLength: minLength}
}

var sentenceEnd = regexp.MustCompile(`([.!?]+)(\s+|$)`)

// bullet markers commonly left behind by PDF extraction
var bulletPrefix = regexp.MustCompile(`^\s*(?:[-*•·▪▫◦‣⁃]|\d{1,2}[.)])\s+`)

// Normalize cleans raw text: drops form feeds and page-repeated header/footer
// lines, collapses whitespace, and splits sentences. Returns
// ErrMalformedInput for undecodable text and ErrInsufficientContent when the
// cleaned text is below the minimum length; in both cases the returned
// Normalized is still valid (possibly empty) so callers can emit a zeroed
// result without branching.
func (n *Normalizer) Normalize(raw string) (*Normalized, error) {
	if !utf8.ValidString(raw) {
		return &Normalized{}, ErrMalformedInput
	}

	cleaned := stripRepeatedLines(raw)
	cleaned = collapseWhitespace(cleaned)

	norm := &Normalized{
		Text:      cleaned,
		Lower:     strings.ToLower(cleaned),
		Sentences: splitSentences(cleaned),
	}
	if len(cleaned) < n.minLength {
		return norm, ErrInsufficientContent
	}
	return norm, nil
}

// stripRepeatedLines removes lines that repeat across pages (headers,
// footers, page numbers). Pages are delimited by form feeds; when a document
// has fewer than three pages the heuristic is skipped.
func stripRepeatedLines(text string) string {
	pages := strings.Split(text, "\f")
	if len(pages) < 3 {
		return strings.ReplaceAll(text, "\f", "\n")
	}

	lineCount := make(map[string]int)
	for _, page := range pages {
		seen := make(map[string]bool)
		for _, line := range strings.Split(page, "\n") {
			key := strings.TrimSpace(line)
			if len(key) < 4 || seen[key] {
				continue
			}
			seen[key] = true
			lineCount[key]++
		}
	}

	threshold := len(pages) - 1
	if threshold < 3 {
		threshold = 3
	}

	var b strings.Builder
	for _, page := range pages {
		for _, line := range strings.Split(page, "\n") {
			key := strings.TrimSpace(line)
			if len(key) >= 4 && lineCount[key] >= threshold {
				continue
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// collapseWhitespace trims and reduces runs of whitespace to single spaces,
// keeping line breaks only where they separate list items.
func collapseWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var parts []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if bulletPrefix.MatchString(line) {
			// list items become their own sentences
			item := bulletPrefix.ReplaceAllString(line, "")
			if item != "" && !strings.ContainsAny(item[len(item)-1:], ".!?") {
				item += "."
			}
			parts = append(parts, item)
			continue
		}
		parts = append(parts, line)
	}
	joined := strings.Join(parts, " ")

	var b strings.Builder
	wasSpace := false
	for _, r := range joined {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteByte(' ')
				wasSpace = true
			}
		} else {
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return strings.TrimSpace(b.String())
}

// splitSentences splits text on terminal punctuation. Sentences keep their
// ending punctuation; fragments shorter than three bytes are dropped.
func splitSentences(text string) []string {
	if text == "" {
		return nil
	}
	var sentences []string
	last := 0
	for _, loc := range sentenceEnd.FindAllStringSubmatchIndex(text, -1) {
		end := loc[3] // end of punctuation group
		s := strings.TrimSpace(text[last:end])
		if len(s) >= 3 {
			sentences = append(sentences, s)
		}
		last = loc[1]
	}
	if last < len(text) {
		s := strings.TrimSpace(text[last:])
		if len(s) >= 3 {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
