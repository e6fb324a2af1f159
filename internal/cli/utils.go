// Package cli provides output helpers for the postop command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/carebound/postop/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, query string, results []*models.SearchResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string]interface{}{
			"query":   query,
			"count":   len(results),
			"results": results,
		})
	}
	fmt.Fprintf(w, "\nFound %d results for %q\n\n", len(results), query)
	for i, result := range results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", i+1, result.Score)
		fmt.Fprintf(w, "ID: %s\n", result.Document.ID)
		fmt.Fprintf(w, "File: %s (%s)\n", result.Document.Filename, result.Document.SourceDomain)
		if result.Analysis != nil {
			fmt.Fprintf(w, "Procedure: %s | Quality: %s | Tasks: %d\n",
				orDash(result.Analysis.Procedure), result.Analysis.Quality, len(result.Analysis.Tasks))
		}
		if result.Highlight != "" {
			fmt.Fprintf(w, "\n%s\n", Truncate(result.Highlight, 300))
		}
		fmt.Fprintln(w)
	}
	return nil
}

// WriteDocuments writes a document listing to w in the given format.
func WriteDocuments(w io.Writer, docs []*models.Document, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string]interface{}{
			"count":     len(docs),
			"documents": docs,
		})
	}
	fmt.Fprintf(w, "%-22s %-35s %-28s %8s %6s\n", "ID", "FILE", "DOMAIN", "SIZE", "PAGES")
	for _, doc := range docs {
		fmt.Fprintf(w, "%-22s %-35s %-28s %8d %6d\n",
			Truncate(doc.ID, 22), Truncate(doc.Filename, 35),
			Truncate(doc.SourceDomain, 28), doc.FileSize, doc.PageCount)
	}
	fmt.Fprintf(w, "\n%d documents\n", len(docs))
	return nil
}

// WriteAnalysis writes one analysis result to w in the given format.
func WriteAnalysis(w io.Writer, result *models.AnalysisResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, result)
	}
	fmt.Fprintf(w, "\nDocument: %s\n", result.DocumentID)
	fmt.Fprintf(w, "Relevance: %.3f | Quality: %s\n", result.RelevanceScore, result.Quality)
	fmt.Fprintf(w, "Procedure: %s\n", orDash(result.Procedure))
	fmt.Fprintf(w, "Sentences: %d | Words: %d\n\n", result.SentenceCount, result.WordCount)
	for _, task := range result.Tasks {
		fmt.Fprintf(w, "  [%s/%s] %s", task.Category, task.Importance, task.Description)
		if task.Timing != "" {
			fmt.Fprintf(w, " (%s)", task.Timing)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "\n%d tasks\n", len(result.Tasks))
	return nil
}

// WriteRun writes a collection run summary to w in the given format.
func WriteRun(w io.Writer, run *models.CollectionRun, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, run)
	}
	fmt.Fprintf(w, "\nRun %s: %s\n", run.ID, run.Status)
	fmt.Fprintf(w, "Discovered: %d | Collected: %d | Skipped: %d\n",
		run.URLsDiscovered, run.PDFsCollected, run.PDFsSkipped)
	fmt.Fprintf(w, "Success rate: %.0f%%\n", run.SuccessRate()*100)
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(w, "Duration: %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Second))
	}
	for _, msg := range run.Errors {
		fmt.Fprintf(w, "  error: %s\n", msg)
	}
	return nil
}

// WriteProposals writes discovered category proposals to w in the given format.
func WriteProposals(w io.Writer, proposals []*models.CategoryProposal, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string]interface{}{
			"count":     len(proposals),
			"proposals": proposals,
		})
	}
	fmt.Fprintf(w, "\n%d proposed categories\n\n", len(proposals))
	for _, p := range proposals {
		fmt.Fprintf(w, "  %-30s docs=%d sentences=%d\n", Truncate(p.Name, 30), p.DocumentCount, p.SentenceCount)
		if len(p.Examples) > 0 {
			fmt.Fprintf(w, "    e.g. %s\n", Truncate(p.Examples[0], 100))
		}
	}
	return nil
}

func writeJSON(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
