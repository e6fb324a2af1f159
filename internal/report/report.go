// Package report exports analysis results as JSON, CSV, and XLSX files.
package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/carebound/postop/internal/models"
	"github.com/carebound/postop/internal/storage"
)

// listPageSize is the page size used when walking all documents.
const listPageSize = 200

// Summary aggregates corpus-level statistics for a report.
type Summary struct {
	GeneratedAt     time.Time      `json:"generated_at"`
	DocumentCount   int            `json:"document_count"`
	TaskCount       int            `json:"task_count"`
	QualityCounts   map[string]int `json:"quality_counts"`
	CategoryCounts  map[string]int `json:"category_counts"`
	ProcedureCounts map[string]int `json:"procedure_counts"`
	// CollectionErrors lists skipped or failed downloads from recent
	// collection runs, with their reasons.
	CollectionErrors []string `json:"collection_errors,omitempty"`
}

// documentEntry pairs a document with its analysis in the JSON export.
type documentEntry struct {
	Document *models.Document       `json:"document"`
	Analysis *models.AnalysisResult `json:"analysis,omitempty"`
}

// Reporter builds reports from stored analysis results.
type Reporter struct {
	store  storage.Storage
	outDir string
	logger *zap.Logger
}

// NewReporter creates a Reporter writing files under outDir.
func NewReporter(store storage.Storage, outDir string, logger *zap.Logger) *Reporter {
	return &Reporter{store: store, outDir: outDir, logger: logger}
}

// collect walks every stored document with its analysis.
func (r *Reporter) collect(ctx context.Context) ([]documentEntry, error) {
	var entries []documentEntry
	for offset := 0; ; offset += listPageSize {
		docs, err := r.store.ListDocuments(ctx, offset, listPageSize)
		if err != nil {
			return nil, fmt.Errorf("list documents: %w", err)
		}
		if len(docs) == 0 {
			break
		}
		for _, doc := range docs {
			entry := documentEntry{Document: doc}
			analysis, err := r.store.GetAnalysis(ctx, doc.ID)
			if err == nil {
				entry.Analysis = analysis
			} else if !errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("get analysis for %s: %w", doc.ID, err)
			}
			// Exported documents should not drag full text along.
			trimmed := *doc
			trimmed.Text = ""
			entry.Document = &trimmed
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// recentRunsLimit bounds how many collection runs feed the error report.
const recentRunsLimit = 50

// collectErrors flattens the recorded errors of recent collection runs.
func (r *Reporter) collectErrors(ctx context.Context) []string {
	runs, err := r.store.ListRuns(ctx, recentRunsLimit)
	if err != nil {
		r.logger.Warn("list runs for error report failed", zap.Error(err))
		return nil
	}
	var out []string
	for _, run := range runs {
		out = append(out, run.Errors...)
	}
	return out
}

// BuildSummary computes corpus-level statistics.
func (r *Reporter) BuildSummary(ctx context.Context) (*Summary, error) {
	entries, err := r.collect(ctx)
	if err != nil {
		return nil, err
	}
	s := summarize(entries)
	s.CollectionErrors = r.collectErrors(ctx)
	return s, nil
}

func summarize(entries []documentEntry) *Summary {
	s := &Summary{
		GeneratedAt:     time.Now(),
		DocumentCount:   len(entries),
		QualityCounts:   make(map[string]int),
		CategoryCounts:  make(map[string]int),
		ProcedureCounts: make(map[string]int),
	}
	for _, entry := range entries {
		if entry.Analysis == nil {
			continue
		}
		s.QualityCounts[string(entry.Analysis.Quality)]++
		if entry.Analysis.Procedure != "" {
			s.ProcedureCounts[entry.Analysis.Procedure]++
		}
		for _, task := range entry.Analysis.Tasks {
			s.TaskCount++
			s.CategoryCounts[task.Category]++
		}
	}
	return s
}

// WriteJSON writes the full report (summary plus per-document analyses)
// as JSON and returns the file path.
func (r *Reporter) WriteJSON(ctx context.Context) (string, error) {
	entries, err := r.collect(ctx)
	if err != nil {
		return "", err
	}

	summary := summarize(entries)
	summary.CollectionErrors = r.collectErrors(ctx)
	payload := struct {
		Summary   *Summary        `json:"summary"`
		Documents []documentEntry `json:"documents"`
	}{
		Summary:   summary,
		Documents: entries,
	}

	path, err := r.outPath("analysis", "json")
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	r.logger.Info("report written", zap.String("path", path), zap.Int("documents", len(entries)))
	return path, nil
}

// csvHeader is the column layout of the task CSV export.
var csvHeader = []string{
	"document_id", "filename", "source_domain", "procedure",
	"relevance_score", "quality", "category", "description",
	"timing", "importance",
}

// WriteCSV writes one row per extracted task and returns the file path.
func (r *Reporter) WriteCSV(ctx context.Context) (string, error) {
	entries, err := r.collect(ctx)
	if err != nil {
		return "", err
	}

	path, err := r.outPath("tasks", "csv")
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	rows := 0
	for _, entry := range entries {
		if entry.Analysis == nil {
			continue
		}
		for _, task := range entry.Analysis.Tasks {
			row := []string{
				entry.Document.ID,
				entry.Document.Filename,
				entry.Document.SourceDomain,
				entry.Analysis.Procedure,
				strconv.FormatFloat(entry.Analysis.RelevanceScore, 'f', 3, 64),
				string(entry.Analysis.Quality),
				task.Category,
				task.Description,
				task.Timing,
				string(task.Importance),
			}
			if err := w.Write(row); err != nil {
				return "", fmt.Errorf("write row: %w", err)
			}
			rows++
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	r.logger.Info("report written", zap.String("path", path), zap.Int("tasks", rows))
	return path, nil
}

func (r *Reporter) outPath(name, ext string) (string, error) {
	if err := os.MkdirAll(r.outDir, 0755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	filename := fmt.Sprintf("%s_%s.%s", name, time.Now().Format("20060102_150405"), ext)
	return filepath.Join(r.outDir, filename), nil
}
