package report

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/carebound/postop/internal/models"
)

// WriteXLSX writes a workbook with Summary, Tasks, and Proposals sheets
// and returns the file path.
func (r *Reporter) WriteXLSX(ctx context.Context) (string, error) {
	entries, err := r.collect(ctx)
	if err != nil {
		return "", err
	}
	proposals, err := r.store.ListProposals(ctx)
	if err != nil {
		return "", fmt.Errorf("list proposals: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	summary := summarize(entries)
	summary.CollectionErrors = r.collectErrors(ctx)
	if err := writeSummarySheet(f, summary); err != nil {
		return "", err
	}
	if err := writeTasksSheet(f, entries); err != nil {
		return "", err
	}
	if err := writeProposalsSheet(f, proposals); err != nil {
		return "", err
	}
	// Drop the default sheet left over from NewFile
	_ = f.DeleteSheet("Sheet1")

	path, err := r.outPath("analysis", "xlsx")
	if err != nil {
		return "", err
	}
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	r.logger.Info("report written", zap.String("path", path), zap.Int("documents", len(entries)))
	return path, nil
}

func writeSummarySheet(f *excelize.File, s *Summary) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	rows := [][]any{
		{"Generated", s.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Documents", s.DocumentCount},
		{"Tasks", s.TaskCount},
		{},
		{"Quality tier", "Documents"},
	}
	for _, tier := range sortedKeys(s.QualityCounts) {
		rows = append(rows, []any{tier, s.QualityCounts[tier]})
	}
	rows = append(rows, []any{}, []any{"Category", "Tasks"})
	for _, cat := range sortedKeys(s.CategoryCounts) {
		rows = append(rows, []any{cat, s.CategoryCounts[cat]})
	}
	rows = append(rows, []any{}, []any{"Procedure", "Documents"})
	for _, proc := range sortedKeys(s.ProcedureCounts) {
		rows = append(rows, []any{proc, s.ProcedureCounts[proc]})
	}
	if len(s.CollectionErrors) > 0 {
		rows = append(rows, []any{}, []any{"Collection errors"})
		for _, msg := range s.CollectionErrors {
			rows = append(rows, []any{msg})
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}
	return nil
}

func writeTasksSheet(f *excelize.File, entries []documentEntry) error {
	const sheet = "Tasks"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	header := []any{"Document", "Procedure", "Quality", "Score", "Category", "Description", "Timing", "Importance"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	rowNum := 2
	for _, entry := range entries {
		if entry.Analysis == nil {
			continue
		}
		for _, task := range entry.Analysis.Tasks {
			row := []any{
				entry.Document.Filename,
				entry.Analysis.Procedure,
				string(entry.Analysis.Quality),
				entry.Analysis.RelevanceScore,
				task.Category,
				task.Description,
				task.Timing,
				string(task.Importance),
			}
			if err := f.SetSheetRow(sheet, "A"+strconv.Itoa(rowNum), &row); err != nil {
				return fmt.Errorf("write task row: %w", err)
			}
			rowNum++
		}
	}
	return nil
}

func writeProposalsSheet(f *excelize.File, proposals []*models.CategoryProposal) error {
	const sheet = "Proposals"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	header := []any{"Proposed category", "Documents", "Sentences", "First document", "Example"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, p := range proposals {
		example := ""
		if len(p.Examples) > 0 {
			example = p.Examples[0]
		}
		row := []any{p.Name, p.DocumentCount, p.SentenceCount, p.FirstDocumentID, example}
		if err := f.SetSheetRow(sheet, "A"+strconv.Itoa(i+2), &row); err != nil {
			return fmt.Errorf("write proposal row: %w", err)
		}
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
