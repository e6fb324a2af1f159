package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/carebound/postop/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "postop.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testDocument(id, hash string) *models.Document {
	return &models.Document{
		ID:           id,
		SourceURL:    "https://hospital.example.org/aftercare/" + id + ".pdf",
		Filename:     id + ".pdf",
		FilePath:     "/var/postop/pdfs/" + id + ".pdf",
		SourceDomain: "hospital.example.org",
		ContentHash:  hash,
		FileSize:     2048,
		Text:         "Keep the incision clean and dry.",
		PageCount:    2,
		DownloadedAt: time.Now(),
	}
}

func TestDocumentCRUD(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	doc := testDocument("doc-1", "hash-1")
	if err := s.CreateDocument(ctx, doc); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	got, err := s.GetDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Filename != "doc-1.pdf" || got.SourceDomain != "hospital.example.org" {
		t.Errorf("got %+v", got)
	}
	if got.ContentHash != "hash-1" || got.PageCount != 2 {
		t.Errorf("got %+v", got)
	}

	if err := s.DeleteDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if _, err := s.GetDocument(ctx, "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestGetDocumentByHash(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if err := s.CreateDocument(ctx, testDocument("doc-1", "hash-1")); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	got, err := s.GetDocumentByHash(ctx, "hash-1")
	if err != nil {
		t.Fatalf("GetDocumentByHash: %v", err)
	}
	if got.ID != "doc-1" {
		t.Errorf("got ID %q", got.ID)
	}

	if _, err := s.GetDocumentByHash(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateDocument_duplicateHash(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if err := s.CreateDocument(ctx, testDocument("doc-1", "hash-1")); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if err := s.CreateDocument(ctx, testDocument("doc-2", "hash-1")); err == nil {
		t.Error("expected unique constraint violation for duplicate content hash")
	}
}

func TestListDocuments(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for i, id := range []string{"doc-a", "doc-b", "doc-c"} {
		doc := testDocument(id, "hash-"+id)
		doc.CreatedAt = time.Date(2026, 8, 1+i, 0, 0, 0, 0, time.UTC)
		if err := s.CreateDocument(ctx, doc); err != nil {
			t.Fatalf("CreateDocument(%s): %v", id, err)
		}
	}

	docs, err := s.ListDocuments(ctx, 0, 2)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	// Newest first
	if docs[0].ID != "doc-c" || docs[1].ID != "doc-b" {
		t.Errorf("unexpected order: %s, %s", docs[0].ID, docs[1].ID)
	}

	rest, err := s.ListDocuments(ctx, 2, 10)
	if err != nil {
		t.Fatalf("ListDocuments offset: %v", err)
	}
	if len(rest) != 1 || rest[0].ID != "doc-a" {
		t.Errorf("unexpected tail: %+v", rest)
	}
}

func TestSaveAnalysis_replacesTasks(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if err := s.CreateDocument(ctx, testDocument("doc-1", "hash-1")); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	first := &models.AnalysisResult{
		DocumentID:     "doc-1",
		RelevanceScore: 0.85,
		Quality:        models.QualityHigh,
		Procedure:      "Total Knee Replacement",
		SentenceCount:  12,
		WordCount:      190,
		AnalyzedAt:     time.Now(),
		Tasks: []*models.Task{
			{ID: "t-1", DocumentID: "doc-1", Category: "Medication", Description: "Take ibuprofen every 6 hours.", Timing: "every 6 hours", Importance: models.ImportanceMedium, Position: 0},
			{ID: "t-2", DocumentID: "doc-1", Category: "Warning Signs", Description: "Call your doctor if fever develops.", Importance: models.ImportanceCritical, Position: 1},
		},
	}
	if err := s.SaveAnalysis(ctx, first); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}

	got, err := s.GetAnalysis(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetAnalysis: %v", err)
	}
	if got.RelevanceScore != 0.85 || got.Quality != models.QualityHigh {
		t.Errorf("got %+v", got)
	}
	if len(got.Tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(got.Tasks))
	}
	if got.Tasks[0].ID != "t-1" || got.Tasks[1].Importance != models.ImportanceCritical {
		t.Errorf("tasks out of order or mangled: %+v", got.Tasks)
	}

	// Re-analysis replaces tasks wholesale
	second := &models.AnalysisResult{
		DocumentID:     "doc-1",
		RelevanceScore: 0.6,
		Quality:        models.QualityMedium,
		AnalyzedAt:     time.Now(),
		Tasks: []*models.Task{
			{ID: "t-3", DocumentID: "doc-1", Category: "Wound Care", Description: "Change the dressing daily.", Importance: models.ImportanceMedium, Position: 0},
		},
	}
	if err := s.SaveAnalysis(ctx, second); err != nil {
		t.Fatalf("SaveAnalysis replace: %v", err)
	}
	got, err = s.GetAnalysis(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetAnalysis after replace: %v", err)
	}
	if len(got.Tasks) != 1 || got.Tasks[0].ID != "t-3" {
		t.Errorf("stale tasks survived re-analysis: %+v", got.Tasks)
	}

	count, err := s.CountTasks(ctx)
	if err != nil {
		t.Fatalf("CountTasks: %v", err)
	}
	if count != 1 {
		t.Errorf("CountTasks = %d, want 1", count)
	}
}

func TestDeleteDocument_cascades(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if err := s.CreateDocument(ctx, testDocument("doc-1", "hash-1")); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	result := &models.AnalysisResult{
		DocumentID: "doc-1",
		Quality:    models.QualityLow,
		AnalyzedAt: time.Now(),
		Tasks: []*models.Task{
			{ID: "t-1", DocumentID: "doc-1", Category: "Hygiene", Description: "Shower after 48 hours.", Importance: models.ImportanceLow},
		},
	}
	if err := s.SaveAnalysis(ctx, result); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}

	if err := s.DeleteDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if _, err := s.GetAnalysis(ctx, "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("analysis should cascade on delete, got %v", err)
	}
	count, _ := s.CountTasks(ctx)
	if count != 0 {
		t.Errorf("tasks should cascade on delete, %d left", count)
	}
}

func TestListTasksByCategory(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if err := s.CreateDocument(ctx, testDocument("doc-1", "hash-1")); err != nil {
		t.Fatal(err)
	}
	result := &models.AnalysisResult{
		DocumentID: "doc-1",
		Quality:    models.QualityHigh,
		AnalyzedAt: time.Now(),
		Tasks: []*models.Task{
			{ID: "t-1", DocumentID: "doc-1", Category: "Medication", Description: "Take antibiotics.", Importance: models.ImportanceHigh, Position: 0},
			{ID: "t-2", DocumentID: "doc-1", Category: "Wound Care", Description: "Keep incision dry.", Importance: models.ImportanceMedium, Position: 1},
			{ID: "t-3", DocumentID: "doc-1", Category: "Medication", Description: "Avoid aspirin.", Importance: models.ImportanceHigh, Position: 2},
		},
	}
	if err := s.SaveAnalysis(ctx, result); err != nil {
		t.Fatal(err)
	}

	tasks, err := s.ListTasksByCategory(ctx, "Medication", 10)
	if err != nil {
		t.Fatalf("ListTasksByCategory: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
	for _, task := range tasks {
		if task.Category != "Medication" {
			t.Errorf("wrong category: %+v", task)
		}
	}
}

func TestCategories(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if err := s.CreateCategory(ctx, &models.Category{Name: "Medication"}); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if err := s.CreateCategory(ctx, &models.Category{Name: "Breathing Exercises", Discovered: true, FirstDocumentID: "doc-9"}); err != nil {
		t.Fatalf("CreateCategory discovered: %v", err)
	}
	// Idempotent
	if err := s.CreateCategory(ctx, &models.Category{Name: "Medication"}); err != nil {
		t.Fatalf("CreateCategory repeat: %v", err)
	}

	cats, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(cats) != 2 {
		t.Fatalf("got %d categories, want 2", len(cats))
	}
	if cats[0].Name != "Breathing Exercises" || !cats[0].Discovered {
		t.Errorf("got %+v", cats[0])
	}
}

func TestProposals_replaceWholesale(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	first := []*models.CategoryProposal{
		{Name: "Walking", Examples: []string{"Resume pet walking."}, DocumentCount: 8, SentenceCount: 8, FirstDocumentID: "doc-1", ProposedAt: time.Now()},
	}
	if err := s.ReplaceProposals(ctx, first); err != nil {
		t.Fatalf("ReplaceProposals: %v", err)
	}

	second := []*models.CategoryProposal{
		{Name: "Spirometer", Examples: []string{"Use the incentive spirometer.", "Repeat ten times hourly."}, DocumentCount: 9, SentenceCount: 12, FirstDocumentID: "doc-2", ProposedAt: time.Now()},
		{Name: "Compression", Examples: []string{"Wear the compression sleeve."}, DocumentCount: 6, SentenceCount: 6, FirstDocumentID: "doc-3", ProposedAt: time.Now()},
	}
	if err := s.ReplaceProposals(ctx, second); err != nil {
		t.Fatalf("ReplaceProposals second: %v", err)
	}

	got, err := s.ListProposals(ctx)
	if err != nil {
		t.Fatalf("ListProposals: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d proposals, want 2 (old run should be replaced)", len(got))
	}
	if got[0].Name != "Spirometer" || got[1].Name != "Compression" {
		t.Errorf("unexpected order: %s, %s", got[0].Name, got[1].Name)
	}
	if len(got[0].Examples) != 2 {
		t.Errorf("examples not round-tripped: %+v", got[0].Examples)
	}
}

func TestCollectionRuns(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	run := &models.CollectionRun{
		ID:        "run-1",
		Status:    "running",
		StartedAt: time.Now(),
	}
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	run.Status = "completed"
	run.URLsDiscovered = 40
	run.PDFsCollected = 25
	run.PDFsSkipped = 10
	run.Errors = []string{"download timeout: example.org/a.pdf"}
	run.FinishedAt = time.Now()
	if err := s.UpdateRun(ctx, run); err != nil {
		t.Fatalf("UpdateRun: %v", err)
	}

	got, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != "completed" || got.PDFsCollected != 25 {
		t.Errorf("got %+v", got)
	}
	if len(got.Errors) != 1 {
		t.Errorf("errors not round-tripped: %+v", got.Errors)
	}
	if got.FinishedAt.IsZero() {
		t.Error("FinishedAt should be set")
	}

	runs, err := s.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("got %d runs", len(runs))
	}

	if err := s.UpdateRun(ctx, &models.CollectionRun{ID: "missing", Status: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing run, got %v", err)
	}
}

func TestCountDocuments(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	count, err := s.CountDocuments(ctx)
	if err != nil || count != 0 {
		t.Fatalf("empty count = %d, err %v", count, err)
	}
	if err := s.CreateDocument(ctx, testDocument("doc-1", "h1")); err != nil {
		t.Fatal(err)
	}
	count, err = s.CountDocuments(ctx)
	if err != nil || count != 1 {
		t.Errorf("count = %d, err %v", count, err)
	}
}
