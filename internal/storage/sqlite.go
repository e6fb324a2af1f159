// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/carebound/postop/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		source_url TEXT,
		filename TEXT NOT NULL,
		file_path TEXT,
		source_domain TEXT,
		content_hash TEXT NOT NULL UNIQUE,
		file_size INTEGER NOT NULL DEFAULT 0,
		text TEXT NOT NULL,
		page_count INTEGER NOT NULL DEFAULT 0,
		downloaded_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_domain ON documents(source_domain);
	CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at);

	CREATE TABLE IF NOT EXISTS analysis_results (
		document_id TEXT PRIMARY KEY,
		relevance_score REAL NOT NULL,
		quality TEXT NOT NULL,
		procedure TEXT,
		sentence_count INTEGER NOT NULL DEFAULT 0,
		word_count INTEGER NOT NULL DEFAULT 0,
		analyzed_at TIMESTAMP,
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL,
		timing TEXT,
		importance TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_document_id ON tasks(document_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_category ON tasks(category);

	CREATE TABLE IF NOT EXISTS categories (
		name TEXT PRIMARY KEY,
		discovered INTEGER NOT NULL DEFAULT 0,
		first_document_id TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS category_proposals (
		name TEXT PRIMARY KEY,
		examples TEXT,
		document_count INTEGER NOT NULL DEFAULT 0,
		sentence_count INTEGER NOT NULL DEFAULT 0,
		first_document_id TEXT,
		proposed_at TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS collection_runs (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		urls_discovered INTEGER NOT NULL DEFAULT 0,
		pdfs_collected INTEGER NOT NULL DEFAULT 0,
		pdfs_skipped INTEGER NOT NULL DEFAULT 0,
		errors TEXT,
		started_at TIMESTAMP,
		finished_at TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateDocument inserts a document.
func (s *SQLiteStorage) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, source_url, filename, file_path, source_domain, content_hash, file_size, text, page_count, downloaded_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.SourceURL, doc.Filename, doc.FilePath, doc.SourceDomain,
		doc.ContentHash, doc.FileSize, doc.Text, doc.PageCount, doc.DownloadedAt, doc.CreatedAt,
	)
	return err
}

const documentColumns = `id, source_url, filename, file_path, source_domain, content_hash, file_size, text, page_count, downloaded_at, created_at`

func scanDocument(row interface{ Scan(...any) error }) (*models.Document, error) {
	var doc models.Document
	var downloadedAt sql.NullTime
	err := row.Scan(&doc.ID, &doc.SourceURL, &doc.Filename, &doc.FilePath,
		&doc.SourceDomain, &doc.ContentHash, &doc.FileSize, &doc.Text,
		&doc.PageCount, &downloadedAt, &doc.CreatedAt)
	if err != nil {
		return nil, err
	}
	if downloadedAt.Valid {
		doc.DownloadedAt = downloadedAt.Time
	}
	return &doc, nil
}

// GetDocument returns a document by ID.
func (s *SQLiteStorage) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocumentByHash returns a document by content hash.
func (s *SQLiteStorage) GetDocumentByHash(ctx context.Context, contentHash string) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE content_hash = ?`, contentHash)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document with hash %s: %w", contentHash, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// DeleteDocument removes a document by ID. Analysis results and tasks
// cascade.
func (s *SQLiteStorage) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	return err
}

// ListDocuments returns documents with offset and limit, newest first.
func (s *SQLiteStorage) ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// SaveAnalysis replaces the analysis result and tasks for a document in
// one transaction.
func (s *SQLiteStorage) SaveAnalysis(ctx context.Context, result *models.AnalysisResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE document_id = ?`, result.DocumentID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO analysis_results (document_id, relevance_score, quality, procedure, sentence_count, word_count, analyzed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.DocumentID, result.RelevanceScore, string(result.Quality), result.Procedure,
		result.SentenceCount, result.WordCount, result.AnalyzedAt,
	); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tasks (id, document_id, category, description, timing, importance, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, task := range result.Tasks {
		if _, err := stmt.ExecContext(ctx, task.ID, task.DocumentID, task.Category,
			task.Description, task.Timing, string(task.Importance), task.Position); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetAnalysis returns the analysis result for a document, tasks included.
func (s *SQLiteStorage) GetAnalysis(ctx context.Context, docID string) (*models.AnalysisResult, error) {
	var result models.AnalysisResult
	var quality string
	err := s.db.QueryRowContext(ctx,
		`SELECT document_id, relevance_score, quality, procedure, sentence_count, word_count, analyzed_at
		 FROM analysis_results WHERE document_id = ?`, docID,
	).Scan(&result.DocumentID, &result.RelevanceScore, &quality, &result.Procedure,
		&result.SentenceCount, &result.WordCount, &result.AnalyzedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("analysis for %s: %w", docID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	result.Quality = models.QualityTier(quality)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, category, description, timing, importance, position
		 FROM tasks WHERE document_id = ? ORDER BY position`, docID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result.Tasks = append(result.Tasks, task)
	}
	return &result, rows.Err()
}

func scanTask(row interface{ Scan(...any) error }) (*models.Task, error) {
	var task models.Task
	var importance string
	err := row.Scan(&task.ID, &task.DocumentID, &task.Category, &task.Description,
		&task.Timing, &importance, &task.Position)
	if err != nil {
		return nil, err
	}
	task.Importance = models.Importance(importance)
	return &task, nil
}

// ListTasksByCategory returns tasks labeled with the given category.
func (s *SQLiteStorage) ListTasksByCategory(ctx context.Context, category string, limit int) ([]*models.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, category, description, timing, importance, position
		 FROM tasks WHERE category = ? ORDER BY document_id, position LIMIT ?`,
		category, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// CreateCategory registers a category. Existing names are left untouched.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, cat *models.Category) error {
	if cat.CreatedAt.IsZero() {
		cat.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO categories (name, discovered, first_document_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		cat.Name, cat.Discovered, cat.FirstDocumentID, cat.CreatedAt,
	)
	return err
}

// ListCategories returns all registered categories ordered by name.
func (s *SQLiteStorage) ListCategories(ctx context.Context) ([]*models.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, discovered, first_document_id, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []*models.Category
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.Name, &cat.Discovered, &cat.FirstDocumentID, &cat.CreatedAt); err != nil {
			return nil, err
		}
		cats = append(cats, &cat)
	}
	return cats, rows.Err()
}

// ReplaceProposals replaces the stored proposals with the given set.
// Discovery is corpus-level, so each run supersedes the previous one.
func (s *SQLiteStorage) ReplaceProposals(ctx context.Context, proposals []*models.CategoryProposal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM category_proposals`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO category_proposals (name, examples, document_count, sentence_count, first_document_id, proposed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range proposals {
		examplesJSON, err := json.Marshal(p.Examples)
		if err != nil {
			return fmt.Errorf("failed to marshal examples: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, p.Name, string(examplesJSON),
			p.DocumentCount, p.SentenceCount, p.FirstDocumentID, p.ProposedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListProposals returns stored proposals ordered by document count.
func (s *SQLiteStorage) ListProposals(ctx context.Context) ([]*models.CategoryProposal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, examples, document_count, sentence_count, first_document_id, proposed_at
		 FROM category_proposals ORDER BY document_count DESC, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var proposals []*models.CategoryProposal
	for rows.Next() {
		var p models.CategoryProposal
		var examplesJSON string
		if err := rows.Scan(&p.Name, &examplesJSON, &p.DocumentCount, &p.SentenceCount,
			&p.FirstDocumentID, &p.ProposedAt); err != nil {
			return nil, err
		}
		if examplesJSON != "" {
			if err := json.Unmarshal([]byte(examplesJSON), &p.Examples); err != nil {
				return nil, fmt.Errorf("failed to unmarshal examples: %w", err)
			}
		}
		proposals = append(proposals, &p)
	}
	return proposals, rows.Err()
}

// CreateRun inserts a collection run record.
func (s *SQLiteStorage) CreateRun(ctx context.Context, run *models.CollectionRun) error {
	errorsJSON, err := json.Marshal(run.Errors)
	if err != nil {
		return fmt.Errorf("failed to marshal errors: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO collection_runs (id, status, urls_discovered, pdfs_collected, pdfs_skipped, errors, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Status, run.URLsDiscovered, run.PDFsCollected, run.PDFsSkipped,
		string(errorsJSON), run.StartedAt, nullableTime(run.FinishedAt),
	)
	return err
}

// UpdateRun updates an existing collection run record.
func (s *SQLiteStorage) UpdateRun(ctx context.Context, run *models.CollectionRun) error {
	errorsJSON, err := json.Marshal(run.Errors)
	if err != nil {
		return fmt.Errorf("failed to marshal errors: %w", err)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE collection_runs SET status = ?, urls_discovered = ?, pdfs_collected = ?, pdfs_skipped = ?, errors = ?, finished_at = ?
		 WHERE id = ?`,
		run.Status, run.URLsDiscovered, run.PDFsCollected, run.PDFsSkipped,
		string(errorsJSON), nullableTime(run.FinishedAt), run.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("run %s: %w", run.ID, ErrNotFound)
	}
	return nil
}

// GetRun returns a collection run by ID.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*models.CollectionRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, urls_discovered, pdfs_collected, pdfs_skipped, errors, started_at, finished_at
		 FROM collection_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return run, err
}

// ListRuns returns the most recent collection runs.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]*models.CollectionRun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, urls_discovered, pdfs_collected, pdfs_skipped, errors, started_at, finished_at
		 FROM collection_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.CollectionRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(row interface{ Scan(...any) error }) (*models.CollectionRun, error) {
	var run models.CollectionRun
	var errorsJSON string
	var finishedAt sql.NullTime
	err := row.Scan(&run.ID, &run.Status, &run.URLsDiscovered, &run.PDFsCollected,
		&run.PDFsSkipped, &errorsJSON, &run.StartedAt, &finishedAt)
	if err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	if errorsJSON != "" {
		if err := json.Unmarshal([]byte(errorsJSON), &run.Errors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal errors: %w", err)
		}
	}
	return &run, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// CountDocuments returns the total number of documents.
func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// CountTasks returns the total number of extracted tasks.
func (s *SQLiteStorage) CountTasks(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
