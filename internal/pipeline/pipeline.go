// Package pipeline runs extraction, analysis, and indexing for
// collected documents.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carebound/postop/internal/analysis"
	"github.com/carebound/postop/internal/docid"
	"github.com/carebound/postop/internal/extract"
	"github.com/carebound/postop/internal/keyword"
	"github.com/carebound/postop/internal/metrics"
	"github.com/carebound/postop/internal/models"
	"github.com/carebound/postop/internal/storage"
)

// Pipeline moves a document from raw bytes to stored, analyzed, and
// searchable: extract text, analyze, persist, index for keyword search.
type Pipeline struct {
	storage   storage.Storage
	keyword   keyword.KeywordIndex
	analyzer  *analysis.Analyzer
	extractor *extract.Extractor
	pdfDir    string
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMetrics sets pipeline instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// New creates a pipeline with the given dependencies. pdfDir is where
// downloaded files are kept.
func New(
	store storage.Storage,
	keywordIndex keyword.KeywordIndex,
	analyzer *analysis.Analyzer,
	extractor *extract.Extractor,
	pdfDir string,
	logger *zap.Logger,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		storage:   store,
		keyword:   keywordIndex,
		analyzer:  analyzer,
		extractor: extractor,
		pdfDir:    pdfDir,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest stores a downloaded document: dedup by content hash, write the
// file under the PDF directory, extract, analyze, and index. Returns
// created=false when the same content is already known.
func (p *Pipeline) Ingest(ctx context.Context, content []byte, sourceURL string) (*models.Document, bool, error) {
	hash := docid.ContentHash(content)
	existing, err := p.storage.GetDocumentByHash(ctx, hash)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, fmt.Errorf("dedup lookup: %w", err)
	}

	id := docid.FromHash(hash)
	ext := sniffExt(content)
	filename := filenameFromURL(sourceURL, id, ext)
	path, err := p.writeFile(filename, content)
	if err != nil {
		return nil, false, err
	}

	doc := &models.Document{
		ID:           id,
		SourceURL:    sourceURL,
		Filename:     filename,
		FilePath:     path,
		SourceDomain: domainOf(sourceURL),
		ContentHash:  hash,
		FileSize:     int64(len(content)),
		DownloadedAt: time.Now(),
	}
	if err := p.process(ctx, doc, content, ext); err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

// IngestText registers a document from already-extracted text, for API
// clients that bring their own extraction. No file is written under
// the PDF directory.
func (p *Pipeline) IngestText(ctx context.Context, input *models.DocumentInput) (*models.Document, bool, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, false, fmt.Errorf("text is required")
	}
	content := []byte(text)
	hash := docid.ContentHash(content)
	existing, err := p.storage.GetDocumentByHash(ctx, hash)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, fmt.Errorf("dedup lookup: %w", err)
	}

	id := input.ID
	if id == "" {
		id = docid.FromHash(hash)
	}
	doc := &models.Document{
		ID:           id,
		SourceURL:    input.SourceURL,
		Filename:     input.Filename,
		FilePath:     input.FilePath,
		SourceDomain: domainOf(input.SourceURL),
		ContentHash:  hash,
		FileSize:     int64(len(content)),
		Text:         text,
		DownloadedAt: time.Now(),
	}

	start := time.Now()
	if err := p.storage.CreateDocument(ctx, doc); err != nil {
		p.record(start, nil, err)
		return nil, false, fmt.Errorf("store document: %w", err)
	}
	result, err := p.analyze(ctx, doc)
	if err != nil {
		p.record(start, nil, err)
		return nil, false, err
	}
	p.record(start, result, nil)
	return doc, true, nil
}

// sniffExt infers the document format from its leading bytes. Downloads
// are overwhelmingly PDFs, but DOCX (a zip) and plain text also arrive.
func sniffExt(content []byte) string {
	switch {
	case len(content) >= 5 && string(content[:5]) == "%PDF-":
		return ".pdf"
	case len(content) >= 2 && string(content[:2]) == "PK":
		return ".docx"
	default:
		return ".txt"
	}
}

// ProcessFile ingests a local file, typically from the watched inbox.
// The document ID is derived from the path so updates to the same file
// replace the same document. Unchanged files are skipped.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*models.Document, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if !extract.Supported(ext) {
		return nil, fmt.Errorf("unsupported format %q", ext)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	hash := docid.ContentHash(content)
	id := docid.FromPath(absPath)

	existing, err := p.storage.GetDocument(ctx, id)
	if err == nil && existing.ContentHash == hash {
		p.logger.Debug("unchanged file skipped", zap.String("path", absPath))
		return existing, nil
	}
	if err == nil {
		// Same path, new content: replace wholesale.
		if err := p.Delete(ctx, id); err != nil {
			return nil, fmt.Errorf("replace document: %w", err)
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	doc := &models.Document{
		ID:          id,
		Filename:    filepath.Base(absPath),
		FilePath:    absPath,
		ContentHash: hash,
		FileSize:    int64(len(content)),
	}
	if err := p.process(ctx, doc, content, ext); err != nil {
		return nil, err
	}
	return doc, nil
}

// process extracts, stores, analyzes, and indexes one document.
func (p *Pipeline) process(ctx context.Context, doc *models.Document, content []byte, ext string) error {
	start := time.Now()

	extracted, err := p.extractor.ExtractBytes(content, ext)
	if err != nil {
		p.record(start, nil, err)
		return fmt.Errorf("extract text: %w", err)
	}
	doc.Text = extracted.Text
	doc.PageCount = extracted.Pages

	if err := p.storage.CreateDocument(ctx, doc); err != nil {
		p.record(start, nil, err)
		return fmt.Errorf("store document: %w", err)
	}

	result, err := p.analyze(ctx, doc)
	if err != nil {
		p.record(start, nil, err)
		return err
	}

	p.record(start, result, nil)
	p.logger.Info("document processed",
		zap.String("doc_id", doc.ID),
		zap.String("filename", doc.Filename),
		zap.Float64("score", result.RelevanceScore),
		zap.String("quality", string(result.Quality)),
		zap.String("procedure", result.Procedure),
		zap.Int("tasks", len(result.Tasks)))
	return nil
}

// Reanalyze reruns analysis over a stored document, replacing its
// result and tasks. Used after pattern or scoring changes.
func (p *Pipeline) Reanalyze(ctx context.Context, id string) (*models.AnalysisResult, error) {
	doc, err := p.storage.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.analyze(ctx, doc)
}

func (p *Pipeline) analyze(ctx context.Context, doc *models.Document) (*models.AnalysisResult, error) {
	result, _, err := p.analyzer.Analyze(doc.ID, doc.Text)
	if err != nil {
		// Insufficient or malformed content still yields a recorded
		// low-quality result; the document stays searchable.
		p.logger.Warn("analysis degraded",
			zap.String("doc_id", doc.ID),
			zap.Error(err))
	}
	for i, task := range result.Tasks {
		task.ID = uuid.NewString()
		task.Position = i
	}
	if err := p.storage.SaveAnalysis(ctx, result); err != nil {
		return nil, fmt.Errorf("store analysis: %w", err)
	}
	if err := p.keyword.Index(ctx, doc, result.Procedure); err != nil {
		return nil, fmt.Errorf("index keywords: %w", err)
	}
	return result, nil
}

// DiscoverCategories reruns extraction over every stored document,
// clusters the sentences no pattern claimed, and stores the resulting
// proposals. Returns the proposals ordered by document count.
func (p *Pipeline) DiscoverCategories(ctx context.Context) ([]*models.CategoryProposal, error) {
	const batch = 200

	var residuals []analysis.Residual
	totalDocs := 0
	for offset := 0; ; offset += batch {
		docs, err := p.storage.ListDocuments(ctx, offset, batch)
		if err != nil {
			return nil, fmt.Errorf("list documents: %w", err)
		}
		if len(docs) == 0 {
			break
		}
		for _, doc := range docs {
			totalDocs++
			_, docResiduals, err := p.analyzer.Analyze(doc.ID, doc.Text)
			if err != nil {
				continue
			}
			residuals = append(residuals, docResiduals...)
		}
	}

	discoverer := analysis.NewDiscoverer(p.analyzer.Config())
	proposals := discoverer.Propose(residuals, totalDocs)
	if err := p.storage.ReplaceProposals(ctx, proposals); err != nil {
		return nil, fmt.Errorf("store proposals: %w", err)
	}

	p.logger.Info("category discovery finished",
		zap.Int("documents", totalDocs),
		zap.Int("residual_sentences", len(residuals)),
		zap.Int("proposals", len(proposals)))
	return proposals, nil
}

// SeedCategories registers the predefined pattern categories so the
// registry reflects what extraction can label.
func (p *Pipeline) SeedCategories(ctx context.Context) error {
	for _, class := range p.analyzer.Extractor().Library().Classes() {
		if err := p.storage.CreateCategory(ctx, &models.Category{Name: class.Category}); err != nil {
			return fmt.Errorf("seed category %q: %w", class.Category, err)
		}
	}
	return nil
}

// Delete removes a document from storage and the keyword index.
func (p *Pipeline) Delete(ctx context.Context, id string) error {
	if err := p.keyword.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete from keyword index: %w", err)
	}
	if err := p.storage.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	p.logger.Debug("document deleted", zap.String("doc_id", id))
	return nil
}

// DeleteByPath removes the document derived from a watched file path.
func (p *Pipeline) DeleteByPath(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	return p.Delete(ctx, docid.FromPath(absPath))
}

func (p *Pipeline) record(start time.Time, result *models.AnalysisResult, err error) {
	if p.metrics == nil {
		return
	}
	taskCount := 0
	tier := ""
	if result != nil {
		taskCount = len(result.Tasks)
		tier = string(result.Quality)
	}
	p.metrics.RecordDocument(time.Since(start), taskCount, tier, err)
}

func (p *Pipeline) writeFile(filename string, content []byte) (string, error) {
	if err := os.MkdirAll(p.pdfDir, 0755); err != nil {
		return "", fmt.Errorf("create pdf directory: %w", err)
	}
	path := filepath.Join(p.pdfDir, filename)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	return path, nil
}

// filenameFromURL derives a safe local filename from the source URL,
// falling back to the document ID. ext is the sniffed format, appended
// when the URL's basename does not already carry it.
func filenameFromURL(sourceURL, id, ext string) string {
	fallback := strings.ReplaceAll(id, ":", "_") + ext
	u, err := url.Parse(sourceURL)
	if err != nil {
		return fallback
	}
	base := filepath.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		return fallback
	}
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '-'
		}
	}, base)
	if !strings.HasSuffix(strings.ToLower(base), ext) {
		base += ext
	}
	// Prefix with the short hash so distinct files with the same name
	// do not collide on disk.
	return strings.TrimPrefix(id, "doc:") + "_" + base
}

func domainOf(sourceURL string) string {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
