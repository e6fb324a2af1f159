package collect

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carebound/postop/internal/config"
	"github.com/carebound/postop/internal/metrics"
	"github.com/carebound/postop/internal/models"
	"github.com/carebound/postop/internal/storage"
)

// Run statuses recorded on collection runs.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Sink receives downloaded documents. created is false when the
// document was already known (same content hash) and nothing was
// stored.
type Sink interface {
	Ingest(ctx context.Context, content []byte, sourceURL string) (doc *models.Document, created bool, err error)
}

// candidate is a discovered URL with its relevance confidence.
type candidate struct {
	url        string
	confidence float64
}

// Collector orchestrates one collection run: query search providers,
// crawl result pages for PDF links, download, and hand files to the
// sink.
type Collector struct {
	cfg        config.CollectConfig
	provider   SearchProvider
	crawler    *Crawler
	downloader *Downloader
	sink       Sink
	store      storage.Storage
	metrics    *metrics.Metrics
	logger     *zap.Logger

	mu sync.Mutex // guards run counters and errors during download
}

// NewCollector wires a Collector from configuration. provider may be
// nil when only direct URLs are collected.
func NewCollector(cfg config.CollectConfig, provider SearchProvider, sink Sink, store storage.Storage, m *metrics.Metrics, logger *zap.Logger) *Collector {
	client := &http.Client{Timeout: time.Duration(cfg.RequestTimeoutSec) * time.Second}
	limiters := newDomainLimiters(cfg.RequestsPerSecond)
	return &Collector{
		cfg:        cfg,
		provider:   provider,
		crawler:    NewCrawler(client, cfg.UserAgent, limiters),
		downloader: NewDownloader(client, cfg.UserAgent, int64(cfg.MaxFileSizeMB)<<20, limiters),
		sink:       sink,
		store:      store,
		metrics:    m,
		logger:     logger,
	}
}

// Run executes a collection run to completion and records its outcome.
func (c *Collector) Run(ctx context.Context, req *models.CollectionRequest) (*models.CollectionRun, error) {
	run, err := c.begin(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := c.execute(ctx, req, run); err != nil {
		return run, err
	}
	return run, nil
}

// Start records a new run and executes it in the background, returning
// the run record immediately so callers can poll its status.
func (c *Collector) Start(ctx context.Context, req *models.CollectionRequest) (*models.CollectionRun, error) {
	run, err := c.begin(ctx, req)
	if err != nil {
		return nil, err
	}
	go func() {
		// The run outlives the request that started it.
		if err := c.execute(context.Background(), req, run); err != nil {
			c.logger.Error("collection run failed", zap.String("run_id", run.ID), zap.Error(err))
		}
	}()
	return run, nil
}

func (c *Collector) begin(ctx context.Context, req *models.CollectionRequest) (*models.CollectionRun, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	run := &models.CollectionRun{
		ID:        uuid.NewString(),
		Status:    RunStatusRunning,
		StartedAt: time.Now(),
	}
	if err := c.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}
	c.logger.Info("collection run started",
		zap.String("run_id", run.ID),
		zap.Int("queries", len(req.Queries)),
		zap.Int("direct_urls", len(req.DirectURLs)))
	return run, nil
}

func (c *Collector) execute(ctx context.Context, req *models.CollectionRequest, run *models.CollectionRun) error {
	candidates := c.discover(ctx, req, run)
	run.URLsDiscovered = len(candidates)
	if c.metrics != nil {
		c.metrics.RecordDiscoveredURLs(len(candidates))
	}

	c.download(ctx, candidates, run)

	run.Status = RunStatusCompleted
	if ctx.Err() != nil {
		run.Status = RunStatusFailed
	}
	run.FinishedAt = time.Now()
	if err := c.store.UpdateRun(ctx, run); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	c.logger.Info("collection run finished",
		zap.String("run_id", run.ID),
		zap.String("status", run.Status),
		zap.Int("discovered", run.URLsDiscovered),
		zap.Int("collected", run.PDFsCollected),
		zap.Int("skipped", run.PDFsSkipped),
		zap.Int("errors", len(run.Errors)))
	return nil
}

// discover gathers candidate PDF URLs from search queries and direct
// URLs, filtered by confidence and excluded domains, capped at the
// request's MaxPDFs.
func (c *Collector) discover(ctx context.Context, req *models.CollectionRequest, run *models.CollectionRun) []candidate {
	minConfidence := c.cfg.MinConfidence
	if req.MinConfidence > 0 {
		minConfidence = req.MinConfidence
	}

	seen := make(map[string]bool)
	pagesPerSite := make(map[string]int)
	var candidates []candidate

	add := func(rawURL, linkText string, directRequest bool) {
		if seen[rawURL] || len(candidates) >= req.MaxPDFs {
			return
		}
		if c.excluded(rawURL) {
			return
		}
		conf := URLConfidence(rawURL, linkText)
		if directRequest {
			// Operator-supplied URLs bypass the confidence gate.
			conf = 1.0
		}
		if conf < minConfidence {
			return
		}
		seen[rawURL] = true
		candidates = append(candidates, candidate{url: rawURL, confidence: conf})
	}

	expand := func(pageURL, linkText string, directRequest bool) {
		if isPDFURL(pageURL) {
			add(pageURL, linkText, directRequest)
			return
		}
		host := hostOf(pageURL)
		if c.cfg.MaxPagesPerSite > 0 && pagesPerSite[host] >= c.cfg.MaxPagesPerSite {
			return
		}
		pagesPerSite[host]++
		links, err := c.crawler.FindPDFLinks(ctx, pageURL)
		if err != nil {
			c.recordError(run, fmt.Sprintf("crawl %s: %v", pageURL, err))
			return
		}
		for _, link := range links {
			add(link.URL, linkText, directRequest)
		}
	}

	for _, query := range req.Queries {
		if ctx.Err() != nil {
			return candidates
		}
		if c.provider == nil {
			c.recordError(run, fmt.Sprintf("query %q skipped: no search provider configured", query))
			continue
		}
		hits, err := c.provider.Search(ctx, query, c.cfg.MaxPDFsPerSource)
		if err != nil {
			c.recordError(run, fmt.Sprintf("search %q: %v", query, err))
			continue
		}
		for _, hit := range hits {
			expand(hit.URL, hit.Title+" "+hit.Snippet, false)
		}
	}

	for _, direct := range req.DirectURLs {
		if ctx.Err() != nil {
			return candidates
		}
		expand(direct, "", true)
	}

	return candidates
}

// download fetches candidates concurrently and feeds them to the sink.
func (c *Collector) download(ctx context.Context, candidates []candidate, run *models.CollectionRun) {
	workers := c.cfg.DownloadWorkers
	if workers <= 0 {
		workers = 1
	}

	jobs := make(chan candidate)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for cand := range jobs {
				c.fetchOne(ctx, cand, run)
			}
		}()
	}

	for _, cand := range candidates {
		if ctx.Err() != nil {
			break
		}
		jobs <- cand
	}
	close(jobs)
	wg.Wait()
}

func (c *Collector) fetchOne(ctx context.Context, cand candidate, run *models.CollectionRun) {
	content, err := c.downloader.Download(ctx, cand.url)
	if c.metrics != nil {
		c.metrics.RecordDownload(int64(len(content)), err)
	}
	if err != nil {
		c.recordError(run, fmt.Sprintf("download %s: %v", cand.url, err))
		return
	}

	doc, created, err := c.sink.Ingest(ctx, content, cand.url)
	if err != nil {
		c.recordError(run, fmt.Sprintf("ingest %s: %v", cand.url, err))
		return
	}
	if created {
		c.addCollected(run)
		c.logger.Debug("document collected",
			zap.String("run_id", run.ID),
			zap.String("doc_id", doc.ID),
			zap.String("url", cand.url),
			zap.Float64("confidence", cand.confidence))
		return
	}
	c.addSkipped(run)
	c.logger.Debug("duplicate skipped",
		zap.String("run_id", run.ID),
		zap.String("url", cand.url))
}

func (c *Collector) recordError(run *models.CollectionRun, msg string) {
	c.mu.Lock()
	run.Errors = append(run.Errors, msg)
	c.mu.Unlock()
	c.logger.Warn("collection error", zap.String("run_id", run.ID), zap.String("error", msg))
}

func (c *Collector) addCollected(run *models.CollectionRun) {
	c.mu.Lock()
	run.PDFsCollected++
	c.mu.Unlock()
}

func (c *Collector) addSkipped(run *models.CollectionRun) {
	c.mu.Lock()
	run.PDFsSkipped++
	c.mu.Unlock()
}

func (c *Collector) excluded(rawURL string) bool {
	host := hostOf(rawURL)
	for _, domain := range c.cfg.ExcludedDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func isPDFURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
