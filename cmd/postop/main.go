// Package main is the postop CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/carebound/postop/internal/analysis"
	"github.com/carebound/postop/internal/cli"
	"github.com/carebound/postop/internal/collect"
	"github.com/carebound/postop/internal/config"
	"github.com/carebound/postop/internal/extract"
	"github.com/carebound/postop/internal/keyword"
	"github.com/carebound/postop/internal/metrics"
	"github.com/carebound/postop/internal/models"
	"github.com/carebound/postop/internal/pipeline"
	"github.com/carebound/postop/internal/report"
	"github.com/carebound/postop/internal/server"
	"github.com/carebound/postop/internal/storage"
	"github.com/carebound/postop/internal/watcher"
	"github.com/carebound/postop/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/postop/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "postop server" from the project dir uses the project's
// config. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "collect":
		runCollect()
	case "analyze":
		runAnalyze()
	case "search":
		runSearch()
	case "list":
		runList()
	case "discover":
		runDiscover()
	case "export":
		runExport()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("postop version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, true)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	if err := components.Pipeline.SeedCategories(context.Background()); err != nil {
		logger.Fatal("Failed to seed categories", zap.Error(err))
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var watchSvc *watcher.Watcher
	if len(cfg.Watch.Directories) > 0 {
		pipe := components.Pipeline
		watchSvc = watcher.New(
			cfg.Watch.Directories,
			cfg.Watch.Extensions,
			cfg.Watch.RecursiveOrDefault(),
			func(path string) {
				if _, err := pipe.ProcessFile(context.Background(), path); err != nil {
					logger.Warn("watch process file failed", zap.String("path", path), zap.Error(err))
				}
			},
			func(path string) {
				if err := pipe.DeleteByPath(context.Background(), path); err != nil {
					logger.Warn("watch delete by path failed", zap.String("path", path), zap.Error(err))
				}
			},
			logger,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
	}

	srv := server.NewServer(
		components.Pipeline,
		components.Collector,
		components.Keyword,
		components.Storage,
		cfg,
		components.Metrics,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if watchSvc != nil {
		watchSvc.Stop()
	}
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runCollect() {
	fs := flag.NewFlagSet("collect", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	urls := fs.String("urls", "", "comma-separated direct PDF URLs to fetch")
	maxPDFs := fs.Int("max", 0, "maximum PDFs to collect (0 = config default)")
	minConfidence := fs.Float64("min-confidence", 0, "minimum URL confidence (0 = config default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	queries := fs.Args()
	req := &models.CollectionRequest{
		Queries:       queries,
		MaxPDFs:       *maxPDFs,
		MinConfidence: *minConfidence,
	}
	for _, u := range strings.Split(*urls, ",") {
		if u = strings.TrimSpace(u); u != "" {
			req.DirectURLs = append(req.DirectURLs, u)
		}
	}
	if len(req.Queries) == 0 && len(req.DirectURLs) == 0 {
		fmt.Println("Usage: postop collect [flags] <query> [query...]")
		fmt.Println("       postop collect -urls https://host/a.pdf,https://host/b.pdf")
		os.Exit(1)
	}

	components, logger := mustInitialize(*configPath)
	defer components.Close()
	defer logger.Sync()

	run, err := components.Collector.Run(context.Background(), req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Collection failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteRun(os.Stdout, run, parseFormat(*outputFormat)); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runAnalyze() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: postop analyze [flags] <file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	components, logger := mustInitialize(*configPath)
	defer components.Close()
	defer logger.Sync()

	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot access %s: %v\n", path, err)
		os.Exit(1)
	}

	var paths []string
	if info.IsDir() {
		err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			if extract.Supported(strings.ToLower(filepath.Ext(p))) {
				paths = append(paths, p)
			}
			return nil
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Walk failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		paths = []string{path}
	}

	format := parseFormat(*outputFormat)
	failed := 0
	for _, p := range paths {
		doc, err := components.Pipeline.ProcessFile(ctx, p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Analyze %s failed: %v\n", p, err)
			failed++
			continue
		}
		result, err := components.Storage.GetAnalysis(ctx, doc.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "No analysis for %s: %v\n", p, err)
			failed++
			continue
		}
		if err := cli.WriteAnalysis(os.Stdout, result, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// buildSearchQuery joins all positional args with spaces so multi-word
// queries work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the
// query to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runSearch() {
	searchArgs := searchArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage when server is not running)")
	limit := fs.Int("limit", 10, "number of results")
	procedure := fs.String("procedure", "", "filter results to one procedure")
	minScore := fs.Float64("min-score", 0, "minimum match score")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(searchArgs)

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		fmt.Println("Usage: postop search [flags] <query>")
		os.Exit(1)
	}
	format := parseFormat(*outputFormat)

	query := &models.SearchQuery{
		Query:     queryStr,
		Limit:     *limit,
		Procedure: *procedure,
		MinScore:  *minScore,
	}

	if *serverURL != "" {
		// Use the HTTP API when the server is running; direct access
		// would contend for the Bleve and SQLite locks.
		results, err := searchViaHTTP(*serverURL, query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteSearchResults(os.Stdout, queryStr, results, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	components, logger := mustInitialize(*configPath)
	defer components.Close()
	defer logger.Sync()

	results, err := searchDirect(context.Background(), components, query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, queryStr, results, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) ([]*models.SearchResult, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response struct {
		Results []*models.SearchResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return response.Results, nil
}

func searchDirect(ctx context.Context, components *Components, query *models.SearchQuery) ([]*models.SearchResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	hits, err := components.Keyword.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	results := make([]*models.SearchResult, 0, len(hits))
	for _, hit := range hits {
		if hit.Score < query.MinScore {
			continue
		}
		doc, err := components.Storage.GetDocument(ctx, hit.ID)
		if err != nil {
			continue
		}
		doc.Text = ""
		result := &models.SearchResult{Document: doc, Score: hit.Score, Highlight: hit.Highlight}
		if analysisResult, err := components.Storage.GetAnalysis(ctx, hit.ID); err == nil {
			result.Analysis = analysisResult
		}
		results = append(results, result)
	}
	return results, nil
}

func runList() {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	offset := fs.Int("offset", 0, "number of documents to skip")
	limit := fs.Int("limit", 50, "maximum documents to list")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	components, logger := mustInitialize(*configPath)
	defer components.Close()
	defer logger.Sync()

	docs, err := components.Storage.ListDocuments(context.Background(), *offset, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
		os.Exit(1)
	}
	for _, doc := range docs {
		doc.Text = ""
	}
	if err := cli.WriteDocuments(os.Stdout, docs, parseFormat(*outputFormat)); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runDiscover() {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	components, logger := mustInitialize(*configPath)
	defer components.Close()
	defer logger.Sync()

	proposals, err := components.Pipeline.DiscoverCategories(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Discovery failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteProposals(os.Stdout, proposals, parseFormat(*outputFormat)); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runExport() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	format := fs.String("format", "json", "report format: json, csv, xlsx, or all")
	outDir := fs.String("out", "", "output directory (default: report directory from config)")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, false)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	dir := cfg.Storage.ReportDirectory
	if *outDir != "" {
		dir = *outDir
	}
	reporter := report.NewReporter(components.Storage, dir, logger)

	ctx := context.Background()
	var paths []string
	writeOne := func(name string, write func(context.Context) (string, error)) {
		path, err := write(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Export %s failed: %v\n", name, err)
			os.Exit(1)
		}
		paths = append(paths, path)
	}
	switch *format {
	case "json":
		writeOne("json", reporter.WriteJSON)
	case "csv":
		writeOne("csv", reporter.WriteCSV)
	case "xlsx":
		writeOne("xlsx", reporter.WriteXLSX)
	case "all":
		writeOne("json", reporter.WriteJSON)
		writeOne("csv", reporter.WriteCSV)
		writeOne("xlsx", reporter.WriteXLSX)
	default:
		fmt.Fprintf(os.Stderr, "Unknown format %q; use json, csv, xlsx, or all\n", *format)
		os.Exit(1)
	}
	for _, p := range paths {
		fmt.Println(p)
	}
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Documents        int64                  `json:"documents"`
	Tasks            int64                  `json:"tasks"`
	IndexedDocuments uint64                 `json:"indexed_documents,omitempty"`
	DiskUsageBytes   *int64                 `json:"disk_usage_bytes,omitempty"`
	Config           map[string]interface{} `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger, false)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()

		ctx := context.Background()
		docCount, err := components.Storage.CountDocuments(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count documents failed: %v\n", err)
			os.Exit(1)
		}
		taskCount, err := components.Storage.CountTasks(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count tasks failed: %v\n", err)
			os.Exit(1)
		}
		status = statusResponse{Documents: docCount, Tasks: taskCount}
		if indexed, err := components.Keyword.DocCount(); err == nil {
			status.IndexedDocuments = indexed
		}
		if diskBytes, err := storage.DiskUsageBytes(
			cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath, cfg.Storage.PDFDirectory,
		); err == nil {
			status.DiskUsageBytes = &diskBytes
		}
		status.Config = map[string]interface{}{
			"database_path":    cfg.Storage.DatabasePath,
			"bleve_index_path": cfg.Storage.BleveIndexPath,
			"pdf_directory":    cfg.Storage.PDFDirectory,
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("documents:          %d   # collected documents\n", status.Documents)
		fmt.Printf("tasks:              %d   # extracted care tasks\n", status.Tasks)
		fmt.Printf("indexed_documents:  %d   # documents in keyword index\n", status.IndexedDocuments)
		if status.DiskUsageBytes != nil {
			fmt.Printf("disk_usage_bytes:   %d   # database + index + files on disk\n", *status.DiskUsageBytes)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func parseFormat(s string) cli.OutputFormat {
	switch s {
	case "json":
		return cli.OutputJSON
	case "text":
		return cli.OutputText
	default:
		fmt.Printf("Unknown output format %q; use text or json\n", s)
		os.Exit(1)
		return cli.OutputText
	}
}

// mustInitialize loads config, builds a logger, and wires components,
// exiting on failure. Used by the one-shot subcommands.
func mustInitialize(configPath string) (*Components, *zap.Logger) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, logger, false)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	return components, logger
}

// Components holds the wired application components.
type Components struct {
	Storage   storage.Storage
	Keyword   keyword.KeywordIndex
	Pipeline  *pipeline.Pipeline
	Collector *collect.Collector
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// Close closes components in reverse dependency order.
func (c *Components) Close() {
	if c.Keyword != nil {
		if err := c.Keyword.Close(); err != nil && c.Logger != nil {
			c.Logger.Warn("keyword index close failed", zap.Error(err))
		}
	}
	if c.Storage != nil {
		if err := c.Storage.Close(); err != nil && c.Logger != nil {
			c.Logger.Warn("storage close failed", zap.Error(err))
		}
	}
}

// analysisConfig maps the file configuration onto analysis thresholds,
// keeping the built-in defaults for everything the file does not set.
func analysisConfig(cfg *config.Config) analysis.Config {
	out := analysis.DefaultConfig()
	if cfg.Analysis.MinTextLength > 0 {
		out.MinTextLength = cfg.Analysis.MinTextLength
	}
	if cfg.Analysis.HighQualityScore > 0 {
		out.HighQualityScore = cfg.Analysis.HighQualityScore
	}
	if cfg.Analysis.MediumQualityScore > 0 {
		out.MediumQualityScore = cfg.Analysis.MediumQualityScore
	}
	if cfg.Analysis.SimilarityThreshold > 0 {
		out.SimilarityThreshold = cfg.Analysis.SimilarityThreshold
	}
	if cfg.Analysis.MinDocumentFraction > 0 {
		out.MinDocumentFraction = cfg.Analysis.MinDocumentFraction
	}
	return out
}

// initializeComponents wires storage, the keyword index, the analysis
// pipeline, and (when search credentials are configured) the collector.
// withMetrics enables Prometheus instrumentation; the one-shot commands
// skip it.
func initializeComponents(cfg *config.Config, logger *zap.Logger, withMetrics bool) (*Components, error) {
	for _, dir := range []string{
		filepath.Dir(cfg.Storage.DatabasePath),
		cfg.Storage.PDFDirectory,
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("initialize storage: %w", err)
	}

	idx, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("initialize keyword index: %w", err)
	}

	var m *metrics.Metrics
	pipelineOpts := []pipeline.Option{}
	if withMetrics {
		m = metrics.New()
		pipelineOpts = append(pipelineOpts, pipeline.WithMetrics(m))
	}

	analyzer := analysis.NewAnalyzer(analysisConfig(cfg))
	pipe := pipeline.New(store, idx, analyzer, extract.NewExtractor(),
		cfg.Storage.PDFDirectory, logger, pipelineOpts...)

	// Without search credentials the collector still handles direct URLs;
	// queries are skipped with a recorded run error.
	var provider collect.SearchProvider
	if cfg.Collect.GoogleAPIKey != "" && cfg.Collect.GoogleEngineID != "" {
		client := &http.Client{Timeout: time.Duration(cfg.Collect.RequestTimeoutSec) * time.Second}
		provider = collect.NewGoogleProvider(cfg.Collect.GoogleAPIKey, cfg.Collect.GoogleEngineID, client)
	}
	collector := collect.NewCollector(cfg.Collect, provider, pipe, store, m, logger)

	return &Components{
		Storage:   store,
		Keyword:   idx,
		Pipeline:  pipe,
		Collector: collector,
		Metrics:   m,
		Logger:    logger,
	}, nil
}

func printUsage() {
	fmt.Println(`postop - post-operative care document collection and analysis

Usage:
  postop <command> [flags]

Commands:
  server    Run the HTTP API server (watches inbox directories when configured)
  collect   Search the web for care documents and download them
  analyze   Analyze a local file or directory
  search    Search collected documents
  list      List collected documents
  discover  Propose new task categories from unmatched sentences
  export    Write analysis reports (json, csv, xlsx)
  status    Show corpus and storage statistics
  version   Show version

Run "postop <command> -h" for command flags.`)
}
