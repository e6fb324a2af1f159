package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/postop/data/db/documents.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/postop/data/indices/bleve"
	}
	if cfg.Storage.PDFDirectory == "" {
		cfg.Storage.PDFDirectory = "/usr/local/var/postop/data/pdfs"
	}
	if cfg.Storage.ReportDirectory == "" {
		cfg.Storage.ReportDirectory = "/usr/local/var/postop/data/reports"
	}
	if cfg.Collect.MaxPDFsPerSource == 0 {
		cfg.Collect.MaxPDFsPerSource = 10
	}
	if cfg.Collect.MaxPagesPerSite == 0 {
		cfg.Collect.MaxPagesPerSite = 20
	}
	if cfg.Collect.MaxFileSizeMB == 0 {
		cfg.Collect.MaxFileSizeMB = 50
	}
	if cfg.Collect.RequestsPerSecond == 0 {
		cfg.Collect.RequestsPerSecond = 2.0
	}
	if cfg.Collect.RequestTimeoutSec == 0 {
		cfg.Collect.RequestTimeoutSec = 30
	}
	if cfg.Collect.DownloadWorkers == 0 {
		cfg.Collect.DownloadWorkers = 4
	}
	if cfg.Collect.UserAgent == "" {
		cfg.Collect.UserAgent = "postop-collector/1.0 (research; contact admin)"
	}
	if cfg.Collect.MinConfidence == 0 {
		cfg.Collect.MinConfidence = 0.3
	}
	if cfg.Analysis.MinTextLength == 0 {
		cfg.Analysis.MinTextLength = 200
	}
	if cfg.Analysis.HighQualityScore == 0 {
		cfg.Analysis.HighQualityScore = 0.8
	}
	if cfg.Analysis.MediumQualityScore == 0 {
		cfg.Analysis.MediumQualityScore = 0.5
	}
	if cfg.Analysis.SimilarityThreshold == 0 {
		cfg.Analysis.SimilarityThreshold = 0.4
	}
	if cfg.Analysis.MinDocumentFraction == 0 {
		cfg.Analysis.MinDocumentFraction = 0.05
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".pdf", ".docx", ".txt"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
