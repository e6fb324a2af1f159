// Package config provides configuration loading and structs for the postop server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Collect  CollectConfig  `yaml:"collect"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Watch    WatchConfig    `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the database, keyword index, and PDF files.
type StorageConfig struct {
	DatabasePath   string `yaml:"database_path"`
	BleveIndexPath string `yaml:"bleve_index_path"`
	PDFDirectory   string `yaml:"pdf_directory"`
	ReportDirectory string `yaml:"report_directory"`
}

// CollectConfig holds web search and download settings.
type CollectConfig struct {
	GoogleAPIKey      string  `yaml:"google_api_key"`
	GoogleEngineID    string  `yaml:"google_engine_id"`
	MaxPDFsPerSource  int     `yaml:"max_pdfs_per_source"`
	MaxPagesPerSite   int     `yaml:"max_pages_per_site"`
	MaxFileSizeMB     int     `yaml:"max_file_size_mb"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	RequestTimeoutSec int     `yaml:"request_timeout_seconds"`
	DownloadWorkers   int     `yaml:"download_workers"`
	UserAgent         string  `yaml:"user_agent"`
	MinConfidence     float64 `yaml:"min_confidence"`
	ExcludedDomains   []string `yaml:"excluded_domains"`
}

// AnalysisConfig holds tunable thresholds for the analysis pipeline.
// The discovery thresholds are deliberately configuration, not constants.
type AnalysisConfig struct {
	MinTextLength       int     `yaml:"min_text_length"`
	HighQualityScore    float64 `yaml:"high_quality_score"`
	MediumQualityScore  float64 `yaml:"medium_quality_score"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	MinDocumentFraction float64 `yaml:"min_document_fraction"`
}

// WatchConfig holds inbox directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	cfg.Storage.PDFDirectory = expandPath(cfg.Storage.PDFDirectory, configDir)
	cfg.Storage.ReportDirectory = expandPath(cfg.Storage.ReportDirectory, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path. Used for persisting watch directory add/remove.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
