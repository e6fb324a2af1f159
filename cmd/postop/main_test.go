package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/carebound/postop/internal/config"
)

func TestSearchArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after query are moved first",
			args:     []string{"knee replacement aftercare", "-min-score", "0.5"},
			expected: []string{"-min-score", "0.5", "knee replacement aftercare"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-min-score", "0.5", "knee replacement aftercare"},
			expected: []string{"-min-score", "0.5", "knee replacement aftercare"},
		},
		{
			name:     "query only returns unchanged",
			args:     []string{"knee replacement aftercare"},
			expected: []string{"knee replacement aftercare"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"one", "two", "-limit", "5"},
			expected: []string{"-limit", "5", "one", "two"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := searchArgsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("searchArgsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildSearchQuery(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"ibuprofen"}, "ibuprofen"},
		{"multiple words", []string{"wound", "care"}, "wound care"},
		{"single quoted phrase", []string{"wound care"}, "wound care"},
		{"surrounding spaces trimmed", []string{" wound ", " care "}, "wound   care"},
		{"empty", []string{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildSearchQuery(tt.args); got != tt.expected {
				t.Errorf("buildSearchQuery() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestLoadConfigFallsBackToCwd(t *testing.T) {
	dir := t.TempDir()
	content := []byte("server:\n  port: 9191\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWd) })

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("Port = %d, want 9191 from cwd config", cfg.Server.Port)
	}
	if filepath.Dir(resolved) != dir {
		t.Errorf("resolved path = %q, want file under %q", resolved, dir)
	}
}

func TestAnalysisConfigMapping(t *testing.T) {
	cfg := &config.Config{}
	cfg.Analysis.MinTextLength = 120
	cfg.Analysis.SimilarityThreshold = 0.6

	out := analysisConfig(cfg)
	if out.MinTextLength != 120 {
		t.Errorf("MinTextLength = %d, want 120", out.MinTextLength)
	}
	if out.SimilarityThreshold != 0.6 {
		t.Errorf("SimilarityThreshold = %v, want 0.6", out.SimilarityThreshold)
	}
	// Unset fields keep the built-in defaults.
	if out.HighQualityScore != 0.8 {
		t.Errorf("HighQualityScore = %v, want default 0.8", out.HighQualityScore)
	}
	if out.MaxNeighborSentences == 0 {
		t.Error("MaxNeighborSentences should keep its default")
	}
}
