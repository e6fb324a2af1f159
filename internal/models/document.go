// Package models defines core data structures for documents, analysis results, and care tasks.
package models

import "time"

// Document represents one collected source PDF with its extracted text.
// A document is created on successful download and is immutable afterwards
// except for its analysis annotations, which live in AnalysisResult.
type Document struct {
	ID           string    `json:"id" db:"id"`
	SourceURL    string    `json:"source_url" db:"source_url"`
	Filename     string    `json:"filename" db:"filename"`
	FilePath     string    `json:"file_path" db:"file_path"`
	SourceDomain string    `json:"source_domain" db:"source_domain"`
	ContentHash  string    `json:"content_hash" db:"content_hash"`
	FileSize     int64     `json:"file_size" db:"file_size"`
	Text         string    `json:"text,omitempty" db:"text"`
	PageCount    int       `json:"page_count" db:"page_count"`
	DownloadedAt time.Time `json:"downloaded_at" db:"downloaded_at"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// DocumentInput is the input for registering a document directly,
// e.g. a local file fed through the analyze command or the API.
type DocumentInput struct {
	ID        string `json:"id,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
	Filename  string `json:"filename,omitempty"`
	FilePath  string `json:"file_path,omitempty"`
	Text      string `json:"text"`
}
