// Package extract provides text extraction from document formats
// collected by the pipeline.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Result holds the outcome of a text extraction.
type Result struct {
	// Text is the extracted plain text. For PDFs, pages are separated
	// by form feed characters so downstream code can detect repeated
	// headers and footers.
	Text string
	// Pages is the page count for paginated formats, 0 otherwise.
	Pages int
}

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Supported reports whether the extension (with leading dot) is a format
// the extractor handles.
func Supported(ext string) bool {
	switch strings.ToLower(ext) {
	case ".pdf", ".docx", ".txt":
		return true
	}
	return false
}

// Extract reads the file at path and returns its text content.
// Returns an error if the file cannot be read or the format is unsupported.
func (e *Extractor) Extract(path string) (*Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string) (*Result, error) {
	switch strings.ToLower(ext) {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".txt":
		return extractPlain(content)
	default:
		return nil, fmt.Errorf("unsupported format %q", ext)
	}
}
