// Package docid derives deterministic document identifiers and content
// hashes used for deduplication across collection runs.
package docid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const (
	docPrefix  = "doc:"
	filePrefix = "file:"

	// shortLen is the number of hex characters kept in document IDs.
	// 16 chars of SHA-256 is plenty for collision-free IDs at this scale
	// while keeping IDs readable in logs and URLs.
	shortLen = 16
)

// ContentHash returns the full hex SHA-256 of content. It is stored
// alongside each document so re-downloads of the same file are detected
// regardless of source URL.
func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// FromContent returns a stable document ID derived from the content hash.
// The same bytes always yield the same ID.
func FromContent(content []byte) string {
	return docPrefix + ContentHash(content)[:shortLen]
}

// FromHash returns the document ID for a previously computed content hash.
func FromHash(contentHash string) string {
	if len(contentHash) < shortLen {
		return docPrefix + contentHash
	}
	return docPrefix + contentHash[:shortLen]
}

// FromPath returns a stable document ID for a watched file at the given
// absolute path. Same path always yields the same ID, so updates and
// deletes by path resolve to the same document.
func FromPath(absolutePath string) string {
	normalized := filepath.Clean(absolutePath)
	hash := sha256.Sum256([]byte(normalized))
	return filePrefix + hex.EncodeToString(hash[:])[:shortLen]
}
