// Package keyword provides Bleve implementation of KeywordIndex.
package keyword

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/carebound/postop/internal/models"
)

// filenameBoost multiplies the score contribution from matches in the
// filename field, so a query like "knee replacement" prefers documents
// named for the procedure over passing mentions in body text.
const filenameBoost = 3.0

// bleveDoc is the shape stored in the index.
type bleveDoc struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Content   string `json:"content"`
	Procedure string `json:"procedure"`
}

// BleveIndex implements KeywordIndex using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path.
// If the path already exists, the existing index is opened and reused so
// unchanged documents are not re-indexed. If the mapping changes in code,
// remove the index directory to force a full re-index.
func NewBleveIndex(path string) (*BleveIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so medical
	// terms match exactly; English stemming mangles terms like
	// "arthroplasty" and makes short queries miss.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("filename", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("id", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("procedure", keywordFieldMapping)
	im.AddDocumentMapping("document", docMapping)
	im.DefaultType = "document"
	im.DefaultMapping = docMapping

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// Index adds or replaces a document.
func (b *BleveIndex) Index(ctx context.Context, doc *models.Document, procedure string) error {
	return b.index.Index(doc.ID, &bleveDoc{
		ID:        doc.ID,
		Filename:  doc.Filename,
		Content:   doc.Text,
		Procedure: procedure,
	})
}

// Search runs a match query over filename and content, filename boosted.
// When the query requests a procedure, results are restricted to
// documents classified with that exact label.
func (b *BleveIndex) Search(ctx context.Context, query *models.SearchQuery) ([]*KeywordResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	contentQuery := bleve.NewMatchQuery(query.Query)
	contentQuery.SetField("content")
	filenameQuery := bleve.NewMatchQuery(query.Query)
	filenameQuery.SetField("filename")
	filenameQuery.SetBoost(filenameBoost)

	var q blevequery.Query = bleve.NewDisjunctionQuery(contentQuery, filenameQuery)
	if query.Procedure != "" {
		procQuery := bleve.NewTermQuery(query.Procedure)
		procQuery.SetField("procedure")
		q = bleve.NewConjunctionQuery(q, procQuery)
	}

	req := bleve.NewSearchRequest(q)
	req.Size = query.Limit
	req.Highlight = bleve.NewHighlight()
	req.Highlight.AddField("content")

	results, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	out := make([]*KeywordResult, 0, len(results.Hits))
	for _, hit := range results.Hits {
		r := &KeywordResult{ID: hit.ID, Score: hit.Score}
		if fragments, ok := hit.Fragments["content"]; ok && len(fragments) > 0 {
			r.Highlight = fragments[0]
		}
		out = append(out, r)
	}
	return out, nil
}

// Delete removes a document from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// DocCount returns the total number of indexed documents.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
