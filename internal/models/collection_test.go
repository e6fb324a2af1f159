package models

import (
	"testing"
)

func TestCollectionRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     *CollectionRequest
		wantErr bool
	}{
		{
			name:    "valid with queries",
			req:     &CollectionRequest{Queries: []string{"knee replacement post-op instructions pdf"}},
			wantErr: false,
		},
		{
			name:    "valid with direct URLs only",
			req:     &CollectionRequest{DirectURLs: []string{"https://example.org/discharge.pdf"}},
			wantErr: false,
		},
		{
			name:    "empty request",
			req:     &CollectionRequest{},
			wantErr: true,
		},
		{
			name:    "confidence out of range",
			req:     &CollectionRequest{Queries: []string{"q"}, MinConfidence: 1.5},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.req.MaxPDFs <= 0 {
				t.Errorf("Validate() did not default MaxPDFs, got %d", tt.req.MaxPDFs)
			}
		})
	}
}

func TestSearchQuery_Validate(t *testing.T) {
	q := &SearchQuery{Query: "wound care", Limit: 500}
	if err := q.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if q.Limit != 100 {
		t.Errorf("Limit not capped, got %d", q.Limit)
	}

	empty := &SearchQuery{}
	if err := empty.Validate(); err == nil {
		t.Error("Validate() on empty query should fail")
	}
}

func TestCollectionRun_SuccessRate(t *testing.T) {
	run := &CollectionRun{URLsDiscovered: 20, PDFsCollected: 5}
	if got := run.SuccessRate(); got != 0.25 {
		t.Errorf("SuccessRate() = %v, want 0.25", got)
	}
	zero := &CollectionRun{}
	if got := zero.SuccessRate(); got != 0 {
		t.Errorf("SuccessRate() on empty run = %v, want 0", got)
	}
}
