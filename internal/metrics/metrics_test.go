package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMiddleware_countsRequests(t *testing.T) {
	m := New()
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/collect/start", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}

	body := scrape(t, m)
	if !strings.Contains(body, `postop_http_requests_total{method="POST",path="/api/v1/collect/start",status="201"} 1`) {
		t.Errorf("request counter missing from exposition:\n%s", body)
	}
}

func TestRecordDocument(t *testing.T) {
	m := New()
	m.RecordDocument(50*time.Millisecond, 3, "high", nil)
	m.RecordDocument(10*time.Millisecond, 0, "", errors.New("boom"))

	body := scrape(t, m)
	if !strings.Contains(body, `postop_pipeline_documents_processed_total{status="success"} 1`) {
		t.Errorf("success counter missing:\n%s", body)
	}
	if !strings.Contains(body, `postop_pipeline_documents_processed_total{status="error"} 1`) {
		t.Errorf("error counter missing:\n%s", body)
	}
	if !strings.Contains(body, `postop_pipeline_tasks_extracted_total 3`) {
		t.Errorf("task counter missing:\n%s", body)
	}
	if !strings.Contains(body, `postop_pipeline_document_quality_total{tier="high"} 1`) {
		t.Errorf("quality counter missing:\n%s", body)
	}
}

func TestRecordDownload(t *testing.T) {
	m := New()
	m.RecordDownload(2048, nil)
	m.RecordDownload(0, errors.New("timeout"))
	m.RecordDiscoveredURLs(12)

	body := scrape(t, m)
	if !strings.Contains(body, `postop_collect_downloads_total{status="success"} 1`) {
		t.Errorf("download counter missing:\n%s", body)
	}
	if !strings.Contains(body, `postop_collect_bytes_downloaded_total 2048`) {
		t.Errorf("bytes counter missing:\n%s", body)
	}
	if !strings.Contains(body, `postop_collect_urls_discovered_total 12`) {
		t.Errorf("url counter missing:\n%s", body)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/api/v1/pdfs/doc:abc123", "/api/v1/pdfs/{id}"},
		{"/api/v1/collect/runs/run-1", "/api/v1/collect/runs/{id}"},
		{"/api/v1/status", "/api/v1/status"},
		{"/health", "/health"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.in); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read exposition: %v", err)
	}
	return string(body)
}
