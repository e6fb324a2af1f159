package collect

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDownload(t *testing.T) {
	want := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("x"), 100)...)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "postop-test" {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(want)
	}))
	defer srv.Close()

	d := NewDownloader(srv.Client(), "postop-test", 1<<20, nil)
	got, err := d.Download(context.Background(), srv.URL+"/file.pdf")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("downloaded %d bytes, want %d", len(got), len(want))
	}
}

func TestDownload_notPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not a pdf</html>"))
	}))
	defer srv.Close()

	d := NewDownloader(srv.Client(), "", 1<<20, nil)
	if _, err := d.Download(context.Background(), srv.URL+"/file.pdf"); err == nil {
		t.Error("expected error for non-PDF content")
	}
}

func TestDownload_tooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(append([]byte("%PDF-1.4"), bytes.Repeat([]byte("x"), 2048)...))
	}))
	defer srv.Close()

	d := NewDownloader(srv.Client(), "", 1024, nil)
	if _, err := d.Download(context.Background(), srv.URL+"/big.pdf"); err == nil {
		t.Error("expected error for oversized file")
	}
}

func TestDownload_errorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	d := NewDownloader(srv.Client(), "", 1<<20, nil)
	if _, err := d.Download(context.Background(), srv.URL+"/file.pdf"); err == nil {
		t.Error("expected error for 403 response")
	}
}

func TestDomainLimiters_Wait(t *testing.T) {
	// Burst allows the first requests through immediately
	limiters := newDomainLimiters(100)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	for i := 0; i < defaultBurst; i++ {
		if err := limiters.Wait(ctx, "example.org"); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("burst requests should not block, took %v", elapsed)
	}

	// Separate domains get separate buckets
	if err := limiters.Wait(ctx, "other.org"); err != nil {
		t.Fatalf("Wait other domain: %v", err)
	}
}

func TestDomainLimiters_cancelled(t *testing.T) {
	limiters := newDomainLimiters(0.001) // effectively frozen after burst
	ctx := context.Background()
	for i := 0; i < defaultBurst; i++ {
		if err := limiters.Wait(ctx, "slow.org"); err != nil {
			t.Fatalf("Wait burst: %v", err)
		}
	}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := limiters.Wait(cancelled, "slow.org"); err == nil {
		t.Error("expected error for cancelled context")
	}
}
