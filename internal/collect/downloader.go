package collect

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// pdfMagic is the signature every PDF file starts with.
var pdfMagic = []byte("%PDF-")

// Downloader fetches PDF files with size caps and per-domain rate
// limiting.
type Downloader struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	limiters  *domainLimiters
}

// NewDownloader returns a Downloader. maxBytes caps the accepted file
// size; larger responses are rejected.
func NewDownloader(client *http.Client, userAgent string, maxBytes int64, limiters *domainLimiters) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Downloader{
		client:    client,
		userAgent: userAgent,
		maxBytes:  maxBytes,
		limiters:  limiters,
	}
}

// Download fetches rawURL and returns the PDF bytes. Responses that are
// not PDFs or exceed the size cap are rejected.
func (d *Downloader) Download(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}
	if d.limiters != nil {
		if err := d.limiters.Wait(ctx, u.Hostname()); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download returned status %d", resp.StatusCode)
	}
	if resp.ContentLength > 0 && d.maxBytes > 0 && resp.ContentLength > d.maxBytes {
		return nil, fmt.Errorf("file too large: %d bytes (limit %d)", resp.ContentLength, d.maxBytes)
	}

	limit := d.maxBytes
	if limit <= 0 {
		limit = 100 << 20
	}
	content, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read download: %w", err)
	}
	if int64(len(content)) > limit {
		return nil, fmt.Errorf("file too large: exceeds %d bytes", limit)
	}
	if !bytes.HasPrefix(content, pdfMagic) {
		return nil, fmt.Errorf("not a PDF: missing %%PDF signature")
	}
	return content, nil
}
