package collect

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// maxCrawlBody caps how much of an HTML page is read while looking for
// PDF links.
const maxCrawlBody = 2 << 20 // 2 MiB

// hrefPattern pulls href targets out of HTML. A full parser is overkill
// for link discovery; hrefs inside comments or scripts just yield
// candidates that fail the .pdf filter.
var hrefPattern = regexp.MustCompile(`href\s*=\s*["']([^"'#]+)["']`)

// PDFLink is a candidate document link found on a page.
type PDFLink struct {
	URL      string
	LinkText string
}

// Crawler fetches HTML pages and discovers links to PDF files.
type Crawler struct {
	client    *http.Client
	userAgent string
	limiters  *domainLimiters
}

// NewCrawler returns a Crawler using the given HTTP client and
// per-domain rate limiters.
func NewCrawler(client *http.Client, userAgent string, limiters *domainLimiters) *Crawler {
	if client == nil {
		client = http.DefaultClient
	}
	return &Crawler{client: client, userAgent: userAgent, limiters: limiters}
}

// FindPDFLinks fetches pageURL and returns the absolute URLs of PDF
// links on the page. If the URL itself serves a PDF, it is returned as
// the only link.
func (c *Crawler) FindPDFLinks(ctx context.Context, pageURL string) ([]PDFLink, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page URL: %w", err)
	}
	if c.limiters != nil {
		if err := c.limiters.Wait(ctx, base.Hostname()); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build crawl request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/pdf") {
		return []PDFLink{{URL: pageURL}}, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCrawlBody))
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}

	return extractPDFLinks(base, string(body)), nil
}

// extractPDFLinks resolves hrefs against base and keeps those pointing
// at .pdf paths. Duplicates are dropped, order of first appearance kept.
func extractPDFLinks(base *url.URL, html string) []PDFLink {
	seen := make(map[string]bool)
	var links []PDFLink
	for _, match := range hrefPattern.FindAllStringSubmatch(html, -1) {
		ref, err := url.Parse(strings.TrimSpace(match[1]))
		if err != nil {
			continue
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(resolved.Path), ".pdf") {
			continue
		}
		abs := resolved.String()
		if seen[abs] {
			continue
		}
		seen[abs] = true
		links = append(links, PDFLink{URL: abs})
	}
	return links
}
