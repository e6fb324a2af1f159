// Package collect discovers and downloads post-operative care documents
// from the web.
package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// googleSearchEndpoint is the Google Custom Search JSON API endpoint.
const googleSearchEndpoint = "https://www.googleapis.com/customsearch/v1"

// googlePageSize is the maximum results per Custom Search request.
const googlePageSize = 10

// SearchHit is one result from a search provider.
type SearchHit struct {
	URL     string
	Title   string
	Snippet string
}

// SearchProvider finds candidate document URLs for a query.
type SearchProvider interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchHit, error)
}

// GoogleProvider implements SearchProvider using the Google Custom
// Search JSON API. Queries are scoped to PDF results.
type GoogleProvider struct {
	apiKey   string
	engineID string
	endpoint string
	client   *http.Client
}

// NewGoogleProvider returns a provider using the given API credentials.
func NewGoogleProvider(apiKey, engineID string, client *http.Client) *GoogleProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &GoogleProvider{
		apiKey:   apiKey,
		engineID: engineID,
		endpoint: googleSearchEndpoint,
		client:   client,
	}
}

type googleSearchResponse struct {
	Items []struct {
		Link    string `json:"link"`
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// Search runs the query against the Custom Search API, paging until
// maxResults hits are gathered or results run out.
func (g *GoogleProvider) Search(ctx context.Context, query string, maxResults int) ([]SearchHit, error) {
	if g.apiKey == "" || g.engineID == "" {
		return nil, fmt.Errorf("google search requires an API key and engine ID")
	}

	var hits []SearchHit
	for start := 1; len(hits) < maxResults; start += googlePageSize {
		page, err := g.searchPage(ctx, query, start)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		hits = append(hits, page...)
	}
	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}
	return hits, nil
}

func (g *GoogleProvider) searchPage(ctx context.Context, query string, start int) ([]SearchHit, error) {
	params := url.Values{}
	params.Set("key", g.apiKey)
	params.Set("cx", g.engineID)
	params.Set("q", query)
	params.Set("fileType", "pdf")
	params.Set("num", strconv.Itoa(googlePageSize))
	params.Set("start", strconv.Itoa(start))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var parsed googleSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	hits := make([]SearchHit, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		hits = append(hits, SearchHit{URL: item.Link, Title: item.Title, Snippet: item.Snippet})
	}
	return hits, nil
}
