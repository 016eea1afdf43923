// Package duckduckgo implements websearch.Searcher by scraping the
// DuckDuckGo HTML endpoint. It needs no API key and has no native domain
// filtering, so medical searches through it rely on site: qualifiers.
package duckduckgo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sweetpotato0/carequery/websearch"
)

const defaultBaseURL = "https://html.duckduckgo.com/html/"

// Config holds DuckDuckGo client configuration
type Config struct {
	BaseURL string
}

// Client implements websearch.Searcher for DuckDuckGo
type Client struct {
	config *Config
	client *http.Client
}

// New creates a new DuckDuckGo client. A nil config uses the public
// endpoint.
func New(config *Config) *Client {
	if config == nil {
		config = &Config{}
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	return &Client{
		config: config,
		client: &http.Client{},
	}
}

// Search implements websearch.Searcher.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]websearch.Snippet, error) {
	if maxResults <= 0 {
		maxResults = websearch.DefaultMaxResults
	}

	endpoint := c.config.BaseURL + "?q=" + url.QueryEscape(query)
	httpReq, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", "Mozilla/5.0 (compatible; carequery/1.0)")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DuckDuckGo error (status %d)", httpResp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse results page: %w", err)
	}

	var snippets []websearch.Snippet
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		title := sel.Find(".result__title a")
		snippet := websearch.Snippet{
			Title:   strings.TrimSpace(title.Text()),
			URL:     resultURL(title),
			Content: strings.TrimSpace(sel.Find(".result__snippet").Text()),
		}
		if snippet.Title == "" && snippet.Content == "" {
			return true
		}
		snippets = append(snippets, snippet)
		return len(snippets) < maxResults
	})

	// The HTML endpoint sometimes serves a page without the result markup.
	// Fall back to a single text blob so the caller still gets evidence.
	if len(snippets) == 0 {
		if text := strings.TrimSpace(doc.Find("body").Text()); text != "" {
			snippets = append(snippets, websearch.Snippet{Content: text})
		}
	}
	return snippets, nil
}

// resultURL unwraps DuckDuckGo's redirect links (//duckduckgo.com/l/?uddg=...)
// to the target URL.
func resultURL(title *goquery.Selection) string {
	href, ok := title.Attr("href")
	if !ok {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
