// Package tavily implements websearch.DomainSearcher against the Tavily
// search API.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sweetpotato0/carequery/websearch"
)

const defaultAPIURL = "https://api.tavily.com/search"

// Config holds Tavily client configuration
type Config struct {
	APIKey  string
	BaseURL string
}

// Client implements websearch.DomainSearcher for Tavily
type Client struct {
	config *Config
	client *http.Client
}

// New creates a new Tavily client
func New(config *Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultAPIURL
	}
	return &Client{
		config: config,
		client: &http.Client{},
	}
}

// tavilyRequest represents a Tavily search request
type tavilyRequest struct {
	APIKey            string   `json:"api_key"`
	Query             string   `json:"query"`
	MaxResults        int      `json:"max_results"`
	SearchDepth       string   `json:"search_depth"`
	IncludeAnswer     bool     `json:"include_answer"`
	IncludeRawContent bool     `json:"include_raw_content"`
	IncludeDomains    []string `json:"include_domains,omitempty"`
}

// tavilyResult represents one result in a Tavily response
type tavilyResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// tavilyResponse represents a Tavily search response
type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
}

// Search implements websearch.Searcher.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]websearch.Snippet, error) {
	return c.search(ctx, query, nil, maxResults)
}

// SearchDomains implements websearch.DomainSearcher.
func (c *Client) SearchDomains(ctx context.Context, query string, domains []string, maxResults int) ([]websearch.Snippet, error) {
	return c.search(ctx, query, domains, maxResults)
}

func (c *Client) search(ctx context.Context, query string, domains []string, maxResults int) ([]websearch.Snippet, error) {
	if c.config.APIKey == "" {
		return nil, fmt.Errorf("Tavily API key not configured")
	}
	if maxResults <= 0 {
		maxResults = websearch.DefaultMaxResults
	}

	req := tavilyRequest{
		APIKey:            c.config.APIKey,
		Query:             query,
		MaxResults:        maxResults,
		SearchDepth:       "advanced",
		IncludeAnswer:     true,
		IncludeRawContent: false,
		IncludeDomains:    domains,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Tavily API error (status %d): %s", httpResp.StatusCode, respBody)
	}

	var resp tavilyResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(resp.Results) > maxResults {
		resp.Results = resp.Results[:maxResults]
	}
	snippets := make([]websearch.Snippet, 0, len(resp.Results))
	for _, r := range resp.Results {
		snippets = append(snippets, websearch.Snippet{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
		})
	}
	return snippets, nil
}
