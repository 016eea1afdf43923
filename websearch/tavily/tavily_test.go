package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchDomains(t *testing.T) {
	var gotReq map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"title": "Flu vaccination", "url": "https://cdc.gov/flu", "content": "Annual flu shots..."},
				{"title": "Influenza", "url": "https://who.int/flu", "content": "Seasonal influenza..."},
			},
		})
	}))
	defer server.Close()

	c := New(&Config{APIKey: "test-key", BaseURL: server.URL})
	snippets, err := c.SearchDomains(context.Background(), "flu shot", []string{"cdc.gov", "who.int"}, 5)
	if err != nil {
		t.Fatalf("SearchDomains() error = %v", err)
	}
	if len(snippets) != 2 {
		t.Fatalf("got %d snippets, want 2", len(snippets))
	}
	if snippets[0].Title != "Flu vaccination" || snippets[0].URL != "https://cdc.gov/flu" {
		t.Errorf("snippet[0] = %+v", snippets[0])
	}

	if gotReq["api_key"] != "test-key" {
		t.Errorf("request api_key = %v", gotReq["api_key"])
	}
	if gotReq["search_depth"] != "advanced" {
		t.Errorf("request search_depth = %v", gotReq["search_depth"])
	}
	if gotReq["max_results"] != float64(5) {
		t.Errorf("request max_results = %v", gotReq["max_results"])
	}
	domains, _ := gotReq["include_domains"].([]any)
	if len(domains) != 2 {
		t.Errorf("request include_domains = %v", gotReq["include_domains"])
	}
}

func TestSearchTruncatesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		results := make([]map[string]string, 8)
		for i := range results {
			results[i] = map[string]string{"title": "t", "url": "u", "content": "c"}
		}
		json.NewEncoder(w).Encode(map[string]any{"results": results})
	}))
	defer server.Close()

	c := New(&Config{APIKey: "test-key", BaseURL: server.URL})
	snippets, err := c.Search(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(snippets) != 5 {
		t.Errorf("got %d snippets, want 5", len(snippets))
	}
}

func TestSearchAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer server.Close()

	c := New(&Config{APIKey: "bad-key", BaseURL: server.URL})
	if _, err := c.Search(context.Background(), "q", 5); err == nil {
		t.Fatal("Search() error = nil, want API error")
	}
}

func TestSearchMissingKey(t *testing.T) {
	c := New(&Config{})
	if _, err := c.Search(context.Background(), "q", 5); err == nil {
		t.Fatal("Search() error = nil, want missing key error")
	}
}
