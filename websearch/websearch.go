// Package websearch defines the web search capability: snippet types, the
// provider interfaces, and medical search with trusted-domain filtering.
package websearch

import (
	"context"
	"fmt"
	"strings"
)

// Snippet is one web search result.
type Snippet struct {
	Title   string
	URL     string
	Content string
}

// Searcher is a web search provider.
type Searcher interface {
	// Search returns up to maxResults snippets for query.
	Search(ctx context.Context, query string, maxResults int) ([]Snippet, error)
}

// DomainSearcher is a provider with native result-domain filtering.
type DomainSearcher interface {
	Searcher
	// SearchDomains restricts results to the given domains.
	SearchDomains(ctx context.Context, query string, domains []string, maxResults int) ([]Snippet, error)
}

// DefaultMaxResults bounds how many snippets a search returns.
const DefaultMaxResults = 5

// DefaultTrustedDomains are the medical sources used when the caller does
// not supply an explicit domain list.
var DefaultTrustedDomains = []string{
	"pubmed.ncbi.nlm.nih.gov",
	"mayoclinic.org",
	"who.int",
	"cdc.gov",
	"nih.gov",
	"webmd.com",
	"medicalnewstoday.com",
}

// MedicalSearch restricts query to trusted medical domains. Providers with
// native domain filtering get the list directly; for the rest the domains
// are folded into the query as site: qualifiers. A provider failure is
// reported as a single diagnostic snippet rather than an error, so callers
// always have something to show.
func MedicalSearch(ctx context.Context, searcher Searcher, query string, domains []string) []Snippet {
	if len(domains) == 0 {
		domains = DefaultTrustedDomains
	}

	var (
		snippets []Snippet
		err      error
	)
	if ds, ok := searcher.(DomainSearcher); ok {
		snippets, err = ds.SearchDomains(ctx, query, domains, DefaultMaxResults)
	} else {
		snippets, err = searcher.Search(ctx, QualifyDomains(query, domains), DefaultMaxResults)
	}
	if err != nil {
		return []Snippet{{
			Title:   "Medical search error",
			Content: fmt.Sprintf("Medical search error: %v", err),
		}}
	}
	return snippets
}

// QualifyDomains appends site: qualifiers for each domain to the query.
func QualifyDomains(query string, domains []string) string {
	qualifiers := make([]string, len(domains))
	for i, d := range domains {
		qualifiers[i] = "site:" + d
	}
	return query + " " + strings.Join(qualifiers, " OR ")
}
