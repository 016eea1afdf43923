// Package evidence carries the retrieved material an answer is grounded on,
// in exactly one of three shapes: relational rows, document passages, or web
// snippets.
package evidence

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/sweetpotato0/carequery/rag/document"
	"github.com/sweetpotato0/carequery/store"
	"github.com/sweetpotato0/carequery/websearch"
)

// Kind discriminates the evidence shape.
type Kind int

const (
	KindNone Kind = iota
	KindRows
	KindPassages
	KindSnippets
)

// String returns the kind name for logs.
func (k Kind) String() string {
	switch k {
	case KindRows:
		return "rows"
	case KindPassages:
		return "passages"
	case KindSnippets:
		return "snippets"
	default:
		return "none"
	}
}

// NoResults is the rendering of evidence that holds nothing.
const NoResults = "No results found"

// Evidence is the material backing an answer. Exactly one payload matches
// Kind; the others are zero.
type Evidence struct {
	Kind     Kind
	Rows     *store.ResultSet
	Passages []document.Passage
	Snippets []websearch.Snippet
}

// FromRows wraps a relational result set.
func FromRows(rs *store.ResultSet) Evidence {
	return Evidence{Kind: KindRows, Rows: rs}
}

// FromPassages wraps retrieved document passages.
func FromPassages(passages []document.Passage) Evidence {
	return Evidence{Kind: KindPassages, Passages: passages}
}

// FromSnippets wraps web search snippets.
func FromSnippets(snippets []websearch.Snippet) Evidence {
	return Evidence{Kind: KindSnippets, Snippets: snippets}
}

// Empty reports whether the evidence holds nothing to ground an answer on.
func (e Evidence) Empty() bool {
	switch e.Kind {
	case KindRows:
		return e.Rows == nil || e.Rows.Empty()
	case KindPassages:
		return len(e.Passages) == 0
	case KindSnippets:
		return len(e.Snippets) == 0
	default:
		return true
	}
}

// Render produces the plain-text form fed into answer prompts and shown to
// users. Empty evidence of any kind renders as NoResults.
func (e Evidence) Render() string {
	if e.Empty() {
		return NoResults
	}
	switch e.Kind {
	case KindRows:
		return renderRows(e.Rows)
	case KindPassages:
		return renderPassages(e.Passages)
	case KindSnippets:
		return renderSnippets(e.Snippets)
	default:
		return NoResults
	}
}

func renderRows(rs *store.ResultSet) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(rs.Columns, "\t"))
	for _, row := range rs.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				cells[i] = "NULL"
				continue
			}
			cells[i] = fmt.Sprint(v)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()
	return strings.TrimRight(sb.String(), "\n")
}

func renderPassages(passages []document.Passage) string {
	var sb strings.Builder
	for i, p := range passages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[%d] %s\n%s", i+1, p.Source, p.Content)
	}
	return sb.String()
}

func renderSnippets(snippets []websearch.Snippet) string {
	var sb strings.Builder
	for i, s := range snippets {
		title := s.Title
		if title == "" {
			title = "No title"
		}
		url := s.URL
		if url == "" {
			url = "No URL"
		}
		content := s.Content
		if content == "" {
			content = "No content"
		}
		fmt.Fprintf(&sb, "\n%d. %s\n   URL: %s\n   Content: %s\n", i+1, title, url, content)
	}
	return sb.String()
}
