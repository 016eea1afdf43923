package document

import (
	"fmt"
	"sync/atomic"
)

// RawPage holds the text content of one page of a source document, as
// produced by a loader before any splitting.
type RawPage struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Passage represents a contiguous chunk of source-document text that is
// indexed for similarity search. Passages are immutable once produced.
type Passage struct {
	ID      string `json:"id"`
	Source  string `json:"source"`
	Ordinal int    `json:"ordinal"`
	Content string `json:"content"`
	Path    string `json:"path,omitempty"`
}

var passageCounter atomic.Int64

// NextPassageID returns a globally unique passage identifier derived from the
// source identifier.
func NextPassageID(source string) string {
	next := passageCounter.Add(1)
	if source == "" {
		return fmt.Sprintf("passage_%d", next)
	}
	return fmt.Sprintf("%s_passage_%d", source, next)
}
