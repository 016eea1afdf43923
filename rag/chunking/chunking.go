// Package chunking splits page text into overlapping fixed-size passages.
package chunking

import (
	"strings"
	"unicode/utf8"

	"github.com/sweetpotato0/carequery/rag/document"
)

// separators are tried in order when a piece of text exceeds the chunk size:
// paragraph breaks, line breaks, sentence ends, then word boundaries. Only
// when none apply does the splitter fall back to a hard character cut.
var separators = []string{"\n\n", "\n", ". ", " "}

// Options controls splitter behaviour.
type Options struct {
	ChunkSize int
	Overlap   int
}

// Option customizes the splitter.
type Option func(*Options)

// WithChunkSize overrides the default chunk size (characters).
func WithChunkSize(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.ChunkSize = size
		}
	}
}

// WithOverlap configures overlap (characters) between consecutive passages.
func WithOverlap(overlap int) Option {
	return func(o *Options) {
		if overlap >= 0 {
			o.Overlap = overlap
		}
	}
}

// Splitter deterministically partitions page text into passages no longer
// than the configured chunk size.
type Splitter struct {
	size    int
	overlap int
}

// NewSplitter constructs a splitter. Defaults match the sizes the document
// pipeline was tuned with: 1000-character chunks, 200-character overlap.
func NewSplitter(opts ...Option) *Splitter {
	cfg := &Options{
		ChunkSize: 1000,
		Overlap:   200,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Overlap >= cfg.ChunkSize {
		cfg.Overlap = cfg.ChunkSize / 5
	}
	return &Splitter{size: cfg.ChunkSize, overlap: cfg.Overlap}
}

// Split partitions the pages of a document into passages. Passages are
// ordered page by page and carry a sequence index across the whole document.
func (s *Splitter) Split(source, path string, pages []document.RawPage) []document.Passage {
	passages := make([]document.Passage, 0, len(pages))
	ordinal := 0
	for _, page := range pages {
		text := strings.TrimSpace(page.Text)
		if text == "" {
			continue
		}
		for _, piece := range s.split(text, 0) {
			piece = strings.TrimSpace(piece)
			if piece == "" {
				continue
			}
			passages = append(passages, document.Passage{
				ID:      document.NextPassageID(source),
				Source:  source,
				Ordinal: ordinal,
				Content: piece,
				Path:    path,
			})
			ordinal++
		}
	}
	return passages
}

func (s *Splitter) split(text string, depth int) []string {
	if utf8.RuneCountInString(text) <= s.size {
		return []string{text}
	}
	if depth >= len(separators) {
		return s.window(text)
	}
	sep := separators[depth]
	parts := strings.Split(text, sep)
	if len(parts) == 1 {
		return s.split(text, depth+1)
	}
	return s.pack(parts, sep, depth)
}

// pack greedily merges parts back together up to the chunk size, recursing
// into finer separators for any single part that is itself oversized. When a
// chunk is emitted, a trailing suffix of it (up to the configured overlap)
// seeds the next chunk, so consecutive passages share context at the
// boundary.
func (s *Splitter) pack(parts []string, sep string, depth int) []string {
	var out []string
	var current []string
	total := 0
	sepLen := utf8.RuneCountInString(sep)

	emit := func() {
		out = append(out, strings.Join(current, sep))
	}

	for _, part := range parts {
		partLen := utf8.RuneCountInString(part)
		if partLen > s.size {
			if len(current) > 0 {
				emit()
				current, total = nil, 0
			}
			out = append(out, s.split(part, depth+1)...)
			continue
		}

		addLen := partLen
		if len(current) > 0 {
			addLen += sepLen
		}
		if total+addLen > s.size && len(current) > 0 {
			emit()
			// Retain trailing parts within the overlap that still leave
			// room for the incoming part. A part larger than the overlap
			// is never carried.
			for len(current) > 0 && (total > s.overlap || total+sepLen+partLen > s.size) {
				total -= utf8.RuneCountInString(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}

		if len(current) > 0 {
			total += sepLen
		}
		current = append(current, part)
		total += partLen
	}
	if len(current) > 0 {
		emit()
	}
	return out
}

// window performs the hard character cut: fixed-size windows where
// consecutive windows share exactly the configured overlap, except possibly
// the final window.
func (s *Splitter) window(text string) []string {
	runes := []rune(text)
	step := s.size - s.overlap
	var out []string
	for start := 0; ; start += step {
		end := start + s.size
		if end >= len(runes) {
			out = append(out, string(runes[start:]))
			return out
		}
		out = append(out, string(runes[start:end]))
	}
}
