package chunking

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sweetpotato0/carequery/rag/document"
)

// hardText builds text with no natural boundaries so splitting must fall
// back to the fixed-window cut.
func hardText(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(byte('a' + i%23))
	}
	return b.String()
}

func TestSplitNeverExceedsChunkSize(t *testing.T) {
	s := NewSplitter(WithChunkSize(100), WithOverlap(20))
	pages := []document.RawPage{
		{Number: 1, Text: "First paragraph about diabetes management.\n\nSecond paragraph about insulin dosing schedules and monitoring."},
		{Number: 2, Text: hardText(953)},
	}

	passages := s.Split("guide.pdf", "/tmp/guide.pdf", pages)
	if len(passages) == 0 {
		t.Fatal("expected passages")
	}
	for _, p := range passages {
		if n := utf8.RuneCountInString(p.Content); n > 100 {
			t.Fatalf("passage %s has %d chars, limit 100", p.ID, n)
		}
	}
}

func TestHardCutOverlapsExactly(t *testing.T) {
	const size, overlap = 100, 20
	s := NewSplitter(WithChunkSize(size), WithOverlap(overlap))

	text := hardText(487)
	passages := s.Split("doc", "", []document.RawPage{{Number: 1, Text: text}})
	if len(passages) < 2 {
		t.Fatalf("expected multiple passages, got %d", len(passages))
	}

	for i := 0; i < len(passages)-1; i++ {
		cur := passages[i].Content
		next := passages[i+1].Content
		tail := cur[len(cur)-overlap:]
		if !strings.HasPrefix(next, tail) {
			t.Fatalf("passages %d and %d do not overlap by %d chars", i, i+1, overlap)
		}
	}
}

// sharedBoundary returns the length of the longest suffix of prev that is
// also a prefix of next.
func sharedBoundary(prev, next string) int {
	max := len(prev)
	if len(next) < max {
		max = len(next)
	}
	for l := max; l > 0; l-- {
		if strings.HasSuffix(prev, next[:l]) {
			return l
		}
	}
	return 0
}

func TestSentencePackingCarriesOverlap(t *testing.T) {
	const size, overlap = 60, 20
	s := NewSplitter(WithChunkSize(size), WithOverlap(overlap))

	// Ten distinct 15-char sentences; each fits the overlap, so every
	// emitted chunk must seed the next with its trailing sentence.
	sentences := make([]string, 10)
	for i := range sentences {
		sentences[i] = strings.Repeat(string(rune('a'+i)), 15)
	}
	text := strings.Join(sentences, ". ")

	passages := s.Split("doc", "", []document.RawPage{{Number: 1, Text: text}})
	if len(passages) < 2 {
		t.Fatalf("expected multiple passages, got %d", len(passages))
	}
	for i := 0; i < len(passages)-1; i++ {
		shared := sharedBoundary(passages[i].Content, passages[i+1].Content)
		if shared == 0 {
			t.Fatalf("passages %d and %d share no boundary context", i, i+1)
		}
		if shared > overlap {
			t.Fatalf("passages %d and %d share %d chars, overlap limit %d", i, i+1, shared, overlap)
		}
	}
}

func TestWordPackingCarriesOverlap(t *testing.T) {
	const size, overlap = 30, 8
	s := NewSplitter(WithChunkSize(size), WithOverlap(overlap))

	// No paragraph or sentence boundaries, so packing happens at the word
	// level.
	words := make([]string, 20)
	for i := range words {
		words[i] = string(rune('a'+i%26)) + "w" + string(rune('0'+i%10))
	}
	text := strings.Join(words, " ")

	passages := s.Split("doc", "", []document.RawPage{{Number: 1, Text: text}})
	if len(passages) < 2 {
		t.Fatalf("expected multiple passages, got %d", len(passages))
	}
	for i := 0; i < len(passages)-1; i++ {
		shared := sharedBoundary(passages[i].Content, passages[i+1].Content)
		if shared == 0 {
			t.Fatalf("passages %d and %d share no boundary context", i, i+1)
		}
		if shared > overlap {
			t.Fatalf("passages %d and %d share %d chars, overlap limit %d", i, i+1, shared, overlap)
		}
		if n := utf8.RuneCountInString(passages[i].Content); n > size {
			t.Fatalf("passage %d has %d chars after carry, limit %d", i, n, size)
		}
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	s := NewSplitter(WithChunkSize(100), WithOverlap(20))
	first := strings.Repeat("x", 60)
	second := strings.Repeat("y", 60)
	pages := []document.RawPage{{Number: 1, Text: first + "\n\n" + second}}

	passages := s.Split("doc", "", pages)
	if len(passages) != 2 {
		t.Fatalf("expected 2 passages, got %d", len(passages))
	}
	if passages[0].Content != first || passages[1].Content != second {
		t.Fatal("paragraphs were severed instead of split at the boundary")
	}
}

func TestSplitMergesShortParagraphs(t *testing.T) {
	s := NewSplitter(WithChunkSize(100), WithOverlap(20))
	pages := []document.RawPage{{Number: 1, Text: "short one\n\nshort two"}}

	passages := s.Split("doc", "", pages)
	if len(passages) != 1 {
		t.Fatalf("expected merged passage, got %d", len(passages))
	}
	if !strings.Contains(passages[0].Content, "short one") || !strings.Contains(passages[0].Content, "short two") {
		t.Fatalf("unexpected content %q", passages[0].Content)
	}
}

func TestSplitOrdinalsAreSequential(t *testing.T) {
	s := NewSplitter(WithChunkSize(50), WithOverlap(10))
	pages := []document.RawPage{
		{Number: 1, Text: hardText(120)},
		{Number: 2, Text: hardText(120)},
	}

	passages := s.Split("doc", "", pages)
	for i, p := range passages {
		if p.Ordinal != i {
			t.Fatalf("passage %d has ordinal %d", i, p.Ordinal)
		}
		if p.Source != "doc" {
			t.Fatalf("passage %d has source %q", i, p.Source)
		}
	}
}

func TestSplitSkipsEmptyPages(t *testing.T) {
	s := NewSplitter()
	passages := s.Split("doc", "", []document.RawPage{
		{Number: 1, Text: "   \n  "},
		{Number: 2, Text: "real content"},
	})
	if len(passages) != 1 {
		t.Fatalf("expected 1 passage, got %d", len(passages))
	}
}

func TestOverlapClampedBelowChunkSize(t *testing.T) {
	s := NewSplitter(WithChunkSize(100), WithOverlap(100))
	if s.overlap >= s.size {
		t.Fatalf("overlap %d not clamped below size %d", s.overlap, s.size)
	}
}
