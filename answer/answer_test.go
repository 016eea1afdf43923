package answer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	cqerrors "github.com/sweetpotato0/carequery/errors"
	"github.com/sweetpotato0/carequery/evidence"
	"github.com/sweetpotato0/carequery/rag/document"
	"github.com/sweetpotato0/carequery/store"
	"github.com/sweetpotato0/carequery/websearch"
)

type stubClient struct {
	response string
	err      error
	calls    int
	prompt   string
}

func (s *stubClient) Complete(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.prompt = prompt
	return s.response, s.err
}

func TestSynthesizeRows(t *testing.T) {
	client := &stubClient{response: "Rajesh Kumar lives in Bangalore."}
	syn := NewSynthesizer(client)

	ev := evidence.FromRows(&store.ResultSet{
		Columns: []string{"first_name", "city"},
		Rows:    [][]any{{"Rajesh", "Bangalore"}},
	})
	got, err := syn.Synthesize(context.Background(), "Where does Rajesh live?", ev)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if got != "Rajesh Kumar lives in Bangalore." {
		t.Errorf("Synthesize() = %q", got)
	}
	if client.calls != 1 {
		t.Errorf("model calls = %d, want 1", client.calls)
	}
	if !strings.Contains(client.prompt, "database query results") {
		t.Errorf("rows evidence used wrong prompt:\n%s", client.prompt)
	}
	if !strings.Contains(client.prompt, "Rajesh") {
		t.Error("prompt missing evidence")
	}
}

func TestSynthesizePassagesPrompt(t *testing.T) {
	client := &stubClient{response: "ok"}
	syn := NewSynthesizer(client)

	ev := evidence.FromPassages([]document.Passage{{Source: "guide.pdf", Content: "Metformin lowers glucose."}})
	if _, err := syn.Synthesize(context.Background(), "What does metformin do?", ev); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if !strings.Contains(client.prompt, "<context>") {
		t.Errorf("passage evidence used wrong prompt:\n%s", client.prompt)
	}
}

func TestSynthesizeSnippetsPrompt(t *testing.T) {
	client := &stubClient{response: "ok"}
	syn := NewSynthesizer(client)

	ev := evidence.FromSnippets([]websearch.Snippet{{Title: "Flu", URL: "u", Content: "c"}})
	if _, err := syn.Synthesize(context.Background(), "flu?", ev); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if !strings.Contains(client.prompt, "internet search results") {
		t.Errorf("snippet evidence used wrong prompt:\n%s", client.prompt)
	}
}

func TestSynthesizeNoEvidence(t *testing.T) {
	client := &stubClient{}
	syn := NewSynthesizer(client)

	_, err := syn.Synthesize(context.Background(), "q", evidence.Evidence{})
	if !errors.Is(err, cqerrors.ErrInvalidInput) {
		t.Errorf("Synthesize() error = %v, want ErrInvalidInput", err)
	}
	if client.calls != 0 {
		t.Errorf("model calls = %d, want 0", client.calls)
	}
}

func TestSynthesizeModelError(t *testing.T) {
	client := &stubClient{err: errors.New("overloaded")}
	syn := NewSynthesizer(client)

	ev := evidence.FromSnippets([]websearch.Snippet{{Title: "t"}})
	_, err := syn.Synthesize(context.Background(), "q", ev)
	if !errors.Is(err, cqerrors.ErrProvider) {
		t.Errorf("Synthesize() error = %v, want ErrProvider", err)
	}
}

func TestEvidenceBudgetTruncation(t *testing.T) {
	client := &stubClient{response: "ok"}
	syn := NewSynthesizer(client, WithEvidenceBudget(20))

	long := strings.Repeat("glucose monitoring ", 200)
	ev := evidence.FromPassages([]document.Passage{{Source: "guide.pdf", Content: long}})
	if _, err := syn.Synthesize(context.Background(), "q", ev); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if strings.Contains(client.prompt, long) {
		t.Error("over-budget evidence was not truncated")
	}
}

func TestTruncateKeepsValidUTF8(t *testing.T) {
	text := strings.Repeat("血糖監測指南", 200)
	got := truncateToBudget(text, 10)
	if len(got) >= len(text) {
		t.Fatal("over-budget text was not truncated")
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncation produced invalid UTF-8 tail: %q", got[len(got)-12:])
	}
	if !strings.HasPrefix(text, got) {
		t.Error("truncation is not a prefix of the input")
	}
}

func TestCountTokensNonZero(t *testing.T) {
	if CountTokens("hello world, this is a sentence") == 0 {
		t.Error("CountTokens() = 0 for non-empty text")
	}
	if CountTokens("") != 0 {
		t.Error("CountTokens(\"\") != 0")
	}
}
