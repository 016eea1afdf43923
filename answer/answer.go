// Package answer synthesizes natural language answers from a question and
// its retrieved evidence with a single model call.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	cqerrors "github.com/sweetpotato0/carequery/errors"
	"github.com/sweetpotato0/carequery/evidence"
	"github.com/sweetpotato0/carequery/llm"
	"github.com/sweetpotato0/carequery/pkg/logging"
)

const rowsPrompt = `Based on the following database query results, provide a clear and concise answer to the user's question.

User Question: %s

Query Results:
%s

Provide a natural language response that directly answers the question.
If the results are empty, inform the user that no matching records were found.

Answer:`

const passagesPrompt = `Answer the questions based on the provided context only.
Please provide the most accurate response based on the question.

<context>
%s
</context>

Question: %s

Answer:`

const snippetsPrompt = `You are a knowledgeable healthcare assistant with access to internet search results.

User Question: %s

Search Results:
%s

Based on the search results above, provide a comprehensive, accurate, and well-structured answer.

Important guidelines:
- Synthesize information from multiple sources
- Cite specific facts when available
- Mention if information is from recent studies or guidelines
- Be clear about medical disclaimers when appropriate
- If search results are insufficient, acknowledge limitations
- Use bullet points for clarity when listing multiple items
- Keep the response professional and informative

Answer:`

// DefaultEvidenceBudget caps how many tokens of rendered evidence go into a
// prompt. Leaves headroom for the question, instructions, and completion
// within common 8k context windows.
const DefaultEvidenceBudget = 6000

// Synthesizer turns a question plus evidence into a grounded answer.
type Synthesizer struct {
	client         llm.Client
	evidenceBudget int
	logger         *slog.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithEvidenceBudget overrides the evidence token budget.
func WithEvidenceBudget(tokens int) Option {
	return func(s *Synthesizer) {
		if tokens > 0 {
			s.evidenceBudget = tokens
		}
	}
}

// NewSynthesizer builds a Synthesizer backed by the given model client.
func NewSynthesizer(client llm.Client, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		client:         client,
		evidenceBudget: DefaultEvidenceBudget,
		logger:         logging.WithComponent("answer"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize renders the evidence into the prompt matching its kind and asks
// the model for an answer. Exactly one model call is made; a model failure
// wraps ErrProvider.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, ev evidence.Evidence) (string, error) {
	rendered := truncateToBudget(ev.Render(), s.evidenceBudget)

	var prompt string
	switch ev.Kind {
	case evidence.KindRows:
		prompt = fmt.Sprintf(rowsPrompt, question, rendered)
	case evidence.KindPassages:
		prompt = fmt.Sprintf(passagesPrompt, rendered, question)
	case evidence.KindSnippets:
		prompt = fmt.Sprintf(snippetsPrompt, question, rendered)
	default:
		return "", fmt.Errorf("%w: no evidence to synthesize from", cqerrors.ErrInvalidInput)
	}

	answer, err := s.client.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", cqerrors.ErrProvider, err)
	}
	s.logger.Debug("synthesized answer", "evidence_kind", ev.Kind.String(), "evidence_tokens", CountTokens(rendered))
	return answer, nil
}

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// CountTokens estimates the token count of text. The tokenizer is loaded
// lazily; if its vocabulary cannot be fetched, a characters/4 estimate is
// used instead.
func CountTokens(text string) int {
	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			logging.WithComponent("answer").Warn("tokenizer unavailable, estimating by length", "error", err)
			return
		}
		encoding = enc
	})
	if encoding == nil {
		return (len(text) + 3) / 4
	}
	return len(encoding.Encode(text, nil, nil))
}

// truncateToBudget trims text to roughly budget tokens, preserving a prefix.
func truncateToBudget(text string, budget int) string {
	if CountTokens(text) <= budget {
		return text
	}
	// Binary search the longest prefix within budget.
	lo, hi := 0, len(text)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if CountTokens(text[:mid]) <= budget {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	// The search works on byte offsets; back up off a split rune.
	for lo > 0 && lo < len(text) && !utf8.RuneStart(text[lo]) {
		lo--
	}
	return text[:lo]
}
