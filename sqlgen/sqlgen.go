// Package sqlgen translates natural language questions into read-only SQL
// using a language model and the live database schema.
package sqlgen

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	cqerrors "github.com/sweetpotato0/carequery/errors"
	"github.com/sweetpotato0/carequery/llm"
	"github.com/sweetpotato0/carequery/pkg/logging"
)

const translatePrompt = `You are a SQL expert working with a patient healthcare SQLite database.

Given the following database schema:
%s

And the user's question:
%s

Generate a valid SQL query to answer the question.
Return ONLY the SQL query, nothing else.

Important rules:
- Use proper SQLite syntax
- Do NOT use markdown formatting or code blocks
- Return only the raw SQL query
- Use appropriate JOINs when needed
- Handle date formatting properly

SQL Query:`

// Translator turns questions into SQL queries against a known schema.
type Translator struct {
	client llm.Client
	logger *slog.Logger
}

// NewTranslator builds a Translator backed by the given model client.
func NewTranslator(client llm.Client) *Translator {
	return &Translator{
		client: client,
		logger: logging.WithComponent("sqlgen"),
	}
}

// Translate asks the model for a SQL query answering question over schema.
// The model output is cleaned of code fences; a failed model call wraps
// ErrTranslation.
func (t *Translator) Translate(ctx context.Context, question, schema string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: empty question", cqerrors.ErrInvalidInput)
	}

	prompt := fmt.Sprintf(translatePrompt, schema, question)
	raw, err := t.client.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", cqerrors.ErrTranslation, err)
	}

	query := CleanQuery(raw)
	if query == "" {
		return "", fmt.Errorf("%w: model returned no query", cqerrors.ErrTranslation)
	}
	t.logger.Debug("translated question", "query", query)
	return query, nil
}

// CleanQuery strips markdown code fences and surrounding whitespace that
// models emit despite instructions.
func CleanQuery(raw string) string {
	query := strings.TrimSpace(raw)
	if strings.HasPrefix(query, "```") {
		query = strings.TrimPrefix(query, "```sql")
		query = strings.TrimPrefix(query, "```")
		if i := strings.LastIndex(query, "```"); i >= 0 {
			query = query[:i]
		}
	}
	return strings.TrimSpace(query)
}
