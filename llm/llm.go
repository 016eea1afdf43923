// Package llm defines the language-model capability the pipeline depends on.
// Concrete providers live in subpackages and are substitutable.
package llm

import (
	"context"
	"errors"
	"time"
)

// Client turns a single prompt into a completion. Implementations own their
// transport concerns: timeouts, retry budgets, and API error mapping.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds the sampling settings shared by all providers.
type Config struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	MaxRetries  int
}

// retryable marks errors that providers consider transient.
type retryable interface {
	Retryable() bool
}

// IsRetryable reports whether err is marked transient by a provider.
func IsRetryable(err error) bool {
	var r retryable
	return errors.As(err, &r) && r.Retryable()
}

// Retry invokes fn up to 1+maxRetries times, backing off between transient
// failures. Non-transient errors abort immediately.
func Retry(ctx context.Context, maxRetries int, fn func(ctx context.Context) (string, error)) (string, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			break
		}
	}
	return "", lastErr
}
