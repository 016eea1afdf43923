// Package groq implements llm.Client against the Groq chat completions API.
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sweetpotato0/carequery/llm"
)

const defaultAPIURL = "https://api.groq.com/openai/v1/chat/completions"

// Config holds Groq provider configuration
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	MaxRetries  int
}

// DefaultConfig returns default Groq configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		Model:       "llama-3.3-70b-versatile",
		MaxTokens:   2048,
		Temperature: 0.3,
		MaxRetries:  2,
	}
}

// Provider implements the llm.Client interface for Groq
type Provider struct {
	config *Config
	client *http.Client
}

// New creates a new Groq provider
func New(config *Config) *Provider {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.Model == "" {
		config.Model = "llama-3.3-70b-versatile"
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultAPIURL
	}
	return &Provider{
		config: config,
		client: &http.Client{},
	}
}

// groqMessage represents a message in Groq API format
type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// groqRequest represents a Groq API request
type groqRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

// groqChoice represents a choice in Groq API response
type groqChoice struct {
	Message groqMessage `json:"message"`
}

// groqResponse represents a Groq API response
type groqResponse struct {
	Choices []groqChoice `json:"choices"`
	Error   *groqError   `json:"error,omitempty"`
}

// groqError represents an error in Groq API response
type groqError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// apiError wraps HTTP-level failures so transient ones can be retried.
type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("Groq API error (status %d): %s", e.status, e.body)
}

func (e *apiError) Retryable() bool {
	return e.status == http.StatusTooManyRequests || e.status >= 500
}

// Complete implements llm.Client, retrying transient API failures up to the
// configured budget.
func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	if p.config.APIKey == "" {
		return "", fmt.Errorf("Groq API key not configured")
	}
	return llm.Retry(ctx, p.config.MaxRetries, func(ctx context.Context) (string, error) {
		return p.complete(ctx, prompt)
	})
}

func (p *Provider) complete(ctx context.Context, prompt string) (string, error) {
	req := groqRequest{
		Model:       p.config.Model,
		Messages:    []groqMessage{{Role: "user", Content: prompt}},
		MaxTokens:   p.config.MaxTokens,
		Temperature: p.config.Temperature,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.config.BaseURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.config.APIKey))
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return "", &apiError{status: httpResp.StatusCode, body: string(respBody)}
	}

	var resp groqResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("Groq API error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// SetTemperature updates the temperature setting
func (p *Provider) SetTemperature(temp float64) {
	p.config.Temperature = temp
}

// SetModel updates the model
func (p *Provider) SetModel(model string) {
	p.config.Model = model
}
