package config

import (
	"os"
	"strconv"
)

// Config collects the credentials and model settings read from the
// environment. The Tavily key is optional; when absent, web search falls
// back to the keyless DuckDuckGo provider.
type Config struct {
	GroqAPIKey    string
	MistralAPIKey string
	TavilyAPIKey  string

	ChatModel      string
	EmbeddingModel string
	Temperature    float64
	MaxTokens      int
	MaxRetries     int

	SQLitePath  string
	PostgresDSN string
}

// FromEnv loads configuration from environment variables, applying defaults
// matching the models this system was built against.
func FromEnv() *Config {
	cfg := &Config{
		GroqAPIKey:     os.Getenv("GROQ_API_KEY"),
		MistralAPIKey:  os.Getenv("MISTRAL_API_KEY"),
		TavilyAPIKey:   os.Getenv("TAVILY_API_KEY"),
		ChatModel:      envOr("CAREQUERY_CHAT_MODEL", "llama-3.3-70b-versatile"),
		EmbeddingModel: envOr("CAREQUERY_EMBEDDING_MODEL", "mistral-embed"),
		Temperature:    0.3,
		MaxTokens:      2048,
		MaxRetries:     2,
		SQLitePath:     envOr("CAREQUERY_SQLITE_PATH", "patients.db"),
		PostgresDSN:    os.Getenv("CAREQUERY_POSTGRES_DSN"),
	}
	if v := os.Getenv("CAREQUERY_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Temperature = f
		}
	}
	if v := os.Getenv("CAREQUERY_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxTokens = n
		}
	}
	return cfg
}

// Validate checks that the required credentials and numeric settings are
// usable. The Tavily key is deliberately not required.
func (c *Config) Validate() error {
	return NewValidator().
		RequireNonEmpty("groq_api_key", c.GroqAPIKey).
		RequireNonEmpty("mistral_api_key", c.MistralAPIKey).
		RequireNonEmpty("chat_model", c.ChatModel).
		RequireNonEmpty("embedding_model", c.EmbeddingModel).
		RequirePositive("max_tokens", c.MaxTokens).
		ValidateFloatRange("temperature", c.Temperature, 0, 2).
		Error()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
