package embedder

import (
	"fmt"
	"os"
)

// Config selects and configures an embedding provider.
type Config struct {
	Provider  string // "ollama", "openai", or "mock"
	Model     string
	BaseURL   string // overrides the provider's default host when set
	Dimension int    // pin a known dimension, skipping a probe round-trip
}

// NewProvider builds a Provider from Config, reading host/key defaults
// from the environment the way the CLI's documented env vars specify.
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "ollama", "":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = firstNonEmpty(os.Getenv("OLLAMA_URL"), os.Getenv("OLLAMA_BASE_URL"), "http://localhost:11434")
		}
		model := cfg.Model
		if model == "" {
			model = "nomic-embed-text"
		}
		return NewHTTPProvider(HTTPConfig{
			Name:             "ollama",
			BaseURL:          baseURL,
			Model:            model,
			HealthPath:       "/api/tags",
			EmbedPath:        "/api/embed",
			SupportsPrefixes: false,
			Dimension:        cfg.Dimension,
		}), nil

	case "openai":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		model := cfg.Model
		if model == "" {
			model = "text-embedding-3-small"
		}
		return NewHTTPProvider(HTTPConfig{
			Name:             "openai",
			BaseURL:          baseURL,
			Model:            model,
			APIKey:           os.Getenv("OPENAI_API_KEY"),
			HealthPath:       "/models",
			EmbedPath:        "/embeddings",
			SupportsPrefixes: false,
			Dimension:        cfg.Dimension,
		}), nil

	case "mock":
		return NewMockProvider(cfg.Dimension), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (supported: ollama, openai, mock)", cfg.Provider)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
