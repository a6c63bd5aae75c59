package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// httpProvider speaks the JSON-over-HTTP embedding wire: health is a
// GET to a models-listing endpoint, embedding is a POST of {model, input}
// returning {embeddings}.
type httpProvider struct {
	name             string
	baseURL          string
	model            string
	apiKey           string
	healthPath       string
	embedPath        string
	supportsPrefixes bool
	dimension        int
	client           *http.Client
}

// HTTPConfig configures an httpProvider instance.
type HTTPConfig struct {
	Name             string
	BaseURL          string
	Model            string
	APIKey           string
	HealthPath       string // defaults to "/api/tags"
	EmbedPath        string // defaults to "/api/embed"
	SupportsPrefixes bool
	Dimension        int
	Timeout          time.Duration
}

// NewHTTPProvider builds a JSON/HTTP embedding client against an
// ollama- or openai-shaped service.
func NewHTTPProvider(cfg HTTPConfig) *httpProvider {
	healthPath := cfg.HealthPath
	if healthPath == "" {
		healthPath = "/api/tags"
	}
	embedPath := cfg.EmbedPath
	if embedPath == "" {
		embedPath = "/api/embed"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &httpProvider{
		name:             cfg.Name,
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		model:            cfg.Model,
		apiKey:           cfg.APIKey,
		healthPath:       healthPath,
		embedPath:        embedPath,
		supportsPrefixes: cfg.SupportsPrefixes,
		dimension:        cfg.Dimension,
		client:           &http.Client{Timeout: timeout},
	}
}

func (p *httpProvider) Name() string             { return p.name }
func (p *httpProvider) SupportsPrefixes() bool    { return p.supportsPrefixes }

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// HealthCheck confirms the embedding host is reachable and lists models.
func (p *httpProvider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+p.healthPath, nil)
	if err != nil {
		return err
	}
	p.setAuth(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("embedding health check: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("embedding health check: status %d", resp.StatusCode)
	}
	var tags tagsResponse
	_ = json.NewDecoder(resp.Body).Decode(&tags)
	return nil
}

// ProbeDimension embeds a single short text and reports the resulting
// vector width, caching it for subsequent calls.
func (p *httpProvider) ProbeDimension(ctx context.Context) (int, error) {
	if p.dimension > 0 {
		return p.dimension, nil
	}
	vec, err := p.EmbedSingle(ctx, "dimension probe", "")
	if err != nil {
		return 0, fmt.Errorf("probe embedding dimension: %w", err)
	}
	p.dimension = len(vec)
	return p.dimension, nil
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// EmbedBatch sends one raw HTTP request for the given texts with no
// splitting or retry logic of its own — that lives in batched.go, one
// layer up.
func (p *httpProvider) EmbedBatch(ctx context.Context, texts []string, opts Options) ([][]float32, error) {
	input := texts
	if opts.Prefix != "" && p.supportsPrefixes {
		input = make([]string, len(texts))
		for i, t := range texts {
			input[i] = opts.Prefix + t
		}
	}

	body, err := json.Marshal(embedRequest{Model: p.model, Input: input})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+p.embedPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	p.setAuth(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embed request: status %d", resp.StatusCode)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed response length %d does not match request length %d", len(out.Embeddings), len(texts))
	}
	return out.Embeddings, nil
}

// EmbedSingle embeds one text, applying prefix when the provider supports
// it.
func (p *httpProvider) EmbedSingle(ctx context.Context, text string, prefix string) ([]float32, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text}, Options{Prefix: prefix})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (p *httpProvider) setAuth(req *http.Request) {
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
}
