package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
)

// MockProvider generates deterministic embeddings from a text hash, for
// tests that need stable vectors without a network round-trip.
type MockProvider struct {
	dimension  int
	healthErr  error
	embedErr   error
}

// NewMockProvider builds a mock provider producing vectors of the given
// dimension (384 when dimension <= 0).
func NewMockProvider(dimension int) *MockProvider {
	if dimension <= 0 {
		dimension = 384
	}
	return &MockProvider{dimension: dimension}
}

// SetHealthError configures the mock to fail its health check.
func (p *MockProvider) SetHealthError(err error) { p.healthErr = err }

// SetEmbedError configures the mock to fail every embed call.
func (p *MockProvider) SetEmbedError(err error) { p.embedErr = err }

func (p *MockProvider) Name() string          { return "mock" }
func (p *MockProvider) SupportsPrefixes() bool { return true }

func (p *MockProvider) HealthCheck(ctx context.Context) error { return p.healthErr }

func (p *MockProvider) ProbeDimension(ctx context.Context) (int, error) { return p.dimension, nil }

func (p *MockProvider) EmbedBatch(ctx context.Context, texts []string, opts Options) ([][]float32, error) {
	if p.embedErr != nil {
		return nil, p.embedErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		text := t
		if opts.Prefix != "" {
			text = opts.Prefix + t
		}
		out[i] = hashEmbedding(text, p.dimension)
	}
	return out, nil
}

func (p *MockProvider) EmbedSingle(ctx context.Context, text string, prefix string) ([]float32, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text}, Options{Prefix: prefix})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// hashEmbedding derives a deterministic unit-ish vector from text so
// identical inputs always embed to the same point.
func hashEmbedding(text string, dimension int) []float32 {
	hash := sha256.Sum256([]byte(text))
	vec := make([]float32, dimension)
	for i := 0; i < dimension; i++ {
		offset := (i * 4) % len(hash)
		val := binary.BigEndian.Uint32(hash[offset : offset+4])
		vec[i] = (float32(val)/float32(1<<32))*2.0 - 1.0
	}
	return vec
}
