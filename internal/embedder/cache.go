package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/maypok86/otter"
)

// MaxCacheWeight bounds the embedding cache at roughly this many bytes of
// vector data, the same weight-based eviction idiom as a file-content
// cache.
const MaxCacheWeight = 100 * 1024 * 1024

// CachedProvider wraps a Provider with a weight-based LRU cache keyed on
// a hash of (prefix, text), so re-embedding unchanged chunks on an
// incremental run is a cache hit instead of a network round-trip.
type CachedProvider struct {
	inner Provider
	cache otter.Cache[string, []float32]
}

// NewCachedProvider builds a cache in front of inner.
func NewCachedProvider(inner Provider) (*CachedProvider, error) {
	cache, err := otter.MustBuilder[string, []float32](MaxCacheWeight).
		Cost(func(key string, value []float32) uint32 {
			return uint32(len(value) * 4)
		}).
		CollectStats().
		Build()
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &CachedProvider{inner: inner, cache: cache}, nil
}

func (c *CachedProvider) Name() string             { return c.inner.Name() }
func (c *CachedProvider) SupportsPrefixes() bool    { return c.inner.SupportsPrefixes() }

func (c *CachedProvider) HealthCheck(ctx context.Context) error { return c.inner.HealthCheck(ctx) }

func (c *CachedProvider) ProbeDimension(ctx context.Context) (int, error) {
	return c.inner.ProbeDimension(ctx)
}

// EmbedSingle checks the cache before delegating to inner.
func (c *CachedProvider) EmbedSingle(ctx context.Context, text string, prefix string) ([]float32, error) {
	key := cacheKey(prefix, text)
	if vec, ok := c.cache.Get(key); ok {
		return vec, nil
	}
	vec, err := c.inner.EmbedSingle(ctx, text, prefix)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, vec)
	return vec, nil
}

// EmbedBatch serves whatever it can from the cache and only dispatches
// the uncached remainder to inner, splicing results back into position.
func (c *CachedProvider) EmbedBatch(ctx context.Context, texts []string, opts Options) ([][]float32, error) {
	results := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, t := range texts {
		key := cacheKey(opts.Prefix, t)
		if vec, ok := c.cache.Get(key); ok {
			results[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}

	if len(missTexts) == 0 {
		return results, nil
	}

	embedded, err := c.inner.EmbedBatch(ctx, missTexts, opts)
	if err != nil {
		return nil, err
	}
	for j, idx := range missIdx {
		results[idx] = embedded[j]
		c.cache.Set(cacheKey(opts.Prefix, missTexts[j]), embedded[j])
	}
	return results, nil
}

// Close releases the cache's background resources.
func (c *CachedProvider) Close() { c.cache.Close() }

func cacheKey(prefix, text string) string {
	sum := sha256.Sum256([]byte(prefix + "\x00" + text))
	return hex.EncodeToString(sum[:])
}
