package embedder

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

const (
	defaultTextCharCap  = 8000
	defaultBatchSize    = 50
	defaultMaxBatchChars = 200_000
	defaultConcurrency  = 2
)

// progressiveTruncationSteps are tried in order when a single text still
// fails to embed on its own; the last resort is a zero vector.
var progressiveTruncationSteps = []int{8000, 4000, 2000, 500}

// BatchedProvider wraps a Provider with batch packing (bounded by both
// item count and cumulative character budget), bounded concurrency,
// binary-split retry on sub-batch failure, and progressive truncation
// with a zero-vector fallback for a text that never embeds. Output order
// always matches input order regardless of which sub-batch produced it.
type BatchedProvider struct {
	inner         Provider
	fallbackCount int64
}

// NewBatchedProvider wraps inner with the batching/retry policy.
func NewBatchedProvider(inner Provider) *BatchedProvider {
	return &BatchedProvider{inner: inner}
}

func (b *BatchedProvider) Name() string             { return b.inner.Name() }
func (b *BatchedProvider) SupportsPrefixes() bool    { return b.inner.SupportsPrefixes() }

func (b *BatchedProvider) HealthCheck(ctx context.Context) error {
	return b.inner.HealthCheck(ctx)
}

func (b *BatchedProvider) ProbeDimension(ctx context.Context) (int, error) {
	return b.inner.ProbeDimension(ctx)
}

func (b *BatchedProvider) EmbedSingle(ctx context.Context, text string, prefix string) ([]float32, error) {
	return b.inner.EmbedSingle(ctx, truncate(text, defaultTextCharCap), prefix)
}

// FallbackCount reports how many texts have fallen all the way back to a
// zero vector across the lifetime of this provider, for callers that want
// to surface a non-fatal warning count.
func (b *BatchedProvider) FallbackCount() int64 { return atomic.LoadInt64(&b.fallbackCount) }

// EmbedBatch packs texts into sub-batches and embeds them concurrently,
// returning vectors in the same order as texts.
func (b *BatchedProvider) EmbedBatch(ctx context.Context, texts []string, opts Options) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	maxChars := opts.MaxBatchChars
	if maxChars <= 0 {
		maxChars = defaultMaxBatchChars
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	capped := make([]string, len(texts))
	for i, t := range texts {
		capped[i] = truncate(t, defaultTextCharCap)
	}

	batches := packBatches(capped, batchSize, maxChars)
	results := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, batch := range batches {
		batch := batch
		g.Go(func() error {
			vecs, err := b.embedWithRetry(gctx, batch.texts, opts)
			if err != nil {
				return err
			}
			for i, v := range vecs {
				results[batch.start+i] = v
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// embedWithRetry embeds one sub-batch, binary-splitting on failure until
// it bottoms out at a single text, which then gets progressive truncation
// and finally a zero-vector fallback. It therefore never returns an error
// except when ctx is canceled mid-request.
func (b *BatchedProvider) embedWithRetry(ctx context.Context, texts []string, opts Options) ([][]float32, error) {
	vecs, err := b.inner.EmbedBatch(ctx, texts, opts)
	if err == nil {
		return vecs, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if len(texts) > 1 {
		mid := len(texts) / 2
		left, lerr := b.embedWithRetry(ctx, texts[:mid], opts)
		if lerr != nil {
			return nil, lerr
		}
		right, rerr := b.embedWithRetry(ctx, texts[mid:], opts)
		if rerr != nil {
			return nil, rerr
		}
		return append(left, right...), nil
	}

	return [][]float32{b.embedSingleWithFallback(ctx, texts[0], opts)}, nil
}

// embedSingleWithFallback tries progressively shorter truncations of one
// text, finally falling back to a zero vector of the configured (or
// probed) dimension.
func (b *BatchedProvider) embedSingleWithFallback(ctx context.Context, text string, opts Options) []float32 {
	for _, step := range progressiveTruncationSteps {
		truncated := truncate(text, step)
		vecs, err := b.inner.EmbedBatch(ctx, []string{truncated}, opts)
		if err == nil && len(vecs) == 1 {
			return vecs[0]
		}
	}

	atomic.AddInt64(&b.fallbackCount, 1)
	dim := opts.Dimension
	if dim <= 0 {
		if d, err := b.inner.ProbeDimension(ctx); err == nil {
			dim = d
		}
	}
	return make([]float32, dim)
}

type subBatch struct {
	start int
	texts []string
}

// packBatches groups texts into contiguous runs bounded by both item
// count and cumulative character budget, preserving original order and
// recording each batch's starting index for result placement.
func packBatches(texts []string, batchSize, maxChars int) []subBatch {
	var batches []subBatch
	var cur []string
	curChars := 0
	start := 0

	for i, t := range texts {
		if len(cur) > 0 && (len(cur) >= batchSize || curChars+len(t) > maxChars) {
			batches = append(batches, subBatch{start: start, texts: cur})
			cur = nil
			curChars = 0
			start = i
		}
		cur = append(cur, t)
		curChars += len(t)
	}
	if len(cur) > 0 {
		batches = append(batches, subBatch{start: start, texts: cur})
	}
	return batches
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max]
}
