// Package indexer orchestrates the code-index surface: discover files,
// chunk them via the chunk registry, embed the chunks, and persist them
// to the code_chunks table, in full, incremental, or recent mode.
package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/codetrail-dev/codetrail/internal/chunk"
	"github.com/codetrail-dev/codetrail/internal/embedder"
	"github.com/codetrail-dev/codetrail/internal/indexstate"
	"github.com/codetrail-dev/codetrail/internal/store"
)

// Mode selects which indexing strategy Run uses.
type Mode string

const (
	ModeFull        Mode = "full"
	ModeIncremental Mode = "incremental"
	ModeRecent      Mode = "recent"
)

// Options configures one Run.
type Options struct {
	RepoRoot     string
	StatePath    string
	Mode         Mode
	Discovery    DiscoveryOptions
	MaxTokens    int
	BatchSize    int
	Verbose      bool
}

// Result summarizes one run for the CLI/stats surfaces.
type Result struct {
	Mode     Mode
	Files    int
	Chunks   int
	Deletes  int
	Unparsed int
}

const recentWindow = 30 * 24 * time.Hour

// Run indexes the code surface, embedding chunk bodies with provider and
// persisting them via st, with a checkpoint at opts.StatePath.
func Run(ctx context.Context, opts Options, provider embedder.Provider, st *store.Store) (Result, error) {
	prior, err := indexstate.Load(opts.StatePath)
	if err != nil {
		return Result{}, err
	}

	dim, err := provider.ProbeDimension(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("probe embedding dimension: %w", err)
	}

	mode := opts.Mode
	if mode == "" {
		mode = ModeFull
	}
	if mode == ModeIncremental {
		if err := prior.CompatibleDimension(dim); err != nil {
			mode = ModeFull
		} else if !prior.IsWarm() {
			mode = ModeFull
		} else if !commitExists(ctx, opts.RepoRoot, prior.LastCommit) {
			mode = ModeFull
		}
	}

	if err := st.EnsureTable(store.TableCodeChunks); err != nil {
		return Result{}, err
	}

	switch mode {
	case ModeIncremental:
		return runIncremental(ctx, opts, prior, dim, provider, st)
	case ModeRecent:
		return runDiscoveryBased(ctx, opts, recentDiscovery(opts.Discovery), dim, provider, st, mode, false)
	default:
		return runDiscoveryBased(ctx, opts, opts.Discovery, dim, provider, st, ModeFull, true)
	}
}

func recentDiscovery(base DiscoveryOptions) DiscoveryOptions {
	cutoff := time.Now().Add(-recentWindow).Unix()
	base.Since = func(modTime int64) bool { return modTime >= cutoff }
	return base
}

// runDiscoveryBased powers full and recent modes: walk the repo, chunk
// every surviving file, embed, and either overwrite (full) or append
// (recent) the table.
func runDiscoveryBased(ctx context.Context, opts Options, disc DiscoveryOptions, dim int, provider embedder.Provider, st *store.Store, mode Mode, overwrite bool) (Result, error) {
	files, err := Discover(opts.RepoRoot, disc)
	if err != nil {
		return Result{}, err
	}

	var allChunks []chunk.Chunk
	unparsed := 0
	for _, f := range files {
		strategy, ok := chunk.Lookup(f.AbsPath)
		if !ok {
			continue
		}
		chunks, cerr := strategy.ChunkFile(f.AbsPath, f.Content, opts.RepoRoot, opts.MaxTokens)
		if cerr != nil {
			unparsed++
			if opts.Verbose {
				fmt.Printf("indexer: unparsable file %s: %v\n", f.AbsPath, cerr)
			}
			continue
		}
		allChunks = append(allChunks, chunks...)
	}

	records, err := embedChunks(ctx, allChunks, dim, opts.BatchSize, opts.Verbose, provider)
	if err != nil {
		return Result{}, err
	}

	if overwrite {
		if err := st.Overwrite(ctx, store.TableCodeChunks, records); err != nil {
			return Result{}, err
		}
	} else if len(records) > 0 {
		if err := st.Append(ctx, store.TableCodeChunks, records); err != nil {
			return Result{}, err
		}
	}

	if err := saveState(opts.StatePath, ctx, opts.RepoRoot, dim, len(files), len(records)); err != nil {
		return Result{}, err
	}

	return Result{Mode: mode, Files: len(files), Chunks: len(records), Unparsed: unparsed}, nil
}

// runIncremental re-chunks only files touched since the prior
// checkpoint: delete each changed path's old chunks by predicate before
// appending its new ones, per the ordering guarantee in §5(ii).
func runIncremental(ctx context.Context, opts Options, prior indexstate.State, dim int, provider embedder.Provider, st *store.Store) (Result, error) {
	changed, err := changedFilesSince(ctx, opts.RepoRoot, prior.LastCommit)
	if err != nil {
		return Result{}, err
	}

	deletes := 0
	var allChunks []chunk.Chunk
	unparsed := 0
	touchedFiles := 0

	for _, rel := range changed {
		if err := st.Delete(ctx, store.TableCodeChunks, store.Eq{Field: "path", Value: rel}); err != nil {
			return Result{}, err
		}
		deletes++

		absPath := opts.RepoRoot + "/" + rel
		strategy, ok := chunk.Lookup(absPath)
		if !ok {
			continue
		}
		content, rerr := readFile(absPath)
		if rerr != nil {
			continue // file deleted in this range: chunks already removed above
		}
		if !opts.Discovery.IndexTests && isTestFile(rel) {
			continue
		}
		chunks, cerr := strategy.ChunkFile(absPath, content, opts.RepoRoot, opts.MaxTokens)
		if cerr != nil {
			unparsed++
			continue
		}
		touchedFiles++
		allChunks = append(allChunks, chunks...)
	}

	records, err := embedChunks(ctx, allChunks, dim, opts.BatchSize, opts.Verbose, provider)
	if err != nil {
		return Result{}, err
	}
	if len(records) > 0 {
		if err := st.Append(ctx, store.TableCodeChunks, records); err != nil {
			return Result{}, err
		}
	}

	if err := saveState(opts.StatePath, ctx, opts.RepoRoot, dim, prior.Totals.Files+touchedFiles, prior.Totals.Chunks+len(records)); err != nil {
		return Result{}, err
	}

	return Result{Mode: ModeIncremental, Files: touchedFiles, Chunks: len(records), Deletes: deletes, Unparsed: unparsed}, nil
}

func embedChunks(ctx context.Context, chunks []chunk.Chunk, dim, batchSize int, verbose bool, provider embedder.Provider) ([]store.Record, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := provider.EmbedBatch(ctx, texts, embedder.Options{
		BatchSize: batchSize,
		Dimension: dim,
		Verbose:   verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("embed code chunks: %w", err)
	}
	records := make([]store.Record, len(chunks))
	for i, c := range chunks {
		var vec []float32
		if i < len(vectors) {
			vec = vectors[i]
		}
		records[i] = toRecord(c, vec)
	}
	return records, nil
}

func toRecord(c chunk.Chunk, vector []float32) store.Record {
	return store.Record{
		ID:     c.ID,
		Text:   c.Text,
		Vector: vector,
		Fields: map[string]string{
			"path":           c.Path,
			"package":        c.Package,
			"name":           c.Name,
			"chunk_type":     string(c.ChunkType),
			"start_line":     fmt.Sprintf("%d", c.StartLine),
			"end_line":       fmt.Sprintf("%d", c.EndLine),
			"language":       c.Language,
			"exported":       fmt.Sprintf("%t", c.Exported),
			"framework_role": string(c.FrameworkRole),
		},
	}
}

func saveState(path string, ctx context.Context, repoRoot string, dim, files, chunks int) error {
	s := indexstate.State{
		LastCommit:         headSHA(ctx, repoRoot),
		LastIndexedAt:      time.Now(),
		EmbeddingDimension: dim,
		Totals:             indexstate.Totals{Files: files, Chunks: chunks},
	}
	return s.Save(path)
}
