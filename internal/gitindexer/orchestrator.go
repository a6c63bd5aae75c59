// Package gitindexer orchestrates the history-index surface: streaming
// commits through the extractor and chunker, embedding the result, and
// persisting it to the history_chunks table, in full or incremental
// mode, mirroring internal/indexer's code-index orchestrator shape but
// keyed by commit range instead of file path.
package gitindexer

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"time"

	"github.com/codetrail-dev/codetrail/internal/embedder"
	"github.com/codetrail-dev/codetrail/internal/historychunk"
	"github.com/codetrail-dev/codetrail/internal/indexstate"
	"github.com/codetrail-dev/codetrail/internal/store"
	"github.com/codetrail-dev/codetrail/internal/vcslog"
)

// Options configures one Run.
type Options struct {
	RepoRoot    string
	StatePath   string
	Full        bool
	Rules       vcslog.SkipRules
	ChunkOpts   historychunk.Options
	MaxCommits  int
	BatchSize   int
	Verbose     bool
}

// Result summarizes one run for the CLI/stats surfaces.
type Result struct {
	Mode    string // "full" or "incremental"
	Commits int
	Chunks  int
}

// Run indexes the history surface into table, using provider to embed
// each chunk's text and st to persist it, with state persisted at
// opts.StatePath.
func Run(ctx context.Context, opts Options, provider embedder.Provider, st *store.Store) (Result, error) {
	prior, err := indexstate.Load(opts.StatePath)
	if err != nil {
		return Result{}, err
	}

	dim, err := provider.ProbeDimension(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("probe embedding dimension: %w", err)
	}

	full := opts.Full
	rev := "HEAD"
	if !full {
		if err := prior.CompatibleDimension(dim); err != nil {
			full = true
		} else if !prior.IsWarm() {
			full = true
		} else if !commitExists(ctx, opts.RepoRoot, prior.LastCommit) {
			full = true
		} else {
			rev = prior.LastCommit + "..HEAD"
		}
	}

	if err := st.EnsureTable(store.TableHistoryChunks); err != nil {
		return Result{}, err
	}

	extractor := vcslog.Extractor{RepoRoot: opts.RepoRoot, Rules: opts.Rules, MaxCommits: opts.MaxCommits}
	iter, err := extractor.Commits(ctx, rev)
	if err != nil {
		return Result{}, err
	}
	defer iter.Close()

	hunks := vcslog.HunkFetcher{RepoRoot: opts.RepoRoot}

	var chunks []historychunk.Chunk
	commitCount := 0
	for {
		raw, ok := iter.Next(opts.Rules)
		if !ok {
			break
		}
		built, berr := historychunk.Build(ctx, raw, opts.ChunkOpts, hunks)
		if berr != nil {
			if opts.Verbose {
				log.Printf("gitindexer: skip commit %s: %v", raw.SHA, berr)
			}
			continue
		}
		// commit_summary before any file_diff derived from it, per
		// the per-commit batch ordering guarantee.
		chunks = append(chunks, built...)
		commitCount++
	}
	if err := iter.Err(); err != nil {
		return Result{}, err
	}

	records := make([]store.Record, 0, len(chunks))
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}
	vectors, err := provider.EmbedBatch(ctx, texts, embedder.Options{
		BatchSize: batchSize,
		Dimension: dim,
		Verbose:   opts.Verbose,
	})
	if err != nil {
		return Result{}, fmt.Errorf("embed history chunks: %w", err)
	}
	for i, c := range chunks {
		var vec []float32
		if i < len(vectors) {
			vec = vectors[i]
		}
		records = append(records, toRecord(c, vec))
	}

	if full {
		if err := st.Overwrite(ctx, store.TableHistoryChunks, records); err != nil {
			return Result{}, err
		}
	} else if len(records) > 0 {
		if err := st.Append(ctx, store.TableHistoryChunks, records); err != nil {
			return Result{}, err
		}
	}

	newState := indexstate.State{
		LastCommit:         headSHA(ctx, opts.RepoRoot),
		EmbeddingDimension: dim,
		Totals: indexstate.Totals{
			Chunks:  prior.Totals.Chunks + len(records),
			Commits: prior.Totals.Commits + commitCount,
		},
	}
	if full {
		newState.Totals.Chunks = len(records)
		newState.Totals.Commits = commitCount
	}
	newState.LastIndexedAt = time.Now()
	if err := newState.Save(opts.StatePath); err != nil {
		return Result{}, err
	}

	mode := "incremental"
	if full {
		mode = "full"
	}
	return Result{Mode: mode, Commits: commitCount, Chunks: len(records)}, nil
}

func toRecord(c historychunk.Chunk, vector []float32) store.Record {
	return c.ToStoreRecord(vector)
}

func commitExists(ctx context.Context, repoRoot, sha string) bool {
	if sha == "" {
		return false
	}
	cmd := exec.CommandContext(ctx, "git", "cat-file", "-e", sha)
	cmd.Dir = repoRoot
	return cmd.Run() == nil
}

func headSHA(ctx context.Context, repoRoot string) string {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "HEAD")
	cmd.Dir = repoRoot
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	sha := string(out)
	for len(sha) > 0 && (sha[len(sha)-1] == '\n' || sha[len(sha)-1] == '\r') {
		sha = sha[:len(sha)-1]
	}
	return sha
}
