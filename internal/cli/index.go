package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codetrail-dev/codetrail/internal/config"
	"github.com/codetrail-dev/codetrail/internal/embedder"
	"github.com/codetrail-dev/codetrail/internal/indexer"
	"github.com/codetrail-dev/codetrail/internal/store"
)

const codeIndexStateFile = ".codetrail-state.json"

var (
	indexFullFlag     bool
	indexProviderFlag string
	indexModelFlag    string
	indexQuietFlag    bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the repository's source tree for semantic search",
	Long: `index walks the repository honoring the configured include/exclude
globs, chunks every surviving file with the language-appropriate
strategy, embeds the chunks, and persists them to the code_chunks
table.

Without --full, index runs incrementally against the files changed
since the last checkpoint recorded in .codetrail-state.json, falling
back to a full run when no checkpoint exists, the embedding dimension
changed, or the checkpointed commit is no longer reachable.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&indexFullFlag, "full", false, "force a full re-index instead of incremental")
	indexCmd.Flags().StringVar(&indexProviderFlag, "provider", "", "embedding provider: ollama, openai, or mock (default: config)")
	indexCmd.Flags().StringVar(&indexModelFlag, "model", "", "embedding model name (default: config)")
	indexCmd.Flags().BoolVarP(&indexQuietFlag, "quiet", "q", false, "disable progress output")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\ninterrupted, cancelling index run...")
		cancel()
	}()

	repo, err := repoRoot()
	if err != nil {
		return err
	}

	cfg, err := config.NewLoader(repo).Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}

	provider, err := buildProvider(cfg, indexProviderFlag, indexModelFlag)
	if err != nil {
		return err
	}

	st, err := store.Open(storeURI(repo))
	if err != nil {
		return err
	}

	mode := indexer.ModeIncremental
	if indexFullFlag {
		mode = indexer.ModeFull
	}

	opts := indexer.Options{
		RepoRoot:  repo,
		StatePath: repo + "/" + codeIndexStateFile,
		Mode:      mode,
		Discovery: indexer.DiscoveryOptions{
			Include:      cfg.Include,
			Exclude:      append(append([]string{}, cfg.Exclude...), cfg.ExcludePatterns...),
			MaxFileLines: cfg.MaxFileLines,
			IndexTests:   cfg.IndexTests,
		},
		MaxTokens: cfg.ChunkMaxTokens,
		BatchSize: cfg.EmbeddingBatchSize,
		Verbose:   verboseFlag,
	}

	progress := newProgressReporter(indexQuietFlag)
	progress.printf("indexing %s\n", repo)
	result, err := indexer.Run(ctx, opts, provider, st)
	if err != nil {
		return err
	}

	progress.printf("indexed %d file(s), %d chunk(s) (%s", result.Files, result.Chunks, result.Mode)
	if result.Deletes > 0 {
		progress.printf(", %d path(s) re-chunked", result.Deletes)
	}
	if result.Unparsed > 0 {
		progress.printf(", %d unparsable file(s) skipped", result.Unparsed)
	}
	progress.printf(")\n")
	return nil
}

// buildProvider resolves the embedding provider from the CLI flags
// (taking precedence), falling back to cfg, then layers caching and
// batch-retry policy over the raw HTTP/mock backend.
func buildProvider(cfg *config.Config, providerFlag, modelFlag string) (embedder.Provider, error) {
	name := providerFlag
	if name == "" {
		name = cfg.EmbeddingProvider
	}
	model := modelFlag
	if model == "" {
		model = cfg.EmbeddingModel
	}
	raw, err := embedder.NewProvider(embedder.Config{Provider: name, Model: model})
	if err != nil {
		return nil, err
	}
	cached, err := embedder.NewCachedProvider(raw)
	if err != nil {
		return nil, err
	}
	return embedder.NewBatchedProvider(cached), nil
}
