package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codetrail-dev/codetrail/internal/config"
	"github.com/codetrail-dev/codetrail/internal/gitindexer"
	"github.com/codetrail-dev/codetrail/internal/historychunk"
	"github.com/codetrail-dev/codetrail/internal/store"
	"github.com/codetrail-dev/codetrail/internal/vcslog"
)

const gitIndexStateFile = ".git-search-state.json"

var (
	gitIndexFullFlag       bool
	gitIndexMaxCommitsFlag int
	gitIndexProviderFlag   string
	gitIndexModelFlag      string
	gitIndexQuietFlag      bool
)

var gitIndexCmd = &cobra.Command{
	Use:   "git-index",
	Short: "Index commit history for semantic and structured git search",
	Long: `git-index streams commits (skipping bot authors and low-signal
messages per the configured rules), chunks each into a commit_summary
plus per-file file_diff chunks, embeds them, and persists them to the
history_chunks table.

Without --full, git-index replays only the commits reachable since the
checkpoint in .git-search-state.json.`,
	RunE: runGitIndex,
}

func init() {
	rootCmd.AddCommand(gitIndexCmd)
	gitIndexCmd.Flags().BoolVar(&gitIndexFullFlag, "full", false, "force a full re-index instead of incremental")
	gitIndexCmd.Flags().IntVar(&gitIndexMaxCommitsFlag, "max-commits", 0, "cap on commits to walk (0 means unbounded)")
	gitIndexCmd.Flags().StringVar(&gitIndexProviderFlag, "provider", "", "embedding provider: ollama, openai, or mock (default: config)")
	gitIndexCmd.Flags().StringVar(&gitIndexModelFlag, "model", "", "embedding model name (default: config)")
	gitIndexCmd.Flags().BoolVarP(&gitIndexQuietFlag, "quiet", "q", false, "disable progress output")
}

func runGitIndex(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\ninterrupted, cancelling git-index run...")
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

	provider, err := buildProvider(cfg, gitIndexProviderFlag, gitIndexModelFlag)
	if err != nil {
		return err
	}

	st, err := store.Open(storeURI(repo))
	if err != nil {
		return err
	}

	rules, err := vcslog.NewSkipRules(cfg.Git.SkipBotAuthors, cfg.Git.SkipMessagePatterns, false)
	if err != nil {
		return err
	}

	maxCommits := gitIndexMaxCommitsFlag
	if maxCommits == 0 {
		maxCommits = cfg.Git.MaxCommits
	}

	opts := gitindexer.Options{
		RepoRoot:  repo,
		StatePath: repo + "/" + gitIndexStateFile,
		Full:      gitIndexFullFlag,
		Rules:     rules,
		ChunkOpts: historychunk.Options{
			EmitFileDiffs:        cfg.Git.IncludeFileChunks,
			EmitMergeGroups:      cfg.Git.IncludeMergeGroups,
			LowQualitySubjectLen: cfg.Git.LowQualityThreshold,
			MaxDiffLines:         cfg.Git.MaxDiffLinesPerFile,
		},
		MaxCommits: maxCommits,
		BatchSize:  cfg.EmbeddingBatchSize,
		Verbose:    verboseFlag,
	}

	progress := newProgressReporter(gitIndexQuietFlag)
	progress.printf("indexing git history for %s\n", repo)
	result, err := gitindexer.Run(ctx, opts, provider, st)
	if err != nil {
		return err
	}

	progress.printf("indexed %d commit(s), %d chunk(s) (%s)\n", result.Commits, result.Chunks, result.Mode)
	return nil
}
