package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/codetrail-dev/codetrail/internal/config"
	"github.com/codetrail-dev/codetrail/internal/retrieval"
	"github.com/codetrail-dev/codetrail/internal/store"
)

var (
	gitSearchAfterFlag  string
	gitSearchBeforeFlag string
	gitSearchAuthorFlag string
	gitSearchFileFlag   string
	gitSearchTypeFlag   string
	gitSearchSortFlag   string
	gitSearchUniqueFlag bool
	gitSearchLimitFlag  int
	gitSearchFormatFlag string
)

var gitSearchCmd = &cobra.Command{
	Use:   "git-search <query>",
	Short: "Search commit history, routing to pickaxe, blame, or vector search",
	Long: `git-search classifies query into one of five retrieval strategies
(pickaxe, blame, temporal vector, structured git, or plain vector
search) and runs it against the history index, then narrows the
results with any of --after, --before, --author, --file, and --type.`,
	Args: cobra.ExactArgs(1),
	RunE: runGitSearch,
}

func init() {
	rootCmd.AddCommand(gitSearchCmd)
	gitSearchCmd.Flags().StringVar(&gitSearchAfterFlag, "after", "", "only include commits after this ISO-8601 date")
	gitSearchCmd.Flags().StringVar(&gitSearchBeforeFlag, "before", "", "only include commits before this ISO-8601 date")
	gitSearchCmd.Flags().StringVar(&gitSearchAuthorFlag, "author", "", "only include commits by this author")
	gitSearchCmd.Flags().StringVar(&gitSearchFileFlag, "file", "", "only include chunks touching this file path")
	gitSearchCmd.Flags().StringVar(&gitSearchTypeFlag, "type", "", "only include chunks of this chunk_type (commit_summary, file_diff, merge_group)")
	gitSearchCmd.Flags().StringVar(&gitSearchSortFlag, "sort", "relevance", "result order: relevance or date")
	gitSearchCmd.Flags().BoolVar(&gitSearchUniqueFlag, "unique-commits", false, "collapse results to one per commit SHA")
	gitSearchCmd.Flags().IntVar(&gitSearchLimitFlag, "limit", 0, "max results to return (default: config search limit)")
	gitSearchCmd.Flags().StringVar(&gitSearchFormatFlag, "format", "text", "output format: text or json")
}

func runGitSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	repo, err := repoRoot()
	if err != nil {
		return err
	}
	cfg, err := config.NewLoader(repo).Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}
	provider, err := buildProvider(cfg, "", "")
	if err != nil {
		return err
	}
	st, err := store.Open(storeURI(repo))
	if err != nil {
		return err
	}

	limit := gitSearchLimitFlag
	if limit <= 0 {
		limit = cfg.SearchLimit
	}

	dispatcher := &retrieval.Dispatcher{Store: st, Provider: provider, RepoRoot: repo}
	results, class, err := dispatcher.Dispatch(ctx, args[0], retrieval.Options{Limit: limit * 4, FilterPrefix: gitSearchFileFlag}, time.Now())
	if err != nil {
		return err
	}
	if verboseFlag {
		fmt.Fprintf(os.Stderr, "classified as %s\n", class.Strategy)
	}

	results = filterGitResults(results)
	if gitSearchUniqueFlag {
		results = uniqueByCommit(results)
	}
	if gitSearchSortFlag == "date" {
		sort.SliceStable(results, func(i, j int) bool { return results[i].Fields["date"] > results[j].Fields["date"] })
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return printResults(results, gitSearchFormatFlag)
}

// filterGitResults narrows dispatcher output by the structured flags
// (--after/--before/--author/--file/--type), applied as a post-filter
// since the dispatcher's own classification already chose its strategy
// from the free-text query.
func filterGitResults(results []retrieval.Result) []retrieval.Result {
	out := results[:0]
	for _, r := range results {
		if gitSearchAuthorFlag != "" && !strings.Contains(strings.ToLower(r.Fields["author_name"]), strings.ToLower(gitSearchAuthorFlag)) {
			continue
		}
		if gitSearchFileFlag != "" && !strings.HasPrefix(r.Fields["file_path"], gitSearchFileFlag) {
			continue
		}
		if gitSearchTypeFlag != "" && r.Fields["chunk_type"] != gitSearchTypeFlag {
			continue
		}
		if gitSearchAfterFlag != "" && r.Fields["date"] != "" && r.Fields["date"] <= gitSearchAfterFlag {
			continue
		}
		if gitSearchBeforeFlag != "" && r.Fields["date"] != "" && r.Fields["date"] >= gitSearchBeforeFlag {
			continue
		}
		out = append(out, r)
	}
	return out
}

func uniqueByCommit(results []retrieval.Result) []retrieval.Result {
	seen := map[string]bool{}
	out := make([]retrieval.Result, 0, len(results))
	for _, r := range results {
		sha := r.Fields["sha"]
		if sha == "" || seen[sha] {
			continue
		}
		seen[sha] = true
		out = append(out, r)
	}
	return out
}
