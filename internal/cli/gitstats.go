package cli

import (
	"github.com/spf13/cobra"

	"github.com/codetrail-dev/codetrail/internal/indexstate"
	"github.com/codetrail-dev/codetrail/internal/store"
)

var gitStatsFormatFlag string

var gitStatsCmd = &cobra.Command{
	Use:   "git-stats",
	Short: "Show history-index totals and checkpoint state",
	RunE:  runGitStats,
}

func init() {
	rootCmd.AddCommand(gitStatsCmd)
	gitStatsCmd.Flags().StringVar(&gitStatsFormatFlag, "format", "text", "output format: text or json")
}

func runGitStats(cmd *cobra.Command, args []string) error {
	repo, err := repoRoot()
	if err != nil {
		return err
	}
	st, err := store.Open(storeURI(repo))
	if err != nil {
		return err
	}
	rows, err := st.Count(store.TableHistoryChunks)
	if err != nil {
		return err
	}
	state, err := indexstate.Load(repo + "/" + gitIndexStateFile)
	if err != nil {
		return err
	}
	stats := indexStats{Table: store.TableHistoryChunks, Rows: rows}
	if state.IsWarm() {
		stats.LastCommit = state.LastCommit
		stats.LastIndexedAt = state.LastIndexedAt.Format("2006-01-02T15:04:05Z07:00")
		stats.Dimension = state.EmbeddingDimension
	}
	return printStats(stats, gitStatsFormatFlag)
}
