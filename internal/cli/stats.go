package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codetrail-dev/codetrail/internal/indexstate"
	"github.com/codetrail-dev/codetrail/internal/store"
)

var statsFormatFlag string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show code-index totals and checkpoint state",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVar(&statsFormatFlag, "format", "text", "output format: text or json")
}

type indexStats struct {
	Table         string `json:"table"`
	Rows          int    `json:"rows"`
	LastCommit    string `json:"lastCommit,omitempty"`
	LastIndexedAt string `json:"lastIndexedAt,omitempty"`
	Dimension     int    `json:"embeddingDimension,omitempty"`
}

func runStats(cmd *cobra.Command, args []string) error {
	repo, err := repoRoot()
	if err != nil {
		return err
	}
	st, err := store.Open(storeURI(repo))
	if err != nil {
		return err
	}
	rows, err := st.Count(store.TableCodeChunks)
	if err != nil {
		return err
	}
	state, err := indexstate.Load(repo + "/" + codeIndexStateFile)
	if err != nil {
		return err
	}
	stats := indexStats{Table: store.TableCodeChunks, Rows: rows}
	if state.IsWarm() {
		stats.LastCommit = state.LastCommit
		stats.LastIndexedAt = state.LastIndexedAt.Format("2006-01-02T15:04:05Z07:00")
		stats.Dimension = state.EmbeddingDimension
	}
	return printStats(stats, statsFormatFlag)
}

func printStats(s indexStats, format string) error {
	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	fmt.Printf("%s: %d row(s)\n", s.Table, s.Rows)
	if s.LastCommit != "" {
		fmt.Printf("  last commit:   %s\n", s.LastCommit)
		fmt.Printf("  last indexed:  %s\n", s.LastIndexedAt)
		fmt.Printf("  dimension:     %d\n", s.Dimension)
	} else {
		fmt.Println("  not yet indexed")
	}
	return nil
}
