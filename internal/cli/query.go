package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codetrail-dev/codetrail/internal/config"
	"github.com/codetrail-dev/codetrail/internal/retrieval"
	"github.com/codetrail-dev/codetrail/internal/store"
)

var (
	queryLimitFlag  int
	queryFilterFlag string
	queryFormatFlag string
)

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Search the indexed code surface with a natural-language query",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().IntVar(&queryLimitFlag, "limit", 0, "max results to return (default: config search limit)")
	queryCmd.Flags().StringVar(&queryFilterFlag, "filter", "", "only match chunks whose path starts with this prefix")
	queryCmd.Flags().StringVar(&queryFormatFlag, "format", "text", "output format: text or json")
}

func runQuery(cmd *cobra.Command, args []string) error {
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

	limit := queryLimitFlag
	if limit <= 0 {
		limit = cfg.SearchLimit
	}

	results, err := retrieval.CodeSearch(ctx, st, provider, args[0], limit, queryFilterFlag)
	if err != nil {
		return err
	}
	return printResults(results, queryFormatFlag)
}

func printResults(results []retrieval.Result, format string) error {
	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	if len(results) == 0 {
		fmt.Println("no results")
		return nil
	}
	for i, r := range results {
		fmt.Printf("%d. [%s] %s (score %.3f)\n", i+1, r.RetrievalMethod, r.Fields["path"], r.Score)
		fmt.Println("   " + firstLine(r.Text))
	}
	return nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
