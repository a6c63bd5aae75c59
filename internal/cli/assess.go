package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/codetrail-dev/codetrail/internal/assess"
	"github.com/codetrail-dev/codetrail/internal/config"
	"github.com/codetrail-dev/codetrail/internal/embedder"
	"github.com/codetrail-dev/codetrail/internal/store"
)

var (
	assessFilesFlag      string
	assessChangeTypeFlag string
	assessQueryFlag      string
	assessFormatFlag     string
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Assess a set of candidate files against mined stability/ownership/pattern signals",
	RunE:  runAssess,
}

func init() {
	rootCmd.AddCommand(assessCmd)
	assessCmd.Flags().StringVar(&assessFilesFlag, "files", "", "comma-separated list of candidate paths (required)")
	assessCmd.Flags().StringVar(&assessChangeTypeFlag, "change-type", "", "the kind of change being considered (e.g. refactor, fix, feature)")
	assessCmd.Flags().StringVar(&assessQueryFlag, "query", "", "optional free-text query to pull additional relevant signals")
	assessCmd.Flags().StringVar(&assessFormatFlag, "format", "text", "output format: text or json")
	assessCmd.MarkFlagRequired("files")
}

func runAssess(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	repo, err := repoRoot()
	if err != nil {
		return err
	}

	var paths []string
	for _, p := range strings.Split(assessFilesFlag, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return fmt.Errorf("--files must name at least one path")
	}

	st, err := store.Open(storeURI(repo))
	if err != nil {
		return err
	}

	var provider embedder.Provider
	if assessQueryFlag != "" {
		cfg, cerr := config.NewLoader(repo).Load()
		if cerr != nil {
			fmt.Fprintln(os.Stderr, "warning:", cerr)
		}
		provider, err = buildProvider(cfg, "", "")
		if err != nil {
			return err
		}
	}

	result, err := assess.Assess(ctx, st, provider, paths, assess.Options{
		ChangeType: assessChangeTypeFlag,
		Query:      assessQueryFlag,
	}, time.Now())
	if err != nil {
		return err
	}
	return printAssessment(result, assessFormatFlag)
}

func printAssessment(result assess.Result, format string) error {
	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	if len(result.Warnings) == 0 {
		fmt.Println("no warnings")
	}
	for _, w := range result.Warnings {
		fmt.Printf("[%s/%s] %s: %s\n", w.Severity, w.Category, w.Path, w.Message)
	}
	fmt.Println()
	for _, o := range result.Ownership {
		if o.Owner == nil {
			fmt.Printf("%s: no clear owner (%d contributors)\n", o.Path, o.ContributorCount)
			continue
		}
		fmt.Printf("%s: %s owns %.0f%% (%d contributors)\n", o.Path, o.Owner.Author, o.Owner.Percentage, o.ContributorCount)
	}
	return nil
}
