package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/codetrail-dev/codetrail/internal/config"
	"github.com/codetrail-dev/codetrail/internal/retrieval"
	"github.com/codetrail-dev/codetrail/internal/store"
)

var explainCmd = &cobra.Command{
	Use:   "explain <query>",
	Short: "Narrate the history behind a query in prose",
	Long: `explain routes query through the same classifier as git-search but
renders the result as a short narrative of commit subjects instead of
a ranked list, for questions like "why does the retry loop back off
exponentially" or "who last touched the auth middleware".`,
	Args: cobra.ExactArgs(1),
	RunE: runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
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

	dispatcher := &retrieval.Dispatcher{Store: st, Provider: provider, RepoRoot: repo}
	results, class, err := dispatcher.Dispatch(ctx, args[0], retrieval.Options{Limit: 5}, time.Now())
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("nothing in the history index speaks to that.")
		return nil
	}

	fmt.Printf("(%s)\n", class.Strategy)
	for _, r := range results {
		subject := r.Fields["subject"]
		if subject == "" {
			subject = firstLine(r.Text)
		}
		author := r.Fields["author_name"]
		sha := r.Fields["sha"]
		switch {
		case author != "" && sha != "":
			fmt.Printf("- %s (%s, %s)\n", subject, author, shortSHA(sha))
		case sha != "":
			fmt.Printf("- %s (%s)\n", subject, shortSHA(sha))
		default:
			fmt.Printf("- %s\n", subject)
		}
	}
	return nil
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
