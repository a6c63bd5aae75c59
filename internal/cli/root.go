// Package cli wires codetrail's cobra command surface: index, git-index,
// query, git-search, stats, git-stats, init, explain, analyze, assess,
// and version, each a thin adapter over the internal/* packages that do
// the actual work.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	repoFlag    string
	verboseFlag bool
)

// rootCmd is the base command invoked when codetrail is called without a
// subcommand.
var rootCmd = &cobra.Command{
	Use:   "codetrail",
	Short: "Semantic code and git-history search with drift-aware assessment",
	Long: `codetrail indexes a repository's source tree and commit history into
a local vector store, then lets you search both with natural-language
queries, route pickaxe/blame/structured-git questions to the version
control tool directly, and assess a set of candidate files against the
stability/ownership/pattern signals mined from their history.`,
}

// Execute runs the root command; called by main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if hint := hintFor(err); hint != "" {
			fmt.Fprintln(os.Stderr, "tip:", hint)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initViperEnv)

	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", "", "repository path (default: $CODETRAIL_REPO or the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "verbose output")
}

// initViperEnv binds CODETRAIL_* environment variables, matching §6's
// documented env surface.
func initViperEnv() {
	viper.SetEnvPrefix("CODETRAIL")
	viper.AutomaticEnv()
}

// repoRoot resolves the configured repository path: --repo flag, then
// CODETRAIL_REPO, then the working directory.
func repoRoot() (string, error) {
	if repoFlag != "" {
		return repoFlag, nil
	}
	if env := os.Getenv("CODETRAIL_REPO"); env != "" {
		return env, nil
	}
	return os.Getwd()
}

// storeURI resolves the vector-store location from CODETRAIL_STORE_URI,
// defaulting to a .codetrail directory under the repo root.
func storeURI(repo string) string {
	if env := os.Getenv("CODETRAIL_STORE_URI"); env != "" {
		return env
	}
	return repo + "/.codetrail/store"
}
