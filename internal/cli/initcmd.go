package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codetrail-dev/codetrail/internal/config"
)

const configFileName = ".codetrailrc.json"

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a .codetrailrc.json with codetrail's defaults",
	Long: `init writes a .codetrailrc.json at the repository root populated
with codetrail's built-in defaults, ready to be edited. It refuses to
overwrite an existing config file.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	repo, err := repoRoot()
	if err != nil {
		return err
	}
	path := repo + "/" + configFileName
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	data, err := json.MarshalIndent(config.Default(), "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return err
	}
	fmt.Println("wrote", path)
	return nil
}
