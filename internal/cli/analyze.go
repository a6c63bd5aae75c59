package cli

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/codetrail-dev/codetrail/internal/historychunk"
	"github.com/codetrail-dev/codetrail/internal/indexstate"
	"github.com/codetrail-dev/codetrail/internal/profile"
	"github.com/codetrail-dev/codetrail/internal/signal"
	"github.com/codetrail-dev/codetrail/internal/store"
)

const analyzeStateFile = ".analyze-state.json"

var (
	analyzeFullFlag  bool
	analyzeQuietFlag bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Mine the history index for signals and recompute file profiles",
	Long: `analyze loads every history_chunks row, runs the signal detectors
over it, and folds the resulting signals into one FileProfile per path
with at least two recorded changes.

Without --full, only the detectors that naturally self-limit to a
recent window run (revert_pair, fix_chain, breaking_change); --full
runs every detector kind.`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&analyzeFullFlag, "full", false, "run every detector kind instead of the windowed subset")
	analyzeCmd.Flags().BoolVarP(&analyzeQuietFlag, "quiet", "q", false, "disable progress output")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	repo, err := repoRoot()
	if err != nil {
		return err
	}
	st, err := store.Open(storeURI(repo))
	if err != nil {
		return err
	}

	rows, err := st.Project(ctx, store.TableHistoryChunks, nil, nil)
	if err != nil {
		return err
	}
	progress := newProgressReporter(analyzeQuietFlag)
	progress.start(len(rows), "loading history chunks")
	chunks := make([]historychunk.Chunk, len(rows))
	for i, r := range rows {
		chunks[i] = historychunk.FromStoreRecord(r)
		progress.add(1)
	}
	progress.finish()

	kinds := signal.WindowedKinds
	if analyzeFullFlag {
		kinds = signal.AllKinds
	}

	records, err := signal.RunPipeline(ctx, chunks, signal.PipelineOptions{Kinds: kinds, Verbose: verboseFlag})
	if err != nil {
		return err
	}

	if err := st.EnsureTable(store.TableSignals); err != nil {
		return err
	}
	signalRows := make([]store.Record, len(records))
	for i, r := range records {
		signalRows[i] = r.ToStoreRecord()
	}
	if analyzeFullFlag {
		if err := st.Overwrite(ctx, store.TableSignals, signalRows); err != nil {
			return err
		}
	} else if len(signalRows) > 0 {
		if err := st.Append(ctx, store.TableSignals, signalRows); err != nil {
			return err
		}
	}

	allSignalRows, err := st.Project(ctx, store.TableSignals, nil, nil)
	if err != nil {
		return err
	}
	allSignals := make([]signal.Record, len(allSignalRows))
	for i, r := range allSignalRows {
		allSignals[i] = signal.FromStoreRecord(r)
	}

	profiles := profile.Compute(chunks, allSignals)
	if err := st.EnsureTable(store.TableFileProfiles); err != nil {
		return err
	}
	profileRows := make([]store.Record, len(profiles))
	for i, p := range profiles {
		profileRows[i] = p.ToStoreRecord()
	}
	if err := st.Overwrite(ctx, store.TableFileProfiles, profileRows); err != nil {
		return err
	}

	mode := "windowed"
	if analyzeFullFlag {
		mode = "full"
	}
	newState := indexstate.State{
		LastCommit:    headSHA(repo),
		LastIndexedAt: time.Now(),
		Totals:        indexstate.Totals{Chunks: len(chunks), Signals: len(allSignals)},
	}
	if err := newState.Save(repo + "/" + analyzeStateFile); err != nil {
		return err
	}

	progress.printf("analyzed %d chunk(s) (%s): %d new signal(s), %d profile(s)\n", len(chunks), mode, len(records), len(profiles))
	return nil
}

func headSHA(repoRoot string) string {
	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = repoRoot
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
