package signal

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/codetrail-dev/codetrail/internal/historychunk"
)

// Kind names one of the seven detector kinds, used to select a subset
// for windowed-only (incremental analyze) runs.
type Kind string

const (
	KindRevertPair     Kind = "revert_pair"
	KindFixChain       Kind = "fix_chain"
	KindChurnHotspot   Kind = "churn_hotspot"
	KindOwnership      Kind = "ownership"
	KindAdoptionCycle  Kind = "adoption_cycle"
	KindStabilityShift Kind = "stability_shift"
	KindBreakingChange Kind = "breaking_change"
)

// AllKinds is every detector kind, the default full-run set.
var AllKinds = []Kind{
	KindRevertPair, KindFixChain, KindChurnHotspot, KindOwnership,
	KindAdoptionCycle, KindStabilityShift, KindBreakingChange,
}

// WindowedKinds is the subset the incremental analyze mode runs: the
// detectors whose cost scales with total history size are skipped in
// favor of the ones that naturally self-limit to a recent window.
var WindowedKinds = []Kind{
	KindRevertPair, KindFixChain, KindBreakingChange,
}

// PipelineOptions configures a single pipeline run.
type PipelineOptions struct {
	Kinds   []Kind // nil means AllKinds
	Churn   ChurnOptions
	Stability StabilityOptions
	Verbose bool
}

// RunPipeline fans the requested detectors out over chunks concurrently
// (every detector reads the same read-only slice, so this is safe) and
// returns their combined output. Detector outputs are deterministic and
// order-independent across runs, so the combined result's ordering
// within a Kind is preserved but ordering across Kinds is not
// guaranteed — callers that need a stable order should sort by ID.
func RunPipeline(ctx context.Context, chunks []historychunk.Chunk, opts PipelineOptions) ([]Record, error) {
	kinds := opts.Kinds
	if kinds == nil {
		kinds = AllKinds
	}

	g, ctx := errgroup.WithContext(ctx)
	results := make([][]Record, len(kinds))
	for i, kind := range kinds {
		i, kind := i, kind
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			results[i] = runOne(kind, chunks, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Record
	for i, kind := range kinds {
		if opts.Verbose {
			log.Printf("signal: %s produced %d record(s)", kind, len(results[i]))
		}
		out = append(out, results[i]...)
	}
	return out, nil
}

func runOne(kind Kind, chunks []historychunk.Chunk, opts PipelineOptions) []Record {
	switch kind {
	case KindRevertPair:
		return DetectRevertPairs(chunks)
	case KindFixChain:
		return DetectFixChains(chunks)
	case KindChurnHotspot:
		return DetectChurnHotspots(chunks, opts.Churn)
	case KindOwnership:
		return DetectOwnership(chunks)
	case KindAdoptionCycle:
		return DetectAdoptionCycles(chunks)
	case KindStabilityShift:
		return DetectStabilityShifts(chunks, opts.Stability)
	case KindBreakingChange:
		return DetectBreakingChanges(chunks)
	default:
		return nil
	}
}
