package retrieval

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/codetrail-dev/codetrail/internal/embedder"
	"github.com/codetrail-dev/codetrail/internal/store"
)

// Result is one ranked hit returned by the dispatcher, carrying the
// strategy actually used to produce it per §4.8.
type Result struct {
	ChunkID         string
	Text            string
	Score           float64
	RetrievalMethod Strategy
	Fields          map[string]string
	Synthesized     bool // true when no indexed row backs a candidate SHA
}

// Options configures one Dispatch call.
type Options struct {
	Limit           int
	PerCommitLimit  int // how many chunks to pull per candidate SHA for pickaxe/blame
	FilterPrefix    string
}

const (
	defaultLimit          = 10
	defaultPerCommitLimit = 3
)

// Dispatcher routes classified queries across the vector store and the
// version-control tool, merging and deduplicating by chunk ID. No
// strategy reads the TextIndex field.
type Dispatcher struct {
	Store     *store.Store
	Provider  embedder.Provider
	TextIndex *TextIndex
	RepoRoot  string
}

// Dispatch classifies queryText (using now as the reference time for any
// temporal-cutoff extraction) and routes it to the matching strategy,
// returning results sorted by score descending and truncated to
// opts.Limit (or config default).
func (d *Dispatcher) Dispatch(ctx context.Context, queryText string, opts Options, now time.Time) ([]Result, Classification, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	perCommit := opts.PerCommitLimit
	if perCommit <= 0 {
		perCommit = defaultPerCommitLimit
	}

	class := Classify(queryText, now)

	var (
		results []Result
		err     error
	)
	switch class.Strategy {
	case StrategyPickaxe:
		results, err = d.runPickaxe(ctx, class, limit, perCommit)
	case StrategyBlame:
		results, err = d.runBlame(ctx, class, perCommit)
	case StrategyTemporalVector:
		results, err = d.runVector(ctx, queryText, limit, opts.FilterPrefix, class.DateCutoff)
	case StrategyStructuredGit:
		results, err = d.runStructured(ctx, queryText, class, limit, perCommit)
	default:
		results, err = d.runVector(ctx, queryText, limit, opts.FilterPrefix, "")
	}
	if err != nil {
		return nil, class, err
	}

	results = dedupeAndSort(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, class, nil
}

// runVector embeds queryText (with the search_query: prefix when the
// provider supports it) and runs a kNN search against the history-chunk
// table, optionally scoped by a date cutoff or a path-prefix filter.
func (d *Dispatcher) runVector(ctx context.Context, queryText string, limit int, filterPrefix, dateCutoff string) ([]Result, error) {
	vec, err := d.embedQuery(ctx, queryText)
	if err != nil {
		return nil, err
	}
	pred := buildPredicate(filterPrefix, dateCutoff)
	matches, err := d.Store.KNN(ctx, store.TableHistoryChunks, vec, limit, pred)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	strategy := StrategyVector
	if dateCutoff != "" {
		strategy = StrategyTemporalVector
	}
	return matchesToResults(matches, strategy), nil
}

func (d *Dispatcher) embedQuery(ctx context.Context, queryText string) ([]float32, error) {
	prefix := ""
	if d.Provider.SupportsPrefixes() {
		prefix = "search_query: "
	}
	vec, err := d.Provider.EmbedSingle(ctx, queryText, prefix)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return vec, nil
}

// runPickaxe shells out to find candidate SHAs whose diff introduced or
// removed the target string, then pulls up to perCommit chunks per SHA
// from the history index, synthesizing a minimal result when a
// candidate SHA has no indexed row.
func (d *Dispatcher) runPickaxe(ctx context.Context, class Classification, limit, perCommit int) ([]Result, error) {
	shas, err := pickaxeSHAs(ctx, d.RepoRoot, class.SearchString, limit)
	if err != nil {
		return nil, err
	}
	return d.resultsForSHAs(ctx, shas, perCommit, StrategyPickaxe)
}

// runBlame finds the most recent commit touching class.File (and Line
// when given), then pulls chunks for that SHA.
func (d *Dispatcher) runBlame(ctx context.Context, class Classification, perCommit int) ([]Result, error) {
	if class.File == "" {
		return nil, nil
	}
	sha, err := blameSHA(ctx, d.RepoRoot, class.File, class.Line)
	if err != nil {
		return nil, err
	}
	if sha == "" {
		return nil, nil
	}
	return d.resultsForSHAs(ctx, []string{sha}, perCommit, StrategyBlame)
}

// runStructured mixes a vector search over the history surface with a
// grep-log fallback by author/file, merged and deduplicated by ID.
func (d *Dispatcher) runStructured(ctx context.Context, queryText string, class Classification, limit, perCommit int) ([]Result, error) {
	vectorResults, err := d.runVector(ctx, queryText, limit, "", "")
	if err != nil {
		return nil, err
	}
	for i := range vectorResults {
		vectorResults[i].RetrievalMethod = StrategyStructuredGit
	}

	shas, err := structuredGitSHAs(ctx, d.RepoRoot, class.Author, class.File, limit)
	if err != nil {
		return vectorResults, nil // grep-log fallback is best-effort
	}
	grepResults, err := d.resultsForSHAs(ctx, shas, perCommit, StrategyStructuredGit)
	if err != nil {
		return vectorResults, nil
	}
	return append(vectorResults, grepResults...), nil
}

// resultsForSHAs pulls up to perCommit rows per SHA from the history
// table via predicate sha = 'X', synthesizing a minimal placeholder
// result for any SHA absent from the index.
func (d *Dispatcher) resultsForSHAs(ctx context.Context, shas []string, perCommit int, strategy Strategy) ([]Result, error) {
	var out []Result
	for _, sha := range shas {
		pred := store.Eq{Field: "sha", Value: store.EscapeLiteral(sha)}
		rows, err := d.Store.Project(ctx, store.TableHistoryChunks, pred, nil)
		if err != nil {
			return nil, fmt.Errorf("lookup sha %s: %w", sha, err)
		}
		if len(rows) == 0 {
			out = append(out, Result{
				ChunkID:         sha,
				Text:            fmt.Sprintf("commit %s (not in history index)", sha),
				Score:           0,
				RetrievalMethod: strategy,
				Fields:          map[string]string{"sha": sha},
				Synthesized:     true,
			})
			continue
		}
		n := perCommit
		if n > len(rows) {
			n = len(rows)
		}
		for _, r := range rows[:n] {
			out = append(out, Result{
				ChunkID:         r.ID,
				Text:            r.Text,
				Score:           1,
				RetrievalMethod: strategy,
				Fields:          r.Fields,
			})
		}
	}
	return out, nil
}

func buildPredicate(filterPrefix, dateCutoff string) store.Predicate {
	var clauses []store.Predicate
	if filterPrefix != "" {
		clauses = append(clauses, store.LikePrefix{Field: "file_path", Prefix: store.EscapeLiteral(filterPrefix)})
	}
	if dateCutoff != "" {
		clauses = append(clauses, store.GTDate{Field: "date", Cutoff: dateCutoff})
	}
	switch len(clauses) {
	case 0:
		return nil
	case 1:
		return clauses[0]
	default:
		return store.And{Clauses: clauses}
	}
}

func matchesToResults(matches []store.Match, strategy Strategy) []Result {
	out := make([]Result, len(matches))
	for i, m := range matches {
		out[i] = Result{
			ChunkID:         m.ID,
			Text:            m.Text,
			Score:           1 - m.Distance,
			RetrievalMethod: strategy,
			Fields:          m.Fields,
		}
	}
	return out
}

// dedupeAndSort removes duplicate chunk IDs (first occurrence wins) and
// sorts by score descending, the merge rule every multi-source strategy
// shares.
func dedupeAndSort(results []Result) []Result {
	seen := map[string]bool{}
	out := make([]Result, 0, len(results))
	for _, r := range results {
		if seen[r.ChunkID] {
			continue
		}
		seen[r.ChunkID] = true
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
