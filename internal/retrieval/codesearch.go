package retrieval

import (
	"context"
	"fmt"

	"github.com/codetrail-dev/codetrail/internal/embedder"
	"github.com/codetrail-dev/codetrail/internal/store"
)

// CodeSearch runs a plain vector search over the code_chunks table. The
// `query` CLI command uses this directly rather than through Dispatch,
// since the pickaxe/blame/structured_git strategies are meaningless
// against the symbolic code index — those only make sense scoped to the
// history surface.
func CodeSearch(ctx context.Context, st *store.Store, provider embedder.Provider, queryText string, limit int, filterPrefix string) ([]Result, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	prefix := ""
	if provider.SupportsPrefixes() {
		prefix = "search_query: "
	}
	vec, err := provider.EmbedSingle(ctx, queryText, prefix)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var pred store.Predicate
	if filterPrefix != "" {
		pred = store.LikePrefix{Field: "path", Prefix: store.EscapeLiteral(filterPrefix)}
	}
	matches, err := st.KNN(ctx, store.TableCodeChunks, vec, limit, pred)
	if err != nil {
		return nil, fmt.Errorf("code vector search: %w", err)
	}
	return matchesToResults(matches, StrategyVector), nil
}
