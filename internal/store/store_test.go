package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustOpen(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	return s
}

func TestEnsureTable_CreateOrOpenIsIdempotent(t *testing.T) {
	s := mustOpen(t)
	require.NoError(t, s.EnsureTable(TableCodeChunks))
	require.NoError(t, s.EnsureTable(TableCodeChunks))

	n, err := s.Count(TableCodeChunks)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCount_MissingTableErrors(t *testing.T) {
	s := mustOpen(t)
	_, err := s.Count("nope")
	assert.Error(t, err)
}

func TestOverwriteThenAppend(t *testing.T) {
	s := mustOpen(t)
	ctx := context.Background()

	recs := []Record{
		{ID: "a", Text: "alpha", Vector: []float32{1, 0, 0}, Fields: map[string]string{"path": "a.go"}},
		{ID: "b", Text: "beta", Vector: []float32{0, 1, 0}, Fields: map[string]string{"path": "b.go"}},
	}
	require.NoError(t, s.Overwrite(ctx, TableCodeChunks, recs))

	n, err := s.Count(TableCodeChunks)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, s.Append(ctx, TableCodeChunks, []Record{
		{ID: "c", Text: "gamma", Vector: []float32{0, 0, 1}, Fields: map[string]string{"path": "c.go"}},
	}))

	n, err = s.Count(TableCodeChunks)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestOverwrite_ReplacesPriorGenerationEntirely(t *testing.T) {
	s := mustOpen(t)
	ctx := context.Background()

	require.NoError(t, s.Overwrite(ctx, TableCodeChunks, []Record{
		{ID: "old", Text: "old content", Vector: []float32{1, 0}, Fields: map[string]string{"path": "old.go"}},
	}))
	require.NoError(t, s.Overwrite(ctx, TableCodeChunks, []Record{
		{ID: "new", Text: "new content", Vector: []float32{0, 1}, Fields: map[string]string{"path": "new.go"}},
	}))

	n, err := s.Count(TableCodeChunks)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := s.Project(ctx, TableCodeChunks, nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "new", rows[0].ID)
}

func TestKNN_OrdersByDistanceAndHonorsEqualityPredicate(t *testing.T) {
	s := mustOpen(t)
	ctx := context.Background()

	recs := []Record{
		{ID: "a", Text: "alpha", Vector: []float32{1, 0, 0}, Fields: map[string]string{"path": "a.go"}},
		{ID: "b", Text: "beta", Vector: []float32{0.9, 0.1, 0}, Fields: map[string]string{"path": "b.go"}},
		{ID: "c", Text: "gamma", Vector: []float32{0, 0, 1}, Fields: map[string]string{"path": "c.go"}},
	}
	require.NoError(t, s.Overwrite(ctx, TableCodeChunks, recs))

	matches, err := s.KNN(ctx, TableCodeChunks, []float32{1, 0, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].ID)
	assert.Less(t, matches[0].Distance, matches[1].Distance)
}

func TestKNN_PredicateRestrictsResults(t *testing.T) {
	s := mustOpen(t)
	ctx := context.Background()

	recs := []Record{
		{ID: "a", Text: "alpha", Vector: []float32{1, 0, 0}, Fields: map[string]string{"path": "internal/store/a.go"}},
		{ID: "b", Text: "beta", Vector: []float32{0.95, 0.05, 0}, Fields: map[string]string{"path": "cmd/b.go"}},
	}
	require.NoError(t, s.Overwrite(ctx, TableCodeChunks, recs))

	matches, err := s.KNN(ctx, TableCodeChunks, []float32{1, 0, 0}, 5, LikePrefix{Field: "path", Prefix: "internal/"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].ID)
}

func TestDelete_EqualityUsesNativePushdown(t *testing.T) {
	s := mustOpen(t)
	ctx := context.Background()

	recs := []Record{
		{ID: "a", Text: "alpha", Vector: []float32{1, 0}, Fields: map[string]string{"sha": "sha1"}},
		{ID: "b", Text: "beta", Vector: []float32{0, 1}, Fields: map[string]string{"sha": "sha2"}},
	}
	require.NoError(t, s.Overwrite(ctx, TableHistoryChunks, recs))

	require.NoError(t, s.Delete(ctx, TableHistoryChunks, Eq{Field: "sha", Value: "sha1"}))

	n, err := s.Count(TableHistoryChunks)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDelete_LikePrefixFallsBackToProjectThenDeleteByID(t *testing.T) {
	s := mustOpen(t)
	ctx := context.Background()

	recs := []Record{
		{ID: "a", Text: "alpha", Vector: []float32{1, 0}, Fields: map[string]string{"path": "internal/store/a.go"}},
		{ID: "b", Text: "beta", Vector: []float32{0, 1}, Fields: map[string]string{"path": "cmd/b.go"}},
	}
	require.NoError(t, s.Overwrite(ctx, TableCodeChunks, recs))

	require.NoError(t, s.Delete(ctx, TableCodeChunks, LikePrefix{Field: "path", Prefix: "internal/"}))

	n, err := s.Count(TableCodeChunks)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := s.Project(ctx, TableCodeChunks, nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "b", rows[0].ID)
}

func TestProject_RestrictsToRequestedFields(t *testing.T) {
	s := mustOpen(t)
	ctx := context.Background()

	require.NoError(t, s.Overwrite(ctx, TableFileProfiles, []Record{
		{ID: "p1", Text: "profile", Vector: []float32{1, 0}, Fields: map[string]string{
			"path":       "internal/store/store.go",
			"owner":      "alice",
			"stability":  "42",
			"extra_note": "keep-out",
		}},
	}))

	rows, err := s.Project(ctx, TableFileProfiles, nil, []string{"path", "owner"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]string{"path": "internal/store/store.go", "owner": "alice"}, rows[0].Fields)
}

func TestVectorDim_FirstEmbeddedRecordWins(t *testing.T) {
	recs := []Record{
		{ID: "a", Vector: nil},
		{ID: "b", Vector: []float32{1, 2, 3}},
	}
	assert.Equal(t, 3, vectorDim(recs))
}

func TestVectorDim_AllUnembeddedYieldsZero(t *testing.T) {
	recs := []Record{{ID: "a"}, {ID: "b"}}
	assert.Equal(t, 0, vectorDim(recs))
}
