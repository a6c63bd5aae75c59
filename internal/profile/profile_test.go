package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codetrail-dev/codetrail/internal/historychunk"
	"github.com/codetrail-dev/codetrail/internal/signal"
)

func TestCompute_MinimumTwoChanges(t *testing.T) {
	chunks := []historychunk.Chunk{
		{SHA: "1", ChunkType: historychunk.TypeFileDiff, FilePath: "a.go", AuthorName: "alice", Date: "2024-01-01T00:00:00Z"},
	}
	assert.Empty(t, Compute(chunks, nil))
}

func TestCompute_OwnerAndStability(t *testing.T) {
	chunks := []historychunk.Chunk{
		{SHA: "1", ChunkType: historychunk.TypeFileDiff, FilePath: "a.go", AuthorName: "alice", Date: "2024-01-01T00:00:00Z"},
		{SHA: "2", ChunkType: historychunk.TypeFileDiff, FilePath: "a.go", AuthorName: "alice", Date: "2024-01-05T00:00:00Z"},
		{SHA: "3", ChunkType: historychunk.TypeFileDiff, FilePath: "a.go", AuthorName: "bob", Date: "2024-01-10T00:00:00Z"},
	}
	profiles := Compute(chunks, nil)
	require.Len(t, profiles, 1)
	p := profiles[0]
	assert.Equal(t, "a.go", p.Path)
	assert.Equal(t, 3, p.TotalChanges)
	require.NotNil(t, p.Owner)
	assert.Equal(t, "alice", p.Owner.Author)
	assert.Equal(t, float64(100), p.Stability)
}

func TestCompute_RootSignalVisible(t *testing.T) {
	chunks := []historychunk.Chunk{
		{SHA: "1", ChunkType: historychunk.TypeFileDiff, FilePath: "src/foo/bar.go", AuthorName: "a", Date: "2024-01-01T00:00:00Z"},
		{SHA: "2", ChunkType: historychunk.TypeFileDiff, FilePath: "src/foo/bar.go", AuthorName: "a", Date: "2024-01-02T00:00:00Z"},
	}
	signals := []signal.Record{
		{ID: "root-sig", Type: signal.TypeAdoptionCycle, DirectoryScope: "."},
	}
	profiles := Compute(chunks, signals)
	require.Len(t, profiles, 1)
	assert.Contains(t, profiles[0].ActiveSignalIDs, "root-sig")
}

func TestCompute_RevertAndFixCountsFromSignals(t *testing.T) {
	chunks := []historychunk.Chunk{
		{SHA: "r1", ChunkType: historychunk.TypeFileDiff, FilePath: "a.go", AuthorName: "a", Date: "2024-01-01T00:00:00Z"},
		{SHA: "r2", ChunkType: historychunk.TypeFileDiff, FilePath: "a.go", AuthorName: "a", Date: "2024-01-02T00:00:00Z"},
	}
	signals := []signal.Record{
		{ID: "s1", Type: signal.TypeRevertPair, DirectoryScope: "a.go", ContributingSHAs: []string{"r1"}},
	}
	profiles := Compute(chunks, signals)
	require.Len(t, profiles, 1)
	assert.Equal(t, 1, profiles[0].RevertCount)
	assert.Less(t, profiles[0].Stability, float64(100))
}
