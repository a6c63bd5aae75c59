package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codetrail-dev/codetrail/internal/historychunk"
)

func TestDetectRevertPairs(t *testing.T) {
	chunks := []historychunk.Chunk{
		{
			SHA: "aaa1111", ChunkType: historychunk.TypeCommitSummary,
			Subject: "feat: add login", Date: "2024-01-01T00:00:00Z",
		},
		{
			SHA: "aaa1111", ChunkType: historychunk.TypeFileDiff,
			FilePath: "src/auth/login.ts", Date: "2024-01-01T00:00:00Z",
		},
		{
			SHA: "bbb2222", ChunkType: historychunk.TypeCommitSummary,
			Subject: `Revert "feat: add login"`,
			Body:    "This reverts commit aaa1111.",
			Date:    "2024-01-03T00:00:00Z",
		},
	}

	signals := DetectRevertPairs(chunks)
	require.Len(t, signals, 1)
	s := signals[0]
	assert.Equal(t, TypeRevertPair, s.Type)
	assert.Equal(t, SeverityCaution, s.Severity)
	assert.Equal(t, "src/auth", s.DirectoryScope)
	assert.ElementsMatch(t, []string{"aaa1111", "bbb2222"}, s.ContributingSHAs)

	var meta RevertMetadata
	require.NoError(t, DecodeMetadata(s.Metadata["metadata_json"], &meta))
	assert.Equal(t, 2, meta.TimeToRevertDays)
}

func TestDetectRevertPairs_NoMatchingOriginal(t *testing.T) {
	chunks := []historychunk.Chunk{
		{
			SHA: "bbb2222", ChunkType: historychunk.TypeCommitSummary,
			Subject: `Revert "feat: add login"`,
			Body:    "This reverts commit ffffff0.",
			Date:    "2024-01-03T00:00:00Z",
		},
	}
	assert.Empty(t, DetectRevertPairs(chunks))
}

func TestDetectRevertPairs_Deterministic(t *testing.T) {
	chunks := []historychunk.Chunk{
		{SHA: "aaa1111", ChunkType: historychunk.TypeCommitSummary, Subject: "feat: x", Date: "2024-01-01T00:00:00Z"},
		{SHA: "aaa1111", ChunkType: historychunk.TypeFileDiff, FilePath: "a/b.go", Date: "2024-01-01T00:00:00Z"},
		{SHA: "bbb2222", ChunkType: historychunk.TypeCommitSummary, Subject: `Revert "feat: x"`, Body: "This reverts commit aaa1111.", Date: "2024-01-02T00:00:00Z"},
	}
	first := DetectRevertPairs(chunks)
	second := DetectRevertPairs(chunks)
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[0].Summary, second[0].Summary)
}
