package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codetrail-dev/codetrail/internal/historychunk"
)

func TestDetectAdoptionCycles(t *testing.T) {
	chunks := []historychunk.Chunk{
		{
			SHA: "1", ChunkType: historychunk.TypeFileDiff, FilePath: "package.json",
			Date: "2024-01-01T00:00:00Z",
			Text: "+  \"lodash\": \"^4.0.0\",",
		},
		{
			SHA: "2", ChunkType: historychunk.TypeFileDiff, FilePath: "package.json",
			Date: "2024-02-01T00:00:00Z",
			Text: "-  \"lodash\": \"^4.0.0\",",
		},
		{
			SHA: "3", ChunkType: historychunk.TypeFileDiff, FilePath: "package.json",
			Date: "2024-03-01T00:00:00Z",
			Text: "+  \"lodash\": \"^4.17.0\",",
		},
	}
	signals := DetectAdoptionCycles(chunks)
	require.Len(t, signals, 1)
	var meta AdoptionMetadata
	require.NoError(t, DecodeMetadata(signals[0].Metadata["metadata_json"], &meta))
	assert.Equal(t, "lodash", meta.Dependency)
	assert.Equal(t, 2, meta.Transitions)
	assert.Equal(t, "added", meta.CurrentStatus)
}

func TestDetectAdoptionCycles_VersionBumpIgnored(t *testing.T) {
	chunks := []historychunk.Chunk{
		{
			SHA: "1", ChunkType: historychunk.TypeFileDiff, FilePath: "package.json",
			Date: "2024-01-01T00:00:00Z",
			Text: "-  \"lodash\": \"^4.0.0\",\n+  \"lodash\": \"^4.17.0\",",
		},
	}
	assert.Empty(t, DetectAdoptionCycles(chunks))
}
