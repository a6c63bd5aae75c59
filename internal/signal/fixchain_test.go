package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codetrail-dev/codetrail/internal/historychunk"
)

func commitWithFile(sha, commitType, subject, date, file string) []historychunk.Chunk {
	return []historychunk.Chunk{
		{SHA: sha, ChunkType: historychunk.TypeCommitSummary, CommitType: commitType, Subject: subject, Date: date},
		{SHA: sha, ChunkType: historychunk.TypeFileDiff, FilePath: file, Date: date},
	}
}

func TestDetectFixChains(t *testing.T) {
	var chunks []historychunk.Chunk
	chunks = append(chunks, commitWithFile("f0", "feat", "feat: add login", "2024-01-01T00:00:00Z", "src/auth/login.ts")...)
	chunks = append(chunks, commitWithFile("f1", "fix", "fix: login bug 1", "2024-01-02T00:00:00Z", "src/auth/login.ts")...)
	chunks = append(chunks, commitWithFile("f2", "fix", "fix: login bug 2", "2024-01-03T00:00:00Z", "src/auth/login.ts")...)
	chunks = append(chunks, commitWithFile("f3", "fix", "fix: login bug 3", "2024-01-04T00:00:00Z", "src/auth/login.ts")...)

	signals := DetectFixChains(chunks)
	require.Len(t, signals, 1)
	s := signals[0]
	assert.Equal(t, SeverityWarning, s.Severity)

	var meta FixChainMetadata
	require.NoError(t, DecodeMetadata(s.Metadata["metadata_json"], &meta))
	assert.Equal(t, 3, meta.FixCount)
	assert.Equal(t, 3, meta.DaySpan)
}

func TestDetectFixChains_OutsideWindow(t *testing.T) {
	var chunks []historychunk.Chunk
	chunks = append(chunks, commitWithFile("f0", "feat", "feat: x", "2024-01-01T00:00:00Z", "a.go")...)
	chunks = append(chunks, commitWithFile("f1", "fix", "fix: y", "2024-02-01T00:00:00Z", "a.go")...)
	assert.Empty(t, DetectFixChains(chunks))
}

func TestDetectFixChains_DifferentFile(t *testing.T) {
	var chunks []historychunk.Chunk
	chunks = append(chunks, commitWithFile("f0", "feat", "feat: x", "2024-01-01T00:00:00Z", "a.go")...)
	chunks = append(chunks, commitWithFile("f1", "fix", "fix: y", "2024-01-02T00:00:00Z", "b.go")...)
	assert.Empty(t, DetectFixChains(chunks))
}
