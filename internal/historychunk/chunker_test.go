package historychunk

import (
	"context"
	"strings"
	"testing"

	"github.com/codetrail-dev/codetrail/internal/vcslog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHunks struct {
	text string
	err  error
}

func (f fakeHunks) Hunk(ctx context.Context, sha, path string) (string, error) {
	return f.text, f.err
}

func TestBuild_ConventionalCommitParsedAndDecisionClassified(t *testing.T) {
	commit := vcslog.RawCommit{
		SHA: "abc", AuthorName: "Jane", AuthorEmail: "jane@example.com",
		Date: "2024-01-01T00:00:00Z", Subject: "feat(indexer): add incremental mode",
		Files: []vcslog.FileStat{{Path: "internal/indexer/orchestrator.go", Additions: 20, Deletions: 2}},
	}

	chunks, err := Build(context.Background(), commit, Options{}, nil)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	summary := chunks[0]
	assert.Equal(t, TypeCommitSummary, summary.ChunkType)
	assert.Equal(t, "feat", summary.CommitType)
	assert.Equal(t, "indexer", summary.Scope)
	assert.Equal(t, DecisionDecision, summary.DecisionClass)
	assert.Equal(t, 20, summary.Additions)
	assert.Equal(t, 2, summary.Deletions)
	assert.Contains(t, summary.Text, "Touched:")
}

func TestBuild_LowQualitySubjectIsEnriched(t *testing.T) {
	commit := vcslog.RawCommit{
		SHA: "s1", AuthorName: "Bot", AuthorEmail: "bot@x.com",
		Date: "2024-01-01T00:00:00Z", Subject: "fix: typo in list rendering",
		Files: []vcslog.FileStat{{Path: "src/app/widgets/list.go", Additions: 1, Deletions: 1}},
	}

	chunks, err := Build(context.Background(), commit, Options{}, nil)
	require.NoError(t, err)
	summary := chunks[0]
	assert.Contains(t, summary.Text, "Primary file:")
	assert.Contains(t, summary.Text, "Change scope:")
	assert.Equal(t, "fix", summary.CommitType)
	assert.Equal(t, DecisionRoutine, summary.DecisionClass)
}

func TestBuild_NonConventionalSubjectYieldsEmptyTypeAndScope(t *testing.T) {
	commit := vcslog.RawCommit{SHA: "s2", Subject: "improve the thing significantly today"}
	chunks, err := Build(context.Background(), commit, Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "", chunks[0].CommitType)
	assert.Equal(t, "", chunks[0].Scope)
	assert.Equal(t, DecisionUnknown, chunks[0].DecisionClass)
}

func TestBuild_FileDiffChunksWhenEnabled(t *testing.T) {
	commit := vcslog.RawCommit{
		SHA: "d1", Subject: "feat: widgets",
		Files: []vcslog.FileStat{
			{Path: "a.go", Additions: 5, Deletions: 0},
			{Path: "logo.png", Binary: true},
		},
	}
	hunks := fakeHunks{text: strings.Repeat("+line\n", 5)}

	chunks, err := Build(context.Background(), commit, Options{EmitFileDiffs: true}, hunks)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	var diffs []Chunk
	for _, c := range chunks {
		if c.ChunkType == TypeFileDiff {
			diffs = append(diffs, c)
		}
	}
	require.Len(t, diffs, 2)
	assert.Equal(t, "a.go", diffs[0].FilePath)
	assert.Equal(t, "[binary file] logo.png", diffs[1].Text)
}

func TestBuild_HunkTruncation(t *testing.T) {
	commit := vcslog.RawCommit{SHA: "d2", Subject: "feat: big change", Files: []vcslog.FileStat{{Path: "big.go", Additions: 100}}}
	hunks := fakeHunks{text: strings.Repeat("+line\n", 100)}

	chunks, err := Build(context.Background(), commit, Options{EmitFileDiffs: true, MaxDiffLines: 10}, hunks)
	require.NoError(t, err)
	diff := chunks[1]
	assert.Contains(t, diff.Text, "… truncated (")
	assert.Contains(t, diff.Text, "more lines)")
}

func TestBuild_MergeGroupEmittedOnlyWhenEnabled(t *testing.T) {
	merge := vcslog.RawCommit{SHA: "m1", Subject: "Merge pull request #9 from org/feature-x", Parents: []string{"p1", "p2"}}

	chunks, err := Build(context.Background(), merge, Options{}, nil)
	require.NoError(t, err)
	assert.Len(t, chunks, 1)

	chunks, err = Build(context.Background(), merge, Options{EmitMergeGroups: true}, nil)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, TypeMergeGroup, chunks[1].ChunkType)
	assert.Equal(t, "feature-x", chunks[1].Branch)
}

func TestExtractBranch_FromRefsDecoration(t *testing.T) {
	commit := vcslog.RawCommit{Refs: []string{"HEAD -> main", "origin/main"}}
	assert.Equal(t, "main", extractBranch(commit))
}

func TestTruncateHunk_NoOpUnderLimit(t *testing.T) {
	short := "a\nb\nc"
	assert.Equal(t, short, truncateHunk(short, 10))
}
