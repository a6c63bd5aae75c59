package vcslog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkipRules_BotAuthor(t *testing.T) {
	rules, err := NewSkipRules([]string{"dependabot", "[bot]"}, nil, false)
	require.NoError(t, err)

	bot := RawCommit{AuthorName: "dependabot[bot]", AuthorEmail: "support@github.com", Subject: "bump x"}
	human := RawCommit{AuthorName: "Jane Doe", AuthorEmail: "jane@example.com", Subject: "bump x"}

	assert.True(t, rules.Should(bot))
	assert.False(t, rules.Should(human))
}

func TestSkipRules_MessagePattern(t *testing.T) {
	rules, err := NewSkipRules(nil, []string{`^chore:`}, false)
	require.NoError(t, err)

	assert.True(t, rules.Should(RawCommit{Subject: "chore: bump deps"}))
	assert.False(t, rules.Should(RawCommit{Subject: "feat: add thing"}))
}

func TestSkipRules_MergeCommits(t *testing.T) {
	disallow, err := NewSkipRules(nil, nil, false)
	require.NoError(t, err)
	allow, err := NewSkipRules(nil, nil, true)
	require.NoError(t, err)

	merge := RawCommit{Parents: []string{"p1", "p2"}}
	assert.True(t, disallow.Should(merge))
	assert.False(t, allow.Should(merge))
}

func TestSkipRules_AllFilesAreLockFiles(t *testing.T) {
	rules, err := NewSkipRules(nil, nil, false)
	require.NoError(t, err)

	onlyLocks := RawCommit{Files: []FileStat{{Path: "go.sum"}, {Path: "package-lock.json"}}}
	mixed := RawCommit{Files: []FileStat{{Path: "go.sum"}, {Path: "main.go"}}}
	noFiles := RawCommit{}

	assert.True(t, rules.Should(onlyLocks))
	assert.False(t, rules.Should(mixed))
	assert.False(t, rules.Should(noFiles))
}

func TestSkipRules_InvalidPatternErrors(t *testing.T) {
	_, err := NewSkipRules(nil, []string{"("}, false)
	assert.Error(t, err)
}
