package gitindexer

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codetrail-dev/codetrail/internal/embedder"
	"github.com/codetrail-dev/codetrail/internal/historychunk"
	"github.com/codetrail-dev/codetrail/internal/store"
)

func TestRun_FullThenIncrementalIsIdempotent(t *testing.T) {
	dir := createTestRepo(t)
	writeAndCommit(t, dir, "a.go", "package a\n", "feat: add a")
	writeAndCommit(t, dir, "b.go", "package b\n", "feat: add b")

	st, err := store.Open("")
	require.NoError(t, err)
	provider := embedder.NewMockProvider(32)
	statePath := filepath.Join(t.TempDir(), "state.json")

	opts := Options{
		RepoRoot:  dir,
		StatePath: statePath,
		Full:      true,
		ChunkOpts: historychunk.Options{EmitFileDiffs: true},
	}
	res, err := Run(context.Background(), opts, provider, st)
	require.NoError(t, err)
	assert.Equal(t, "full", res.Mode)
	assert.Equal(t, 2, res.Commits)
	assert.Greater(t, res.Chunks, 0)

	count, err := st.Count(store.TableHistoryChunks)
	require.NoError(t, err)
	assert.Equal(t, res.Chunks, count)

	opts.Full = false
	res2, err := Run(context.Background(), opts, provider, st)
	require.NoError(t, err)
	assert.Equal(t, "incremental", res2.Mode)
	assert.Equal(t, 0, res2.Commits)
	assert.Equal(t, 0, res2.Chunks)
}

func TestRun_IncrementalAppendsNewCommitsOnly(t *testing.T) {
	dir := createTestRepo(t)
	writeAndCommit(t, dir, "a.go", "package a\n", "feat: add a")

	st, err := store.Open("")
	require.NoError(t, err)
	provider := embedder.NewMockProvider(32)
	statePath := filepath.Join(t.TempDir(), "state.json")

	opts := Options{RepoRoot: dir, StatePath: statePath, Full: true}
	_, err = Run(context.Background(), opts, provider, st)
	require.NoError(t, err)

	writeAndCommit(t, dir, "b.go", "package b\n", "feat: add b")
	opts.Full = false
	res, err := Run(context.Background(), opts, provider, st)
	require.NoError(t, err)
	assert.Equal(t, "incremental", res.Mode)
	assert.Equal(t, 1, res.Commits)
}

func createTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cmd := exec.Command("git", "init", "-b", "main")
	cmd.Dir = dir
	require.NoError(t, cmd.Run())
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test User")
	return dir
}

func writeAndCommit(t *testing.T, dir, rel, content, message string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	runGit(t, dir, "add", rel)
	runGit(t, dir, "commit", "-m", message)
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, string(out))
}
