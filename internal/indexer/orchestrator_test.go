package indexer

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codetrail-dev/codetrail/internal/embedder"
	"github.com/codetrail-dev/codetrail/internal/store"
)

func TestRun_FullThenIncrementalSkipsUnchangedFiles(t *testing.T) {
	dir := createTestRepo(t)
	writeAndCommit(t, dir, "a.py", "def a():\n    return 1\n", "feat: add a")
	writeAndCommit(t, dir, "b.py", "def b():\n    return 2\n", "feat: add b")

	st, err := store.Open("")
	require.NoError(t, err)
	provider := embedder.NewMockProvider(32)
	statePath := filepath.Join(t.TempDir(), "state.json")

	opts := Options{
		RepoRoot:  dir,
		StatePath: statePath,
		Mode:      ModeFull,
		Discovery: DiscoveryOptions{Include: []string{"**"}, MaxFileLines: 10000},
	}
	res, err := Run(context.Background(), opts, provider, st)
	require.NoError(t, err)
	assert.Equal(t, ModeFull, res.Mode)
	assert.Greater(t, res.Chunks, 0)

	count, err := st.Count(store.TableCodeChunks)
	require.NoError(t, err)
	assert.Equal(t, res.Chunks, count)

	opts.Mode = ModeIncremental
	res2, err := Run(context.Background(), opts, provider, st)
	require.NoError(t, err)
	assert.Equal(t, ModeIncremental, res2.Mode)
	assert.Equal(t, 0, res2.Files)
	assert.Equal(t, 0, res2.Chunks)
}

func TestRun_IncrementalReindexesOnlyChangedFile(t *testing.T) {
	dir := createTestRepo(t)
	writeAndCommit(t, dir, "a.py", "def a():\n    return 1\n", "feat: add a")

	st, err := store.Open("")
	require.NoError(t, err)
	provider := embedder.NewMockProvider(32)
	statePath := filepath.Join(t.TempDir(), "state.json")

	opts := Options{
		RepoRoot:  dir,
		StatePath: statePath,
		Mode:      ModeFull,
		Discovery: DiscoveryOptions{Include: []string{"**"}, MaxFileLines: 10000},
	}
	_, err = Run(context.Background(), opts, provider, st)
	require.NoError(t, err)

	writeAndCommit(t, dir, "a.py", "def a():\n    return 1\n\ndef a2():\n    return 2\n", "feat: extend a")
	opts.Mode = ModeIncremental
	res, err := Run(context.Background(), opts, provider, st)
	require.NoError(t, err)
	assert.Equal(t, ModeIncremental, res.Mode)
	assert.Equal(t, 1, res.Deletes)
	assert.Greater(t, res.Chunks, 0)
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
