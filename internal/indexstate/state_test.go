package indexstate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codetrail-dev/codetrail/internal/errs"
)

func TestLoad_MissingFileReturnsZeroValueNotError(t *testing.T) {
	dir := t.TempDir()
	s, err := Load(filepath.Join(dir, "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, State{}, s)
	assert.False(t, s.IsWarm())
}

func TestLoad_InvalidJSONErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveThenLoad_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", ".codetrail-state.json")

	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	s := State{
		LastCommit:         "abc1234",
		LastIndexedAt:      now,
		Totals:             Totals{Files: 10, Chunks: 50, Commits: 3, Signals: 2},
		EmbeddingDimension: 768,
	}
	require.NoError(t, s.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s.LastCommit, loaded.LastCommit)
	assert.True(t, s.LastIndexedAt.Equal(loaded.LastIndexedAt))
	assert.Equal(t, s.Totals, loaded.Totals)
	assert.Equal(t, s.EmbeddingDimension, loaded.EmbeddingDimension)
	assert.True(t, loaded.IsWarm())
}

func TestSave_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	require.NoError(t, State{LastCommit: "x"}.Save(path))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestCompatibleDimension(t *testing.T) {
	zero := State{}
	assert.NoError(t, zero.CompatibleDimension(768))

	match := State{EmbeddingDimension: 768}
	assert.NoError(t, match.CompatibleDimension(768))

	mismatch := State{EmbeddingDimension: 768}
	err := mismatch.CompatibleDimension(384)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrDimensionMismatch))
}

func TestIsWarm(t *testing.T) {
	assert.False(t, State{}.IsWarm())
	assert.True(t, State{LastCommit: "abc"}.IsWarm())
	assert.True(t, State{LastIndexedAt: time.Now()}.IsWarm())
}
