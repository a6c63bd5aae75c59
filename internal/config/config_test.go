package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, Default().EmbeddingProvider, cfg.EmbeddingProvider)
	assert.Equal(t, Default().MaxFileLines, cfg.MaxFileLines)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `{"maxFileLines": 500, "embeddingProvider": "openai"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codetrailrc.json"), []byte(content), 0o644))

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.MaxFileLines)
	assert.Equal(t, "openai", cfg.EmbeddingProvider)
	// Untouched keys keep their defaults.
	assert.Equal(t, Default().SearchLimit, cfg.SearchLimit)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content := `{"embeddingProvider": "openai"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codetrailrc.json"), []byte(content), 0o644))
	t.Setenv("CODETRAIL_EMBEDDINGPROVIDER", "ollama")

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.EmbeddingProvider)
}
