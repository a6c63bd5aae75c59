package chunk

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// padLines generates n single-line comments, used to push small fixture
// sources above the chunker's small-file threshold so tests exercise the
// AST-walking path rather than the whole-file shortcut.
func padLines(commentPrefix string, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString(commentPrefix)
		b.WriteString(" padding\n")
	}
	return b.String()
}
