package vcslog

import (
	"context"
	"os/exec"
	"strings"
)

// HunkFetcher retrieves the unified diff hunk body for one file within one
// commit. Separate from Extractor because most callers never need patch
// text — only the chunker's file_diff emission path does.
type HunkFetcher struct {
	RepoRoot string
}

// Hunk returns the unified diff for path as changed by sha, with the
// commit-message preamble `git show` would normally print stripped off.
func (f HunkFetcher) Hunk(ctx context.Context, sha, path string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "show", "--no-color", "--unified=3", "--format=", sha, "--", path)
	cmd.Dir = f.RepoRoot
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimLeft(string(out), "\n"), nil
}
