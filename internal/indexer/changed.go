package indexer

import (
	"context"
	"os/exec"
	"strings"
)

// changedFilesSince lists repo-relative paths touched between base and
// HEAD, plus any uncommitted worktree changes, the file list
// incremental mode re-chunks. base must be a reachable commit; callers
// fall back to full mode when it isn't.
func changedFilesSince(ctx context.Context, repoRoot, base string) ([]string, error) {
	committed, err := gitDiffNames(ctx, repoRoot, base+"..HEAD")
	if err != nil {
		return nil, err
	}
	worktree, err := gitDiffNames(ctx, repoRoot, "HEAD")
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []string
	for _, f := range append(committed, worktree...) {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out, nil
}

func gitDiffNames(ctx context.Context, repoRoot, rev string) ([]string, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "--name-only", rev)
	cmd.Dir = repoRoot
	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}
	return strings.Split(strings.TrimSpace(string(out)), "\n"), nil
}

// commitExists reports whether sha resolves to a real object in the
// repository, the check that forces incremental mode to fall back to
// full when the prior state's base commit has since been pruned.
func commitExists(ctx context.Context, repoRoot, sha string) bool {
	if sha == "" {
		return false
	}
	cmd := exec.CommandContext(ctx, "git", "cat-file", "-e", sha)
	cmd.Dir = repoRoot
	return cmd.Run() == nil
}

func headSHA(ctx context.Context, repoRoot string) string {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "HEAD")
	cmd.Dir = repoRoot
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
