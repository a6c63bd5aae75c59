package retrieval

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// pickaxeSHAs runs `git log -S<needle>` to find commits whose diff
// introduced or removed an occurrence of needle, newest first.
func pickaxeSHAs(ctx context.Context, repoRoot, needle string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 15
	}
	cmd := exec.CommandContext(ctx, "git", "log", "-S"+needle, "--pretty=%H", "-n", strconv.Itoa(limit))
	cmd.Dir = repoRoot
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git pickaxe search: %w", err)
	}
	return splitLines(out), nil
}

// blameSHA runs `git log -1` scoped to a single line range to find the
// most recent commit that touched it, the version-control tool's
// line-level attribution the blame strategy needs.
func blameSHA(ctx context.Context, repoRoot, file string, line int) (string, error) {
	rangeArg := fmt.Sprintf("%d,%d", line, line)
	if line <= 0 {
		rangeArg = "1,1"
	}
	cmd := exec.CommandContext(ctx, "git", "log", "-L"+rangeArg+":"+file, "--pretty=%H", "-n", "1")
	cmd.Dir = repoRoot
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git blame search: %w", err)
	}
	lines := splitLines(out)
	if len(lines) == 0 {
		return "", nil
	}
	return lines[0], nil
}

// structuredGitSHAs runs a grep-log fallback, matching commits by author
// and/or touched file, the textual complement to the vector search
// structured_git mixes in.
func structuredGitSHAs(ctx context.Context, repoRoot, author, file string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 15
	}
	args := []string{"log", "--pretty=%H", "-n", strconv.Itoa(limit)}
	if author != "" {
		args = append(args, "--author="+author)
	}
	if file != "" {
		args = append(args, "--", file)
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = repoRoot
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git structured search: %w", err)
	}
	return splitLines(out), nil
}

func splitLines(out []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
