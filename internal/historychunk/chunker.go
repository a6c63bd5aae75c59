package historychunk

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/codetrail-dev/codetrail/internal/vcslog"
)

var (
	conventionalRe    = regexp.MustCompile(`^([a-zA-Z]+)(\(([^)]+)\))?:\s*(.+)$`)
	lowQualitySubject = regexp.MustCompile(`(?i)^(fix|wip|update|tmp|test|cleanup|minor|typo|\.)`)
	refsBranchRe      = regexp.MustCompile(`HEAD\s*->\s*([^,]+)`)
	mergeFromBranchRe = regexp.MustCompile(`Merge pull request .* from ([^\s/]+/)?(\S+)`)
)

// decisionByType classifies a conventional-commit type into a decision
// class; an empty or unrecognized type falls through to DecisionUnknown.
var decisionByType = map[string]DecisionClass{
	"feat":     DecisionDecision,
	"refactor": DecisionDecision,
	"perf":     DecisionDecision,
	"design":   DecisionDecision,
	"arch":     DecisionDecision,
	"fix":      DecisionRoutine,
	"chore":    DecisionRoutine,
	"style":    DecisionRoutine,
	"test":     DecisionRoutine,
	"docs":     DecisionRoutine,
	"ci":       DecisionRoutine,
	"build":    DecisionRoutine,
	"revert":   DecisionRoutine,
}

// HunkProvider fetches the unified diff for one file within one commit.
// Only consulted when EmitFileDiffs is set, since patch retrieval is a
// separate, more expensive git invocation per file.
type HunkProvider interface {
	Hunk(ctx context.Context, sha, path string) (string, error)
}

// Options configures which chunk kinds the builder emits.
type Options struct {
	EmitFileDiffs        bool
	EmitMergeGroups      bool
	LowQualitySubjectLen int // subjects shorter than this are enriched; 0 uses a sane default
	MaxDiffLines         int // hunk body truncation cap; 0 uses a sane default
}

const (
	defaultLowQualityLen = 12
	defaultMaxDiffLines  = 60
)

// Build converts one raw commit into its git-history chunks: exactly one
// commit_summary, zero or more file_diff, and optionally one merge_group.
// Merge commits never reach here unless merge-group emission is enabled at
// the extractor layer (vcslog.SkipRules.AllowMergeCommits).
func Build(ctx context.Context, commit vcslog.RawCommit, opts Options, hunks HunkProvider) ([]Chunk, error) {
	minLen := opts.LowQualitySubjectLen
	if minLen <= 0 {
		minLen = defaultLowQualityLen
	}
	maxDiffLines := opts.MaxDiffLines
	if maxDiffLines <= 0 {
		maxDiffLines = defaultMaxDiffLines
	}

	commitType, scope, _ := parseConventional(commit.Subject)
	branch := extractBranch(commit)
	additions, deletions := totals(commit.Files)

	summary := Chunk{
		ID:            NewID(commit.SHA, TypeCommitSummary, ""),
		SHA:           commit.SHA,
		AuthorName:    commit.AuthorName,
		AuthorEmail:   commit.AuthorEmail,
		Date:          commit.Date,
		Subject:       commit.Subject,
		Body:          commit.Body,
		Parents:       commit.Parents,
		Refs:          commit.Refs,
		ChunkType:     TypeCommitSummary,
		CommitType:    commitType,
		Scope:         scope,
		FilesChanged:  len(commit.Files),
		Additions:     additions,
		Deletions:     deletions,
		Branch:        branch,
		DecisionClass: classifyDecision(commitType),
	}
	summary.Text = buildSummaryText(commit, minLen)

	chunks := []Chunk{summary}

	if opts.EmitFileDiffs {
		for _, f := range commit.Files {
			text, err := buildFileDiffText(ctx, commit, f, hunks, maxDiffLines)
			if err != nil {
				return nil, fmt.Errorf("diff for %s@%s: %w", f.Path, commit.SHA, err)
			}
			chunks = append(chunks, Chunk{
				ID:            NewID(commit.SHA, TypeFileDiff, f.Path),
				SHA:           commit.SHA,
				AuthorName:    commit.AuthorName,
				AuthorEmail:   commit.AuthorEmail,
				Date:          commit.Date,
				Subject:       commit.Subject,
				Body:          commit.Body,
				Parents:       commit.Parents,
				Refs:          commit.Refs,
				ChunkType:     TypeFileDiff,
				CommitType:    commitType,
				Scope:         scope,
				FilePath:      f.Path,
				FilesChanged:  1,
				Additions:     f.Additions,
				Deletions:     f.Deletions,
				Branch:        branch,
				Text:          text,
				DecisionClass: summary.DecisionClass,
			})
		}
	}

	if opts.EmitMergeGroups && commit.IsMerge() {
		chunks = append(chunks, Chunk{
			ID:            NewID(commit.SHA, TypeMergeGroup, ""),
			SHA:           commit.SHA,
			AuthorName:    commit.AuthorName,
			AuthorEmail:   commit.AuthorEmail,
			Date:          commit.Date,
			Subject:       commit.Subject,
			Body:          commit.Body,
			Parents:       commit.Parents,
			Refs:          commit.Refs,
			ChunkType:     TypeMergeGroup,
			FilesChanged:  len(commit.Files),
			Additions:     additions,
			Deletions:     deletions,
			Branch:        branch,
			Text:          fmt.Sprintf("Merge of %d parents: %s\n\n%s", len(commit.Parents), commit.Subject, commit.Body),
			DecisionClass: summary.DecisionClass,
		})
	}

	return chunks, nil
}

// parseConventional extracts type/scope/description from a conventional-
// commit subject. Non-conventional subjects yield all-empty strings.
func parseConventional(subject string) (commitType, scope, description string) {
	m := conventionalRe.FindStringSubmatch(subject)
	if m == nil {
		return "", "", ""
	}
	return strings.ToLower(m[1]), m[3], m[4]
}

func classifyDecision(commitType string) DecisionClass {
	if dc, ok := decisionByType[commitType]; ok {
		return dc
	}
	return DecisionUnknown
}

// extractBranch reads the branch out of the refs decoration first, then
// falls back to a GitHub-style "Merge pull request … from <branch>"
// subject, else returns "".
func extractBranch(commit vcslog.RawCommit) string {
	for _, ref := range commit.Refs {
		if m := refsBranchRe.FindStringSubmatch(ref); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	if m := mergeFromBranchRe.FindStringSubmatch(commit.Subject); m != nil {
		return m[2]
	}
	return ""
}

func totals(files []vcslog.FileStat) (additions, deletions int) {
	for _, f := range files {
		additions += f.Additions
		deletions += f.Deletions
	}
	return additions, deletions
}

// buildSummaryText renders the commit_summary embeddable text, enriching
// it with structured sections when the subject reads as low-quality.
func buildSummaryText(commit vcslog.RawCommit, minLen int) string {
	additions, deletions := totals(commit.Files)
	if !isLowQuality(commit.Subject, minLen) {
		var b strings.Builder
		fmt.Fprintf(&b, "%s <%s> on %s:\n%s\n", commit.AuthorName, commit.AuthorEmail, commit.Date, commit.Subject)
		if commit.Body != "" {
			b.WriteString(commit.Body)
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "\n%d files changed, +%d -%d", len(commit.Files), additions, deletions)
		dirs := topDirectories(commit.Files, 3)
		if len(dirs) > 0 {
			fmt.Fprintf(&b, "\nTouched: %s", strings.Join(dirs, ", "))
		}
		return b.String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s <%s> on %s\n", commit.AuthorName, commit.AuthorEmail, commit.Date)
	fmt.Fprintf(&b, "Subject: %s\n", commit.Subject)
	if commit.Body != "" {
		fmt.Fprintf(&b, "\n%s\n", commit.Body)
	}
	fmt.Fprintf(&b, "\nFiles changed: %d (+%d -%d)\n", len(commit.Files), additions, deletions)
	if primary := primaryFile(commit.Files); primary != "" {
		fmt.Fprintf(&b, "Primary file: %s\n", primary)
		fmt.Fprintf(&b, "Change scope: %s\n", changeScope(primary))
	}
	return b.String()
}

// isLowQuality reports whether subject is too short or matches a known
// filler-word pattern, triggering enrichment of the commit_summary text.
func isLowQuality(subject string, minLen int) bool {
	trimmed := strings.TrimSpace(subject)
	if len(trimmed) < minLen {
		return true
	}
	return lowQualitySubject.MatchString(trimmed)
}

// topDirectories returns up to n distinct top-level directories touched,
// in descending order of how many files they contain.
func topDirectories(files []vcslog.FileStat, n int) []string {
	counts := map[string]int{}
	var order []string
	for _, f := range files {
		dir := leadingPathComponent(f.Path)
		if dir == "" {
			continue
		}
		if counts[dir] == 0 {
			order = append(order, dir)
		}
		counts[dir]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > n {
		order = order[:n]
	}
	return order
}

func primaryFile(files []vcslog.FileStat) string {
	best := ""
	bestTotal := -1
	for _, f := range files {
		total := f.Additions + f.Deletions
		if total > bestTotal {
			bestTotal = total
			best = f.Path
		}
	}
	return best
}

// changeScope derives a scope label from a path: the package/sub-package
// pair under a src/ (or similar) root, else the leading path component.
func changeScope(p string) string {
	parts := strings.Split(path.Clean(p), "/")
	for i, part := range parts {
		if (part == "src" || part == "internal" || part == "lib") && i+1 < len(parts) {
			if i+2 < len(parts) {
				return strings.Join(parts[i+1:i+3], "/")
			}
			return parts[i+1]
		}
	}
	if len(parts) > 0 {
		return parts[0]
	}
	return ""
}

func leadingPathComponent(p string) string {
	parts := strings.SplitN(path.Clean(p), "/", 2)
	return parts[0]
}

// buildFileDiffText fetches and truncates the hunk body for one file_diff
// chunk. Binary files never fetch a hunk.
func buildFileDiffText(ctx context.Context, commit vcslog.RawCommit, f vcslog.FileStat, hunks HunkProvider, maxLines int) (string, error) {
	if f.Binary {
		return "[binary file] " + f.Path, nil
	}
	if hunks == nil {
		return f.Path, nil
	}
	hunk, err := hunks.Hunk(ctx, commit.SHA, f.Path)
	if err != nil {
		return "", err
	}
	return truncateHunk(hunk, maxLines), nil
}

// truncateHunk caps a hunk body at maxLines, appending a
// "… truncated (N more lines)" marker when lines were dropped.
func truncateHunk(hunk string, maxLines int) string {
	lines := strings.Split(hunk, "\n")
	if len(lines) <= maxLines {
		return hunk
	}
	remaining := len(lines) - maxLines
	kept := strings.Join(lines[:maxLines], "\n")
	return kept + "\n… truncated (" + strconv.Itoa(remaining) + " more lines)"
}
