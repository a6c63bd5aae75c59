// Package vcslog extracts raw commit records from a git worktree by
// shelling out to `git log` with a stable, parseable format, the way a
// child-process log tailer reads structured output line by line.
package vcslog

// FileStat is one numstat row: a file touched by a commit.
type FileStat struct {
	Path      string
	Additions int
	Deletions int
	Binary    bool
}

// RawCommit is one parsed commit record, prior to any chunking or
// enrichment. Fields map directly onto what the child process printed.
type RawCommit struct {
	SHA         string
	AuthorName  string
	AuthorEmail string
	Date        string // ISO-8601, as printed by %aI
	Subject     string
	Body        string
	Parents     []string
	Refs        []string
	Files       []FileStat
}

// IsMerge reports whether the commit has more than one parent.
func (c RawCommit) IsMerge() bool { return len(c.Parents) > 1 }
