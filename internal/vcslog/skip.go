package vcslog

import (
	"path/filepath"
	"regexp"
	"strings"
)

// lockFileBasenames is the fixed set of dependency lock-file names whose
// commits are never interesting enough to index.
var lockFileBasenames = map[string]bool{
	"package-lock.json": true,
	"yarn.lock":          true,
	"pnpm-lock.yaml":     true,
	"go.sum":             true,
	"Cargo.lock":         true,
	"Gemfile.lock":       true,
	"poetry.lock":        true,
	"composer.lock":      true,
}

// SkipRules holds the configured, pre-compiled filters applied to every
// commit as it streams off the child process.
type SkipRules struct {
	BotAuthors        []string // lower-cased substrings checked against "name <email>"
	MessagePatterns   []*regexp.Regexp
	AllowMergeCommits bool
}

// NewSkipRules compiles the configured bot-author substrings and message
// regexes once, so the hot path of Should never re-compiles a pattern.
func NewSkipRules(botAuthors []string, messagePatterns []string, allowMergeCommits bool) (SkipRules, error) {
	rules := SkipRules{AllowMergeCommits: allowMergeCommits}
	for _, a := range botAuthors {
		rules.BotAuthors = append(rules.BotAuthors, strings.ToLower(a))
	}
	for _, p := range messagePatterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return SkipRules{}, err
		}
		rules.MessagePatterns = append(rules.MessagePatterns, re)
	}
	return rules, nil
}

// Should reports whether a commit should be discarded, per the first
// matching skip rule.
func (r SkipRules) Should(c RawCommit) bool {
	if r.hasBotAuthor(c) {
		return true
	}
	if r.matchesSkipPattern(c.Subject) {
		return true
	}
	if c.IsMerge() && !r.AllowMergeCommits {
		return true
	}
	if r.allFilesAreLockFiles(c) {
		return true
	}
	return false
}

func (r SkipRules) hasBotAuthor(c RawCommit) bool {
	haystack := strings.ToLower(c.AuthorName + " <" + c.AuthorEmail + ">")
	for _, bot := range r.BotAuthors {
		if bot != "" && strings.Contains(haystack, bot) {
			return true
		}
	}
	return false
}

func (r SkipRules) matchesSkipPattern(subject string) bool {
	for _, re := range r.MessagePatterns {
		if re.MatchString(subject) {
			return true
		}
	}
	return false
}

func (r SkipRules) allFilesAreLockFiles(c RawCommit) bool {
	if len(c.Files) == 0 {
		return false
	}
	for _, f := range c.Files {
		if !lockFileBasenames[filepath.Base(f.Path)] {
			return false
		}
	}
	return true
}
