package indexer

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// DiscoveryOptions configures which files Discover walks into the
// chunking pipeline.
type DiscoveryOptions struct {
	Include      []string
	Exclude      []string
	MaxFileLines int
	IndexTests   bool
	Since        func(modTime int64) bool // optional filter for "recent" mode
}

// File is one discovered source file, read into memory for chunking.
type File struct {
	AbsPath string
	Content []byte
}

// Discover walks repoRoot honoring include/exclude globs, dropping files
// over MaxFileLines and (unless IndexTests) test files, per §4.4's
// discovery contract.
func Discover(repoRoot string, opts DiscoveryOptions) ([]File, error) {
	includes, err := compileGlobs(opts.Include)
	if err != nil {
		return nil, err
	}
	excludes, err := compileGlobs(opts.Exclude)
	if err != nil {
		return nil, err
	}

	var files []File
	err = filepath.Walk(repoRoot, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(repoRoot, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if !matchesAny(includes, rel) || matchesAny(excludes, rel) {
			return nil
		}
		if !opts.IndexTests && isTestFile(rel) {
			return nil
		}
		if opts.Since != nil && !opts.Since(info.ModTime().Unix()) {
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil // unparsable_file: skip, count at caller
		}
		if opts.MaxFileLines > 0 && countLines(content) > opts.MaxFileLines {
			return nil
		}
		files = append(files, File{AbsPath: path, Content: content})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// readFile reads one file's content for re-chunking in incremental mode.
func readFile(absPath string) ([]byte, error) {
	return os.ReadFile(absPath)
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func matchesAny(globs []glob.Glob, path string) bool {
	for _, g := range globs {
		if g.Match(path) {
			return true
		}
	}
	return false
}

func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := 1
	for _, b := range content {
		if b == '\n' {
			n++
		}
	}
	return n
}

// isTestFile reports whether a repo-relative path's basename looks like
// a test file by common naming convention, independent of the chunk
// registry's per-language pattern (used before a strategy is chosen).
func isTestFile(rel string) bool {
	base := filepath.Base(rel)
	lower := strings.ToLower(base)
	switch {
	case strings.HasSuffix(lower, "_test.go"):
		return true
	case strings.Contains(lower, ".test."), strings.Contains(lower, ".spec."):
		return true
	case strings.HasSuffix(lower, "_spec.rb"):
		return true
	default:
		return false
	}
}
