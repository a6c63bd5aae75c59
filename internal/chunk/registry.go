package chunk

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Strategy is the per-language chunking contract. Implementers register an
// instance with the package registry at process start-up (init()).
type Strategy interface {
	// Extensions lists the file extensions (with leading dot) this strategy
	// handles, e.g. ".ts", ".tsx".
	Extensions() []string

	// TestFilePattern matches file basenames that should be treated as test
	// files (skipped unless test indexing is enabled).
	TestFilePattern() *regexp.Regexp

	// ChunkFile walks the parsed source and returns the chunks for one file.
	// absPath is used for ID derivation and the manifest (package name)
	// lookup; it and repoRoot together give the repo-relative Path field.
	// maxTokens bounds chunk body size.
	ChunkFile(absPath string, content []byte, repoRoot string, maxTokens int) ([]Chunk, error)
}

var registry = map[string]Strategy{}

// Register associates a Strategy with each of its declared extensions.
// Intended to be called from each language file's init().
func Register(s Strategy) {
	for _, ext := range s.Extensions() {
		registry[ext] = s
	}
}

// Lookup returns the strategy registered for a file's extension, or nil (and
// false) if no strategy is registered — such files are silently skipped by
// the chunker registry contract.
func Lookup(path string) (Strategy, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	s, ok := registry[ext]
	return s, ok
}

// IsTestFile reports whether path matches the test-file pattern declared by
// the strategy responsible for its extension. Files with no registered
// strategy are never considered test files by this check.
func IsTestFile(path string) bool {
	s, ok := Lookup(path)
	if !ok {
		return false
	}
	return s.TestFilePattern().MatchString(filepath.Base(path))
}

// repoRelative converts an absolute path to a repo-relative path. Falls
// back to the input unchanged if it cannot be made relative.
func repoRelative(absPath, repoRoot string) string {
	rel, err := filepath.Rel(repoRoot, absPath)
	if err != nil {
		return absPath
	}
	return filepath.ToSlash(rel)
}

// packageNameFor returns the nearest ancestor manifest directory name, or
// "root" when no manifest ancestor is found.
func packageNameFor(absPath, repoRoot string, statExists func(string) bool) string {
	dir := filepath.Dir(absPath)
	entries := []string{"package.json", "go.mod", "Cargo.toml", "Gemfile", "pyproject.toml", "composer.json", "pom.xml"}
	for {
		for _, e := range entries {
			if statExists(filepath.Join(dir, e)) {
				return filepath.Base(dir)
			}
		}
		if dir == repoRoot || dir == "." || dir == string(filepath.Separator) {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "root"
}
