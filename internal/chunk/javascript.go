package chunk

import (
	"regexp"
)

func init() {
	Register(newJavaScriptStrategy())
}

// javaScriptStrategy reuses the TypeScript grammar family — tree-sitter's
// TypeScript/TSX grammars parse plain JS/JSX as a subset — and only
// overrides the extensions and the Language stamped on emitted chunks.
type javaScriptStrategy struct {
	*typeScriptStrategy
}

func newJavaScriptStrategy() *javaScriptStrategy {
	return &javaScriptStrategy{typeScriptStrategy: newTypeScriptStrategy()}
}

func (s *javaScriptStrategy) Extensions() []string { return []string{".js", ".jsx", ".mjs", ".cjs"} }

func (s *javaScriptStrategy) TestFilePattern() *regexp.Regexp { return tsTestFileRe }

func (s *javaScriptStrategy) ChunkFile(absPath string, content []byte, repoRoot string, maxTokens int) ([]Chunk, error) {
	chunks, err := s.typeScriptStrategy.ChunkFile(absPath, content, repoRoot, maxTokens)
	for i := range chunks {
		chunks[i].Language = "javascript"
	}
	return chunks, err
}
