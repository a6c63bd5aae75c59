package chunk

import (
	"regexp"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
)

func init() {
	Register(newRustStrategy())
}

var (
	rustTestFileRe = regexp.MustCompile(`(?i)(_test\.rs$|^tests/)`)
	rustImportRe   = regexp.MustCompile(`^use\s`)
)

type rustStrategy struct {
	base *treeSitterBase
}

func newRustStrategy() *rustStrategy {
	lang := sitter.NewLanguage(rust.Language())
	return &rustStrategy{base: newTreeSitterBase(lang, "rust", []string{".rs"}, rustTestFileRe, rustImportRe)}
}

func (s *rustStrategy) Extensions() []string          { return s.base.Extensions() }
func (s *rustStrategy) TestFilePattern() *regexp.Regexp { return s.base.TestFilePattern() }

func (s *rustStrategy) ChunkFile(absPath string, content []byte, repoRoot string, maxTokens int) ([]Chunk, error) {
	lines := splitLines(content)
	relPath := repoRelative(absPath, repoRoot)
	pkg := packageNameFor(absPath, repoRoot, fileExists)

	if lineCount(lines) < smallFileLineThreshold {
		return []Chunk{wholeFileChunk(absPath, relPath, pkg, content, lines, rustImportRe, RoleNone, maxTokens)}, nil
	}

	tree, root := s.base.parse(content)
	if tree == nil {
		return nil, nil
	}
	defer tree.Close()

	var chunks []Chunk
	walkTree(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "struct_item":
			if c, ok := rustNamedChunk(n, content, lines, relPath, absPath, pkg, TypeType, "", maxTokens); ok {
				chunks = append(chunks, c)
			}
		case "enum_item":
			if c, ok := rustNamedChunk(n, content, lines, relPath, absPath, pkg, TypeType, "", maxTokens); ok {
				chunks = append(chunks, c)
			}
		case "trait_item":
			if c, ok := rustNamedChunk(n, content, lines, relPath, absPath, pkg, TypeInterface, "", maxTokens); ok {
				chunks = append(chunks, c)
			}
		case "impl_item":
			chunks = append(chunks, rustImplMethodChunks(n, content, lines, relPath, absPath, pkg, maxTokens)...)
			return false
		case "function_item":
			if c, ok := rustNamedChunk(n, content, lines, relPath, absPath, pkg, TypeFunction, "", maxTokens); ok {
				chunks = append(chunks, c)
			}
		}
		return true
	})

	if len(chunks) == 0 {
		return []Chunk{wholeFileChunk(absPath, relPath, pkg, content, lines, rustImportRe, RoleNone, maxTokens)}, nil
	}
	return chunks, nil
}

func rustNamedChunk(n *sitter.Node, source []byte, lines []string, relPath, absPath, pkg string, ct Type, namePrefix string, maxTokens int) (Chunk, bool) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return Chunk{}, false
	}
	name := extractNodeText(nameNode, source)
	if namePrefix != "" {
		name = namePrefix + "::" + name
	}
	start, end := startLineOf(n), endLineOf(n)
	code := extractLines(lines, start, end)

	return Chunk{
		ID:        NewID(absPath, start, end),
		Path:      relPath,
		Package:   pkg,
		Name:      name,
		ChunkType: ct,
		StartLine: start,
		EndLine:   end,
		Text:      buildBody(relPath, lines, rustImportRe, code, maxTokens),
		Language:  "rust",
		Exported:  strings.HasPrefix(strings.TrimSpace(extractNodeText(n, source)), "pub"),
	}, true
}

func rustImplMethodChunks(n *sitter.Node, source []byte, lines []string, relPath, absPath, pkg string, maxTokens int) []Chunk {
	typeNode := n.ChildByFieldName("type")
	if typeNode == nil {
		return nil
	}
	typeName := extractNodeText(typeNode, source)

	bodyNode := n.ChildByFieldName("body")
	if bodyNode == nil {
		return nil
	}
	var out []Chunk
	for _, m := range findChildrenByType(bodyNode, "function_item") {
		if c, ok := rustNamedChunk(m, source, lines, relPath, absPath, pkg, TypeFunction, typeName, maxTokens); ok {
			out = append(out, c)
		}
	}
	return out
}
