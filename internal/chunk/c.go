package chunk

import (
	"regexp"

	sitter "github.com/tree-sitter/go-tree-sitter"
	c "github.com/tree-sitter/tree-sitter-c/bindings/go"
)

func init() {
	Register(newCStrategy())
}

var (
	cTestFileRe = regexp.MustCompile(`(?i)(_test\.c$|test_.*\.c$)`)
	cImportRe   = regexp.MustCompile(`^#include\s`)
)

type cStrategy struct {
	base *treeSitterBase
}

func newCStrategy() *cStrategy {
	lang := sitter.NewLanguage(c.Language())
	return &cStrategy{base: newTreeSitterBase(lang, "c", []string{".c", ".h"}, cTestFileRe, cImportRe)}
}

func (s *cStrategy) Extensions() []string          { return s.base.Extensions() }
func (s *cStrategy) TestFilePattern() *regexp.Regexp { return s.base.TestFilePattern() }

func (s *cStrategy) ChunkFile(absPath string, content []byte, repoRoot string, maxTokens int) ([]Chunk, error) {
	lines := splitLines(content)
	relPath := repoRelative(absPath, repoRoot)
	pkg := packageNameFor(absPath, repoRoot, fileExists)

	if lineCount(lines) < smallFileLineThreshold {
		return []Chunk{wholeFileChunk(absPath, relPath, pkg, content, lines, cImportRe, RoleNone, maxTokens)}, nil
	}

	tree, root := s.base.parse(content)
	if tree == nil {
		return nil, nil
	}
	defer tree.Close()

	var chunks []Chunk
	walkTree(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "struct_specifier":
			if ch, ok := cNamedChunk(n, content, lines, relPath, absPath, pkg, TypeType, maxTokens); ok {
				chunks = append(chunks, ch)
			}
		case "union_specifier":
			if ch, ok := cNamedChunk(n, content, lines, relPath, absPath, pkg, TypeType, maxTokens); ok {
				chunks = append(chunks, ch)
			}
		case "enum_specifier":
			if ch, ok := cNamedChunk(n, content, lines, relPath, absPath, pkg, TypeType, maxTokens); ok {
				chunks = append(chunks, ch)
			}
		case "function_definition":
			if ch, ok := cFunctionChunk(n, content, lines, relPath, absPath, pkg, maxTokens); ok {
				chunks = append(chunks, ch)
			}
			return false
		}
		return true
	})

	if len(chunks) == 0 {
		return []Chunk{wholeFileChunk(absPath, relPath, pkg, content, lines, cImportRe, RoleNone, maxTokens)}, nil
	}
	return chunks, nil
}

func cNamedChunk(n *sitter.Node, source []byte, lines []string, relPath, absPath, pkg string, ct Type, maxTokens int) (Chunk, bool) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return Chunk{}, false
	}
	name := extractNodeText(nameNode, source)
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
		Text:      buildBody(relPath, lines, cImportRe, code, maxTokens),
		Language:  "c",
		Exported:  true,
	}, true
}

func cFunctionChunk(n *sitter.Node, source []byte, lines []string, relPath, absPath, pkg string, maxTokens int) (Chunk, bool) {
	declarator := n.ChildByFieldName("declarator")
	if declarator == nil {
		return Chunk{}, false
	}
	name := cFindFunctionName(declarator, source)
	if name == "" {
		return Chunk{}, false
	}
	start, end := startLineOf(n), endLineOf(n)
	code := extractLines(lines, start, end)

	return Chunk{
		ID:        NewID(absPath, start, end),
		Path:      relPath,
		Package:   pkg,
		Name:      name,
		ChunkType: TypeFunction,
		StartLine: start,
		EndLine:   end,
		Text:      buildBody(relPath, lines, cImportRe, code, maxTokens),
		Language:  "c",
		Exported:  true,
	}, true
}

// cFindFunctionName recurses through pointer/function declarator wrappers
// to find the innermost identifier naming the function.
func cFindFunctionName(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	switch node.Kind() {
	case "identifier":
		return extractNodeText(node, source)
	case "function_declarator", "pointer_declarator":
		return cFindFunctionName(node.ChildByFieldName("declarator"), source)
	default:
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(uint(i))
			if child.Kind() == "identifier" {
				return extractNodeText(child, source)
			}
		}
	}
	return ""
}
