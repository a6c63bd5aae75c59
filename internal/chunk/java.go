package chunk

import (
	"regexp"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"
)

func init() {
	Register(newJavaStrategy())
}

var (
	javaTestFileRe = regexp.MustCompile(`(?i)(Test\.java$|Tests\.java$|IT\.java$)`)
	javaImportRe   = regexp.MustCompile(`^(import\s|package\s)`)
	javaMappingRe  = regexp.MustCompile(`@(Get|Post|Put|Patch|Delete|Request)Mapping`)
)

type javaStrategy struct {
	base *treeSitterBase
}

func newJavaStrategy() *javaStrategy {
	lang := sitter.NewLanguage(java.Language())
	return &javaStrategy{base: newTreeSitterBase(lang, "java", []string{".java"}, javaTestFileRe, javaImportRe)}
}

func (s *javaStrategy) Extensions() []string          { return s.base.Extensions() }
func (s *javaStrategy) TestFilePattern() *regexp.Regexp { return s.base.TestFilePattern() }

func (s *javaStrategy) ChunkFile(absPath string, content []byte, repoRoot string, maxTokens int) ([]Chunk, error) {
	lines := splitLines(content)
	relPath := repoRelative(absPath, repoRoot)
	pkg := packageNameFor(absPath, repoRoot, fileExists)

	if lineCount(lines) < smallFileLineThreshold {
		return []Chunk{wholeFileChunk(absPath, relPath, pkg, content, lines, javaImportRe, RoleNone, maxTokens)}, nil
	}

	tree, root := s.base.parse(content)
	if tree == nil {
		return nil, nil
	}
	defer tree.Close()

	var chunks []Chunk
	walkTree(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "class_declaration":
			if c, ok := javaNamedChunk(n, content, lines, relPath, absPath, pkg, TypeClass, maxTokens); ok {
				chunks = append(chunks, c)
			}
			chunks = append(chunks, javaMethodChunks(n, content, lines, relPath, absPath, pkg, maxTokens)...)
			return false
		case "interface_declaration":
			if c, ok := javaNamedChunk(n, content, lines, relPath, absPath, pkg, TypeInterface, maxTokens); ok {
				chunks = append(chunks, c)
			}
			return false
		case "enum_declaration":
			if c, ok := javaNamedChunk(n, content, lines, relPath, absPath, pkg, TypeType, maxTokens); ok {
				chunks = append(chunks, c)
			}
			return false
		}
		return true
	})

	if len(chunks) == 0 {
		return []Chunk{wholeFileChunk(absPath, relPath, pkg, content, lines, javaImportRe, RoleNone, maxTokens)}, nil
	}
	return chunks, nil
}

func javaNamedChunk(n *sitter.Node, source []byte, lines []string, relPath, absPath, pkg string, ct Type, maxTokens int) (Chunk, bool) {
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
		Text:      buildBody(relPath, lines, javaImportRe, code, maxTokens),
		Language:  "java",
		Exported:  strings.Contains(extractNodeText(n, source), "public"),
	}, true
}

// javaMethodChunks extracts method_declaration children from a class body,
// classifying any annotated with a Spring HTTP-mapping annotation as a
// route chunk.
func javaMethodChunks(classNode *sitter.Node, source []byte, lines []string, relPath, absPath, pkg string, maxTokens int) []Chunk {
	bodyNode := classNode.ChildByFieldName("body")
	if bodyNode == nil {
		return nil
	}
	var out []Chunk
	for _, m := range findChildrenByType(bodyNode, "method_declaration") {
		nameNode := m.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := extractNodeText(nameNode, source)
		start, end := startLineOf(m), endLineOf(m)
		code := extractLines(lines, start, end)

		ct := TypeFunction
		if javaHasMappingAnnotation(m, lines) {
			ct = TypeRoute
		}

		out = append(out, Chunk{
			ID:        NewID(absPath, start, end),
			Path:      relPath,
			Package:   pkg,
			Name:      name,
			ChunkType: ct,
			StartLine: start,
			EndLine:   end,
			Text:      buildBody(relPath, lines, javaImportRe, code, maxTokens),
			Language:  "java",
			Exported:  strings.Contains(extractNodeText(m, source), "public"),
		})
	}
	return out
}

// javaHasMappingAnnotation scans a method's leading lines, from its first
// line through the line carrying its name, for a Spring *Mapping
// annotation; tree-sitter-java keeps annotations inside the method node's
// modifiers, so they fall in that span.
func javaHasMappingAnnotation(m *sitter.Node, lines []string) bool {
	start := startLineOf(m)
	last := start
	if nameNode := m.ChildByFieldName("name"); nameNode != nil {
		last = startLineOf(nameNode)
	}
	for i := start; i <= last; i++ {
		if i-1 < 0 || i-1 >= len(lines) {
			continue
		}
		if javaMappingRe.MatchString(lines[i-1]) {
			return true
		}
	}
	return false
}
