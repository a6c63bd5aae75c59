package chunk

import (
	"regexp"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"
)

func init() {
	Register(newPHPStrategy())
}

var (
	phpTestFileRe  = regexp.MustCompile(`(?i)Test\.php$`)
	phpImportRe    = regexp.MustCompile(`^(use\s|require|include|namespace\s)`)
	phpRouteDecoRe = regexp.MustCompile(`#\[Route\(|@Route\(`)
)

type phpStrategy struct {
	base *treeSitterBase
}

func newPHPStrategy() *phpStrategy {
	lang := sitter.NewLanguage(php.LanguagePHP())
	return &phpStrategy{base: newTreeSitterBase(lang, "php", []string{".php"}, phpTestFileRe, phpImportRe)}
}

func (s *phpStrategy) Extensions() []string          { return s.base.Extensions() }
func (s *phpStrategy) TestFilePattern() *regexp.Regexp { return s.base.TestFilePattern() }

func (s *phpStrategy) ChunkFile(absPath string, content []byte, repoRoot string, maxTokens int) ([]Chunk, error) {
	lines := splitLines(content)
	relPath := repoRelative(absPath, repoRoot)
	pkg := packageNameFor(absPath, repoRoot, fileExists)

	if lineCount(lines) < smallFileLineThreshold {
		return []Chunk{wholeFileChunk(absPath, relPath, pkg, content, lines, phpImportRe, RoleNone, maxTokens)}, nil
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
			if ch, ok := phpNamedChunk(n, content, lines, relPath, absPath, pkg, TypeClass, maxTokens); ok {
				chunks = append(chunks, ch)
			}
			chunks = append(chunks, phpMethodChunks(n, content, lines, relPath, absPath, pkg, maxTokens)...)
			return false
		case "interface_declaration":
			if ch, ok := phpNamedChunk(n, content, lines, relPath, absPath, pkg, TypeInterface, maxTokens); ok {
				chunks = append(chunks, ch)
			}
			return false
		case "trait_declaration":
			if ch, ok := phpNamedChunk(n, content, lines, relPath, absPath, pkg, TypeClass, maxTokens); ok {
				chunks = append(chunks, ch)
			}
			return false
		case "function_definition":
			if ch, ok := phpNamedChunk(n, content, lines, relPath, absPath, pkg, TypeFunction, maxTokens); ok {
				chunks = append(chunks, ch)
			}
		}
		return true
	})

	if len(chunks) == 0 {
		return []Chunk{wholeFileChunk(absPath, relPath, pkg, content, lines, phpImportRe, RoleNone, maxTokens)}, nil
	}
	return chunks, nil
}

func phpNamedChunk(n *sitter.Node, source []byte, lines []string, relPath, absPath, pkg string, ct Type, maxTokens int) (Chunk, bool) {
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
		Text:      buildBody(relPath, lines, phpImportRe, code, maxTokens),
		Language:  "php",
		Exported:  !strings.Contains(extractNodeText(n, source), "private"),
	}, true
}

func phpMethodChunks(classNode *sitter.Node, source []byte, lines []string, relPath, absPath, pkg string, maxTokens int) []Chunk {
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
		if phpHasRouteAttribute(m, lines) {
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
			Text:      buildBody(relPath, lines, phpImportRe, code, maxTokens),
			Language:  "php",
			Exported:  !strings.Contains(extractNodeText(m, source), "private"),
		})
	}
	return out
}

// phpHasRouteAttribute scans a method's own leading lines, from its first
// line through the line carrying its name (tree-sitter-php keeps
// attributes inside the method node), plus up to 5 lines before it, for a
// Symfony #[Route(...)] attribute or legacy @Route(...) annotation.
func phpHasRouteAttribute(m *sitter.Node, lines []string) bool {
	start := startLineOf(m)
	last := start
	if nameNode := m.ChildByFieldName("name"); nameNode != nil {
		last = startLineOf(nameNode)
	}
	from := start - 5
	if from < 1 {
		from = 1
	}
	for i := from; i <= last; i++ {
		if i-1 < 0 || i-1 >= len(lines) {
			continue
		}
		if phpRouteDecoRe.MatchString(lines[i-1]) {
			return true
		}
	}
	return false
}
