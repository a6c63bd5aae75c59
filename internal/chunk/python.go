package chunk

import (
	"regexp"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

func init() {
	Register(newPythonStrategy())
}

var (
	pyTestFileRe  = regexp.MustCompile(`(?i)(^test_|_test\.py$|^conftest\.py$)`)
	pyImportRe    = regexp.MustCompile(`^(import\s|from\s)`)
	pyRouteDecoRe = regexp.MustCompile(`@\w+\.(get|post|put|patch|delete|route)\(`)
)

type pythonStrategy struct {
	base *treeSitterBase
}

func newPythonStrategy() *pythonStrategy {
	lang := sitter.NewLanguage(python.Language())
	return &pythonStrategy{base: newTreeSitterBase(lang, "python", []string{".py"}, pyTestFileRe, pyImportRe)}
}

func (s *pythonStrategy) Extensions() []string          { return s.base.Extensions() }
func (s *pythonStrategy) TestFilePattern() *regexp.Regexp { return s.base.TestFilePattern() }

func (s *pythonStrategy) ChunkFile(absPath string, content []byte, repoRoot string, maxTokens int) ([]Chunk, error) {
	lines := splitLines(content)
	relPath := repoRelative(absPath, repoRoot)
	pkg := packageNameFor(absPath, repoRoot, fileExists)

	if lineCount(lines) < smallFileLineThreshold {
		return []Chunk{wholeFileChunk(absPath, relPath, pkg, content, lines, pyImportRe, RoleNone, maxTokens)}, nil
	}

	tree, root := s.base.parse(content)
	if tree == nil {
		return nil, nil
	}
	defer tree.Close()

	var chunks []Chunk
	walkTree(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "class_definition":
			if c, ok := pyDefChunk(n, content, lines, relPath, absPath, pkg, s.base.lang, TypeClass, maxTokens); ok {
				chunks = append(chunks, c)
			}
			return false
		case "function_definition":
			if !pyIsTopLevel(n) {
				return true
			}
			if c, ok := pyFunctionChunk(n, content, lines, relPath, absPath, pkg, s.base.lang, maxTokens); ok {
				chunks = append(chunks, c)
			}
		}
		return true
	})

	if len(chunks) == 0 {
		return []Chunk{wholeFileChunk(absPath, relPath, pkg, content, lines, pyImportRe, RoleNone, maxTokens)}, nil
	}
	return chunks, nil
}

// pyIsTopLevel reports whether node sits directly at module scope, rather
// than nested in a class or another function.
func pyIsTopLevel(n *sitter.Node) bool {
	parent := n.Parent()
	for parent != nil {
		switch parent.Kind() {
		case "class_definition", "function_definition":
			return false
		case "module":
			return true
		}
		parent = parent.Parent()
	}
	return true
}

func pyDefChunk(n *sitter.Node, source []byte, lines []string, relPath, absPath, pkg, lang string, ct Type, maxTokens int) (Chunk, bool) {
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
		Text:      buildBody(relPath, lines, pyImportRe, code, maxTokens),
		Language:  lang,
		Exported:  !strings.HasPrefix(name, "_"),
	}, true
}

func pyFunctionChunk(n *sitter.Node, source []byte, lines []string, relPath, absPath, pkg, lang string, maxTokens int) (Chunk, bool) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return Chunk{}, false
	}
	name := extractNodeText(nameNode, source)
	start, end := startLineOf(n), endLineOf(n)
	code := extractLines(lines, start, end)

	ct := TypeFunction
	if pyHasRouteDecorator(n, source) {
		ct = TypeRoute
	}

	return Chunk{
		ID:        NewID(absPath, start, end),
		Path:      relPath,
		Package:   pkg,
		Name:      name,
		ChunkType: ct,
		StartLine: start,
		EndLine:   end,
		Text:      buildBody(relPath, lines, pyImportRe, code, maxTokens),
		Language:  lang,
		Exported:  !strings.HasPrefix(name, "_"),
	}, true
}

// pyHasRouteDecorator inspects the decorated_definition wrapper (if any)
// around a function for a Flask/FastAPI-style HTTP verb decorator.
func pyHasRouteDecorator(n *sitter.Node, source []byte) bool {
	parent := n.Parent()
	if parent == nil || parent.Kind() != "decorated_definition" {
		return false
	}
	return pyRouteDecoRe.MatchString(extractNodeText(parent, source))
}
