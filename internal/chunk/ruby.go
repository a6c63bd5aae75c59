package chunk

import (
	"regexp"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
)

func init() {
	Register(newRubyStrategy())
}

var (
	rubyTestFileRe   = regexp.MustCompile(`(?i)(_spec\.rb$|_test\.rb$)`)
	rubyImportRe     = regexp.MustCompile(`^(require\s|require_relative\s|include\s)`)
	rubyActionRouteRe = regexp.MustCompile(`^(index|show|new|create|edit|update|destroy)$`)
)

type rubyStrategy struct {
	base *treeSitterBase
}

func newRubyStrategy() *rubyStrategy {
	lang := sitter.NewLanguage(ruby.Language())
	return &rubyStrategy{base: newTreeSitterBase(lang, "ruby", []string{".rb"}, rubyTestFileRe, rubyImportRe)}
}

func (s *rubyStrategy) Extensions() []string          { return s.base.Extensions() }
func (s *rubyStrategy) TestFilePattern() *regexp.Regexp { return s.base.TestFilePattern() }

func (s *rubyStrategy) ChunkFile(absPath string, content []byte, repoRoot string, maxTokens int) ([]Chunk, error) {
	lines := splitLines(content)
	relPath := repoRelative(absPath, repoRoot)
	pkg := packageNameFor(absPath, repoRoot, fileExists)
	isController := strings.Contains(strings.ToLower(relPath), "controller")

	if lineCount(lines) < smallFileLineThreshold {
		return []Chunk{wholeFileChunk(absPath, relPath, pkg, content, lines, rubyImportRe, RoleNone, maxTokens)}, nil
	}

	tree, root := s.base.parse(content)
	if tree == nil {
		return nil, nil
	}
	defer tree.Close()

	var chunks []Chunk
	walkTree(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "class":
			if c, ok := rubyNamedChunk(n, content, lines, relPath, absPath, pkg, TypeClass, isController, maxTokens); ok {
				chunks = append(chunks, c)
			}
			return false
		case "module":
			if c, ok := rubyNamedChunk(n, content, lines, relPath, absPath, pkg, TypeClass, isController, maxTokens); ok {
				chunks = append(chunks, c)
			}
			return false
		case "method", "singleton_method":
			if !rubyIsTopLevel(n) {
				return true
			}
			if c, ok := rubyNamedChunk(n, content, lines, relPath, absPath, pkg, TypeFunction, isController, maxTokens); ok {
				chunks = append(chunks, c)
			}
		}
		return true
	})

	if len(chunks) == 0 {
		return []Chunk{wholeFileChunk(absPath, relPath, pkg, content, lines, rubyImportRe, RoleNone, maxTokens)}, nil
	}
	return chunks, nil
}

func rubyIsTopLevel(n *sitter.Node) bool {
	parent := n.Parent()
	for parent != nil {
		if parent.Kind() == "method" {
			return false
		}
		parent = parent.Parent()
	}
	return true
}

func rubyNamedChunk(n *sitter.Node, source []byte, lines []string, relPath, absPath, pkg string, ct Type, isController bool, maxTokens int) (Chunk, bool) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return Chunk{}, false
	}
	name := extractNodeText(nameNode, source)
	start, end := startLineOf(n), endLineOf(n)
	code := extractLines(lines, start, end)

	if ct == TypeFunction && isController && rubyActionRouteRe.MatchString(name) {
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
		Text:      buildBody(relPath, lines, rubyImportRe, code, maxTokens),
		Language:  "ruby",
		Exported:  !strings.HasSuffix(name, "!") && !strings.HasPrefix(name, "_"),
	}, true
}
