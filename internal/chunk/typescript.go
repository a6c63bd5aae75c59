package chunk

import (
	"regexp"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

func init() {
	Register(newTypeScriptStrategy())
}

var (
	tsTestFileRe   = regexp.MustCompile(`(?i)(\.test|\.spec)\.[jt]sx?$`)
	tsImportRe     = regexp.MustCompile(`^(import\s|export\s+\*\s+from|export\s+\{)`)
	hookNameRe     = regexp.MustCompile(`^use[A-Z]`)
	pascalCaseRe   = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*$`)
	httpVerbNameRe = regexp.MustCompile(`^(GET|POST|PUT|PATCH|DELETE|OPTIONS|HEAD)$`)
)

// typeScriptStrategy chunks TypeScript/TSX source. It also backs the
// JavaScript/JSX strategy, which shares the same grammar family and
// declaration shapes.
type typeScriptStrategy struct {
	tsBase  *treeSitterBase
	tsxBase *treeSitterBase
}

func newTypeScriptStrategy() *typeScriptStrategy {
	tsLang := sitter.NewLanguage(typescript.LanguageTypescript())
	tsxLang := sitter.NewLanguage(typescript.LanguageTSX())
	return &typeScriptStrategy{
		tsBase:  newTreeSitterBase(tsLang, "typescript", []string{".ts"}, tsTestFileRe, tsImportRe),
		tsxBase: newTreeSitterBase(tsxLang, "typescript", []string{".tsx"}, tsTestFileRe, tsImportRe),
	}
}

func (s *typeScriptStrategy) Extensions() []string { return []string{".ts", ".tsx"} }

func (s *typeScriptStrategy) TestFilePattern() *regexp.Regexp { return tsTestFileRe }

func (s *typeScriptStrategy) baseFor(absPath string) *treeSitterBase {
	lower := strings.ToLower(absPath)
	if strings.HasSuffix(lower, ".tsx") || strings.HasSuffix(lower, ".jsx") {
		return s.tsxBase
	}
	return s.tsBase
}

func (s *typeScriptStrategy) ChunkFile(absPath string, content []byte, repoRoot string, maxTokens int) ([]Chunk, error) {
	base := s.baseFor(absPath)
	lines := splitLines(content)
	relPath := repoRelative(absPath, repoRoot)
	role := detectJSFrameworkRole(relPath)

	pkg := packageNameFor(absPath, repoRoot, fileExists)

	switch role {
	case RolePage, RoleLayout, RoleMiddleware:
		return []Chunk{wholeFileChunk(absPath, relPath, pkg, content, lines, base.importRe, role, maxTokens)}, nil
	case RoleAPIRoute:
		tree, root := base.parse(content)
		if tree == nil {
			return nil, nil
		}
		defer tree.Close()
		if chunks := apiRouteChunks(root, content, lines, relPath, absPath, pkg, role, maxTokens); len(chunks) > 0 {
			return chunks, nil
		}
		return []Chunk{wholeFileChunk(absPath, relPath, pkg, content, lines, base.importRe, role, maxTokens)}, nil
	}

	if lineCount(lines) < smallFileLineThreshold {
		return []Chunk{wholeFileChunk(absPath, relPath, pkg, content, lines, base.importRe, role, maxTokens)}, nil
	}

	tree, root := base.parse(content)
	if tree == nil {
		return nil, nil
	}
	defer tree.Close()

	var chunks []Chunk
	walkTree(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "class_declaration":
			if c, ok := tsDeclChunk(n, content, lines, relPath, absPath, pkg, TypeClass, role, maxTokens); ok {
				chunks = append(chunks, c)
			}
		case "interface_declaration":
			if c, ok := tsDeclChunk(n, content, lines, relPath, absPath, pkg, TypeInterface, role, maxTokens); ok {
				chunks = append(chunks, c)
			}
		case "type_alias_declaration":
			if c, ok := tsDeclChunk(n, content, lines, relPath, absPath, pkg, TypeType, role, maxTokens); ok {
				chunks = append(chunks, c)
			}
		case "function_declaration":
			if c, ok := tsFunctionChunk(n, content, lines, relPath, absPath, pkg, role, maxTokens); ok {
				chunks = append(chunks, c)
			}
		case "lexical_declaration":
			chunks = append(chunks, tsArrowChunks(n, content, lines, relPath, absPath, pkg, role, maxTokens)...)
		}
		return true
	})

	if len(chunks) == 0 {
		return []Chunk{wholeFileChunk(absPath, relPath, pkg, content, lines, base.importRe, role, maxTokens)}, nil
	}
	return chunks, nil
}

// apiRouteChunks walks an API-route file for exported top-level
// GET/POST/PUT/PATCH/DELETE symbols, declared either as function
// declarations or const arrow/function-expression bindings, and returns
// one TypeRoute chunk per match.
func apiRouteChunks(root *sitter.Node, content []byte, lines []string, relPath, absPath, pkg string, role FrameworkRole, maxTokens int) []Chunk {
	var out []Chunk
	walkTree(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "function_declaration":
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil || !isExportedNode(n, content) {
				return true
			}
			name := extractNodeText(nameNode, content)
			if !httpVerbNameRe.MatchString(name) {
				return true
			}
			out = append(out, apiRouteChunk(n, name, content, lines, relPath, absPath, pkg, role, maxTokens))
		case "lexical_declaration":
			if !strings.HasPrefix(strings.TrimSpace(extractNodeText(n, content)), "const") || !isExportedNode(n, content) {
				return true
			}
			for _, decl := range findChildrenByType(n, "variable_declarator") {
				nameNode := decl.ChildByFieldName("name")
				valueNode := decl.ChildByFieldName("value")
				if nameNode == nil || valueNode == nil {
					continue
				}
				if kind := valueNode.Kind(); kind != "arrow_function" && kind != "function_expression" {
					continue
				}
				name := extractNodeText(nameNode, content)
				if !httpVerbNameRe.MatchString(name) {
					continue
				}
				out = append(out, apiRouteChunk(n, name, content, lines, relPath, absPath, pkg, role, maxTokens))
			}
		}
		return true
	})
	return out
}

func apiRouteChunk(n *sitter.Node, name string, content []byte, lines []string, relPath, absPath, pkg string, role FrameworkRole, maxTokens int) Chunk {
	start, end := startLineOf(n), endLineOf(n)
	code := extractLines(lines, start, end)
	return Chunk{
		ID:            NewID(absPath, start, end),
		Path:          relPath,
		Package:       pkg,
		Name:          name,
		ChunkType:     TypeRoute,
		StartLine:     start,
		EndLine:       end,
		Text:          buildBody(relPath, lines, tsImportRe, code, maxTokens),
		Language:      "typescript",
		Exported:      true,
		FrameworkRole: role,
	}
}

func tsDeclChunk(n *sitter.Node, source []byte, lines []string, relPath, absPath, pkg string, base Type, role FrameworkRole, maxTokens int) (Chunk, bool) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return Chunk{}, false
	}
	name := extractNodeText(nameNode, source)
	start, end := startLineOf(n), endLineOf(n)
	code := extractLines(lines, start, end)

	ct := base
	if base == TypeClass && isComponentName(name) {
		ct = TypeComponent
	}

	return Chunk{
		ID:            NewID(absPath, start, end),
		Path:          relPath,
		Package:       pkg,
		Name:          name,
		ChunkType:     ct,
		StartLine:     start,
		EndLine:       end,
		Text:          buildBody(relPath, lines, tsImportRe, code, maxTokens),
		Language:      "typescript",
		Exported:      isExportedNode(n, source),
		FrameworkRole: role,
	}, true
}

func tsFunctionChunk(n *sitter.Node, source []byte, lines []string, relPath, absPath, pkg string, role FrameworkRole, maxTokens int) (Chunk, bool) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return Chunk{}, false
	}
	name := extractNodeText(nameNode, source)
	start, end := startLineOf(n), endLineOf(n)
	code := extractLines(lines, start, end)

	ct := TypeFunction
	switch {
	case hookNameRe.MatchString(name):
		ct = TypeHook
	case isComponentName(name):
		ct = TypeComponent
	}

	return Chunk{
		ID:            NewID(absPath, start, end),
		Path:          relPath,
		Package:       pkg,
		Name:          name,
		ChunkType:     ct,
		StartLine:     start,
		EndLine:       end,
		Text:          buildBody(relPath, lines, tsImportRe, code, maxTokens),
		Language:      "typescript",
		Exported:      isExportedNode(n, source),
		FrameworkRole: role,
	}, true
}

// tsArrowChunks extracts const declarations whose value is an arrow
// function or function expression — the `const Foo = () => {...}` and `const useX = () => {...}`
// shapes, which function_declaration never sees.
func tsArrowChunks(n *sitter.Node, source []byte, lines []string, relPath, absPath, pkg string, role FrameworkRole, maxTokens int) []Chunk {
	var out []Chunk
	isConst := strings.HasPrefix(strings.TrimSpace(extractNodeText(n, source)), "const")
	if !isConst {
		return out
	}
	for _, decl := range findChildrenByType(n, "variable_declarator") {
		nameNode := decl.ChildByFieldName("name")
		valueNode := decl.ChildByFieldName("value")
		if nameNode == nil || valueNode == nil {
			continue
		}
		kind := valueNode.Kind()
		if kind != "arrow_function" && kind != "function_expression" {
			continue
		}
		name := extractNodeText(nameNode, source)
		start, end := startLineOf(n), endLineOf(n)
		code := extractLines(lines, start, end)

		ct := TypeFunction
		switch {
		case hookNameRe.MatchString(name):
			ct = TypeHook
		case isComponentName(name):
			ct = TypeComponent
		}

		out = append(out, Chunk{
			ID:            NewID(absPath, start, end),
			Path:          relPath,
			Package:       pkg,
			Name:          name,
			ChunkType:     ct,
			StartLine:     start,
			EndLine:       end,
			Text:          buildBody(relPath, lines, tsImportRe, code, maxTokens),
			Language:      "typescript",
			Exported:      isExportedNode(n, source),
			FrameworkRole: role,
		})
	}
	return out
}

// isComponentName reports whether name looks like a React component:
// PascalCase, no leading "use".
func isComponentName(name string) bool {
	return pascalCaseRe.MatchString(name) && !hookNameRe.MatchString(name)
}

// isExportedNode reports whether node or its immediate parent statement
// carries an "export" keyword prefix. Tree-sitter models export as a
// wrapping export_statement, so this checks whether the node's parent is
// an export_statement: callers pass declaration nodes whose parent may be
// export_statement.
func isExportedNode(n *sitter.Node, source []byte) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}
	return parent.Kind() == "export_statement"
}

func wholeFileChunk(absPath, relPath, pkg string, content []byte, lines []string, importRe *regexp.Regexp, role FrameworkRole, maxTokens int) Chunk {
	start, end := 1, lineCount(lines)
	return Chunk{
		ID:            NewID(absPath, start, end),
		Path:          relPath,
		Package:       pkg,
		Name:          baseNameNoExt(relPath),
		ChunkType:     TypeOther,
		StartLine:     start,
		EndLine:       end,
		Text:          buildBody(relPath, lines, importRe, string(content), maxTokens),
		Language:      "typescript",
		Exported:      true,
		FrameworkRole: role,
	}
}

// detectJSFrameworkRole classifies a repo-relative path into a framework
// role by convention-over-configuration file naming, scoped to an "app" or
// "pages"/"api" ancestor directory the way Next.js-style routers lay out
// special files.
func detectJSFrameworkRole(relPath string) FrameworkRole {
	base := baseNameNoExt(relPath)
	lower := strings.ToLower(relPath)
	underAppOrPages := strings.Contains(lower, "/app/") || strings.HasPrefix(lower, "app/") ||
		strings.Contains(lower, "/pages/") || strings.HasPrefix(lower, "pages/")
	switch base {
	case "page":
		if underAppOrPages {
			return RolePage
		}
	case "layout":
		if underAppOrPages {
			return RoleLayout
		}
	case "middleware":
		if underAppOrPages {
			return RoleMiddleware
		}
	case "route":
		if strings.Contains(lower, "/api/") || strings.HasPrefix(lower, "api/") {
			return RoleAPIRoute
		}
		if underAppOrPages {
			return RolePage
		}
	}
	if strings.HasPrefix(base, "next.config") || strings.HasPrefix(base, "vite.config") {
		return RoleConfig
	}
	return RoleNone
}

func baseNameNoExt(relPath string) string {
	parts := strings.Split(relPath, "/")
	name := parts[len(parts)-1]
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return name
}
