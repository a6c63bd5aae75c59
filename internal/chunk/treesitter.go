package chunk

import (
	"os"
	"regexp"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// treeSitterBase provides shared parsing plumbing for tree-sitter-backed
// strategies: a fresh parser for the strategy's language on each parse
// call, content-shape body building, and the small-file rule.
type treeSitterBase struct {
	language   *sitter.Language
	lang       string
	exts       []string
	testRe     *regexp.Regexp
	importRe   *regexp.Regexp
}

func newTreeSitterBase(language *sitter.Language, lang string, exts []string, testRe, importRe *regexp.Regexp) *treeSitterBase {
	return &treeSitterBase{language: language, lang: lang, exts: exts, testRe: testRe, importRe: importRe}
}

func (b *treeSitterBase) Extensions() []string          { return b.exts }
func (b *treeSitterBase) TestFilePattern() *regexp.Regexp { return b.testRe }

// parse parses source with this strategy's language, returning the root
// node and owning tree (caller must Close it) or nil, nil for unparseable
// input.
func (b *treeSitterBase) parse(source []byte) (*sitter.Tree, *sitter.Node) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(b.language)

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, nil
	}
	root := tree.RootNode()
	if root == nil {
		tree.Close()
		return nil, nil
	}
	return tree, root
}

// lineCount returns the number of newline-delimited lines in source.
func lineCount(lines []string) int { return len(lines) }

// extractNodeText returns the source text spanned by a node.
func extractNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

func startLineOf(n *sitter.Node) int { return int(n.StartPosition().Row) + 1 }
func endLineOf(n *sitter.Node) int   { return int(n.EndPosition().Row) + 1 }

// walkTree recursively visits node and its children, depth-first, stopping
// the recursion into a subtree when visitor returns false for that node.
func walkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !visitor(node) {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walkTree(node.Child(uint(i)), visitor)
	}
}

// findChildrenByType returns the direct children of node matching kind.
func findChildrenByType(node *sitter.Node, kind string) []*sitter.Node {
	var out []*sitter.Node
	if node == nil {
		return out
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(uint(i))
		if c.Kind() == kind {
			out = append(out, c)
		}
	}
	return out
}

// leadingImportLines extracts up to n lines from source that look like
// import statements, in file order.
func leadingImportLines(lines []string, importRe *regexp.Regexp, n int) []string {
	var out []string
	for _, l := range lines {
		if importRe.MatchString(strings.TrimSpace(l)) {
			out = append(out, l)
			if len(out) >= n {
				break
			}
		}
	}
	return out
}

const maxImportLines = 10

// buildBody assembles the content-shape body: a "// file: <rel>" header,
// up to 10 import lines, a blank separator, then the code, truncated to
// maxTokens.
func buildBody(relPath string, allLines []string, importRe *regexp.Regexp, code string, maxTokens int) string {
	var b strings.Builder
	b.WriteString("// file: ")
	b.WriteString(relPath)
	b.WriteString("\n")
	for _, imp := range leadingImportLines(allLines, importRe, maxImportLines) {
		b.WriteString(imp)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(code)
	return truncateToBudget(b.String(), maxTokens)
}

// extractLines returns source lines [startLine, endLine] (1-based,
// inclusive), clamped to the available range.
func extractLines(lines []string, startLine, endLine int) string {
	if startLine < 1 || endLine < 1 || startLine > len(lines) {
		return ""
	}
	start := startLine - 1
	end := endLine
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start:end], "\n")
}

// smallFileLineThreshold is the line count under which a file is chunked
// as a single whole-file chunk, per the small-file rule.
const smallFileLineThreshold = 50

// fileExists reports whether path exists on disk, swallowing stat errors
// other than "not found" the same way (it only gates manifest look-ups).
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// splitLines splits source into lines without a trailing empty element for
// a final newline.
func splitLines(source []byte) []string {
	return strings.Split(strings.TrimSuffix(string(source), "\n"), "\n")
}
