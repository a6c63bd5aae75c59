package retrieval

import (
	"context"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/codetrail-dev/codetrail/internal/historychunk"
)

// TextHit is one keyword match against the history-chunk corpus, with
// the excerpt around each match trimmed for display.
type TextHit struct {
	ID      string
	Text    string
	SHA     string
	Excerpt string
}

// TextIndex is an in-memory keyword index over git-history chunks. The
// Dispatcher's strategies do not query it; pickaxe and structured_git
// take their textual matches from git log instead.
type TextIndex struct {
	mu    sync.RWMutex
	index bleve.Index
}

// NewTextIndex builds a fresh in-memory bleve index over chunks.
func NewTextIndex(chunks []historychunk.Chunk) (*TextIndex, error) {
	index, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("create text index: %w", err)
	}
	t := &TextIndex{index: index}
	if err := t.indexAll(chunks); err != nil {
		index.Close()
		return nil, err
	}
	return t, nil
}

func buildMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()

	text := bleve.NewTextFieldMapping()
	text.Analyzer = "standard"
	text.Store = true
	text.Index = true
	text.IncludeTermVectors = true

	sha := bleve.NewTextFieldMapping()
	sha.Analyzer = "keyword"
	sha.Store = true
	sha.Index = true

	filePath := bleve.NewTextFieldMapping()
	filePath.Analyzer = "keyword"
	filePath.Store = true
	filePath.Index = true

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("text", text)
	doc.AddFieldMappingsAt("subject", text)
	doc.AddFieldMappingsAt("body", text)
	doc.AddFieldMappingsAt("sha", sha)
	doc.AddFieldMappingsAt("file_path", filePath)

	im.DefaultMapping = doc
	return im
}

func (t *TextIndex) indexAll(chunks []historychunk.Chunk) error {
	const batchCap = 1000
	batch := t.index.NewBatch()
	for _, c := range chunks {
		doc := map[string]any{
			"text":      c.Text,
			"subject":   c.Subject,
			"body":      c.Body,
			"sha":       c.SHA,
			"file_path": c.FilePath,
		}
		if err := batch.Index(c.ID, doc); err != nil {
			return fmt.Errorf("index chunk %s: %w", c.ID, err)
		}
		if batch.Size() >= batchCap {
			if err := t.index.Batch(batch); err != nil {
				return fmt.Errorf("flush text index batch: %w", err)
			}
			batch = t.index.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := t.index.Batch(batch); err != nil {
			return fmt.Errorf("flush final text index batch: %w", err)
		}
	}
	return nil
}

// Search runs a keyword query over the text field, returning up to limit
// hits with highlighted excerpts.
func (t *TextIndex) Search(ctx context.Context, queryStr string, limit int) ([]TextHit, error) {
	if limit <= 0 {
		limit = 15
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	q := bleve.NewQueryStringQuery(queryStr)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Highlight = bleve.NewHighlight()
	req.Highlight.Fields = []string{"text"}
	req.Fields = []string{"text", "sha"}

	result, err := t.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}

	hits := make([]TextHit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		text, _ := hit.Fields["text"].(string)
		sha, _ := hit.Fields["sha"].(string)
		excerpt := text
		if snippets, ok := hit.Fragments["text"]; ok && len(snippets) > 0 {
			excerpt = snippets[0]
		}
		hits = append(hits, TextHit{ID: hit.ID, Text: text, SHA: sha, Excerpt: excerpt})
	}
	return hits, nil
}

// Close releases the index's resources.
func (t *TextIndex) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.index.Close()
}
