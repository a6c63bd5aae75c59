// Package store adapts chromem-go into the table-oriented vector store
// the rest of the index pipeline depends on: code chunks, history
// chunks, signals, and file profiles, each addressable by name, each
// supporting create-or-open, overwrite, append, predicate delete,
// cosine-distance kNN, count, and projection.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/codetrail-dev/codetrail/internal/errs"
)

// Table names for the four collections the index pipeline maintains.
const (
	TableCodeChunks    = "code_chunks"
	TableHistoryChunks = "history_chunks"
	TableSignals       = "signals"
	TableFileProfiles  = "file_profiles"
)

// resultOverfetch controls how many extra candidates kNN pulls from
// chromem before post-filtering, giving LikePrefix/GTDate/multi-clause
// predicates enough headroom to still return k rows after the cut.
const resultOverfetch = 4

// Match is one kNN hit: the record's flat fields plus a cosine distance
// (lower is better). Retrieval, not the store, is responsible for
// mapping distance to a higher-is-better score.
type Match struct {
	ID       string
	Text     string
	Fields   map[string]string
	Distance float64
}

// Store is a table-oriented handle over a chromem-go database. Each
// named table is its own chromem collection; writes to one table never
// block reads of another.
type Store struct {
	db *chromem.DB

	mu     sync.RWMutex
	tables map[string]*chromem.Collection
	dims   map[string]int
}

// Open opens (or creates) the vector store at path, the location named
// by <TOOL>_STORE_URI. chromem-go's persistent mode gob-encodes each
// collection to that directory on every write and reloads it on the
// next Open, which is what makes incremental indexing possible across
// CLI invocations: the store itself is the durable half of the
// checkpoint, indexstate just records where the last run left off. An
// empty path opens a process-local in-memory store instead, used by
// tests and by any one-shot command that never needs its state to
// survive the process.
func Open(path string) (*Store, error) {
	var db *chromem.DB
	var err error
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, true)
		if err != nil {
			return nil, fmt.Errorf("open store at %s: %w", path, err)
		}
	}
	return &Store{
		db:     db,
		tables: make(map[string]*chromem.Collection),
		dims:   make(map[string]int),
	}, nil
}

// EnsureTable creates a table if it doesn't exist yet, or picks up a
// table already restored from a persistent store's on-disk generation
// (create-or-open). It is a no-op if the table is already cached.
func (s *Store) EnsureTable(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[name]; ok {
		return nil
	}
	if existing := s.db.GetCollection(name, nil); existing != nil {
		s.tables[name] = existing
		return nil
	}
	col, err := s.db.CreateCollection(name, nil, nil)
	if err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	s.tables[name] = col
	return nil
}

// Overwrite replaces a table's entire contents with records, atomically:
// the new generation is built in full off to the side and only swapped
// into place once every record has been added successfully. A reader
// mid-query against the old generation is unaffected; it simply finishes
// against a collection that the table name no longer points to.
func (s *Store) Overwrite(ctx context.Context, table string, records []Record) error {
	next, err := s.db.CreateCollection(table, nil, nil)
	if err != nil {
		return fmt.Errorf("create table generation %s: %w", table, err)
	}
	for _, r := range records {
		if err := next.AddDocument(ctx, toDocument(r)); err != nil {
			return fmt.Errorf("add record %s to %s: %w", r.ID, table, err)
		}
	}

	s.mu.Lock()
	s.tables[table] = next
	if dim := vectorDim(records); dim > 0 {
		s.dims[table] = dim
	}
	s.mu.Unlock()
	return nil
}

// Append adds records to an existing table without disturbing the rest
// of its contents. The table must already exist (via EnsureTable or a
// prior Overwrite).
func (s *Store) Append(ctx context.Context, table string, records []Record) error {
	col, err := s.collection(table)
	if err != nil {
		return err
	}
	for _, r := range records {
		if err := col.AddDocument(ctx, toDocument(r)); err != nil {
			return fmt.Errorf("append record %s to %s: %w", r.ID, table, err)
		}
	}
	if dim := vectorDim(records); dim > 0 {
		s.mu.Lock()
		s.dims[table] = dim
		s.mu.Unlock()
	}
	return nil
}

// vectorDim returns the dimension of the first non-empty vector among
// records, or 0 if every record is unembedded (a row type that never
// participates in kNN, such as a file-profile summary row).
func vectorDim(records []Record) int {
	for _, r := range records {
		if len(r.Vector) > 0 {
			return len(r.Vector)
		}
	}
	return 0
}

// Delete removes every row in table matching predicate. Equality-only
// predicates are pushed down to chromem's native delete-by-where; any
// predicate using LikePrefix/GTDate (or an And mixing them in) instead
// scans ids via a projection pass and deletes by explicit ID, since
// chromem's own Delete only understands exact-match metadata.
func (s *Store) Delete(ctx context.Context, table string, predicate Predicate) error {
	col, err := s.collection(table)
	if err != nil {
		return err
	}

	if field, value, ok := pureEquality(predicate); ok {
		return col.Delete(ctx, map[string]string{field: value}, nil)
	}

	rows, err := s.Project(ctx, table, predicate, nil)
	if err != nil {
		return fmt.Errorf("scan rows to delete from %s: %w", table, err)
	}
	if len(rows) == 0 {
		return nil
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return col.Delete(ctx, nil, nil, ids...)
}

// pureEquality reports whether predicate is exactly one Eq clause (not
// wrapped in an And alongside anything else), the only shape chromem's
// native Delete-by-WHERE can express.
func pureEquality(p Predicate) (field, value string, ok bool) {
	eq, isEq := p.(Eq)
	if !isEq {
		return "", "", false
	}
	return eq.Field, eq.Value, true
}

// KNN runs a cosine-distance nearest-neighbor search against table,
// returning up to k matches ordered by score descending, optionally
// restricted by predicate. The native WHERE pushdown covers a single
// equality clause; everything else in predicate (LikePrefix, GTDate,
// additional And clauses) is applied as a post-filter against an
// over-fetched candidate set.
func (s *Store) KNN(ctx context.Context, table string, vector []float32, k int, predicate Predicate) ([]Match, error) {
	col, err := s.collection(table)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	nativeWhere := map[string]string{}
	if field, value, ok := nativeEquality(predicate); ok {
		nativeWhere[field] = value
	}
	if len(nativeWhere) == 0 {
		nativeWhere = nil
	}

	fetch := k * resultOverfetch
	if fetch > col.Count() {
		fetch = col.Count()
	}
	if fetch <= 0 {
		return nil, nil
	}

	docs, err := col.QueryEmbedding(ctx, vector, fetch, nativeWhere, nil)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}

	matches := make([]Match, 0, k)
	for _, doc := range docs {
		if !match(predicate, doc.Metadata) {
			continue
		}
		matches = append(matches, Match{
			ID:       doc.ID,
			Text:     doc.Content,
			Fields:   doc.Metadata,
			Distance: 1 - float64(doc.Similarity),
		})
		if len(matches) >= k {
			break
		}
	}
	return matches, nil
}

// Count returns the number of rows currently in table.
func (s *Store) Count(table string) (int, error) {
	col, err := s.collection(table)
	if err != nil {
		return 0, err
	}
	return col.Count(), nil
}

// Project scans table and returns every row whose flat columns satisfy
// predicate, restricted to the given fields when non-nil (nil means all
// fields). There is no native chromem "list all documents" call, so
// projection walks the collection via a zero-vector-agnostic query that
// asks for every row and relies entirely on the post-filter; chromem
// still requires an embedding to query by, so a query-embedding-free
// scan isn't available and this is the documented workaround the
// dispatcher's pickaxe/blame candidate lookups and the detector
// pipeline's full-table reads both rely on.
func (s *Store) Project(ctx context.Context, table string, predicate Predicate, fields []string) ([]Record, error) {
	col, err := s.collection(table)
	if err != nil {
		return nil, err
	}
	total := col.Count()
	if total == 0 {
		return nil, nil
	}

	nativeWhere := map[string]string{}
	if field, value, ok := nativeEquality(predicate); ok {
		nativeWhere[field] = value
	}
	if len(nativeWhere) == 0 {
		nativeWhere = nil
	}

	s.mu.RLock()
	dim := s.dims[table]
	s.mu.RUnlock()
	if dim <= 0 {
		dim = 1
	}
	probe := make([]float32, dim)
	docs, err := col.QueryEmbedding(ctx, probe, total, nativeWhere, nil)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", table, err)
	}

	out := make([]Record, 0, len(docs))
	for _, doc := range docs {
		if !match(predicate, doc.Metadata) {
			continue
		}
		out = append(out, Record{
			ID:     doc.ID,
			Text:   doc.Content,
			Fields: projectFields(doc.Metadata, fields),
		})
	}
	return out, nil
}

func projectFields(all map[string]string, keep []string) map[string]string {
	if keep == nil {
		return all
	}
	out := make(map[string]string, len(keep))
	for _, k := range keep {
		if v, ok := all[k]; ok {
			out[k] = v
		}
	}
	return out
}

func (s *Store) collection(table string) (*chromem.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, ok := s.tables[table]
	if !ok {
		return nil, fmt.Errorf("table %s: %w", table, errs.ErrStoreMissingTable)
	}
	return col, nil
}

func toDocument(r Record) chromem.Document {
	return chromem.Document{
		ID:        r.ID,
		Content:   r.Text,
		Embedding: r.Vector,
		Metadata:  r.Fields,
	}
}
