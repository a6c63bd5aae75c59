package historychunk

import (
	"strconv"

	"github.com/codetrail-dev/codetrail/internal/store"
)

// ToStoreRecord flattens a Chunk into the store's generic row shape, the
// same field layout gitindexer.Run writes when persisting to
// history_chunks.
func (c Chunk) ToStoreRecord(vector []float32) store.Record {
	return store.Record{
		ID:     c.ID,
		Text:   c.Text,
		Vector: vector,
		Fields: map[string]string{
			"sha":            c.SHA,
			"author_name":    c.AuthorName,
			"author_email":   c.AuthorEmail,
			"date":           c.Date,
			"subject":        c.Subject,
			"body":           c.Body,
			"parents":        store.EncodeStrings(c.Parents),
			"refs":           store.EncodeStrings(c.Refs),
			"chunk_type":     string(c.ChunkType),
			"commit_type":    c.CommitType,
			"scope":          c.Scope,
			"file_path":      c.FilePath,
			"files_changed":  strconv.Itoa(c.FilesChanged),
			"additions":      strconv.Itoa(c.Additions),
			"deletions":      strconv.Itoa(c.Deletions),
			"branch":         c.Branch,
			"decision_class": string(c.DecisionClass),
		},
	}
}

// FromStoreRecord reconstructs a Chunk from a history_chunks row, the
// inverse of ToStoreRecord. The signal/profile detectors read chunks
// back this way rather than re-running the extractor.
func FromStoreRecord(row store.Record) Chunk {
	filesChanged, _ := strconv.Atoi(row.Fields["files_changed"])
	additions, _ := strconv.Atoi(row.Fields["additions"])
	deletions, _ := strconv.Atoi(row.Fields["deletions"])
	return Chunk{
		ID:            row.ID,
		SHA:           row.Fields["sha"],
		AuthorName:    row.Fields["author_name"],
		AuthorEmail:   row.Fields["author_email"],
		Date:          row.Fields["date"],
		Subject:       row.Fields["subject"],
		Body:          row.Fields["body"],
		Parents:       store.DecodeStrings(row.Fields["parents"]),
		Refs:          store.DecodeStrings(row.Fields["refs"]),
		ChunkType:     Type(row.Fields["chunk_type"]),
		CommitType:    row.Fields["commit_type"],
		Scope:         row.Fields["scope"],
		FilePath:      row.Fields["file_path"],
		FilesChanged:  filesChanged,
		Additions:     additions,
		Deletions:     deletions,
		Branch:        row.Fields["branch"],
		DecisionClass: DecisionClass(row.Fields["decision_class"]),
		Text:          row.Text,
	}
}
