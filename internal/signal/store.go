package signal

import (
	"strconv"
	"time"

	"github.com/codetrail-dev/codetrail/internal/store"
)

// ToStoreRecord flattens a signal Record into the store's generic row
// shape. The returned row has no Vector: nothing in this package embeds
// Summary, and the analyze command persists the rows as returned.
func (r Record) ToStoreRecord() store.Record {
	fields := map[string]string{
		"type":              string(r.Type),
		"severity":          string(r.Severity),
		"confidence":        strconv.FormatFloat(r.Confidence, 'f', -1, 64),
		"directory_scope":   r.DirectoryScope,
		"contributing_shas": store.EncodeStrings(r.ContributingSHAs),
		"scope_start":       formatTime(r.ScopeStart),
		"scope_end":         formatTime(r.ScopeEnd),
		"created_at":        formatTime(r.CreatedAt),
	}
	for k, v := range r.Metadata {
		fields[k] = v
	}
	return store.Record{
		ID:     r.ID,
		Text:   r.Summary,
		Fields: fields,
	}
}

// FromStoreRecord reconstructs a Record from a store row, the inverse of
// ToStoreRecord. Vector is not carried back since callers read signals
// for directory/assessment lookups, never to re-embed them.
func FromStoreRecord(row store.Record) Record {
	conf, _ := strconv.ParseFloat(row.Fields["confidence"], 64)
	return Record{
		ID:               row.ID,
		Type:             Type(row.Fields["type"]),
		Summary:          row.Text,
		Severity:         Severity(row.Fields["severity"]),
		Confidence:       conf,
		DirectoryScope:   row.Fields["directory_scope"],
		ContributingSHAs: store.DecodeStrings(row.Fields["contributing_shas"]),
		ScopeStart:       parseTime(row.Fields["scope_start"]),
		ScopeEnd:         parseTime(row.Fields["scope_end"]),
		Metadata:         row.Fields,
		CreatedAt:        parseTime(row.Fields["created_at"]),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
