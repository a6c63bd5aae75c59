package profile

import (
	"strconv"
	"time"

	"github.com/codetrail-dev/codetrail/internal/store"
)

// ToStoreRecord flattens a Profile into the store's generic row shape
// for the file_profiles table. Profiles are never embedded for kNN (the
// assessment engine looks them up by exact path), so Text is empty and
// Fields carries every scalar column.
func (p Profile) ToStoreRecord() store.Record {
	fields := map[string]string{
		"path":              p.Path,
		"contributor_count":  strconv.Itoa(p.ContributorCount),
		"stability":          strconv.FormatFloat(p.Stability, 'f', -1, 64),
		"total_changes":      strconv.Itoa(p.TotalChanges),
		"revert_count":       strconv.Itoa(p.RevertCount),
		"fix_after_feature":  strconv.Itoa(p.FixAfterFeature),
		"change_frequency":   string(p.ChangeFrequency),
		"risk":               strconv.FormatFloat(p.Risk, 'f', -1, 64),
		"last_modified":      formatTime(p.LastModified),
		"active_signal_ids":  store.EncodeStrings(p.ActiveSignalIDs),
	}
	if p.Owner != nil {
		fields["owner_author"] = p.Owner.Author
		fields["owner_percentage"] = strconv.FormatFloat(p.Owner.Percentage, 'f', -1, 64)
		fields["owner_commits"] = strconv.Itoa(p.Owner.Commits)
		fields["owner_last_change"] = formatTime(p.Owner.LastChange)
	}
	return store.Record{ID: p.Path, Text: "", Fields: fields}
}

// FromStoreRecord reconstructs a Profile from a file_profiles row.
func FromStoreRecord(row store.Record) Profile {
	p := Profile{Path: row.Fields["path"]}
	p.ContributorCount, _ = strconv.Atoi(row.Fields["contributor_count"])
	p.Stability, _ = strconv.ParseFloat(row.Fields["stability"], 64)
	p.TotalChanges, _ = strconv.Atoi(row.Fields["total_changes"])
	p.RevertCount, _ = strconv.Atoi(row.Fields["revert_count"])
	p.FixAfterFeature, _ = strconv.Atoi(row.Fields["fix_after_feature"])
	p.ChangeFrequency = ChangeFrequency(row.Fields["change_frequency"])
	p.Risk, _ = strconv.ParseFloat(row.Fields["risk"], 64)
	p.LastModified = parseTime(row.Fields["last_modified"])
	p.ActiveSignalIDs = store.DecodeStrings(row.Fields["active_signal_ids"])
	if author, ok := row.Fields["owner_author"]; ok && author != "" {
		pct, _ := strconv.ParseFloat(row.Fields["owner_percentage"], 64)
		commits, _ := strconv.Atoi(row.Fields["owner_commits"])
		p.Owner = &Owner{
			Author:     author,
			Percentage: pct,
			Commits:    commits,
			LastChange: parseTime(row.Fields["owner_last_change"]),
		}
	}
	return p
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
