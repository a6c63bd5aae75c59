package signal

import (
	"fmt"
	"sort"

	"github.com/codetrail-dev/codetrail/internal/historychunk"
)

// DetectOwnership emits one ownership signal per file where a leading
// author holds >=30% of >=3 commits, and one per top-level directory
// where a leading author holds >=30% of >=5 commits.
func DetectOwnership(chunks []historychunk.Chunk) []Record {
	type key struct{ scope, path, author string }
	fileAuthorSHAs := map[key]map[string]bool{}
	dirAuthorSHAs := map[key]map[string]bool{}
	fileLast := map[string]historychunk.Chunk{}

	for _, c := range chunks {
		if c.ChunkType != historychunk.TypeFileDiff {
			continue
		}
		fk := key{"file", c.FilePath, c.AuthorName}
		if fileAuthorSHAs[fk] == nil {
			fileAuthorSHAs[fk] = map[string]bool{}
		}
		fileAuthorSHAs[fk][c.SHA] = true

		dir := topLevelDir(c.FilePath)
		dk := key{"directory", dir, c.AuthorName}
		if dirAuthorSHAs[dk] == nil {
			dirAuthorSHAs[dk] = map[string]bool{}
		}
		dirAuthorSHAs[dk][c.SHA] = true

		prev, ok := fileLast[c.FilePath]
		if !ok || c.Date > prev.Date {
			fileLast[c.FilePath] = c
		}
	}

	var out []Record
	out = append(out, ownershipSignals(fileAuthorSHAs, "file", 3, fileLast)...)
	out = append(out, ownershipSignals(dirAuthorSHAs, "directory", 5, nil)...)
	return out
}

func ownershipSignals(byKeyAuthor map[struct{ scope, path, author string }]map[string]bool, scope string, minCommits int, lastByPath map[string]historychunk.Chunk) []Record {
	totals := map[string]map[string]int{} // path -> author -> distinct commit count
	for k, shas := range byKeyAuthor {
		if k.scope != scope {
			continue
		}
		if totals[k.path] == nil {
			totals[k.path] = map[string]int{}
		}
		totals[k.path][k.author] = len(shas)
	}

	var out []Record
	for path, authors := range totals {
		total := 0
		for _, n := range authors {
			total += n
		}
		if total < minCommits {
			continue
		}
		type entry struct {
			author string
			n      int
		}
		var entries []entry
		for a, n := range authors {
			entries = append(entries, entry{a, n})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].n > entries[j].n })

		lead := entries[0]
		percent := float64(lead.n) / float64(total) * 100
		if percent < 30 {
			continue
		}

		top := entries
		if len(top) > 5 {
			top = top[:5]
		}
		var contributors []Contributor
		for _, e := range top {
			contributors = append(contributors, Contributor{
				Author:  e.author,
				Percent: float64(e.n) / float64(total) * 100,
				Commits: e.n,
			})
		}

		var shas []string
		for k2, s := range byKeyAuthor {
			if k2.scope == scope && k2.path == path {
				for sha := range s {
					shas = append(shas, sha)
				}
			}
		}
		sort.Strings(shas)

		out = append(out, Record{
			ID:               NewID(TypeOwnership, scope, path),
			Type:             TypeOwnership,
			Summary:          fmt.Sprintf("%s owns %.0f%% of %d commits to %s", lead.author, percent, total, path),
			Severity:         SeverityInfo,
			Confidence:       percent / 100,
			DirectoryScope:   directoryScopeFor(scope, path),
			ContributingSHAs: capShas(shas, 50),
			Metadata: EncodeMetadata(OwnershipMetadata{
				Scope:        scope,
				Path:         path,
				LeadAuthor:   lead.author,
				LeadPercent:  percent,
				TotalCommits: total,
				Contributors: contributors,
			}),
		})
	}
	return out
}

func directoryScopeFor(scope, path string) string {
	if scope == "directory" {
		return path
	}
	return topLevelDir(path)
}

func capShas(shas []string, max int) []string {
	if len(shas) > max {
		return shas[:max]
	}
	return shas
}
