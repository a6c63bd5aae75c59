package signal

import (
	"fmt"
	"sort"
	"time"

	"github.com/codetrail-dev/codetrail/internal/historychunk"
)

const breakingWindow = 48 * time.Hour

// DetectBreakingChanges finds, for each non-fix commit, fix commits
// landing within the next 48 hours that touch the original's files or
// directories, authored by at least 2 people other than the original
// author, and emits one breaking_change signal per such commit.
func DetectBreakingChanges(chunks []historychunk.Chunk) []Record {
	summaries := sortedSummaries(chunks)
	filesBySHA := fileDiffsBySHA(chunks)
	decisionBySHA := decisionClassBySHA(chunks)

	var fixes []historychunk.Chunk
	for _, c := range summaries {
		if c.CommitType == "fix" {
			fixes = append(fixes, c)
		}
	}
	fixTimes := make([]time.Time, len(fixes))
	for i, f := range fixes {
		fixTimes[i] = parseDate(f.Date)
	}

	var out []Record
	for _, original := range summaries {
		if original.CommitType == "fix" {
			continue
		}
		originalTime := parseDate(original.Date)
		if originalTime.IsZero() {
			continue
		}
		deadline := originalTime.Add(breakingWindow)

		touchedFiles := map[string]bool{}
		touchedDirs := map[string]bool{}
		for _, f := range filesBySHA[original.SHA] {
			touchedFiles[f.FilePath] = true
			touchedDirs[topLevelDir(f.FilePath)] = true
		}
		if len(touchedFiles) == 0 {
			continue
		}

		start := sort.Search(len(fixTimes), func(i int) bool {
			return fixTimes[i].After(originalTime)
		})

		authors := map[string]bool{}
		var fixSHAs []string
		for i := start; i < len(fixes) && !fixTimes[i].After(deadline); i++ {
			fix := fixes[i]
			if fix.AuthorEmail == original.AuthorEmail {
				continue
			}
			touches := false
			for _, f := range filesBySHA[fix.SHA] {
				if touchedFiles[f.FilePath] || touchedDirs[topLevelDir(f.FilePath)] {
					touches = true
					break
				}
			}
			if !touches {
				continue
			}
			authors[fix.AuthorEmail] = true
			fixSHAs = append(fixSHAs, fix.SHA)
		}

		if len(authors) < 2 {
			continue
		}

		confidence := 0.6 + 0.1*float64(len(authors))
		if confidence > 0.95 {
			confidence = 0.95
		}

		shas := dedupe(append([]string{original.SHA}, fixSHAs...))
		meta := EncodeMetadata(BreakingChangeMetadata{
			OriginalSHA: original.SHA,
			FixSHAs:     dedupe(fixSHAs),
			AuthorCount: len(authors),
		})
		meta["decision_class"] = string(dominantDecisionClass(shas, decisionBySHA))

		out = append(out, Record{
			ID:               NewID(TypeBreakingChange, original.SHA),
			Type:             TypeBreakingChange,
			Summary:          fmt.Sprintf("\"%s\" triggered fixes from %d other author(s) within 48h", original.Subject, len(authors)),
			Severity:         SeverityWarning,
			Confidence:       confidence,
			DirectoryScope:   commonAncestorDir(keysOf(touchedFiles)),
			ContributingSHAs: shas,
			ScopeStart:       originalTime,
			ScopeEnd:         deadline,
			Metadata:         meta,
			CreatedAt:        originalTime,
		})
	}
	return out
}
