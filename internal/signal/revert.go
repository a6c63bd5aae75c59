package signal

import (
	"regexp"
	"time"

	"github.com/codetrail-dev/codetrail/internal/historychunk"
)

var (
	revertSubjectRe = regexp.MustCompile(`(?i)^Revert\s+"(.+)"`)
	revertBodyRe    = regexp.MustCompile(`(?i)This reverts commit ([0-9a-f]{7,40})`)
)

// DetectRevertPairs pairs each revert commit with the original commit it
// names, when that original is present in the index, and emits one
// revert_pair signal per pair.
func DetectRevertPairs(chunks []historychunk.Chunk) []Record {
	summaries := sortedSummaries(chunks)
	bySHA := make(map[string]historychunk.Chunk, len(summaries))
	for _, c := range summaries {
		bySHA[c.SHA] = c
	}
	filesBySHA := fileDiffsBySHA(chunks)
	decisionBySHA := decisionClassBySHA(chunks)

	var out []Record
	for _, revert := range summaries {
		if !revertSubjectRe.MatchString(revert.Subject) {
			continue
		}
		m := revertBodyRe.FindStringSubmatch(revert.Body)
		if m == nil {
			continue
		}
		original, ok := bySHA[m[1]]
		if !ok {
			continue
		}

		var affected []string
		for _, f := range filesBySHA[original.SHA] {
			affected = append(affected, f.FilePath)
		}
		scope := commonAncestorDir(affected)

		revertDate := parseDate(revert.Date)
		origDate := parseDate(original.Date)
		days := 0
		if !revertDate.IsZero() && !origDate.IsZero() {
			days = int(revertDate.Sub(origDate) / (24 * time.Hour))
		}

		shas := []string{original.SHA, revert.SHA}
		meta := EncodeMetadata(RevertMetadata{
			OriginalSHA:      original.SHA,
			RevertSHA:        revert.SHA,
			TimeToRevertDays: days,
		})
		meta["decision_class"] = string(dominantDecisionClass(shas, decisionBySHA))

		out = append(out, Record{
			ID:               NewID(TypeRevertPair, original.SHA, revert.SHA),
			Type:             TypeRevertPair,
			Summary:          "revert of \"" + original.Subject + "\" by " + revert.Subject,
			Severity:         SeverityCaution,
			Confidence:       1,
			DirectoryScope:   scope,
			ContributingSHAs: shas,
			ScopeStart:       origDate,
			ScopeEnd:         revertDate,
			Metadata:         meta,
			CreatedAt:        revertDate,
		})
	}
	return out
}

// fileDiffsBySHA groups file_diff chunks by the commit SHA they belong
// to, the per-commit file list every temporal detector needs.
func fileDiffsBySHA(chunks []historychunk.Chunk) map[string][]historychunk.Chunk {
	out := map[string][]historychunk.Chunk{}
	for _, c := range chunks {
		if c.ChunkType == historychunk.TypeFileDiff {
			out[c.SHA] = append(out[c.SHA], c)
		}
	}
	return out
}
