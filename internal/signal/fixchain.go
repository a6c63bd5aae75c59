package signal

import (
	"fmt"
	"sort"
	"time"

	"github.com/codetrail-dev/codetrail/internal/historychunk"
)

const fixChainWindow = 7 * 24 * time.Hour

// DetectFixChains finds, for each feat commit, the fix commits that touch
// at least one of its files within the next 7 days, and emits one
// fix_chain signal per feat commit with >=1 matching fix.
func DetectFixChains(chunks []historychunk.Chunk) []Record {
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
	for _, feat := range summaries {
		if feat.CommitType != "feat" {
			continue
		}
		featTime := parseDate(feat.Date)
		if featTime.IsZero() {
			continue
		}
		deadline := featTime.Add(fixChainWindow)

		featFiles := map[string]bool{}
		for _, f := range filesBySHA[feat.SHA] {
			featFiles[f.FilePath] = true
		}
		if len(featFiles) == 0 {
			continue
		}

		// upper_bound on fixTimes: first fix strictly after featTime.
		start := sort.Search(len(fixTimes), func(i int) bool {
			return fixTimes[i].After(featTime)
		})

		var matching []historychunk.Chunk
		for i := start; i < len(fixes) && !fixTimes[i].After(deadline); i++ {
			fix := fixes[i]
			touches := false
			for _, f := range filesBySHA[fix.SHA] {
				if featFiles[f.FilePath] {
					touches = true
					break
				}
			}
			if touches {
				matching = append(matching, fix)
			}
		}
		if len(matching) == 0 {
			continue
		}

		shas := []string{feat.SHA}
		lastDate := featTime
		for _, m := range matching {
			shas = append(shas, m.SHA)
			t := parseDate(m.Date)
			if t.After(lastDate) {
				lastDate = t
			}
		}
		daySpan := int(lastDate.Sub(featTime) / (24 * time.Hour))

		severity := SeverityCaution
		if len(matching) >= 3 {
			severity = SeverityWarning
		}
		confidence := 0.5 + 0.15*float64(len(matching))
		if confidence > 0.9 {
			confidence = 0.9
		}

		meta := EncodeMetadata(FixChainMetadata{
			FeatSHA:  feat.SHA,
			FixCount: len(matching),
			DaySpan:  daySpan,
		})
		meta["decision_class"] = string(dominantDecisionClass(shas, decisionBySHA))

		out = append(out, Record{
			ID:               NewID(TypeFixChain, feat.SHA),
			Type:             TypeFixChain,
			Summary:          fmt.Sprintf("%d fix commit(s) followed \"%s\" within %d day(s)", len(matching), feat.Subject, daySpan),
			Severity:         severity,
			Confidence:       confidence,
			DirectoryScope:   commonAncestorDir(keysOf(featFiles)),
			ContributingSHAs: shas,
			ScopeStart:       featTime,
			ScopeEnd:         lastDate,
			Metadata:         meta,
			CreatedAt:        lastDate,
		})
	}
	return out
}

func keysOf(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
