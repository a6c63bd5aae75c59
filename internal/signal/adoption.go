package signal

import (
	"fmt"
	"math"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/codetrail-dev/codetrail/internal/historychunk"
)

var (
	manifestBasenames = map[string]bool{
		"package.json":     true,
		"Gemfile":          true,
		"requirements.txt": true,
		"Cargo.toml":       true,
		"composer.json":    true,
		"go.mod":           true,
	}
	depLineRe = regexp.MustCompile(`^([+-])\s*"([^"]+)"\s*:\s*".+`)
	ignoredDepNames = map[string]bool{
		"name":    true,
		"version": true,
	}
)

type depEvent struct {
	name     string
	path     string
	sha      string
	date     string
	isAdd    bool
}

// DetectAdoptionCycles parses manifest-file diffs for dependency
// additions/removals and emits one adoption_cycle signal per dependency
// whose added/removed state flips at least twice.
func DetectAdoptionCycles(chunks []historychunk.Chunk) []Record {
	decisionBySHA := decisionClassBySHA(chunks)
	var events []depEvent
	for _, c := range chunks {
		if c.ChunkType != historychunk.TypeFileDiff {
			continue
		}
		if !manifestBasenames[path.Base(c.FilePath)] {
			continue
		}
		added, removed := parseDepLines(c.Text)
		// Paired +/- for the same name within one chunk is a version
		// bump, not an adoption event: drop it from both sides.
		for name := range added {
			if removed[name] {
				delete(added, name)
				delete(removed, name)
			}
		}
		for name := range added {
			events = append(events, depEvent{name, c.FilePath, c.SHA, c.Date, true})
		}
		for name := range removed {
			events = append(events, depEvent{name, c.FilePath, c.SHA, c.Date, false})
		}
	}

	byDep := map[string][]depEvent{}
	for _, e := range events {
		byDep[e.name] = append(byDep[e.name], e)
	}

	var out []Record
	for name, evs := range byDep {
		sort.Slice(evs, func(i, j int) bool { return evs[i].date < evs[j].date })
		transitions := 0
		for i := 1; i < len(evs); i++ {
			if evs[i].isAdd != evs[i-1].isAdd {
				transitions++
			}
		}
		if transitions < 2 {
			continue
		}
		cycleCount := int(math.Ceil(float64(transitions) / 2))
		severity := SeverityCaution
		if cycleCount >= 3 {
			severity = SeverityWarning
		}
		last := evs[len(evs)-1]
		status := "removed"
		if last.isAdd {
			status = "added"
		}

		var shas []string
		for _, e := range evs {
			shas = append(shas, e.sha)
		}
		shas = dedupe(shas)
		meta := EncodeMetadata(AdoptionMetadata{
			Dependency:    name,
			ManifestPath:  last.path,
			Transitions:   transitions,
			CycleCount:    cycleCount,
			CurrentStatus: status,
		})
		meta["decision_class"] = string(dominantDecisionClass(shas, decisionBySHA))

		out = append(out, Record{
			ID:               NewID(TypeAdoptionCycle, name, last.path),
			Type:             TypeAdoptionCycle,
			Summary:          fmt.Sprintf("%s was added/removed %d time(s) in %s, currently %s", name, len(evs), last.path, status),
			Severity:         severity,
			Confidence:       math.Min(1, float64(cycleCount)/3),
			DirectoryScope:   topLevelDir(last.path),
			ContributingSHAs: shas,
			ScopeStart:       parseDate(evs[0].date),
			ScopeEnd:         parseDate(last.date),
			Metadata:         meta,
			CreatedAt:        parseDate(last.date),
		})
	}
	return out
}

// parseDepLines scans a diff body for added/removed `"name": "version"`
// lines, skipping @types/* scoped type packages and the name/version
// manifest fields themselves.
func parseDepLines(text string) (added, removed map[string]bool) {
	added = map[string]bool{}
	removed = map[string]bool{}
	for _, line := range strings.Split(text, "\n") {
		m := depLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := m[2]
		if ignoredDepNames[name] || strings.HasPrefix(name, "@types/") {
			continue
		}
		if m[1] == "+" {
			added[name] = true
		} else {
			removed[name] = true
		}
	}
	return added, removed
}

func dedupe(shas []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range shas {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
