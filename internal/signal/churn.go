package signal

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/codetrail-dev/codetrail/internal/historychunk"
)

// ChurnOptions configures the churn-hotspot detector's flag threshold.
type ChurnOptions struct {
	SigmaMultiplier float64 // default 2.0 per spec's μ + 2σ rule
	Now             time.Time
}

// DetectChurnHotspots counts file_diff rows per file, flags files whose
// count exceeds mean + k*stddev, and emits one churn_hotspot signal per
// flagged file, sorted by sigma-distance descending.
func DetectChurnHotspots(chunks []historychunk.Chunk, opts ChurnOptions) []Record {
	k := opts.SigmaMultiplier
	if k <= 0 {
		k = 2.0
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	counts := map[string]int{}
	var byFile = map[string][]historychunk.Chunk{}
	for _, c := range chunks {
		if c.ChunkType != historychunk.TypeFileDiff {
			continue
		}
		counts[c.FilePath]++
		byFile[c.FilePath] = append(byFile[c.FilePath], c)
	}
	if len(counts) == 0 {
		return nil
	}

	mean, std := meanStdDev(counts)
	if std == 0 {
		return nil
	}
	decisionBySHA := decisionClassBySHA(chunks)

	type hotspot struct {
		path      string
		count     int
		sigmaDist float64
	}
	var hotspots []hotspot
	for path, n := range counts {
		dist := (float64(n) - mean) / std
		if dist > k {
			hotspots = append(hotspots, hotspot{path, n, dist})
		}
	}
	sort.Slice(hotspots, func(i, j int) bool { return hotspots[i].sigmaDist > hotspots[j].sigmaDist })

	var out []Record
	for _, h := range hotspots {
		entries := byFile[h.path]
		last30, days31to60 := 0, 0
		var shas []string
		for _, e := range entries {
			d := parseDate(e.Date)
			if d.IsZero() {
				continue
			}
			age := now.Sub(d)
			switch {
			case age < 30*24*time.Hour:
				last30++
			case age < 60*24*time.Hour:
				days31to60++
			}
			shas = append(shas, e.SHA)
		}
		trend := "stable"
		if days31to60 > 0 {
			ratio := float64(last30) / float64(days31to60)
			if ratio > 1.5 {
				trend = "increasing"
			} else if ratio < 0.5 {
				trend = "decreasing"
			}
		} else if last30 > 0 {
			trend = "increasing"
		}

		severity := SeverityCaution
		if h.sigmaDist > 3 {
			severity = SeverityWarning
		}

		sort.Strings(shas)
		capped := shas
		if len(capped) > 50 {
			capped = capped[:50]
		}
		meta := EncodeMetadata(ChurnMetadata{
			FilePath:    h.path,
			ChangeCount: h.count,
			Mean:        mean,
			StdDev:      std,
			SigmaDist:   h.sigmaDist,
			Trend:       trend,
			Last30Days:  last30,
			Days31To60:  days31to60,
		})
		meta["decision_class"] = string(dominantDecisionClass(capped, decisionBySHA))

		out = append(out, Record{
			ID:               NewID(TypeChurnHotspot, h.path),
			Type:             TypeChurnHotspot,
			Summary:          fmt.Sprintf("%s changed %d times (%.1fσ above the repo mean), trend %s", h.path, h.count, h.sigmaDist, trend),
			Severity:         severity,
			Confidence:       math.Min(1, h.sigmaDist/5),
			DirectoryScope:   topLevelDir(h.path),
			ContributingSHAs: capped,
			ScopeStart:       earliestDate(entries),
			ScopeEnd:         latestDate(entries),
			Metadata:         meta,
			CreatedAt:        now,
		})
	}
	return out
}

func meanStdDev(counts map[string]int) (mean, std float64) {
	n := float64(len(counts))
	var sum float64
	for _, c := range counts {
		sum += float64(c)
	}
	mean = sum / n
	var sq float64
	for _, c := range counts {
		d := float64(c) - mean
		sq += d * d
	}
	std = math.Sqrt(sq / n)
	return mean, std
}

func earliestDate(chunks []historychunk.Chunk) time.Time {
	var best time.Time
	for _, c := range chunks {
		d := parseDate(c.Date)
		if d.IsZero() {
			continue
		}
		if best.IsZero() || d.Before(best) {
			best = d
		}
	}
	return best
}

func latestDate(chunks []historychunk.Chunk) time.Time {
	var best time.Time
	for _, c := range chunks {
		d := parseDate(c.Date)
		if d.After(best) {
			best = d
		}
	}
	return best
}
