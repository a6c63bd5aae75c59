package signal

import (
	"fmt"
	"time"

	"github.com/codetrail-dev/codetrail/internal/historychunk"
)

// StabilityOptions configures the stability-shift detector's reference
// point in time.
type StabilityOptions struct {
	Now time.Time
}

// DetectStabilityShifts aggregates file_diff counts per top-level (first
// two path segments) directory over three 30-day windows and emits a
// stability_shift signal when the recent window diverges sharply from
// the two-window baseline that precedes it. The root directory ("." —
// no two-segment prefix) is never scored, per spec.
func DetectStabilityShifts(chunks []historychunk.Chunk, opts StabilityOptions) []Record {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	type buckets struct {
		recent, mid, far int
		shasRecent       []string
	}
	byDir := map[string]*buckets{}

	for _, c := range chunks {
		if c.ChunkType != historychunk.TypeFileDiff {
			continue
		}
		dir := firstTwoSegments(c.FilePath)
		if dir == "." {
			continue
		}
		d := parseDate(c.Date)
		if d.IsZero() {
			continue
		}
		age := now.Sub(d)
		b := byDir[dir]
		if b == nil {
			b = &buckets{}
			byDir[dir] = b
		}
		switch {
		case age < 30*24*time.Hour:
			b.recent++
			b.shasRecent = append(b.shasRecent, c.SHA)
		case age < 60*24*time.Hour:
			b.mid++
		case age < 90*24*time.Hour:
			b.far++
		}
	}

	var out []Record
	for dir, b := range byDir {
		previous := float64(b.mid+b.far) / 2
		recent := float64(b.recent)

		var direction string
		var severity Severity
		switch {
		case previous >= 3 && previous > 0 && recent/previous < 0.5:
			direction = "stabilized"
			severity = SeverityInfo
		case recent >= 3 && previous > 0 && recent/previous > 2.0:
			direction = "destabilized"
			severity = SeverityCaution
		default:
			continue
		}

		ratio := 0.0
		if previous > 0 {
			ratio = recent / previous
		}

		out = append(out, Record{
			ID:               NewID(TypeStabilityShift, dir, direction),
			Type:             TypeStabilityShift,
			Summary:          fmt.Sprintf("%s %s (%.0f recent changes vs %.1f baseline)", dir, direction, recent, previous),
			Severity:         severity,
			Confidence:       confidenceFromRatio(ratio, direction),
			DirectoryScope:   dir,
			ContributingSHAs: dedupe(b.shasRecent),
			ScopeStart:       now.Add(-90 * 24 * time.Hour),
			ScopeEnd:         now,
			Metadata: EncodeMetadata(StabilityMetadata{
				Directory: dir,
				Previous:  b.mid + b.far,
				Recent:    b.recent,
				Ratio:     ratio,
				Direction: direction,
			}),
			CreatedAt: now,
		})
	}
	return out
}

func confidenceFromRatio(ratio float64, direction string) float64 {
	if direction == "stabilized" {
		c := 1 - ratio
		if c > 1 {
			c = 1
		}
		if c < 0 {
			c = 0
		}
		return c
	}
	c := (ratio - 1) / 3
	if c > 1 {
		c = 1
	}
	if c < 0 {
		c = 0
	}
	return c
}

// firstTwoSegments returns the first two "/"-separated path segments
// joined by "/", or "." if the path has fewer than two segments.
func firstTwoSegments(p string) string {
	first := -1
	second := -1
	for i := 0; i < len(p); i++ {
		if p[i] == '/' {
			if first == -1 {
				first = i
			} else {
				second = i
				break
			}
		}
	}
	if first == -1 {
		return "."
	}
	if second == -1 {
		return p
	}
	return p[:second]
}
