// Package profile aggregates the history-chunk index into one durable
// per-path summary: who owns a file, how often it changes, and how
// risky it is to touch, rolled up from the same chunks the signal
// detectors read.
package profile

import (
	"sort"
	"time"

	"github.com/codetrail-dev/codetrail/internal/historychunk"
	"github.com/codetrail-dev/codetrail/internal/signal"
)

// ChangeFrequency buckets how often a file changes.
type ChangeFrequency string

const (
	FrequencyDaily   ChangeFrequency = "daily"
	FrequencyWeekly  ChangeFrequency = "weekly"
	FrequencyMonthly ChangeFrequency = "monthly"
	FrequencyRare    ChangeFrequency = "rare"
)

// Owner is a file's primary author: the one with the most distinct commits.
type Owner struct {
	Author     string
	Percentage float64
	Commits    int
	LastChange time.Time
}

// Profile is the per-path aggregate the assessment engine fuses with
// directory-scoped signals.
type Profile struct {
	Path              string
	Owner             *Owner // lead author, with no percentage threshold; nil only when no commits are attributed
	ContributorCount  int
	Stability         float64 // [0,100]
	TotalChanges      int
	RevertCount       int
	FixAfterFeature   int
	ChangeFrequency   ChangeFrequency
	Risk              float64 // [0,100]
	LastModified      time.Time
	ActiveSignalIDs   []string
}

// minChangesForProfile is the invariant from §3: a profile only exists
// for files with >= 2 recorded changes.
const minChangesForProfile = 2

// Compute builds one Profile per path touched by >= 2 file_diff chunks,
// folding in the revert/fix-chain signals whose contributing SHAs touch
// that path and every signal scoped to the path's top-level directory
// (including root-scoped signals, per the root-visibility property).
func Compute(chunks []historychunk.Chunk, signals []signal.Record) []Profile {
	type perFile struct {
		entries   []historychunk.Chunk
		authorSHA map[string]map[string]bool
	}
	byPath := map[string]*perFile{}

	for _, c := range chunks {
		if c.ChunkType != historychunk.TypeFileDiff {
			continue
		}
		pf := byPath[c.FilePath]
		if pf == nil {
			pf = &perFile{authorSHA: map[string]map[string]bool{}}
			byPath[c.FilePath] = pf
		}
		pf.entries = append(pf.entries, c)
		if pf.authorSHA[c.AuthorName] == nil {
			pf.authorSHA[c.AuthorName] = map[string]bool{}
		}
		pf.authorSHA[c.AuthorName][c.SHA] = true
	}

	shaToSignals := map[string][]signal.Record{}
	var rootSignals []signal.Record
	for _, s := range signals {
		if s.DirectoryScope == "." {
			rootSignals = append(rootSignals, s)
		}
		for _, sha := range s.ContributingSHAs {
			shaToSignals[sha] = append(shaToSignals[sha], s)
		}
	}

	var out []Profile
	for path, pf := range byPath {
		distinctSHAs := map[string]bool{}
		for _, e := range pf.entries {
			distinctSHAs[e.SHA] = true
		}
		if len(distinctSHAs) < minChangesForProfile {
			continue
		}

		p := Profile{Path: path}
		p.TotalChanges = len(distinctSHAs)
		p.ContributorCount = len(pf.authorSHA)
		p.Owner = leadOwner(pf.authorSHA, pf.entries)
		p.LastModified = latestDate(pf.entries)
		p.ChangeFrequency = frequencyBucket(pf.entries)

		seen := map[string]bool{}
		for sha := range distinctSHAs {
			for _, s := range shaToSignals[sha] {
				switch s.Type {
				case signal.TypeRevertPair:
					p.RevertCount++
				case signal.TypeFixChain:
					p.FixAfterFeature++
				}
				if !seen[s.ID] {
					seen[s.ID] = true
					p.ActiveSignalIDs = append(p.ActiveSignalIDs, s.ID)
				}
			}
		}
		dir := topLevelDir(path)
		for _, s := range signals {
			if s.DirectoryScope == dir && !seen[s.ID] {
				seen[s.ID] = true
				p.ActiveSignalIDs = append(p.ActiveSignalIDs, s.ID)
			}
		}
		for _, s := range rootSignals {
			if !seen[s.ID] {
				seen[s.ID] = true
				p.ActiveSignalIDs = append(p.ActiveSignalIDs, s.ID)
			}
		}
		sort.Strings(p.ActiveSignalIDs)

		p.Stability = stabilityScore(p)
		p.Risk = riskScore(p)

		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// stabilityScore is a deterministic function of revert/fix counts,
// contributor spread, and change cadence: every revert costs 15 points,
// every fix-after-feature costs 8, more than 5 contributors cost 10, and
// a daily or weekly change frequency costs 15 or 5.
func stabilityScore(p Profile) float64 {
	score := 100.0
	score -= float64(p.RevertCount) * 15
	score -= float64(p.FixAfterFeature) * 8
	if p.ContributorCount > 5 {
		score -= 10
	}
	switch p.ChangeFrequency {
	case FrequencyDaily:
		score -= 15
	case FrequencyWeekly:
		score -= 5
	}
	return clamp(score, 0, 100)
}

// riskScore mirrors stability's inverse, additionally weighted by how
// many signals are currently active against this file: risk is not
// simply 100-stability because a file can be stable historically yet
// carry a fresh breaking-change signal.
func riskScore(p Profile) float64 {
	risk := 100 - p.Stability
	risk += float64(len(p.ActiveSignalIDs)) * 2
	return clamp(risk, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// leadOwner returns the author with the most distinct SHAs touching the
// file (ties go to the lexically smaller name), with no minimum
// threshold of its own — the assessment engine is the layer that
// decides what percentage counts as "clear".
func leadOwner(byAuthor map[string]map[string]bool, entries []historychunk.Chunk) *Owner {
	total := 0
	for _, shas := range byAuthor {
		total += len(shas)
	}
	if total == 0 {
		return nil
	}
	var lead string
	best := -1
	for author, shas := range byAuthor {
		if len(shas) > best || (len(shas) == best && author < lead) {
			lead = author
			best = len(shas)
		}
	}
	var last time.Time
	for _, e := range entries {
		if e.AuthorName != lead {
			continue
		}
		d := parseDate(e.Date)
		if d.After(last) {
			last = d
		}
	}
	return &Owner{
		Author:     lead,
		Percentage: float64(best) / float64(total) * 100,
		Commits:    best,
		LastChange: last,
	}
}

// frequencyBucket classifies a file's change cadence from the average
// gap between its distinct commit dates.
func frequencyBucket(entries []historychunk.Chunk) ChangeFrequency {
	dates := map[string]time.Time{}
	for _, e := range entries {
		dates[e.SHA] = parseDate(e.Date)
	}
	var sorted []time.Time
	for _, d := range dates {
		if !d.IsZero() {
			sorted = append(sorted, d)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	if len(sorted) < 2 {
		return FrequencyRare
	}
	span := sorted[len(sorted)-1].Sub(sorted[0])
	avgGapDays := span.Hours() / 24 / float64(len(sorted)-1)
	switch {
	case avgGapDays <= 1.5:
		return FrequencyDaily
	case avgGapDays <= 10:
		return FrequencyWeekly
	case avgGapDays <= 45:
		return FrequencyMonthly
	default:
		return FrequencyRare
	}
}

func latestDate(entries []historychunk.Chunk) time.Time {
	var best time.Time
	for _, e := range entries {
		d := parseDate(e.Date)
		if d.After(best) {
			best = d
		}
	}
	return best
}

func parseDate(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func topLevelDir(path string) string {
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
