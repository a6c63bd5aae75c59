// Package assess fuses file profiles and directory-scoped signals into
// prioritized warnings for a set of candidate paths, the read side of
// the index the signal and profile packages build.
package assess

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/codetrail-dev/codetrail/internal/embedder"
	"github.com/codetrail-dev/codetrail/internal/profile"
	"github.com/codetrail-dev/codetrail/internal/signal"
	"github.com/codetrail-dev/codetrail/internal/store"
)

// Category names the kind of concern a Warning raises.
type Category string

const (
	CategoryStability Category = "stability"
	CategoryOwnership Category = "ownership"
	CategoryPattern   Category = "pattern"
	CategoryChurn     Category = "churn"
	CategoryBreaking  Category = "breaking"
)

// Warning is one ranked judgment about a candidate path.
type Warning struct {
	Path     string
	Severity signal.Severity
	Category Category
	Message  string
	SignalID string // empty for profile-derived (stability/ownership) warnings
}

// Ownership is the display tuple for a path's ownership standing,
// surfaced separately from Warnings per §4.9.
type Ownership struct {
	Path             string
	Owner            *profile.Owner // the profile's lead author, whatever its share; ownershipWarning applies the clear-owner threshold
	ContributorCount int
}

// Result is everything Assess produces for one call.
type Result struct {
	Warnings        []Warning
	Ownership       []Ownership
	SiblingProfiles map[string][]profile.Profile // containing directory -> sibling profiles
}

// Options configures one Assess call.
type Options struct {
	ChangeType string // e.g. "refactor"
	Query      string // optional natural-language query, vector-searched over signals
}

const (
	ownerClearThreshold = 30.0
	stabilityWarnFloor  = 30.0
	stabilityCautionCap = 49.0

	revertHalfLifeDays   = 180.0
	breakingHalfLifeDays = 180.0
	defaultHalfLifeDays  = 90.0

	decayWeightFloor = 0.1
	signalQueryLimit = 10
)

// Assess loads FileProfiles and directory-scoped signals for paths and
// composes ranked Warnings per §4.9's rules, ordered warning < caution <
// info.
func Assess(ctx context.Context, st *store.Store, provider embedder.Provider, paths []string, opts Options, now time.Time) (Result, error) {
	var res Result
	res.SiblingProfiles = map[string][]profile.Profile{}

	for _, path := range paths {
		prof, found, err := lookupProfile(ctx, st, path)
		if err != nil {
			return Result{}, fmt.Errorf("lookup profile %s: %w", path, err)
		}

		dir := containingDir(path)
		if dir != "." {
			if _, ok := res.SiblingProfiles[dir]; !ok {
				siblings, err := siblingProfiles(ctx, st, dir, path)
				if err != nil {
					return Result{}, fmt.Errorf("lookup siblings under %s: %w", dir, err)
				}
				res.SiblingProfiles[dir] = siblings
			}
		}

		if !found {
			continue
		}

		res.Warnings = append(res.Warnings, stabilityWarnings(path, prof, opts.ChangeType)...)

		own := Ownership{Path: path, Owner: prof.Owner, ContributorCount: prof.ContributorCount}
		res.Ownership = append(res.Ownership, own)
		res.Warnings = append(res.Warnings, ownershipWarning(path, prof))

		signals, err := gatherSignals(ctx, st, provider, dir, opts.Query)
		if err != nil {
			return Result{}, fmt.Errorf("gather signals for %s: %w", path, err)
		}
		res.Warnings = append(res.Warnings, signalWarnings(path, signals, now)...)
	}

	sort.SliceStable(res.Warnings, func(i, j int) bool {
		return res.Warnings[i].Severity.Weight() < res.Warnings[j].Severity.Weight()
	})
	return res, nil
}

func lookupProfile(ctx context.Context, st *store.Store, path string) (profile.Profile, bool, error) {
	rows, err := st.Project(ctx, store.TableFileProfiles, store.Eq{Field: "path", Value: path}, nil)
	if err != nil {
		return profile.Profile{}, false, err
	}
	if len(rows) == 0 {
		return profile.Profile{}, false, nil
	}
	return profile.FromStoreRecord(rows[0]), true, nil
}

// siblingProfiles returns every profile whose path sits directly under
// dir, excluding the candidate path itself.
func siblingProfiles(ctx context.Context, st *store.Store, dir, exclude string) ([]profile.Profile, error) {
	rows, err := st.Project(ctx, store.TableFileProfiles, store.LikePrefix{Field: "path", Prefix: dir + "/"}, nil)
	if err != nil {
		return nil, err
	}
	var out []profile.Profile
	for _, r := range rows {
		if r.Fields["path"] == exclude {
			continue
		}
		out = append(out, profile.FromStoreRecord(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// gatherSignals collects every signal scoped to dir plus all root-scoped
// ("."), signals, optionally widened by a vector search over query,
// deduplicated by ID.
func gatherSignals(ctx context.Context, st *store.Store, provider embedder.Provider, dir, query string) ([]signal.Record, error) {
	seen := map[string]bool{}
	var out []signal.Record

	add := func(rows []store.Record) {
		for _, r := range rows {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			out = append(out, signal.FromStoreRecord(r))
		}
	}

	rootRows, err := st.Project(ctx, store.TableSignals, store.Eq{Field: "directory_scope", Value: "."}, nil)
	if err != nil {
		return nil, err
	}
	add(rootRows)

	if dir != "." && dir != "" {
		dirRows, err := st.Project(ctx, store.TableSignals, store.Eq{Field: "directory_scope", Value: dir}, nil)
		if err != nil {
			return nil, err
		}
		add(dirRows)
	}

	if query != "" && provider != nil {
		prefix := ""
		if provider.SupportsPrefixes() {
			prefix = "search_query: "
		}
		vec, err := provider.EmbedSingle(ctx, query, prefix)
		if err != nil {
			return nil, fmt.Errorf("embed signal query: %w", err)
		}
		matches, err := st.KNN(ctx, store.TableSignals, vec, signalQueryLimit, nil)
		if err != nil {
			return nil, fmt.Errorf("signal vector search: %w", err)
		}
		for _, m := range matches {
			if seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			out = append(out, signal.FromStoreRecord(store.Record{ID: m.ID, Text: m.Text, Fields: m.Fields}))
		}
	}

	return out, nil
}

func stabilityWarnings(path string, p profile.Profile, changeType string) []Warning {
	switch {
	case p.Stability < stabilityWarnFloor:
		return []Warning{{
			Path:     path,
			Severity: signal.SeverityWarning,
			Category: CategoryStability,
			Message:  fmt.Sprintf("%s has low stability (%.0f/100)", path, p.Stability),
		}}
	case p.Stability <= stabilityCautionCap && changeType == "refactor":
		return []Warning{{
			Path:     path,
			Severity: signal.SeverityCaution,
			Category: CategoryStability,
			Message:  fmt.Sprintf("%s has borderline stability (%.0f/100) for a refactor", path, p.Stability),
		}}
	}
	return nil
}

func ownershipWarning(path string, p profile.Profile) Warning {
	if p.Owner != nil && p.Owner.Percentage >= ownerClearThreshold {
		return Warning{
			Path:     path,
			Severity: signal.SeverityInfo,
			Category: CategoryOwnership,
			Message: fmt.Sprintf("%s owned by %s (%.0f%%, last active %s)",
				path, p.Owner.Author, p.Owner.Percentage, formatDate(p.Owner.LastChange)),
		}
	}
	return Warning{
		Path:     path,
		Severity: signal.SeverityInfo,
		Category: CategoryOwnership,
		Message:  fmt.Sprintf("%s has no clear owner across %d contributor(s)", path, p.ContributorCount),
	}
}

// signalTypeRule maps a signal type to the warning severity/category it
// produces, per §4.9. fix_chain is absent here since it inherits the
// signal's own severity rather than a fixed one.
var signalTypeRule = map[signal.Type]struct {
	Severity signal.Severity
	Category Category
}{
	signal.TypeRevertPair:     {signal.SeverityCaution, CategoryPattern},
	signal.TypeChurnHotspot:   {signal.SeverityInfo, CategoryChurn},
	signal.TypeBreakingChange: {signal.SeverityWarning, CategoryBreaking},
	signal.TypeAdoptionCycle:  {signal.SeverityWarning, CategoryPattern},
}

func signalWarnings(path string, signals []signal.Record, now time.Time) []Warning {
	var out []Warning
	for _, s := range signals {
		rule, known := signalTypeRule[s.Type]
		severity := rule.Severity
		category := rule.Category
		if s.Type == signal.TypeFixChain {
			severity = s.Severity
			category = CategoryPattern
			known = true
		}
		if !known {
			continue
		}

		halfLife := defaultHalfLifeDays
		if s.Type == signal.TypeRevertPair || s.Type == signal.TypeBreakingChange {
			halfLife = revertHalfLifeDays
			if s.Type == signal.TypeBreakingChange {
				halfLife = breakingHalfLifeDays
			}
		}
		ageDays := now.Sub(s.CreatedAt).Hours() / 24
		decay := math.Pow(0.5, ageDays/halfLife)
		weight := decisionWeight(s.Metadata["decision_class"])
		if decay*weight < decayWeightFloor {
			continue
		}

		out = append(out, Warning{
			Path:     path,
			Severity: severity,
			Category: category,
			Message:  s.Summary,
			SignalID: s.ID,
		})
	}
	return out
}

func decisionWeight(class string) float64 {
	switch class {
	case "decision":
		return 1.5
	case "routine":
		return 0.5
	default:
		return 1.0
	}
}

// containingDir returns the directory containing path, or "." when path
// has no directory component.
func containingDir(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format("2006-01-02")
}
