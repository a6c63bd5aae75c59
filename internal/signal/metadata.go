package signal

import "encoding/json"

// RevertMetadata is the per-type metadata for TypeRevertPair.
type RevertMetadata struct {
	OriginalSHA      string `json:"original_sha"`
	RevertSHA        string `json:"revert_sha"`
	TimeToRevertDays int    `json:"time_to_revert_days"`
}

// FixChainMetadata is the per-type metadata for TypeFixChain.
type FixChainMetadata struct {
	FeatSHA  string `json:"feat_sha"`
	FixCount int    `json:"fix_count"`
	DaySpan  int    `json:"day_span"`
}

// ChurnMetadata is the per-type metadata for TypeChurnHotspot.
type ChurnMetadata struct {
	FilePath     string  `json:"file_path"`
	ChangeCount  int     `json:"change_count"`
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`
	SigmaDist    float64 `json:"sigma_distance"`
	Trend        string  `json:"trend"` // increasing|decreasing|stable
	Last30Days   int     `json:"last_30_days"`
	Days31To60   int     `json:"days_31_to_60"`
}

// Contributor is one entry in an ownership breakdown's top-5 list.
type Contributor struct {
	Author  string  `json:"author"`
	Percent float64 `json:"percent"`
	Commits int     `json:"commits"`
}

// OwnershipMetadata is the per-type metadata for TypeOwnership.
type OwnershipMetadata struct {
	Scope         string        `json:"scope"` // "file" or "directory"
	Path          string        `json:"path"`
	LeadAuthor    string        `json:"lead_author"`
	LeadPercent   float64       `json:"lead_percent"`
	TotalCommits  int           `json:"total_commits"`
	Contributors  []Contributor `json:"contributors"`
}

// AdoptionMetadata is the per-type metadata for TypeAdoptionCycle.
type AdoptionMetadata struct {
	Dependency    string `json:"dependency"`
	ManifestPath  string `json:"manifest_path"`
	Transitions   int    `json:"transitions"`
	CycleCount    int    `json:"cycle_count"`
	CurrentStatus string `json:"current_status"` // "added" or "removed"
}

// StabilityMetadata is the per-type metadata for TypeStabilityShift.
type StabilityMetadata struct {
	Directory string  `json:"directory"`
	Previous  int     `json:"previous"`
	Recent    int     `json:"recent"`
	Ratio     float64 `json:"ratio"`
	Direction string  `json:"direction"` // stabilized|destabilized
}

// BreakingChangeMetadata is the per-type metadata for TypeBreakingChange.
type BreakingChangeMetadata struct {
	OriginalSHA  string   `json:"original_sha"`
	FixSHAs      []string `json:"fix_shas"`
	AuthorCount  int      `json:"author_count"`
}

// EncodeMetadata marshals a per-type metadata value to the flat JSON
// string column (metadata_json) every signal Record stores it in. The
// caller is responsible for passing the struct matching the Record's
// Type; EncodeMetadata itself is type-agnostic so any of the structs
// above, or a plain map for forward compatibility, can flow through it.
func EncodeMetadata(v any) map[string]string {
	b, err := json.Marshal(v)
	if err != nil {
		return map[string]string{"metadata_json": "{}"}
	}
	return map[string]string{"metadata_json": string(b)}
}

// DecodeMetadata unmarshals a signal's metadata_json column into a
// type-appropriate destination struct selected by the caller based on
// the Record's Type — there is one shape per Type, so callers switch on
// t before calling this.
func DecodeMetadata(metadataJSON string, out any) error {
	if metadataJSON == "" {
		return nil
	}
	return json.Unmarshal([]byte(metadataJSON), out)
}
