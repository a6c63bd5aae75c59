// Package indexstate persists the small checkpoint each index surface
// (code, history) needs to decide whether its next run can be
// incremental: the last commit it indexed through, when, how many
// records it produced, and the embedding dimension it was built with.
package indexstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/codetrail-dev/codetrail/internal/errs"
)

// State is the persisted checkpoint for one index surface.
type State struct {
	LastCommit         string    `json:"lastCommit"`
	LastIndexedAt      time.Time `json:"lastIndexedAt"`
	Totals             Totals    `json:"totals"`
	EmbeddingDimension int       `json:"embeddingDimension"`
}

// Totals records the record counts a run produced, surfaced by `stats`
// and `git-stats` without needing to re-query the store.
type Totals struct {
	Files   int `json:"files"`
	Chunks  int `json:"chunks"`
	Commits int `json:"commits"`
	Signals int `json:"signals"`
}

// Load reads a checkpoint file, returning a zero-value State (not an
// error) if it doesn't exist yet — the caller treats an absent
// checkpoint the same as one that forces a full run, per the indexer
// state machine's `absent` start state.
func Load(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("read index state %s: %w", path, err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("parse index state %s: %w", path, err)
	}
	return s, nil
}

// Save writes the checkpoint atomically: marshal to a temp file in the
// same directory, then rename over the destination. A crash mid-write
// leaves either the old checkpoint or nothing, never a half-written one.
func (s State) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index state: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp index state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename index state into place: %w", err)
	}
	return nil
}

// CompatibleDimension reports whether dim matches the checkpoint's
// recorded embedding dimension. A mismatch (e.g. switching embedding
// providers or models) must force a full re-index per
// errs.ErrDimensionMismatch; an empty checkpoint (EmbeddingDimension
// == 0) is always compatible since there is nothing to conflict with.
func (s State) CompatibleDimension(dim int) error {
	if s.EmbeddingDimension == 0 || s.EmbeddingDimension == dim {
		return nil
	}
	return fmt.Errorf("state expects dimension %d, got %d: %w", s.EmbeddingDimension, dim, errs.ErrDimensionMismatch)
}

// IsWarm reports whether this checkpoint represents a prior successful
// run (the `warm` states of the indexer state machine) as opposed to
// `absent`.
func (s State) IsWarm() bool {
	return s.LastCommit != "" || !s.LastIndexedAt.IsZero()
}
