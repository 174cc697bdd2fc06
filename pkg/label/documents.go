package label

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/mkarras/pinlabel/pkg/errors"
)

// =============================================================================
// Documents - Candidate and Placement Serialization
// =============================================================================

// CandidateSet is the serialization format for a batch of label candidates.
// Used by the CLI to round-trip layout runs and as the cache key input.
type CandidateSet struct {
	Config     Config      `json:"config"`
	Candidates []Candidate `json:"candidates"`
}

// Result is the serialization format for a completed layout run.
type Result struct {
	Config     Config      `json:"config"`
	Placements []Placement `json:"placements"`
	Visible    int         `json:"visible"`
	Hidden     int         `json:"hidden"`
}

// NewResult bundles placements with their config and visibility counts.
func NewResult(cfg Config, placements []Placement) Result {
	res := Result{Config: cfg, Placements: placements}
	for _, p := range placements {
		if p.Visible {
			res.Visible++
		} else {
			res.Hidden++
		}
	}
	return res
}

// =============================================================================
// Serialization API
// =============================================================================

// MarshalCandidateSet serializes a candidate set to pretty-printed JSON.
func MarshalCandidateSet(set CandidateSet) ([]byte, error) {
	return json.MarshalIndent(set, "", "  ")
}

// UnmarshalCandidateSet deserializes JSON bytes into a candidate set.
// Candidates without an ID get a generated one; duplicate IDs are rejected
// because ID uniqueness per layout call is an engine invariant.
func UnmarshalCandidateSet(data []byte) (CandidateSet, error) {
	var set CandidateSet
	if err := json.Unmarshal(data, &set); err != nil {
		return CandidateSet{}, fmt.Errorf("unmarshal candidate set: %w", err)
	}

	seen := make(map[string]bool, len(set.Candidates))
	for i := range set.Candidates {
		if set.Candidates[i].ID == "" {
			set.Candidates[i].ID = uuid.NewString()
		}
		id := set.Candidates[i].ID
		if seen[id] {
			return CandidateSet{}, errors.New(errors.ErrCodeDuplicateCandidate,
				"duplicate candidate id %q", id)
		}
		seen[id] = true
	}

	return set, nil
}

// MarshalResult serializes a layout result to pretty-printed JSON.
func MarshalResult(res Result) ([]byte, error) {
	return json.MarshalIndent(res, "", "  ")
}

// UnmarshalResult deserializes JSON bytes into a layout result.
func UnmarshalResult(data []byte) (Result, error) {
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return Result{}, fmt.Errorf("unmarshal result: %w", err)
	}
	return res, nil
}

// ReadCandidateSetFile reads a candidate set from a JSON file.
func ReadCandidateSetFile(path string) (CandidateSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CandidateSet{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalCandidateSet(data)
}

// WriteResultFile writes a layout result to a JSON file.
func WriteResultFile(res Result, path string) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadResultFile reads a layout result from a JSON file.
func ReadResultFile(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", path, err)
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return Result{}, fmt.Errorf("unmarshal result: %w", err)
	}
	return res, nil
}
