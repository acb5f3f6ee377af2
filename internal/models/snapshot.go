package models

import (
	"encoding/json"
	"fmt"
)

// Snapshot is the decoded form of a backup blob: the full local state.
type Snapshot struct {
	Settings      Settings       `json:"settings"`
	Subscriptions []Subscription `json:"subs"`
	Collections   []Collection   `json:"collections"`
	Artifacts     []Artifact     `json:"artifacts"`
	// Extra holds top-level sections other than the four above, such as
	// files or rules written by other versions. They are stored verbatim.
	Extra Extra `json:"-"`
}

type plainSnapshot Snapshot

func (s Snapshot) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(plainSnapshot(s), s.Extra)
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var p plainSnapshot
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*s = Snapshot(p)
	s.Extra = extra
	return nil
}

// EncodeSnapshot serializes a snapshot into a backup blob.
func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	if snap.Subscriptions == nil {
		snap.Subscriptions = []Subscription{}
	}
	if snap.Collections == nil {
		snap.Collections = []Collection{}
	}
	if snap.Artifacts == nil {
		snap.Artifacts = []Artifact{}
	}
	return json.Marshal(snap)
}

// DecodeSnapshot parses a backup blob and checks that names are unique per kind.
func DecodeSnapshot(blob []byte) (Snapshot, error) {
	var snap Snapshot
	if len(blob) == 0 {
		return snap, fmt.Errorf("backup blob is empty")
	}
	if err := json.Unmarshal(blob, &snap); err != nil {
		return snap, fmt.Errorf("decode backup blob: %w", err)
	}
	if err := uniqueNames("subscription", len(snap.Subscriptions), func(i int) string { return snap.Subscriptions[i].Name }); err != nil {
		return snap, err
	}
	if err := uniqueNames("collection", len(snap.Collections), func(i int) string { return snap.Collections[i].Name }); err != nil {
		return snap, err
	}
	if err := uniqueNames("artifact", len(snap.Artifacts), func(i int) string { return snap.Artifacts[i].Name }); err != nil {
		return snap, err
	}
	return snap, nil
}

func uniqueNames(kind string, n int, nameAt func(int) string) error {
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		name := nameAt(i)
		if name == "" {
			return fmt.Errorf("%s at index %d has no name", kind, i)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("duplicate %s name: %s", kind, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
