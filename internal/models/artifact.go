package models

// Artifact is a generated, target-specific rendering of a subscription or
// collection that may be synced elsewhere.
type Artifact struct {
	Name     string       `json:"name"`
	Type     ArtifactType `json:"type"`
	Source   string       `json:"source"`
	Platform string       `json:"platform,omitempty"`
	Sync     bool         `json:"sync"`
	URL      string       `json:"url,omitempty"`
	Updated  int64        `json:"updated,omitempty"`
	Extra    Extra        `json:"-"`
}

type plainArtifact Artifact

func (a Artifact) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(plainArtifact(a), a.Extra)
}

func (a *Artifact) UnmarshalJSON(data []byte) error {
	var p plainArtifact
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*a = Artifact(p)
	a.Extra = extra
	return nil
}
