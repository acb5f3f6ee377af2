package models

import "strings"

// Settings is the service-wide settings record.
//
// SyncTime is advisory: it records the last successful upload and is never
// used to detect conflicts.
type Settings struct {
	GistToken        string `json:"gistToken,omitempty"`
	GithubUser       string `json:"githubUser,omitempty"`
	SyncTime         int64  `json:"syncTime,omitempty"`
	DefaultUserAgent string `json:"defaultUserAgent,omitempty"`
	DefaultTimeout   int64  `json:"defaultTimeout,omitempty"`
	SchemaVersion    int    `json:"schemaVersion,omitempty"`
	// Extra keeps settings keys this version does not interpret.
	Extra Extra `json:"-"`
}

type plainSettings Settings

func (s Settings) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(plainSettings(s), s.Extra)
}

func (s *Settings) UnmarshalJSON(data []byte) error {
	var p plainSettings
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*s = Settings(p)
	s.Extra = extra
	return nil
}

// HasGistToken reports whether a remote backup credential is configured.
func (s Settings) HasGistToken() bool {
	return strings.TrimSpace(s.GistToken) != ""
}

// Masked returns a copy safe to return over the API.
func (s Settings) Masked() Settings {
	out := s
	if out.HasGistToken() {
		out.GistToken = MaskSecret(out.GistToken)
	}
	return out
}

// MaskSecret keeps the last four characters of a secret.
func MaskSecret(secret string) string {
	secret = strings.TrimSpace(secret)
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
