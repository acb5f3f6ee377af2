package api

import "subkeep/internal/models"

// ErrorResponse is a generic JSON error wrapper.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// StatusResponse acknowledges an operation with no other payload.
type StatusResponse struct {
	Status string `json:"status"`
}

// InfoResponse describes the running service and its database.
type InfoResponse struct {
	DBPath            string `json:"db_path"`
	SchemaVersion     int    `json:"schema_version"`
	DataVersion       int    `json:"data_version"`
	LatestDataVersion int    `json:"latest_data_version"`
	Subscriptions     int    `json:"subscriptions"`
	Collections       int    `json:"collections"`
	Artifacts         int    `json:"artifacts"`
	GistConfigured    bool   `json:"gist_configured"`
	SyncTime          int64  `json:"sync_time,omitempty"`
}

// SettingsUpdateRequest patches settings. Nil fields are left unchanged;
// an empty gistToken clears the credential.
type SettingsUpdateRequest struct {
	GistToken        *string `json:"gistToken,omitempty"`
	GithubUser       *string `json:"githubUser,omitempty"`
	DefaultUserAgent *string `json:"defaultUserAgent,omitempty"`
	DefaultTimeout   *int64  `json:"defaultTimeout,omitempty"`
}

// Apply merges the request into settings.
func (r SettingsUpdateRequest) Apply(settings models.Settings) models.Settings {
	if r.GistToken != nil {
		settings.GistToken = *r.GistToken
	}
	if r.GithubUser != nil {
		settings.GithubUser = *r.GithubUser
	}
	if r.DefaultUserAgent != nil {
		settings.DefaultUserAgent = *r.DefaultUserAgent
	}
	if r.DefaultTimeout != nil {
		settings.DefaultTimeout = *r.DefaultTimeout
	}
	return settings
}

// Empty reports whether the request changes nothing.
func (r SettingsUpdateRequest) Empty() bool {
	return r.GistToken == nil && r.GithubUser == nil && r.DefaultUserAgent == nil && r.DefaultTimeout == nil
}
