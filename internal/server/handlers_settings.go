package server

import (
	"fmt"
	"net/http"

	"subkeep/internal/api"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.ReadSettings(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, settings.Masked())
}

// handleUpdateSettings merges provided fields. syncTime and schemaVersion
// are owned by backup and migration and cannot be patched.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req api.SettingsUpdateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	if req.Empty() {
		s.writeServiceError(w, r, badRequestCode(fmt.Errorf("no settings provided"), ErrCodeMissingRequired))
		return
	}
	if req.DefaultTimeout != nil && *req.DefaultTimeout < 0 {
		s.writeServiceError(w, r, badRequest(fmt.Errorf("defaultTimeout must not be negative")))
		return
	}

	current, err := s.store.ReadSettings(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	updated := req.Apply(current)
	if err := s.store.WriteSettings(r.Context(), updated); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.log().Info("settings updated", "gist_configured", updated.HasGistToken())
	s.writeJSON(w, http.StatusOK, updated.Masked())
}
