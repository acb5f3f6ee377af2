package server

import (
	"fmt"
	"net/http"

	"subkeep/internal/api"
	"subkeep/internal/backup"
)

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	if s.backup == nil {
		s.writeServiceError(w, r, internalError(fmt.Errorf("backup is not configured")))
		return
	}
	action := backup.ParseAction(r.URL.Query().Get("action"))
	if action == backup.ActionNoop {
		// Touches nothing, so it never waits on a running backup.
		if err := s.backup.Run(r.Context(), action); err != nil {
			s.writeServiceError(w, r, backupError(err))
			return
		}
		s.writeJSON(w, http.StatusOK, api.StatusResponse{Status: "success"})
		return
	}
	s.withLimiter(w, r, s.backupLimiter, "backup", func() {
		if err := s.backup.Run(r.Context(), action); err != nil {
			s.writeServiceError(w, r, backupError(err))
			return
		}
		s.writeJSON(w, http.StatusOK, api.StatusResponse{Status: "success"})
	})
}
