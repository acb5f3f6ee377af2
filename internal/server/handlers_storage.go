package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"subkeep/internal/api"
	"subkeep/internal/models"
)

func (s *Server) handleExportStorage(w http.ResponseWriter, r *http.Request) {
	blob, err := s.store.ReadAll(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="subkeep-storage.json"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(blob); err != nil {
		s.log().Error("write storage export", "error", err)
	}
}

// handleImportStorage replaces local state with the request body and then
// migrates it, like a restore without the remote.
func (s *Server) handleImportStorage(w http.ResponseWriter, r *http.Request) {
	s.withLimiter(w, r, s.importLimiter, "storage import", func() {
		r.Body = http.MaxBytesReader(w, r.Body, storageMaxBody)
		blob, err := io.ReadAll(r.Body)
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				s.writeServiceError(w, r, badRequestCode(fmt.Errorf("request body too large"), ErrCodeRequestTooLarge))
				return
			}
			s.writeServiceError(w, r, badRequest(err))
			return
		}
		if _, err := models.DecodeSnapshot(blob); err != nil {
			s.writeServiceError(w, r, badRequestCode(err, ErrCodeInvalidStorage))
			return
		}
		if err := s.store.WriteAll(r.Context(), blob); err != nil {
			s.writeStoreError(w, r, err)
			return
		}
		if s.migrator != nil {
			if err := s.migrator.Run(r.Context()); err != nil {
				s.writeServiceError(w, r, makeAPIError(http.StatusInternalServerError, "internal", ErrCodeMigrationError, err))
				return
			}
		}
		s.log().Info("storage imported", "bytes", len(blob))
		s.writeJSON(w, http.StatusOK, api.StatusResponse{Status: "success"})
	})
}
