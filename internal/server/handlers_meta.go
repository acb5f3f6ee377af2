package server

import (
	"net/http"

	"subkeep/internal/api"
	"subkeep/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.store.StoreInfo(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	settings, err := s.store.ReadSettings(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	resp := api.InfoResponse{
		DBPath:            s.dbPath,
		SchemaVersion:     info.SchemaVersion,
		DataVersion:       info.DataVersion,
		LatestDataVersion: store.LatestDataVersion(),
		Subscriptions:     info.SubscriptionCount,
		Collections:       info.CollectionCount,
		Artifacts:         info.ArtifactCount,
		GistConfigured:    settings.HasGistToken(),
		SyncTime:          settings.SyncTime,
	}

	s.writeJSON(w, http.StatusOK, resp)
}
