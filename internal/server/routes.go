package server

import (
	"net/http"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check and info.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/info", s.handleInfo)

	// Subscriptions.
	mux.HandleFunc("GET /api/subs", s.handleListSubscriptions)
	mux.HandleFunc("POST /api/subs", s.handleCreateSubscription)
	mux.HandleFunc("GET /api/sub/{name}", s.handleGetSubscription)
	mux.HandleFunc("PATCH /api/sub/{name}", s.handleUpdateSubscription)
	mux.HandleFunc("DELETE /api/sub/{name}", s.handleDeleteSubscription)

	// Collections.
	mux.HandleFunc("GET /api/collections", s.handleListCollections)
	mux.HandleFunc("POST /api/collections", s.handleCreateCollection)
	mux.HandleFunc("GET /api/collection/{name}", s.handleGetCollection)
	mux.HandleFunc("PATCH /api/collection/{name}", s.handleUpdateCollection)
	mux.HandleFunc("DELETE /api/collection/{name}", s.handleDeleteCollection)

	// Artifacts.
	mux.HandleFunc("GET /api/artifacts", s.handleListArtifacts)
	mux.HandleFunc("POST /api/artifacts", s.handleCreateArtifact)
	mux.HandleFunc("GET /api/artifact/{name}", s.handleGetArtifact)
	mux.HandleFunc("PATCH /api/artifact/{name}", s.handleUpdateArtifact)
	mux.HandleFunc("DELETE /api/artifact/{name}", s.handleDeleteArtifact)

	// Settings and raw storage.
	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PATCH /api/settings", s.handleUpdateSettings)
	mux.HandleFunc("GET /api/storage", s.handleExportStorage)
	mux.HandleFunc("POST /api/storage", s.handleImportStorage)

	// Gist backup.
	mux.HandleFunc("GET /api/utils/backup", s.handleBackup)
	mux.HandleFunc("POST /api/utils/backup", s.handleBackup)

	return mux
}
