package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"subkeep/internal/api"
	"subkeep/internal/models"
)

// resource binds one stored kind to its validation and store calls.
type resource[T any] struct {
	kind         string
	notFoundCode int
	list         func(ctx context.Context) ([]T, error)
	get          func(ctx context.Context, name string) (*T, error)
	create       func(ctx context.Context, item T) error
	update       func(ctx context.Context, name string, item T) error
	remove       func(ctx context.Context, name string) error
	normalize    func(item *T) error
	nameOf       func(item T) string
}

func (s *Server) subscriptions() resource[models.Subscription] {
	return resource[models.Subscription]{
		kind:         "subscription",
		notFoundCode: ErrCodeSubscriptionNotFound,
		list:         s.store.ListSubscriptions,
		get:          s.store.GetSubscription,
		create:       s.store.CreateSubscription,
		update:       s.store.UpdateSubscription,
		remove:       s.store.DeleteSubscription,
		normalize:    normalizeSubscription,
		nameOf:       func(item models.Subscription) string { return item.Name },
	}
}

func (s *Server) collections() resource[models.Collection] {
	return resource[models.Collection]{
		kind:         "collection",
		notFoundCode: ErrCodeCollectionNotFound,
		list:         s.store.ListCollections,
		get:          s.store.GetCollection,
		create:       s.store.CreateCollection,
		update:       s.store.UpdateCollection,
		remove:       s.store.DeleteCollection,
		normalize:    normalizeCollection,
		nameOf:       func(item models.Collection) string { return item.Name },
	}
}

func (s *Server) artifacts() resource[models.Artifact] {
	return resource[models.Artifact]{
		kind:         "artifact",
		notFoundCode: ErrCodeArtifactNotFound,
		list:         s.store.ListArtifacts,
		get:          s.store.GetArtifact,
		create:       s.store.CreateArtifact,
		update:       s.store.UpdateArtifact,
		remove:       s.store.DeleteArtifact,
		normalize:    normalizeArtifact,
		nameOf:       func(item models.Artifact) string { return item.Name },
	}
}

func listResource[T any](s *Server, res resource[T], w http.ResponseWriter, r *http.Request) {
	items, err := res.list(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	s.writeJSON(w, http.StatusOK, items)
}

func getResource[T any](s *Server, res resource[T], w http.ResponseWriter, r *http.Request) {
	name, ok := s.pathNameOrBadRequest(w, r)
	if !ok {
		return
	}
	item, err := res.get(r.Context(), name)
	if err != nil {
		s.writeServiceError(w, r, resourceStoreError(res.kind, res.notFoundCode, err))
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

func createResource[T any](s *Server, res resource[T], w http.ResponseWriter, r *http.Request) {
	var item T
	if !s.decodeJSONReq(w, r, &item) {
		return
	}
	if err := res.normalize(&item); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := res.create(r.Context(), item); err != nil {
		s.writeServiceError(w, r, resourceStoreError(res.kind, res.notFoundCode, err))
		return
	}
	s.log().Info("created "+res.kind, "name", res.nameOf(item))
	s.writeJSON(w, http.StatusCreated, item)
}

// updateResource merges the JSON patch over the stored record. A null
// field resets it; a changed name renames the record.
func updateResource[T any](s *Server, res resource[T], w http.ResponseWriter, r *http.Request) {
	name, ok := s.pathNameOrBadRequest(w, r)
	if !ok {
		return
	}
	var patch map[string]json.RawMessage
	if !s.decodeJSONReq(w, r, &patch) {
		return
	}

	existing, err := res.get(r.Context(), name)
	if err != nil {
		s.writeServiceError(w, r, resourceStoreError(res.kind, res.notFoundCode, err))
		return
	}
	merged, err := mergePatch(*existing, patch)
	if err != nil {
		s.writeServiceError(w, r, badRequestCode(err, ErrCodeInvalidJSON))
		return
	}
	if err := res.normalize(&merged); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := res.update(r.Context(), name, merged); err != nil {
		s.writeServiceError(w, r, resourceStoreError(res.kind, res.notFoundCode, err))
		return
	}
	s.writeJSON(w, http.StatusOK, merged)
}

func deleteResource[T any](s *Server, res resource[T], w http.ResponseWriter, r *http.Request) {
	name, ok := s.pathNameOrBadRequest(w, r)
	if !ok {
		return
	}
	if err := res.remove(r.Context(), name); err != nil {
		s.writeServiceError(w, r, resourceStoreError(res.kind, res.notFoundCode, err))
		return
	}
	s.log().Info("deleted "+res.kind, "name", name)
	s.writeJSON(w, http.StatusOK, api.StatusResponse{Status: "success"})
}

func mergePatch[T any](current T, patch map[string]json.RawMessage) (T, error) {
	var out T
	raw, err := json.Marshal(current)
	if err != nil {
		return out, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return out, err
	}
	for key, value := range patch {
		if string(value) == "null" {
			delete(fields, key)
			continue
		}
		fields[key] = value
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(merged, &out); err != nil {
		return out, fmt.Errorf("invalid patch: %w", err)
	}
	return out, nil
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	listResource(s, s.subscriptions(), w, r)
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	createResource(s, s.subscriptions(), w, r)
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	getResource(s, s.subscriptions(), w, r)
}

func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	updateResource(s, s.subscriptions(), w, r)
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	deleteResource(s, s.subscriptions(), w, r)
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	listResource(s, s.collections(), w, r)
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	createResource(s, s.collections(), w, r)
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	getResource(s, s.collections(), w, r)
}

func (s *Server) handleUpdateCollection(w http.ResponseWriter, r *http.Request) {
	updateResource(s, s.collections(), w, r)
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	deleteResource(s, s.collections(), w, r)
}

func (s *Server) handleListArtifacts(w http.ResponseWriter, r *http.Request) {
	listResource(s, s.artifacts(), w, r)
}

func (s *Server) handleCreateArtifact(w http.ResponseWriter, r *http.Request) {
	createResource(s, s.artifacts(), w, r)
}

func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	getResource(s, s.artifacts(), w, r)
}

func (s *Server) handleUpdateArtifact(w http.ResponseWriter, r *http.Request) {
	updateResource(s, s.artifacts(), w, r)
}

func (s *Server) handleDeleteArtifact(w http.ResponseWriter, r *http.Request) {
	deleteResource(s, s.artifacts(), w, r)
}
