package store

import (
	"context"

	"subkeep/internal/models"
)

// StateStore reads and writes the full local state as one document.
// Each call is atomic.
type StateStore interface {
	ReadAll(ctx context.Context) ([]byte, error)
	WriteAll(ctx context.Context, blob []byte) error
	ReadSettings(ctx context.Context) (models.Settings, error)
	WriteSettings(ctx context.Context, settings models.Settings) error
}

// ResourceStore abstracts CRUD over subscriptions, collections and artifacts.
type ResourceStore interface {
	ListSubscriptions(ctx context.Context) ([]models.Subscription, error)
	GetSubscription(ctx context.Context, name string) (*models.Subscription, error)
	CreateSubscription(ctx context.Context, sub models.Subscription) error
	UpdateSubscription(ctx context.Context, name string, sub models.Subscription) error
	DeleteSubscription(ctx context.Context, name string) error

	ListCollections(ctx context.Context) ([]models.Collection, error)
	GetCollection(ctx context.Context, name string) (*models.Collection, error)
	CreateCollection(ctx context.Context, col models.Collection) error
	UpdateCollection(ctx context.Context, name string, col models.Collection) error
	DeleteCollection(ctx context.Context, name string) error

	ListArtifacts(ctx context.Context) ([]models.Artifact, error)
	GetArtifact(ctx context.Context, name string) (*models.Artifact, error)
	CreateArtifact(ctx context.Context, artifact models.Artifact) error
	UpdateArtifact(ctx context.Context, name string, artifact models.Artifact) error
	DeleteArtifact(ctx context.Context, name string) error

	StoreInfo(ctx context.Context) (*StoreInfo, error)
}

var (
	_ StateStore    = (*Store)(nil)
	_ ResourceStore = (*Store)(nil)
)
