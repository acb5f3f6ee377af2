package store

import (
	"context"

	"subkeep/internal/models"
)

// ListSubscriptions returns all subscriptions in insertion order.
func (s *Store) ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	return subscriptionTable.list(ctx, s.db)
}

// GetSubscription returns one subscription or ErrNotFound.
func (s *Store) GetSubscription(ctx context.Context, name string) (*models.Subscription, error) {
	return subscriptionTable.get(ctx, s.db, name)
}

func (s *Store) CreateSubscription(ctx context.Context, sub models.Subscription) error {
	return subscriptionTable.create(ctx, s.db, sub)
}

func (s *Store) UpdateSubscription(ctx context.Context, name string, sub models.Subscription) error {
	return subscriptionTable.update(ctx, s.db, name, sub)
}

func (s *Store) DeleteSubscription(ctx context.Context, name string) error {
	return subscriptionTable.delete(ctx, s.db, name)
}

// ListCollections returns all collections in insertion order.
func (s *Store) ListCollections(ctx context.Context) ([]models.Collection, error) {
	return collectionTable.list(ctx, s.db)
}

// GetCollection returns one collection or ErrNotFound.
func (s *Store) GetCollection(ctx context.Context, name string) (*models.Collection, error) {
	return collectionTable.get(ctx, s.db, name)
}

func (s *Store) CreateCollection(ctx context.Context, col models.Collection) error {
	return collectionTable.create(ctx, s.db, col)
}

func (s *Store) UpdateCollection(ctx context.Context, name string, col models.Collection) error {
	return collectionTable.update(ctx, s.db, name, col)
}

func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	return collectionTable.delete(ctx, s.db, name)
}

// ListArtifacts returns all artifacts in insertion order.
func (s *Store) ListArtifacts(ctx context.Context) ([]models.Artifact, error) {
	return artifactTable.list(ctx, s.db)
}

// GetArtifact returns one artifact or ErrNotFound.
func (s *Store) GetArtifact(ctx context.Context, name string) (*models.Artifact, error) {
	return artifactTable.get(ctx, s.db, name)
}

func (s *Store) CreateArtifact(ctx context.Context, artifact models.Artifact) error {
	return artifactTable.create(ctx, s.db, artifact)
}

func (s *Store) UpdateArtifact(ctx context.Context, name string, artifact models.Artifact) error {
	return artifactTable.update(ctx, s.db, name, artifact)
}

func (s *Store) DeleteArtifact(ctx context.Context, name string) error {
	return artifactTable.delete(ctx, s.db, name)
}
