package repo

import (
	"context"
	"errors"

	"github.com/storelens-ai/storelens/domains/artifacts/be/service"
	"github.com/storelens-ai/storelens/platform/go/persistence"
)

// PostgresRepository implements the artifact repository on top of the shared persistence layer.
type PostgresRepository struct {
	store *persistence.ArtifactStore
}

// NewPostgresRepository constructs a repository backed by ArtifactStore.
func NewPostgresRepository(store *persistence.ArtifactStore) *PostgresRepository {
	if store == nil {
		panic("artifact store is required")
	}
	return &PostgresRepository{store: store}
}

func (r *PostgresRepository) Get(ctx context.Context, shopDomain, resourceID string) (service.Artifact, error) {
	rec, err := r.store.Get(ctx, shopDomain, resourceID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return service.Artifact{}, service.ErrNotFound
		}
		return service.Artifact{}, err
	}
	return service.Artifact{
		Value:       rec.Value,
		ContentHash: rec.ContentHash,
		GeneratedAt: rec.GeneratedAt,
	}, nil
}

func (r *PostgresRepository) Put(ctx context.Context, shopDomain, resourceID string, artifact service.Artifact) error {
	return r.store.Upsert(ctx, persistence.ArtifactRecord{
		ShopDomain:  shopDomain,
		ResourceID:  resourceID,
		Value:       artifact.Value,
		ContentHash: artifact.ContentHash,
		GeneratedAt: artifact.GeneratedAt,
	})
}

// Ensure interface compliance.
var _ service.Repository = (*PostgresRepository)(nil)
