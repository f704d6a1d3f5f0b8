package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ArtifactsTable holds one generated artifact per (shop, resource) pair.
const ArtifactsTable = "cached_artifacts"

// ArtifactRecord represents a cached generation result.
type ArtifactRecord struct {
	ShopDomain  string    `db:"shop_domain"`
	ResourceID  string    `db:"resource_id"`
	Value       string    `db:"value"`
	ContentHash string    `db:"content_hash"`
	GeneratedAt time.Time `db:"generated_at"`
}

// ArtifactStore provides access to the cached_artifacts table.
type ArtifactStore struct {
	pool *pgxpool.Pool
}

// NewArtifactStore creates a store; assumes migrations already created the table.
func NewArtifactStore(pool *pgxpool.Pool) (*ArtifactStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &ArtifactStore{pool: pool}, nil
}

// Get fetches the artifact for a (shop, resource) pair.
func (s *ArtifactStore) Get(ctx context.Context, shopDomain, resourceID string) (ArtifactRecord, error) {
	query := fmt.Sprintf(`SELECT shop_domain, resource_id, value, content_hash, generated_at
        FROM %s WHERE shop_domain = $1 AND resource_id = $2`, ArtifactsTable)

	var rec ArtifactRecord
	err := s.pool.QueryRow(ctx, query, shopDomain, resourceID).
		Scan(&rec.ShopDomain, &rec.ResourceID, &rec.Value, &rec.ContentHash, &rec.GeneratedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ArtifactRecord{}, ErrNotFound
		}
		return ArtifactRecord{}, err
	}
	return rec, nil
}

// Upsert overwrites the artifact for a (shop, resource) pair. Last writer wins.
func (s *ArtifactStore) Upsert(ctx context.Context, rec ArtifactRecord) error {
	query := fmt.Sprintf(`
        INSERT INTO %s (shop_domain, resource_id, value, content_hash, generated_at)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (shop_domain, resource_id) DO UPDATE SET
            value = EXCLUDED.value,
            content_hash = EXCLUDED.content_hash,
            generated_at = EXCLUDED.generated_at
    `, ArtifactsTable)

	generatedAt := rec.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, query, rec.ShopDomain, rec.ResourceID, rec.Value, rec.ContentHash, generatedAt)
	return err
}
