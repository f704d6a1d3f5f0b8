package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	sqlassets "github.com/storelens-ai/storelens/database"
)

// ApplyCoreSchema executes the embedded DDL for every table this core reads or writes.
// Statements are idempotent (CREATE IF NOT EXISTS), so re-running is safe.
func ApplyCoreSchema(ctx context.Context, pool *pgxpool.Pool) error {
	assets := []struct {
		name string
		ddl  string
	}{
		{"shops", sqlassets.ShopsSQL},
		{"cached_artifacts", sqlassets.CachedArtifactsSQL},
		{"shop_sessions", sqlassets.ShopSessionsSQL},
	}

	for _, asset := range assets {
		if _, err := pool.Exec(ctx, asset.ddl); err != nil {
			return fmt.Errorf("apply %s ddl: %w", asset.name, err)
		}
	}
	return nil
}
