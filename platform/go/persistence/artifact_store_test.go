package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestArtifactStoreUpsertAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping artifact store integration test in short mode")
	}

	pool, cleanup := mustTestPool(t)
	defer cleanup()

	store, err := NewArtifactStore(pool)
	require.NoError(t, err)

	ctx := context.Background()
	shop := fmt.Sprintf("%s.example.com", uuid.NewString())

	_, err = store.Get(ctx, shop, "product-1")
	require.ErrorIs(t, err, ErrNotFound)

	generatedAt := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	require.NoError(t, store.Upsert(ctx, ArtifactRecord{
		ShopDomain:  shop,
		ResourceID:  "product-1",
		Value:       "generated description",
		ContentHash: "hash-a",
		GeneratedAt: generatedAt,
	}))

	rec, err := store.Get(ctx, shop, "product-1")
	require.NoError(t, err)
	require.Equal(t, "generated description", rec.Value)
	require.Equal(t, "hash-a", rec.ContentHash)
	require.True(t, rec.GeneratedAt.Equal(generatedAt))

	// Last writer wins on the same key.
	require.NoError(t, store.Upsert(ctx, ArtifactRecord{
		ShopDomain:  shop,
		ResourceID:  "product-1",
		Value:       "regenerated description",
		ContentHash: "hash-b",
		GeneratedAt: generatedAt.Add(time.Hour),
	}))

	rec, err = store.Get(ctx, shop, "product-1")
	require.NoError(t, err)
	require.Equal(t, "regenerated description", rec.Value)
	require.Equal(t, "hash-b", rec.ContentHash)

	// Resources stay isolated per key.
	require.NoError(t, store.Upsert(ctx, ArtifactRecord{
		ShopDomain:  shop,
		ResourceID:  "product-2",
		Value:       "other artifact",
		ContentHash: "hash-c",
	}))

	rec, err = store.Get(ctx, shop, "product-2")
	require.NoError(t, err)
	require.Equal(t, "other artifact", rec.Value)
	require.False(t, rec.GeneratedAt.IsZero())
}
