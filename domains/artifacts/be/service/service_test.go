package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type artifactKey struct {
	shop     string
	resource string
}

// inMemoryRepo records every call so tests can assert what the cache touched.
type inMemoryRepo struct {
	artifacts map[artifactKey]Artifact
	getErr    error
	putErr    error
	getCalls  int
	putCalls  int
}

func newInMemoryRepo() *inMemoryRepo {
	return &inMemoryRepo{artifacts: make(map[artifactKey]Artifact)}
}

func (r *inMemoryRepo) Get(_ context.Context, shop, resource string) (Artifact, error) {
	r.getCalls++
	if r.getErr != nil {
		return Artifact{}, r.getErr
	}
	artifact, ok := r.artifacts[artifactKey{shop: shop, resource: resource}]
	if !ok {
		return Artifact{}, ErrNotFound
	}
	return artifact, nil
}

func (r *inMemoryRepo) Put(_ context.Context, shop, resource string, artifact Artifact) error {
	r.putCalls++
	if r.putErr != nil {
		return r.putErr
	}
	r.artifacts[artifactKey{shop: shop, resource: resource}] = artifact
	return nil
}

func newTestCache(repo Repository) *Cache {
	return NewCache(Config{}, repo, zap.NewNop())
}

func TestRoundTripHit(t *testing.T) {
	repo := newInMemoryRepo()
	cache := newTestCache(repo)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "acme.example.com", "product-42", "generated faq", "hash-a"))

	value, ok := cache.Get(ctx, "acme.example.com", "product-42", "hash-a")
	require.True(t, ok)
	require.Equal(t, "generated faq", value)
}

func TestMissWhenAbsent(t *testing.T) {
	cache := newTestCache(newInMemoryRepo())

	_, ok := cache.Get(context.Background(), "acme.example.com", "product-42", "hash-a")
	require.False(t, ok)
}

func TestHashMismatchIsMiss(t *testing.T) {
	repo := newInMemoryRepo()
	cache := newTestCache(repo)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "acme.example.com", "product-42", "generated faq", "hash-a"))

	// Underlying content changed, so the stored artifact no longer applies.
	_, ok := cache.Get(ctx, "acme.example.com", "product-42", "hash-b")
	require.False(t, ok)
}

func TestStaleArtifactIsMiss(t *testing.T) {
	repo := newInMemoryRepo()
	cache := newTestCache(repo)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return base }
	require.NoError(t, cache.Put(ctx, "acme.example.com", "product-42", "generated faq", "hash-a"))

	cache.now = func() time.Time { return base.Add(DefaultTTL - time.Second) }
	_, ok := cache.Get(ctx, "acme.example.com", "product-42", "hash-a")
	require.True(t, ok)

	cache.now = func() time.Time { return base.Add(DefaultTTL) }
	_, ok = cache.Get(ctx, "acme.example.com", "product-42", "hash-a")
	require.False(t, ok)
}

func TestCustomTTL(t *testing.T) {
	repo := newInMemoryRepo()
	cache := NewCache(Config{TTL: time.Hour}, repo, zap.NewNop())
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return base }
	require.NoError(t, cache.Put(ctx, "acme.example.com", "product-42", "generated faq", "hash-a"))

	cache.now = func() time.Time { return base.Add(2 * time.Hour) }
	_, ok := cache.Get(ctx, "acme.example.com", "product-42", "hash-a")
	require.False(t, ok)
}

func TestEmptyResourceIDSkipsRepository(t *testing.T) {
	repo := newInMemoryRepo()
	cache := newTestCache(repo)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "acme.example.com", "", "generated faq", "hash-a"))
	_, ok := cache.Get(ctx, "acme.example.com", "", "hash-a")
	require.False(t, ok)

	require.Zero(t, repo.getCalls)
	require.Zero(t, repo.putCalls)
}

func TestReadFailureIsMiss(t *testing.T) {
	repo := newInMemoryRepo()
	repo.getErr = errors.New("connection refused")
	cache := newTestCache(repo)

	_, ok := cache.Get(context.Background(), "acme.example.com", "product-42", "hash-a")
	require.False(t, ok)
}

func TestWriteFailureReturned(t *testing.T) {
	repo := newInMemoryRepo()
	boom := errors.New("connection refused")
	repo.putErr = boom
	cache := newTestCache(repo)

	err := cache.Put(context.Background(), "acme.example.com", "product-42", "generated faq", "hash-a")
	require.ErrorIs(t, err, boom)
}

func TestShopDomainNormalized(t *testing.T) {
	repo := newInMemoryRepo()
	cache := newTestCache(repo)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "ACME.Example.COM ", "product-42", "generated faq", "hash-a"))

	value, ok := cache.Get(ctx, "acme.example.com", "product-42", "hash-a")
	require.True(t, ok)
	require.Equal(t, "generated faq", value)
}
