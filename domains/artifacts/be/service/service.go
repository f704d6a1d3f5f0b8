package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	tenants "github.com/storelens-ai/storelens/domains/tenants/be/service"
)

// ErrNotFound is returned by a Repository when no artifact exists for the key.
var ErrNotFound = errors.New("artifact not found")

// DefaultTTL is the freshness window after which a cached artifact is stale
// regardless of hash match.
const DefaultTTL = 30 * 24 * time.Hour

// Artifact is a stored generation result for one (shop, resource) pair.
type Artifact struct {
	Value       string
	ContentHash string
	GeneratedAt time.Time
}

// Repository abstracts persistence for cached artifacts.
type Repository interface {
	Get(ctx context.Context, shopDomain, resourceID string) (Artifact, error)
	Put(ctx context.Context, shopDomain, resourceID string, artifact Artifact) error
}

// Config holds the cache tuning knobs.
type Config struct {
	// TTL bounds artifact freshness; zero selects DefaultTTL.
	TTL time.Duration
}

// Cache stores and retrieves previously generated content, invalidated by a
// content hash and a freshness window. Misses are never errors: the caller
// regenerates and writes back.
type Cache struct {
	repo   Repository
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewCache constructs a Cache with required dependencies.
func NewCache(cfg Config, repo Repository, logger *zap.Logger) *Cache {
	if repo == nil {
		panic("artifacts repo is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{repo: repo, ttl: ttl, logger: logger, now: time.Now}
}

// Get returns the cached value for the key when the stored hash matches the
// caller's current content hash and the artifact is still fresh. Absent
// record, hash mismatch, TTL expiry and read failures are all misses.
// An empty resourceID skips caching entirely: with no stable key there is
// nothing safe to look up.
func (c *Cache) Get(ctx context.Context, shopDomain, resourceID, currentHash string) (string, bool) {
	if resourceID == "" {
		return "", false
	}
	shopDomain = tenants.NormalizeDomain(shopDomain)

	artifact, err := c.repo.Get(ctx, shopDomain, resourceID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Warn("artifact read failed, treating as miss",
				zap.String("shop", shopDomain),
				zap.String("resource", resourceID),
				zap.Error(err),
			)
		}
		return "", false
	}

	if artifact.ContentHash != currentHash {
		return "", false
	}
	if c.now().Sub(artifact.GeneratedAt) >= c.ttl {
		return "", false
	}
	return artifact.Value, true
}

// Put overwrites the artifact for the key. Last writer wins: a regenerated
// artifact is always at least as good as the stored one. Failures are logged
// here and returned; callers treat them as non-fatal since the generation
// result has already been produced.
func (c *Cache) Put(ctx context.Context, shopDomain, resourceID, value, hash string) error {
	if resourceID == "" {
		return nil
	}
	shopDomain = tenants.NormalizeDomain(shopDomain)

	artifact := Artifact{
		Value:       value,
		ContentHash: hash,
		GeneratedAt: c.now().UTC(),
	}
	if err := c.repo.Put(ctx, shopDomain, resourceID, artifact); err != nil {
		c.logger.Warn("artifact write failed",
			zap.String("shop", shopDomain),
			zap.String("resource", resourceID),
			zap.Error(err),
		)
		return fmt.Errorf("cache artifact for %q/%q: %w", shopDomain, resourceID, err)
	}
	return nil
}
