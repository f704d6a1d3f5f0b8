package repo

import (
	"context"
	"sync"

	"github.com/storelens-ai/storelens/domains/artifacts/be/service"
)

type artifactKey struct {
	shop     string
	resource string
}

// MemoryRepository is an in-memory artifact store for tests and early development.
type MemoryRepository struct {
	mu    sync.RWMutex
	byKey map[artifactKey]service.Artifact
}

// NewMemoryRepository constructs a MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byKey: make(map[artifactKey]service.Artifact)}
}

func (r *MemoryRepository) Get(ctx context.Context, shopDomain, resourceID string) (service.Artifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	artifact, ok := r.byKey[artifactKey{shop: shopDomain, resource: resourceID}]
	if !ok {
		return service.Artifact{}, service.ErrNotFound
	}
	return artifact, nil
}

func (r *MemoryRepository) Put(ctx context.Context, shopDomain, resourceID string, artifact service.Artifact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byKey[artifactKey{shop: shopDomain, resource: resourceID}] = artifact
	return nil
}

// Ensure interface compliance.
var _ service.Repository = (*MemoryRepository)(nil)
