package repo

import (
	"context"
	"sync"
	"time"

	"github.com/storelens-ai/storelens/domains/tenants/be/service"
)

// MemoryRepository is a simple in-memory implementation suitable for tests and early development.
type MemoryRepository struct {
	mu       sync.RWMutex
	byDomain map[string]service.Shop
}

// NewMemoryRepository constructs a MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byDomain: make(map[string]service.Shop)}
}

func (r *MemoryRepository) Get(ctx context.Context, domain string) (service.Shop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	shop, ok := r.byDomain[domain]
	if !ok {
		return service.Shop{}, service.ErrNotFound
	}
	return cloneShop(shop), nil
}

func (r *MemoryRepository) Ensure(ctx context.Context, domain string) (service.Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if shop, ok := r.byDomain[domain]; ok {
		return cloneShop(shop), nil
	}

	shop := service.Shop{
		Domain:       domain,
		MonthlyUsage: map[string]int{},
		InstalledAt:  time.Now().UTC(),
	}
	r.byDomain[domain] = shop
	return cloneShop(shop), nil
}

func (r *MemoryRepository) SetPlan(ctx context.Context, domain, plan string, status *string) (service.Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	shop, ok := r.byDomain[domain]
	if !ok {
		shop = service.Shop{Domain: domain, MonthlyUsage: map[string]int{}, InstalledAt: now}
	}

	shop.Plan = &plan
	shop.SubscriptionStatus = status
	shop.PlanStartedAt = &now
	r.byDomain[domain] = shop
	return cloneShop(shop), nil
}

func cloneShop(shop service.Shop) service.Shop {
	usage := make(map[string]int, len(shop.MonthlyUsage))
	for metric, count := range shop.MonthlyUsage {
		usage[metric] = count
	}
	shop.MonthlyUsage = usage
	return shop
}

// Ensure interface compliance.
var _ service.Repository = (*MemoryRepository)(nil)
