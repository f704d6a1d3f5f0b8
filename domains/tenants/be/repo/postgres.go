package repo

import (
	"context"
	"errors"

	"github.com/storelens-ai/storelens/domains/tenants/be/service"
	"github.com/storelens-ai/storelens/platform/go/persistence"
)

// PostgresRepository implements the shop repository on top of the shared persistence layer.
type PostgresRepository struct {
	store *persistence.ShopStore
}

// NewPostgresRepository constructs a repository backed by ShopStore.
func NewPostgresRepository(store *persistence.ShopStore) *PostgresRepository {
	if store == nil {
		panic("shop store is required")
	}
	return &PostgresRepository{store: store}
}

func (r *PostgresRepository) Get(ctx context.Context, domain string) (service.Shop, error) {
	rec, err := r.store.Get(ctx, domain)
	if err != nil {
		return service.Shop{}, mapNotFound(err)
	}
	return toServiceShop(rec), nil
}

func (r *PostgresRepository) Ensure(ctx context.Context, domain string) (service.Shop, error) {
	rec, err := r.store.Create(ctx, persistence.ShopRecord{ShopDomain: domain})
	if err != nil {
		return service.Shop{}, err
	}
	return toServiceShop(rec), nil
}

func (r *PostgresRepository) SetPlan(ctx context.Context, domain, plan string, status *string) (service.Shop, error) {
	rec, err := r.store.SetPlan(ctx, domain, plan, status)
	if err != nil {
		return service.Shop{}, err
	}
	return toServiceShop(rec), nil
}

func toServiceShop(rec persistence.ShopRecord) service.Shop {
	return service.Shop{
		Domain:             rec.ShopDomain,
		Plan:               rec.Plan,
		SubscriptionStatus: rec.SubscriptionStatus,
		PlanStartedAt:      rec.PlanStartedAt,
		MonthlyUsage:       rec.MonthlyUsage,
		ReferralCode:       rec.ReferralCode,
		ReferrerPayoutID:   rec.ReferrerPayoutID,
		InstalledAt:        rec.InstalledAt,
	}
}

func mapNotFound(err error) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return service.ErrNotFound
	}
	return err
}

// Ensure interface compliance.
var _ service.Repository = (*PostgresRepository)(nil)
