package repo

import (
	"context"
	"errors"

	"github.com/storelens-ai/storelens/domains/usage/be/service"
	"github.com/storelens-ai/storelens/platform/go/persistence"
)

// PostgresCounter implements the usage counter on the shops table's JSONB
// usage column. The conditional UPDATE's row-level guard is what makes the
// check-and-increment atomic across concurrent callers.
type PostgresCounter struct {
	store *persistence.ShopStore
}

// NewPostgresCounter constructs a counter backed by ShopStore.
func NewPostgresCounter(store *persistence.ShopStore) *PostgresCounter {
	if store == nil {
		panic("shop store is required")
	}
	return &PostgresCounter{store: store}
}

func (c *PostgresCounter) IncrementIfBelow(ctx context.Context, shopDomain, metric string, limit int) (int, bool, error) {
	// The meter creates shops before metering them, so persistence.ErrNotFound
	// here means the caller skipped that step; it propagates as-is.
	return c.store.IncrementUsageIfBelow(ctx, shopDomain, metric, limit)
}

func (c *PostgresCounter) Usage(ctx context.Context, shopDomain string) (map[string]int, error) {
	rec, err := c.store.Get(ctx, shopDomain)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return map[string]int{}, nil
		}
		return nil, err
	}
	return rec.MonthlyUsage, nil
}

func (c *PostgresCounter) ResetAll(ctx context.Context) (int64, error) {
	return c.store.ResetAllUsage(ctx)
}

// Ensure interface compliance.
var _ service.Counter = (*PostgresCounter)(nil)
