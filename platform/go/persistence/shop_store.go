package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ShopsTable is the table holding one row per installed shop.
const ShopsTable = "shops"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ShopRecord represents a shop (tenant) row.
type ShopRecord struct {
	ShopDomain         string         `db:"shop_domain"`
	Plan               *string        `db:"plan"`
	SubscriptionStatus *string        `db:"subscription_status"`
	PlanStartedAt      *time.Time     `db:"plan_started_at"`
	MonthlyUsage       map[string]int `db:"monthly_usage"`
	ReferralCode       *string        `db:"referral_code"`
	ReferrerPayoutID   *string        `db:"referrer_payout_id"`
	InstalledAt        time.Time      `db:"installed_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

// ShopStore provides access to the shops table.
type ShopStore struct {
	pool *pgxpool.Pool
}

// NewShopStore creates a store; assumes migrations already created the table.
func NewShopStore(pool *pgxpool.Pool) (*ShopStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &ShopStore{pool: pool}, nil
}

// Get fetches a shop row by domain.
func (s *ShopStore) Get(ctx context.Context, shopDomain string) (ShopRecord, error) {
	query := fmt.Sprintf(`SELECT shop_domain, plan, subscription_status, plan_started_at,
        monthly_usage, referral_code, referrer_payout_id, installed_at, updated_at
        FROM %s WHERE shop_domain = $1`, ShopsTable)
	return scanShopRecord(s.pool.QueryRow(ctx, query, shopDomain))
}

// Create inserts a shop row if absent and returns the stored row either way.
// Safe to call concurrently for the same domain; the first writer wins.
func (s *ShopStore) Create(ctx context.Context, rec ShopRecord) (ShopRecord, error) {
	if strings.TrimSpace(rec.ShopDomain) == "" {
		return ShopRecord{}, errors.New("shop domain is required")
	}

	usage, err := marshalUsage(rec.MonthlyUsage)
	if err != nil {
		return ShopRecord{}, err
	}

	query := fmt.Sprintf(`
        INSERT INTO %s (
            shop_domain, plan, subscription_status, plan_started_at, monthly_usage,
            referral_code, referrer_payout_id, installed_at, updated_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
        ON CONFLICT (shop_domain) DO NOTHING
    `, ShopsTable)

	now := rec.InstalledAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	if _, err := s.pool.Exec(ctx, query,
		rec.ShopDomain, rec.Plan, rec.SubscriptionStatus, rec.PlanStartedAt, usage,
		rec.ReferralCode, rec.ReferrerPayoutID, now,
	); err != nil {
		return ShopRecord{}, err
	}

	return s.Get(ctx, rec.ShopDomain)
}

// SetPlan upserts the plan assignment fields, stamping plan_started_at.
func (s *ShopStore) SetPlan(ctx context.Context, shopDomain, plan string, status *string) (ShopRecord, error) {
	query := fmt.Sprintf(`
        INSERT INTO %s (shop_domain, plan, subscription_status, plan_started_at, monthly_usage, installed_at, updated_at)
        VALUES ($1, $2, $3, now(), '{}'::jsonb, now(), now())
        ON CONFLICT (shop_domain) DO UPDATE SET
            plan = EXCLUDED.plan,
            subscription_status = EXCLUDED.subscription_status,
            plan_started_at = now(),
            updated_at = now()
        RETURNING shop_domain, plan, subscription_status, plan_started_at,
            monthly_usage, referral_code, referrer_payout_id, installed_at, updated_at
    `, ShopsTable)
	return scanShopRecord(s.pool.QueryRow(ctx, query, shopDomain, plan, status))
}

// IncrementUsageIfBelow atomically bumps the metric counter only while the
// pre-increment value is below limit. A negative limit means unbounded.
// Returns the post-increment value and whether the increment was applied.
// A missing row reports ErrNotFound so callers can create the shop first.
func (s *ShopStore) IncrementUsageIfBelow(ctx context.Context, shopDomain, metric string, limit int) (int, bool, error) {
	query := fmt.Sprintf(`
        UPDATE %s SET
            monthly_usage = jsonb_set(
                coalesce(monthly_usage, '{}'::jsonb),
                ARRAY[$2],
                to_jsonb(coalesce((monthly_usage->>$2)::int, 0) + 1),
                true),
            updated_at = now()
        WHERE shop_domain = $1
          AND ($3::int < 0 OR coalesce((monthly_usage->>$2)::int, 0) < $3)
        RETURNING (monthly_usage->>$2)::int
    `, ShopsTable)

	var newValue int
	err := s.pool.QueryRow(ctx, query, shopDomain, metric, limit).Scan(&newValue)
	if err == nil {
		return newValue, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, err
	}

	// The guard rejected: either the row is missing or the counter is at the limit.
	current := 0
	existsQuery := fmt.Sprintf(`SELECT coalesce((monthly_usage->>$2)::int, 0) FROM %s WHERE shop_domain = $1`, ShopsTable)
	if err := s.pool.QueryRow(ctx, existsQuery, shopDomain, metric).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, ErrNotFound
		}
		return 0, false, err
	}
	return current, false, nil
}

// ResetAllUsage zeroes every shop's monthly counters and returns the number of rows touched.
func (s *ShopStore) ResetAllUsage(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`UPDATE %s SET monthly_usage = '{}'::jsonb, updated_at = now()
        WHERE monthly_usage <> '{}'::jsonb`, ShopsTable)
	tag, err := s.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanShopRecord(row pgx.Row) (ShopRecord, error) {
	var rec ShopRecord
	var usageRaw []byte
	if err := row.Scan(&rec.ShopDomain, &rec.Plan, &rec.SubscriptionStatus, &rec.PlanStartedAt,
		&usageRaw, &rec.ReferralCode, &rec.ReferrerPayoutID, &rec.InstalledAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ShopRecord{}, ErrNotFound
		}
		return ShopRecord{}, err
	}

	rec.MonthlyUsage = map[string]int{}
	if len(usageRaw) > 0 {
		if err := json.Unmarshal(usageRaw, &rec.MonthlyUsage); err != nil {
			return ShopRecord{}, fmt.Errorf("decode monthly usage: %w", err)
		}
	}
	return rec, nil
}

func marshalUsage(usage map[string]int) ([]byte, error) {
	if usage == nil {
		return []byte("{}"), nil
	}
	raw, err := json.Marshal(usage)
	if err != nil {
		return nil, fmt.Errorf("encode monthly usage: %w", err)
	}
	return raw, nil
}
