package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	tenants "github.com/storelens-ai/storelens/domains/tenants/be/service"
)

// Unlimited is the sentinel limit for plans without a metered cap.
const Unlimited = -1

// Metric names for billable actions.
const (
	MetricQuestions       = "questions"
	MetricReviewSummaries = "reviewSummaries"
)

// Decision is the outcome of a quota check for a single billable action.
type Decision struct {
	Allowed   bool
	Remaining int // -1 when unlimited
	Limit     int // -1 when unlimited
}

// Limits maps plan names to per-metric monthly caps.
// Shops with no plan, or a plan missing from Plans, fall back to Default.
type Limits struct {
	Plans   map[string]map[string]int
	Default map[string]int
}

// For resolves the applicable limit for a plan and metric.
// A metric absent from the resolved bucket yields 0: unknown billable actions
// are denied for metered shops rather than silently unmetered.
func (l Limits) For(plan *string, metric string) int {
	bucket := l.Default
	if plan != nil {
		if planBucket, ok := l.Plans[*plan]; ok {
			bucket = planBucket
		}
	}
	limit, ok := bucket[metric]
	if !ok {
		return 0
	}
	return limit
}

// Validate rejects a limit table that cannot meter anything.
func (l Limits) Validate() error {
	if len(l.Default) == 0 {
		return fmt.Errorf("usage limits: default bucket is required")
	}
	return nil
}

// DefaultLimits returns the shipped plan table: free shops get a small monthly
// allowance per metric, the paid plan is uncapped.
func DefaultLimits() Limits {
	return Limits{
		Plans: map[string]map[string]int{
			tenants.PlanPro: {
				MetricQuestions:       Unlimited,
				MetricReviewSummaries: Unlimited,
			},
		},
		Default: map[string]int{
			MetricQuestions:       50,
			MetricReviewSummaries: 10,
		},
	}
}

// Counter abstracts the atomic conditional-increment primitive.
// IncrementIfBelow must behave as "increment and return the new value only if
// the pre-increment value was below limit", serialized per (shop, metric),
// so concurrent callers near the boundary cannot overshoot. A negative limit
// means increment unconditionally.
type Counter interface {
	IncrementIfBelow(ctx context.Context, shopDomain, metric string, limit int) (newValue int, ok bool, err error)
	Usage(ctx context.Context, shopDomain string) (map[string]int, error)
	ResetAll(ctx context.Context) (int64, error)
}

// Meter enforces and records monthly usage of billable actions.
type Meter struct {
	limits  Limits
	shops   *tenants.Service
	counter Counter
	logger  *zap.Logger
}

// NewMeter constructs a Meter with required dependencies.
func NewMeter(limits Limits, shops *tenants.Service, counter Counter, logger *zap.Logger) (*Meter, error) {
	if shops == nil {
		panic("shops service is required")
	}
	if counter == nil {
		panic("usage counter is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	return &Meter{limits: limits, shops: shops, counter: counter, logger: logger}, nil
}

// CheckAndIncrement atomically consumes one unit of the metric if the shop's
// plan still has headroom. The first billable action for an unknown shop
// creates its record and always succeeds. Persistence failures are returned
// to the caller rather than swallowed: silently allowing or denying without
// recording would corrupt the quota.
func (m *Meter) CheckAndIncrement(ctx context.Context, shopDomain, metric string) (Decision, error) {
	shop, err := m.shops.Ensure(ctx, shopDomain)
	if err != nil {
		return Decision{}, fmt.Errorf("load shop %q: %w", shopDomain, err)
	}

	limit := m.limits.For(shop.Plan, metric)
	if limit == Unlimited {
		if _, _, err := m.counter.IncrementIfBelow(ctx, shop.Domain, metric, Unlimited); err != nil {
			return Decision{}, fmt.Errorf("record usage for %q: %w", shop.Domain, err)
		}
		return Decision{Allowed: true, Remaining: Unlimited, Limit: Unlimited}, nil
	}

	newValue, ok, err := m.counter.IncrementIfBelow(ctx, shop.Domain, metric, limit)
	if err != nil {
		return Decision{}, fmt.Errorf("increment usage for %q: %w", shop.Domain, err)
	}
	if !ok {
		m.logger.Info("usage limit reached",
			zap.String("shop", shop.Domain),
			zap.String("metric", metric),
			zap.Int("limit", limit),
		)
		return Decision{Allowed: false, Remaining: 0, Limit: limit}, nil
	}

	return Decision{Allowed: true, Remaining: limit - newValue, Limit: limit}, nil
}

// Snapshot reports current usage against limits for every known metric of the shop.
func (m *Meter) Snapshot(ctx context.Context, shopDomain string) (map[string]Decision, error) {
	shop, err := m.shops.Get(ctx, shopDomain)
	if err != nil {
		return nil, err
	}

	usage, err := m.counter.Usage(ctx, shop.Domain)
	if err != nil {
		return nil, fmt.Errorf("read usage for %q: %w", shop.Domain, err)
	}

	metrics := map[string]struct{}{}
	for metric := range m.limits.Default {
		metrics[metric] = struct{}{}
	}
	for metric := range usage {
		metrics[metric] = struct{}{}
	}

	report := make(map[string]Decision, len(metrics))
	for metric := range metrics {
		limit := m.limits.For(shop.Plan, metric)
		used := usage[metric]
		remaining := Unlimited
		if limit != Unlimited {
			remaining = limit - used
			if remaining < 0 {
				remaining = 0
			}
		}
		report[metric] = Decision{Allowed: limit == Unlimited || used < limit, Remaining: remaining, Limit: limit}
	}
	return report, nil
}

// ResetAllMonthlyUsage zeroes every shop's counters. Scheduled maintenance,
// not part of the request hot path; increments racing the reset may land on
// either side of it, which is an accepted eventual-consistency boundary.
func (m *Meter) ResetAllMonthlyUsage(ctx context.Context) (int64, error) {
	reset, err := m.counter.ResetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("reset monthly usage: %w", err)
	}
	m.logger.Info("monthly usage reset", zap.Int64("shops", reset))
	return reset, nil
}
