package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	tenants "github.com/storelens-ai/storelens/domains/tenants/be/service"
)

// ErrNoCredential is returned by a CredentialSource when no usable offline
// credential exists for the shop.
var ErrNoCredential = errors.New("no offline credential")

// Credential is a persisted non-interactive access credential for a shop.
type Credential struct {
	AccessToken string
	ExpiresAt   *time.Time // nil means a non-expiring offline token
}

// Usable reports whether the credential can back a live billing query.
func (c Credential) Usable(now time.Time) bool {
	if strings.TrimSpace(c.AccessToken) == "" {
		return false
	}
	return c.ExpiresAt == nil || c.ExpiresAt.After(now)
}

// Subscription mirrors one entry of the remote billing system's subscription list.
type Subscription struct {
	ID     string
	Name   string
	Status string
	IsTest bool
}

// CredentialSource looks up the freshest offline credential for a shop.
type CredentialSource interface {
	LatestOffline(ctx context.Context, shopDomain string) (Credential, error)
}

// SubscriptionQuerier queries the remote billing system with a shop credential.
type SubscriptionQuerier interface {
	Subscriptions(ctx context.Context, shopDomain string, cred Credential) ([]Subscription, error)
}

// Config is the static entitlement configuration, injected at construction.
type Config struct {
	// AllowlistedShops grants unconditional access when the shop domain
	// contains any of these entries (case-insensitive). Operator-designated
	// demo/VIP accounts live here.
	AllowlistedShops []string
	// SandboxMarkers are substrings identifying development or staging
	// installs that bypass billing (e.g. "-dev.", "staging").
	SandboxMarkers []string
	// PaidPlan is the plan name that grants access via the persisted fallback.
	PaidPlan string
	// QueryTimeout bounds the live billing query.
	QueryTimeout time.Duration
}

// Validate rejects a configuration the resolver cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.PaidPlan) == "" {
		return fmt.Errorf("entitlements config: paid plan name is required")
	}
	return nil
}

const defaultQueryTimeout = 5 * time.Second

// verdict is the tri-state outcome of one strategy in the fallback chain.
type verdict int

const (
	verdictUnknown verdict = iota // this strategy yielded no answer
	verdictGranted
	verdictDenied
)

type strategy func(ctx context.Context, shopDomain string) verdict

// Resolver decides whether a shop currently has paid access. It runs an
// ordered chain of increasingly less authoritative checks, stopping at the
// first definitive answer; every external failure just moves it down the
// chain, so callers never see an error.
type Resolver struct {
	cfg     Config
	creds   CredentialSource
	billing SubscriptionQuerier
	shops   *tenants.Service
	logger  *zap.Logger
	now     func() time.Time
}

// NewResolver constructs a Resolver; the configuration is validated up front.
func NewResolver(cfg Config, creds CredentialSource, billing SubscriptionQuerier, shops *tenants.Service, logger *zap.Logger) (*Resolver, error) {
	if creds == nil {
		panic("credential source is required")
	}
	if billing == nil {
		panic("subscription querier is required")
	}
	if shops == nil {
		panic("shops service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = defaultQueryTimeout
	}
	return &Resolver{
		cfg:     cfg,
		creds:   creds,
		billing: billing,
		shops:   shops,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// IsEntitled reports whether the shop has paid access right now.
// Read-only, never errors; exhausting the chain defaults to false.
func (r *Resolver) IsEntitled(ctx context.Context, shopDomain string) bool {
	shop := tenants.NormalizeDomain(shopDomain)
	if shop == "" {
		return false
	}

	chain := []strategy{
		r.allowlisted,
		r.sandboxInstall,
		r.liveSubscription,
		r.persistedPlan,
	}
	for _, check := range chain {
		switch check(ctx, shop) {
		case verdictGranted:
			return true
		case verdictDenied:
			return false
		}
	}
	return false
}

func (r *Resolver) allowlisted(_ context.Context, shopDomain string) verdict {
	for _, entry := range r.cfg.AllowlistedShops {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry != "" && strings.Contains(shopDomain, entry) {
			return verdictGranted
		}
	}
	return verdictUnknown
}

func (r *Resolver) sandboxInstall(_ context.Context, shopDomain string) verdict {
	for _, marker := range r.cfg.SandboxMarkers {
		marker = strings.ToLower(strings.TrimSpace(marker))
		if marker != "" && strings.Contains(shopDomain, marker) {
			return verdictGranted
		}
	}
	return verdictUnknown
}

// liveSubscription asks the billing system directly. It can grant but never
// deny: a shop without an active remote subscription may still hold a
// manually provisioned plan, which the persisted fallback covers.
func (r *Resolver) liveSubscription(ctx context.Context, shopDomain string) verdict {
	cred, err := r.creds.LatestOffline(ctx, shopDomain)
	if err != nil {
		if !errors.Is(err, ErrNoCredential) {
			r.logger.Debug("credential lookup failed", zap.String("shop", shopDomain), zap.Error(err))
		}
		return verdictUnknown
	}
	if !cred.Usable(r.now()) {
		return verdictUnknown
	}

	queryCtx, cancel := context.WithTimeout(ctx, r.cfg.QueryTimeout)
	defer cancel()

	subs, err := r.billing.Subscriptions(queryCtx, shopDomain, cred)
	if err != nil {
		r.logger.Debug("live subscription query failed", zap.String("shop", shopDomain), zap.Error(err))
		return verdictUnknown
	}

	for _, sub := range subs {
		// Trial and credit-funded subscriptions report as active too.
		if sub.Status == tenants.StatusActive {
			return verdictGranted
		}
	}
	return verdictUnknown
}

// persistedPlan is the terminal check over the stored shop record.
// Missing record or read failure fails closed.
func (r *Resolver) persistedPlan(ctx context.Context, shopDomain string) verdict {
	shop, err := r.shops.Get(ctx, shopDomain)
	if err != nil {
		if !errors.Is(err, tenants.ErrNotFound) {
			r.logger.Warn("shop lookup failed, denying entitlement", zap.String("shop", shopDomain), zap.Error(err))
		}
		return verdictDenied
	}
	if shop.HasPaidPlan(r.cfg.PaidPlan) {
		return verdictGranted
	}
	return verdictDenied
}
