package service

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Errors returned by the service layer.
var (
	ErrNotFound      = errors.New("shop not found")
	ErrInvalidDomain = errors.New("shop domain is required")
)

// Plan names recognized by the billing integration.
const (
	PlanPro = "Pro"
)

// Subscription status vocabulary mirrored from the remote billing system.
// A nil stored status is treated as active for shops provisioned before
// status tracking existed.
const (
	StatusActive    = "ACTIVE"
	StatusCancelled = "CANCELLED"
	StatusExpired   = "EXPIRED"
)

// Shop represents the domain model for one installed store.
type Shop struct {
	Domain             string
	Plan               *string
	SubscriptionStatus *string
	PlanStartedAt      *time.Time
	MonthlyUsage       map[string]int
	ReferralCode       *string
	ReferrerPayoutID   *string
	InstalledAt        time.Time
}

// HasPaidPlan reports whether the shop's persisted plan matches the given paid plan
// and its stored subscription status does not contradict it.
func (s Shop) HasPaidPlan(paidPlan string) bool {
	if s.Plan == nil || *s.Plan != paidPlan {
		return false
	}
	return s.SubscriptionStatus == nil || *s.SubscriptionStatus == StatusActive
}

// Repository abstracts persistence for shop records.
type Repository interface {
	Get(ctx context.Context, domain string) (Shop, error)
	Ensure(ctx context.Context, domain string) (Shop, error)
	SetPlan(ctx context.Context, domain, plan string, status *string) (Shop, error)
}

// Service provides shop registry operations.
type Service struct {
	repo Repository
}

// New constructs a Service with required dependencies.
func New(repo Repository) *Service {
	if repo == nil {
		panic("shops repo is required")
	}
	return &Service{repo: repo}
}

// NormalizeDomain lowercases and trims a shop domain so lookups are stable
// regardless of how the caller sourced the identifier.
func NormalizeDomain(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}

// Get returns a shop by domain.
func (s *Service) Get(ctx context.Context, domain string) (Shop, error) {
	domain = NormalizeDomain(domain)
	if domain == "" {
		return Shop{}, ErrInvalidDomain
	}
	return s.repo.Get(ctx, domain)
}

// Ensure returns the shop, creating an empty record on first contact.
// Records are created lazily on the first billable action or plan assignment.
func (s *Service) Ensure(ctx context.Context, domain string) (Shop, error) {
	domain = NormalizeDomain(domain)
	if domain == "" {
		return Shop{}, ErrInvalidDomain
	}
	return s.repo.Ensure(ctx, domain)
}

// AssignPlan records a plan change, stamping the plan start date.
// Called by the billing webhook handler when a subscription is created or updated.
func (s *Service) AssignPlan(ctx context.Context, domain, plan string, status *string) (Shop, error) {
	domain = NormalizeDomain(domain)
	if domain == "" {
		return Shop{}, ErrInvalidDomain
	}
	if strings.TrimSpace(plan) == "" {
		return Shop{}, errors.New("plan name is required")
	}
	return s.repo.SetPlan(ctx, domain, plan, status)
}
