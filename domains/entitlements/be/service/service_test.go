package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	tenantsrepo "github.com/storelens-ai/storelens/domains/tenants/be/repo"
	tenants "github.com/storelens-ai/storelens/domains/tenants/be/service"
)

// stub gateways

type stubCreds struct {
	cred Credential
	err  error
}

func (s stubCreds) LatestOffline(context.Context, string) (Credential, error) {
	return s.cred, s.err
}

type stubBilling struct {
	subs []Subscription
	err  error
}

func (s stubBilling) Subscriptions(context.Context, string, Credential) ([]Subscription, error) {
	return s.subs, s.err
}

func validConfig() Config {
	return Config{
		AllowlistedShops: []string{"vip-demo"},
		SandboxMarkers:   []string{"-dev.", "staging"},
		PaidPlan:         tenants.PlanPro,
		QueryTimeout:     time.Second,
	}
}

func newResolver(t *testing.T, cfg Config, creds CredentialSource, billing SubscriptionQuerier, shops *tenants.Service) *Resolver {
	t.Helper()
	r, err := NewResolver(cfg, creds, billing, shops, zap.NewNop())
	require.NoError(t, err)
	return r
}

func shopsWith(t *testing.T, domain string, plan string, status *string) *tenants.Service {
	t.Helper()
	svc := tenants.New(tenantsrepo.NewMemoryRepository())
	if domain != "" {
		_, err := svc.AssignPlan(context.Background(), domain, plan, status)
		require.NoError(t, err)
	}
	return svc
}

func emptyShops() *tenants.Service {
	return tenants.New(tenantsrepo.NewMemoryRepository())
}

func noCreds() stubCreds {
	return stubCreds{err: ErrNoCredential}
}

func TestConfigRequiresPaidPlan(t *testing.T) {
	_, err := NewResolver(Config{}, noCreds(), stubBilling{}, emptyShops(), zap.NewNop())
	require.Error(t, err)
}

func TestAllowlistedShopAlwaysEntitled(t *testing.T) {
	// No credential, no billing, no persisted record: the allow-list alone grants.
	r := newResolver(t, validConfig(), noCreds(), stubBilling{err: errors.New("unreachable")}, emptyShops())

	require.True(t, r.IsEntitled(context.Background(), "VIP-Demo.example.com"))
}

func TestSandboxInstallBypassesBilling(t *testing.T) {
	r := newResolver(t, validConfig(), noCreds(), stubBilling{err: errors.New("unreachable")}, emptyShops())

	require.True(t, r.IsEntitled(context.Background(), "acme-dev.example.com"))
	require.True(t, r.IsEntitled(context.Background(), "staging-store.example.com"))
}

func TestLiveActiveSubscriptionGrants(t *testing.T) {
	creds := stubCreds{cred: Credential{AccessToken: "tok"}}
	billing := stubBilling{subs: []Subscription{
		{ID: "1", Name: "Pro", Status: tenants.StatusCancelled},
		{ID: "2", Name: "Pro", Status: tenants.StatusActive},
	}}
	r := newResolver(t, validConfig(), creds, billing, emptyShops())

	require.True(t, r.IsEntitled(context.Background(), "acme.example.com"))
}

func TestLiveInactiveFallsThroughToPersistedOverride(t *testing.T) {
	// Remote reports nothing active, but a manually provisioned plan exists.
	creds := stubCreds{cred: Credential{AccessToken: "tok"}}
	billing := stubBilling{subs: []Subscription{{ID: "1", Status: tenants.StatusCancelled}}}
	status := tenants.StatusActive
	shops := shopsWith(t, "acme.example.com", tenants.PlanPro, &status)
	r := newResolver(t, validConfig(), creds, billing, shops)

	require.True(t, r.IsEntitled(context.Background(), "acme.example.com"))
}

func TestBillingFailureFallsThroughToPersisted(t *testing.T) {
	creds := stubCreds{cred: Credential{AccessToken: "tok"}}
	billing := stubBilling{err: errors.New("upstream timeout")}
	status := tenants.StatusActive
	shops := shopsWith(t, "acme.example.com", tenants.PlanPro, &status)
	r := newResolver(t, validConfig(), creds, billing, shops)

	require.True(t, r.IsEntitled(context.Background(), "acme.example.com"))
}

func TestExpiredCredentialSkipsLiveQuery(t *testing.T) {
	expired := time.Now().Add(-time.Hour)
	creds := stubCreds{cred: Credential{AccessToken: "tok", ExpiresAt: &expired}}
	// Billing would grant, but must never be called with a dead credential.
	billing := stubBilling{subs: []Subscription{{Status: tenants.StatusActive}}}
	r := newResolver(t, validConfig(), creds, billing, emptyShops())

	require.False(t, r.IsEntitled(context.Background(), "acme.example.com"))
}

func TestEmptyTokenSkipsLiveQuery(t *testing.T) {
	creds := stubCreds{cred: Credential{AccessToken: "   "}}
	billing := stubBilling{subs: []Subscription{{Status: tenants.StatusActive}}}
	r := newResolver(t, validConfig(), creds, billing, emptyShops())

	require.False(t, r.IsEntitled(context.Background(), "acme.example.com"))
}

func TestPersistedProActive(t *testing.T) {
	status := tenants.StatusActive
	shops := shopsWith(t, "acme.example.com", tenants.PlanPro, &status)
	r := newResolver(t, validConfig(), noCreds(), stubBilling{}, shops)

	require.True(t, r.IsEntitled(context.Background(), "acme.example.com"))
}

func TestPersistedProCancelled(t *testing.T) {
	status := tenants.StatusCancelled
	shops := shopsWith(t, "acme.example.com", tenants.PlanPro, &status)
	r := newResolver(t, validConfig(), noCreds(), stubBilling{}, shops)

	require.False(t, r.IsEntitled(context.Background(), "acme.example.com"))
}

func TestPersistedProNilStatusTreatedAsActive(t *testing.T) {
	shops := shopsWith(t, "acme.example.com", tenants.PlanPro, nil)
	r := newResolver(t, validConfig(), noCreds(), stubBilling{}, shops)

	require.True(t, r.IsEntitled(context.Background(), "acme.example.com"))
}

func TestUnknownShopDenied(t *testing.T) {
	r := newResolver(t, validConfig(), noCreds(), stubBilling{}, emptyShops())

	require.False(t, r.IsEntitled(context.Background(), "nobody.example.com"))
}

func TestMalformedDomainsNeverPanic(t *testing.T) {
	r := newResolver(t, validConfig(), noCreds(), stubBilling{}, emptyShops())
	ctx := context.Background()

	for _, domain := range []string{"", "   ", "\x00", "not a domain", "UPPER.CASE"} {
		require.False(t, r.IsEntitled(ctx, domain))
	}
}

func TestCredentialLookupFailureDegradesToPersisted(t *testing.T) {
	creds := stubCreds{err: errors.New("session store down")}
	status := tenants.StatusActive
	shops := shopsWith(t, "acme.example.com", tenants.PlanPro, &status)
	r := newResolver(t, validConfig(), creds, stubBilling{}, shops)

	require.True(t, r.IsEntitled(context.Background(), "acme.example.com"))
}
