// Package deps loads env-driven configuration and builds the shared service
// graph for CLI commands.
package deps

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	artifactsrepo "github.com/storelens-ai/storelens/domains/artifacts/be/repo"
	artifactsservice "github.com/storelens-ai/storelens/domains/artifacts/be/service"
	"github.com/storelens-ai/storelens/domains/entitlements/be/billing"
	entitlementsrepo "github.com/storelens-ai/storelens/domains/entitlements/be/repo"
	entitlementsservice "github.com/storelens-ai/storelens/domains/entitlements/be/service"
	tenantsrepo "github.com/storelens-ai/storelens/domains/tenants/be/repo"
	tenantsservice "github.com/storelens-ai/storelens/domains/tenants/be/service"
	usagerepo "github.com/storelens-ai/storelens/domains/usage/be/repo"
	usageservice "github.com/storelens-ai/storelens/domains/usage/be/service"
	"github.com/storelens-ai/storelens/platform/go/logging"
	"github.com/storelens-ai/storelens/platform/go/persistence"
	"github.com/storelens-ai/storelens/platform/go/redisconn"
	"github.com/storelens-ai/storelens/platform/go/requesttrace"
)

// Config is the env-driven CLI configuration.
type Config struct {
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	// RedisAddr switches the usage counters to Redis when set; empty keeps
	// counters on the shops table.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	BillingAPIURL  string        `env:"BILLING_API_URL" envDefault:"https://billing.storelens.ai/api/v1"`
	BillingTimeout time.Duration `env:"BILLING_TIMEOUT" envDefault:"5s"`

	PaidPlan         string   `env:"PAID_PLAN" envDefault:"Pro"`
	AllowlistedShops []string `env:"ALLOWLISTED_SHOPS" envSeparator:","`
	SandboxMarkers   []string `env:"SANDBOX_MARKERS" envSeparator:"," envDefault:"-dev.,.test,staging"`

	ArtifactTTL time.Duration `env:"ARTIFACT_TTL" envDefault:"720h"`
}

// Runtime bundles the wired services for a single CLI invocation.
type Runtime struct {
	Cfg      Config
	Logger   *zap.Logger
	Pool     *pgxpool.Pool
	Shops    *tenantsservice.Service
	Meter    *usageservice.Meter
	Resolver *entitlementsservice.Resolver
	Cache    *artifactsservice.Cache

	closers []func()
}

// Load parses configuration and builds the full service graph.
func Load(ctx context.Context) (*Runtime, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewLogger(logging.Config{Component: "admin-cli", Level: cfg.LogLevel})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	run := requesttrace.FromContextOrSystem(ctx)
	logger = logger.With(
		zap.String("run_id", run.RunID),
		zap.String("actor", string(run.ActorKind)),
	)

	rt := &Runtime{Cfg: cfg, Logger: logger}
	rt.closers = append(rt.closers, func() { _ = logger.Sync() })

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: cfg.DatabaseURL})
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("init postgres pool: %w", err)
	}
	rt.Pool = pool
	rt.closers = append(rt.closers, func() { persistence.ClosePool(pool) })

	shopStore, err := persistence.NewShopStore(pool)
	if err != nil {
		rt.Close()
		return nil, err
	}
	sessionStore, err := persistence.NewSessionStore(pool)
	if err != nil {
		rt.Close()
		return nil, err
	}
	artifactStore, err := persistence.NewArtifactStore(pool)
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.Shops = tenantsservice.New(tenantsrepo.NewPostgresRepository(shopStore))

	var counter usageservice.Counter = usagerepo.NewPostgresCounter(shopStore)
	if cfg.RedisAddr != "" {
		client, err := redisconn.NewClient(redisconn.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		rt.closers = append(rt.closers, func() { _ = client.Close() })
		counter = usagerepo.NewRedisCounter(client)
	}

	meter, err := usageservice.NewMeter(usageservice.DefaultLimits(), rt.Shops, counter, logger)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Meter = meter

	billingClient, err := billing.NewClient(cfg.BillingAPIURL, cfg.BillingTimeout)
	if err != nil {
		rt.Close()
		return nil, err
	}

	resolver, err := entitlementsservice.NewResolver(
		entitlementsservice.Config{
			AllowlistedShops: cfg.AllowlistedShops,
			SandboxMarkers:   cfg.SandboxMarkers,
			PaidPlan:         cfg.PaidPlan,
			QueryTimeout:     cfg.BillingTimeout,
		},
		entitlementsrepo.NewPostgresCredentialSource(sessionStore),
		billingClient,
		rt.Shops,
		logger,
	)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Resolver = resolver

	rt.Cache = artifactsservice.NewCache(
		artifactsservice.Config{TTL: cfg.ArtifactTTL},
		artifactsrepo.NewPostgresRepository(artifactStore),
		logger,
	)

	return rt, nil
}

// Close releases every resource acquired by Load, last-in first-out.
func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}
