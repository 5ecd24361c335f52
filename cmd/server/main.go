package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/authorityengine/billing/modules/billing"
	"github.com/authorityengine/billing/pkg/catalog"
	"github.com/authorityengine/billing/pkg/checkout"
	"github.com/authorityengine/billing/pkg/config"
	"github.com/authorityengine/billing/pkg/entitlement"
	"github.com/authorityengine/billing/pkg/httpserver"
	"github.com/authorityengine/billing/pkg/logger"
	"github.com/authorityengine/billing/pkg/pg"
	"github.com/authorityengine/billing/pkg/redis"
	"github.com/authorityengine/billing/pkg/subscription"
	"github.com/authorityengine/billing/pkg/usage"
)

type appConfig struct {
	Log    logger.Config
	HTTP   httpserver.Config
	PG     pg.Config
	Redis  redis.Config
	Paddle checkout.PaddleConfig
	Policy subscription.Config

	// UsageStore selects the counter engine: "postgres" or "redis".
	UsageStore    string        `env:"USAGE_STORE" envDefault:"postgres"`
	SweepInterval time.Duration `env:"BILLING_SWEEP_INTERVAL" envDefault:"1h"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.MustLoad[appConfig]()

	log := logger.New(cfg.Log, logger.WithAttr(slog.String("app", "billing")))
	slog.SetDefault(log)

	if err := run(ctx, cfg, log); err != nil {
		log.ErrorContext(ctx, "server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.PG, log); err != nil {
		return err
	}

	readiness := []func(context.Context) error{pg.Healthcheck(pool)}

	subStore := subscription.NewPostgresStore(pool)
	subs := subscription.NewService(subStore,
		subscription.WithGracePeriodHours(int(cfg.Policy.GracePeriod.Hours())),
		subscription.WithLogger(log))

	var usageStore usage.Store
	switch cfg.UsageStore {
	case "redis":
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		usageStore = usage.NewRedisStore(client)
		readiness = append(readiness, redis.Healthcheck(client))
	default:
		usageStore = usage.NewPostgresStore(pool)
	}

	cat := catalog.Default()
	ledger := usage.NewLedger(cat, subs, usageStore, usage.WithLogger(log))
	resolver := entitlement.NewResolver(cat, subs, ledger, entitlement.WithLogger(log))

	provider, err := checkout.NewPaddleProvider(cfg.Paddle)
	if err != nil {
		return err
	}
	checkoutSvc := checkout.NewService(cat, checkout.NewPostgresStore(pool), subs, provider,
		checkout.WithLogger(log))

	monitor := subscription.NewMonitor(subStore, subscription.WithMonitorLogger(log))
	go monitor.Run(ctx, cfg.SweepInterval)

	module := billing.New(billing.Deps{
		Catalog:  cat,
		Resolver: resolver,
		Ledger:   ledger,
		Subs:     subs,
		Checkout: checkoutSvc,
		Provider: provider,
		Log:      log,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", httpserver.HealthCheckHandler(log))
	r.Get("/readyz", httpserver.HealthCheckHandler(log, readiness...))
	r.Mount("/billing", module.Router())

	return httpserver.New(cfg.HTTP, log).Run(ctx, r)
}
