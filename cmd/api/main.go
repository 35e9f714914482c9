package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecofinds/ecofinds-core/api/controllers"
	"github.com/ecofinds/ecofinds-core/api/routes"
	"github.com/ecofinds/ecofinds-core/internal/app"
	"github.com/ecofinds/ecofinds-core/internal/catalog"
	"github.com/ecofinds/ecofinds-core/internal/routeguard"
	"github.com/ecofinds/ecofinds-core/internal/snapshot"
	"github.com/ecofinds/ecofinds-core/pkg/auth/session"
	"github.com/ecofinds/ecofinds-core/pkg/config"
	"github.com/ecofinds/ecofinds-core/pkg/db"
	"github.com/ecofinds/ecofinds-core/pkg/logger"
	"github.com/ecofinds/ecofinds-core/pkg/metrics"
	"github.com/ecofinds/ecofinds-core/pkg/migrate"
	"github.com/ecofinds/ecofinds-core/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
)

// Snapshots outlive the client cookie so a returning browser is restored.
const snapshotTTL = 31 * 24 * time.Hour

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	ready := map[string]controllers.Pinger{"db": nil, "redis": nil}

	var dbClient *db.Client
	if cfg.Gateway.Mode == config.GatewayModeSQL || cfg.FeatureFlags.UseSQLite {
		dbClient, err = db.New(ctx, cfg.DB, logg)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, dbClient.Close()) }()
		ready["db"] = dbClient

		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			return err
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, redisClient.Close()) }()
		ready["redis"] = redisClient
	}

	var sessions *session.Manager
	if redisClient != nil {
		sessions, err = session.NewManager(redisClient, cfg.JWT.AccessTTL())
		if err != nil {
			return err
		}
	} else {
		logg.Warn(ctx, "redis not configured, access sessions kept in memory")
		sessions = session.NewMemoryManager(cfg.JWT.AccessTTL())
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	storeMetrics := metrics.NewStoreMetrics(reg)
	httpMetrics := metrics.NewHTTPMetrics(reg)

	snapshots, err := snapshot.NewFactory(cfg.Snapshot, redisClient, snapshotTTL)
	if err != nil {
		return err
	}
	gateways, err := app.NewGatewayFactory(app.GatewayDeps{
		Config:   cfg,
		DB:       dbClient,
		Sessions: sessions,
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	// The catalog reads with the anonymous key and is shared by every client.
	catalogGateway, err := gateways(nil)
	if err != nil {
		return err
	}
	cache, err := catalog.NewCache(catalog.CacheParams{
		Gateway:  catalogGateway,
		Interval: cfg.Catalog.RefreshInterval,
		Logger:   logg,
		Metrics:  storeMetrics,
	})
	if err != nil {
		return err
	}
	go cache.Run(ctx)

	registry, err := app.NewRegistry(app.RegistryParams{
		Gateways:    gateways,
		Snapshots:   snapshots,
		SnapshotKey: cfg.Snapshot.Key,
		Cache:       cache,
		SearchDelay: cfg.Search.Latency,
		IdleTTL:     cfg.Clients.IdleTTL,
		Logger:      logg,
		Metrics:     storeMetrics,
	})
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, registry.Close()) }()
	go registry.Run(ctx)

	deps := routes.Deps{
		Config:   cfg,
		Logger:   logg,
		Registry: registry,
		Routes:   routeguard.Default(),
		Ready:    ready,
		Metrics:  httpMetrics,
		Gatherer: reg,
	}
	if redisClient != nil {
		deps.RateLimiter = redisClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"gateway_mode": cfg.Gateway.Mode,
		"snapshots":    cfg.Snapshot.Backend,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
