package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ecofinds/ecofinds-core/internal/catalog"
	"github.com/ecofinds/ecofinds-core/pkg/config"
	"github.com/ecofinds/ecofinds-core/pkg/db"
	"github.com/ecofinds/ecofinds-core/pkg/logger"
	"github.com/ecofinds/ecofinds-core/pkg/migrate"
	"github.com/joho/godotenv"
)

// seed loads the demo sellers and products into the configured database.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "schema", err)

	inserted, err := catalog.SeedDemo(ctx, dbClient)
	if err != nil {
		logg.Error(ctx, "seeding demo catalog failed", err)
		os.Exit(1)
	}

	logg.Info(logg.WithField(ctx, "inserted", inserted), "demo catalog seeded")
	fmt.Printf("seeded %d demo products\n", inserted)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
