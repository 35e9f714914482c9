// Command migrate manages the EcoFinds schema. Schema commands apply the
// migrations compiled into the binary; only create and validate touch the
// migrations directory on disk.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"slices"

	"github.com/ecofinds/ecofinds-core/pkg/config"
	"github.com/ecofinds/ecofinds-core/pkg/db"
	"github.com/ecofinds/ecofinds-core/pkg/logger"
	"github.com/ecofinds/ecofinds-core/pkg/migrate"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

const usage = `usage: migrate -cmd <command> [flags]

schema commands (embedded migrations, need ECOFINDS_DB_* settings):
  up        apply every pending migration (sqlite: gorm auto-migrate)
  down      roll back the latest migration
  status    print applied and pending migrations
  version   move the schema to -version, up or down

source commands (no database):
  create    write a new migration named -name into -dir
  validate  check -dir and the embedded set for naming and goose markers

New files in -dir are picked up by the schema commands after a rebuild.

flags:
`

// sourceCommands never open a database.
var sourceCommands = []string{"create", "validate"}

// schemaCommands are the goose commands run against the embedded set.
var schemaCommands = []string{"up", "down", "status", "version"}

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "command to run, see above")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "migrations source directory, read by create and validate")
	flag.StringVar(&opts.name, "name", "", "slug of the migration to create")
	flag.StringVar(&opts.version, "version", "", "target schema version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": opts.cmd,
	})

	if err := run(ctx, cfg, logg, opts); err != nil {
		logg.Error(ctx, "migrate failed", err)
		fmt.Fprintf(os.Stderr, "migrate -cmd=%s: %v\n", opts.cmd, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, opts options) (err error) {
	switch {
	case slices.Contains(sourceCommands, opts.cmd):
		return runSource(ctx, logg, opts)
	case !slices.Contains(schemaCommands, opts.cmd):
		flag.Usage()
		return fmt.Errorf("unknown command %q", opts.cmd)
	case opts.cmd == "version" && opts.version == "":
		return errors.New("-version is required")
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if dbClient.Driver() == config.DBDriverSQLite {
		// The embedded set is postgres SQL; sqlite schemas come from the models.
		if opts.cmd != "up" {
			return fmt.Errorf("sqlite only supports up, use postgres for %s", opts.cmd)
		}
		return migrate.AutoMigrate(ctx, logg, dbClient)
	}

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	logg.Info(ctx, "applying embedded migrations")
	if opts.cmd == "version" {
		return migrate.MigrateToVersion(ctx, sqlDB, opts.version)
	}
	return migrate.Run(ctx, sqlDB, opts.cmd)
}

func runSource(ctx context.Context, logg *logger.Logger, opts options) error {
	ctx = logg.WithField(ctx, "dir", opts.dir)
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return errors.New("-name is required")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return err
		}
		logg.Info(logg.WithField(ctx, "path", path), "migration created")
		fmt.Println("created migration:", path)
	case "validate":
		if err := multierr.Append(migrate.ValidateDir(opts.dir), migrate.ValidateEmbedded()); err != nil {
			return err
		}
		fmt.Println("migrations valid")
	}
	return nil
}
