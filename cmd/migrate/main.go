package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/flexprice/flexgym/internal/config"
	"github.com/flexprice/flexgym/internal/logger"
	"github.com/flexprice/flexgym/migrations"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	source, err := iofs.New(migrations.Postgres, migrations.PostgresDir)
	if err != nil {
		logger.Fatalw("Failed to open embedded migrations", "error", err)
	}

	logger.Infow("Connecting to database",
		"host", cfg.Postgres.Host,
		"dbname", cfg.Postgres.DBName,
	)

	m, err := migrate.NewWithSourceInstance("iofs", source, cfg.Postgres.GetMigrateURL())
	if err != nil {
		logger.Fatalw("Failed to initialise migrations", "error", err)
	}
	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			logger.Errorw("Failed to close migration resources", "source_error", sourceErr, "db_error", dbErr)
		}
	}()

	switch command := flag.Arg(0); command {
	case "up":
		err = m.Up()
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			logger.Info("No change: database is already up to date")
		case err != nil:
			logger.Fatalw("Failed to run migrations", "error", err)
		default:
			logger.Info("Migrations applied successfully")
		}

	case "down":
		if err := m.Steps(-1); err != nil {
			logger.Fatalw("Failed to roll back the last migration", "error", err)
		}
		logger.Info("Last migration rolled back")

	case "goto":
		if flag.NArg() < 2 {
			logger.Fatal("goto needs a version number")
		}
		version, err := strconv.ParseUint(flag.Arg(1), 10, 64)
		if err != nil {
			logger.Fatalw("Invalid version number", "error", err)
		}
		err = m.Migrate(uint(version))
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			logger.Infow("No change: database is already at version", "version", version)
		case err != nil:
			logger.Fatalw("Failed to migrate", "version", version, "error", err)
		default:
			logger.Infow("Migrated", "version", version)
		}

	case "status":
		version, dirty, err := m.Version()
		switch {
		case errors.Is(err, migrate.ErrNilVersion):
			logger.Info("No migrations have been applied")
		case err != nil:
			logger.Fatalw("Failed to read migration version", "error", err)
		default:
			logger.Infow("Current migration version", "version", version, "dirty", dirty)
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: migrate [command]")
	fmt.Println("Commands:")
	fmt.Println("  up     - apply all pending migrations")
	fmt.Println("  down   - roll back the last migration")
	fmt.Println("  goto N - migrate to version N")
	fmt.Println("  status - print the current migration version")
}
