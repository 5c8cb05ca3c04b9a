package main

import (
	"context"
	"flag"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/lingocode/internal/config"
	"github.com/Rrens/lingocode/internal/logging"
	"github.com/Rrens/lingocode/internal/repository/postgres"
	"github.com/Rrens/lingocode/internal/repository/sqlite"
)

func main() {
	driver := flag.String("driver", "", "database driver (postgres or sqlite); defaults to the configured driver")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Read()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *driver != "" {
		cfg.Database.Driver = *driver
	}

	closer, err := logging.Setup(cfg.Logging, cfg.IsProduction())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}
	defer closer.Close()

	switch cfg.Database.Driver {
	case "postgres":
		log.Info().Str("host", cfg.Database.Host).Int("port", cfg.Database.Port).Msg("Migrating postgres")
		if err := postgres.RunMigrations(cfg.Database.DSN()); err != nil {
			log.Fatal().Err(err).Msg("Migration failed")
		}
	case "sqlite":
		log.Info().Str("path", cfg.Database.SQLitePath).Msg("Migrating sqlite")
		// Open applies pending migrations
		db, err := sqlite.Open(context.Background(), cfg.Database.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Migration failed")
		}
		_ = db.Close()
	default:
		log.Fatal().Str("driver", cfg.Database.Driver).Msg("Unsupported database driver")
	}
}
