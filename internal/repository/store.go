// Package repository selects and opens the relational store configured for
// the server.
package repository

import (
	"context"
	"fmt"

	"github.com/Rrens/lingocode/internal/config"
	"github.com/Rrens/lingocode/internal/domain"
	"github.com/Rrens/lingocode/internal/repository/postgres"
	"github.com/Rrens/lingocode/internal/repository/sqlite"
)

// Store bundles the repositories backed by one database
type Store struct {
	Users         domain.UserRepository
	Profiles      domain.ProfileRepository
	History       domain.HistoryRepository
	RefreshTokens domain.RefreshTokenRepository

	db interface {
		Ping(ctx context.Context) error
		Close() error
	}
}

// Open connects to the configured driver and applies pending migrations
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	switch cfg.Driver {
	case "postgres":
		if err := postgres.RunMigrations(cfg.DSN()); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		db, err := postgres.NewDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Store{
			Users:         postgres.NewUserRepository(db.Pool),
			Profiles:      postgres.NewProfileRepository(db.Pool),
			History:       postgres.NewHistoryRepository(db.Pool),
			RefreshTokens: postgres.NewRefreshTokenRepository(db.Pool),
			db:            db,
		}, nil
	case "sqlite":
		return OpenSQLite(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}
}

// OpenSQLite opens a SQLite-backed store at path
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	db, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Store{
		Users:         sqlite.NewUserRepository(db.SQL),
		Profiles:      sqlite.NewProfileRepository(db.SQL),
		History:       sqlite.NewHistoryRepository(db.SQL),
		RefreshTokens: sqlite.NewRefreshTokenRepository(db.SQL),
		db:            db,
	}, nil
}

// Ping verifies database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close releases the database handle
func (s *Store) Close() error {
	return s.db.Close()
}
