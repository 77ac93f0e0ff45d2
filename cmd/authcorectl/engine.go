package main

import (
	"context"
	"log/slog"

	"github.com/samber/oops"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/session"
	"github.com/MrEthical07/authcore/storage"
)

func openDB(ctx context.Context, cfg *cliConfig) (*storage.DB, error) {
	dialect, err := storage.ParseDialect(cfg.Database.Driver)
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("driver", cfg.Database.Driver).Wrap(err)
	}
	if cfg.Database.DSN == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("database.dsn is required")
	}

	db, err := storage.Open(ctx, dialect, cfg.Database.DSN)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	return db, nil
}

// offlineEngine builds an Engine for one-shot commands. Sessions live in
// memory and die with the process.
func offlineEngine(cfg *cliConfig, db *storage.DB, logger *slog.Logger) (*authcore.Engine, error) {
	auth := cfg.Auth
	if auth.Session.TicketKey == "" {
		key, err := ephemeralTicketKey()
		if err != nil {
			return nil, oops.Code("INTERNAL").Wrap(err)
		}
		auth.Session.TicketKey = key
	}

	engine, err := authcore.New().
		WithConfig(auth).
		WithDB(db).
		WithSessionStore(session.NewMemoryStore(nil)).
		WithLogger(logger).
		Build()
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "build engine").Wrap(err)
	}
	return engine, nil
}
