package store

import (
	"context"
	"fmt"

	"regportal/internal/config"
	"regportal/internal/registration"
)

// OpenRegistrations returns the registration repository selected by cfg.StoreBackend.
func OpenRegistrations(ctx context.Context, cfg *config.App) (registration.Repository, error) {
	switch cfg.StoreBackend {
	case config.BackendFile:
		return registration.NewFileRepository(cfg.DataFile)
	case config.BackendSQLite:
		db, err := NewSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		repo, err := registration.NewSQLRepository(ctx, db, registration.SQLite)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return repo, nil
	case config.BackendPostgres:
		db, err := NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		repo, err := registration.NewSQLRepository(ctx, db, registration.Postgres)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
