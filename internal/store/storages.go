// Package store persists the engine's synchronization metadata: per-replica
// version records, common-ancestor snapshots, and unresolved conflicts.
//
// Three backends share the [VersionStore] interface: an embedded SQLite
// database (the default for single-device hosts), a Postgres database for
// shared-storage deployments, and an in-memory store for tests.
package store

import (
	"context"
	"fmt"

	"github.com/mkholodov/obsync/internal/config"
	"github.com/mkholodov/obsync/internal/logger"
)

// New opens the [VersionStore] selected by cfg.Driver, running schema
// migrations for the SQL backends.
func New(ctx context.Context, cfg config.Store, log *logger.Logger) (VersionStore, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemory(), nil

	case "sqlite":
		db, err := NewConnectSQLite(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		if err = db.Migrate(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate sqlite store: %w", err)
		}
		return NewVersionRepository(db, log), nil

	case "postgres":
		db, err := NewConnectPostgres(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		if err = db.Migrate(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate postgres store: %w", err)
		}
		return NewVersionRepository(db, log), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
