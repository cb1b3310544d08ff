package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mkholodov/obsync/internal/config"
	"github.com/mkholodov/obsync/internal/logger"
)

// NewConnectPostgres opens the shared-storage Postgres backend at cfg.DSN.
// Used when several replicas meet over a shared database instead of each
// keeping an embedded store; Postgres row locking then serialises commits
// for the same (document, replica) pair across processes, so no file lock
// is needed.
func NewConnectPostgres(ctx context.Context, cfg config.Store, log *logger.Logger) (*DB, error) {
	conn, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		log.Err(err).Str("func", "NewConnectPostgres").Msg("error occured during database connection")
		return nil, fmt.Errorf("error occured during database connection: %w", err)
	}

	conn.SetMaxOpenConns(4)

	if err = conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		log.Err(err).Str("func", "NewConnectPostgres").Msg("error connecting database (ping)")
		return nil, err
	}
	log.Info().Str("func", "NewConnectPostgres").Msg("connected to database successfully")

	db := &DB{
		DB:                 conn,
		dialect:            "postgres",
		errorClassificator: NewPostgresErrorClassifier(),
		logger:             log,
	}

	return db, nil
}
