package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/gofrs/flock"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mkholodov/obsync/internal/config"
	"github.com/mkholodov/obsync/internal/logger"
)

// NewConnectSQLite opens (creating if necessary) the embedded SQLite
// database at cfg.DSN and takes an exclusive cross-process lock next to it,
// so two engine processes cannot commit into the same store concurrently.
//
// The connection is opened with synchronous=FULL: a commit must be durable
// on disk before Commit returns, which is what makes reclassification after
// a crash safe.
func NewConnectSQLite(ctx context.Context, cfg config.Store, log *logger.Logger) (*DB, error) {
	if err := createLocalDBFileIfNotExists(cfg.DSN); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error creating database file")
		return nil, fmt.Errorf("error creating database file: %w", err)
	}

	fileLock := flock.New(cfg.DSN + ".lock")
	locked, err := fileLock.TryLock()
	if err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error acquiring store lock")
		return nil, fmt.Errorf("error acquiring store lock: %w", err)
	}
	if !locked {
		return nil, ErrStoreLocked
	}

	dsn := fmt.Sprintf("file:%s?_synchronous=FULL&_busy_timeout=5000&_foreign_keys=on", cfg.DSN)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		_ = fileLock.Unlock()
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error connecting database")
		return nil, fmt.Errorf("error opening connection to DB: %w", err)
	}

	// SQLite serialises writers internally; more than one connection only
	// multiplies busy errors.
	conn.SetMaxOpenConns(1)

	if err = conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		_ = fileLock.Unlock()
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error connecting database (ping)")
		return nil, err
	}
	log.Debug().Str("func", "NewConnectSQLite").Msg("connected to database successfully")

	db := &DB{
		DB:                 conn,
		dialect:            "sqlite3",
		errorClassificator: NewSQLiteErrorClassifier(),
		fileLock:           fileLock,
		logger:             log,
	}

	return db, nil
}

func createLocalDBFileIfNotExists(dbFile string) error {
	if _, err := os.Stat(dbFile); os.IsNotExist(err) {
		// if not found - create
		f, err := os.Create(dbFile)
		if err != nil {
			return fmt.Errorf("error creating DB file: %w", err)
		}
		f.Close()
	}

	// file already exists
	return nil
}
