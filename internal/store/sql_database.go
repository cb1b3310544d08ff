package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofrs/flock"
	"github.com/sethvargo/go-retry"

	"github.com/mkholodov/obsync/internal/logger"
	"github.com/mkholodov/obsync/migrations"
)

// ErrorClassification is the result type returned by
// [ErrorClassificator.Classify]. It indicates whether a failed database
// operation should be retried or abandoned.
type ErrorClassification int

const (
	// NonRetryable indicates that the failed operation should not be
	// retried. This is the default classification for unrecognised
	// errors, constraint violations, and data exceptions.
	NonRetryable ErrorClassification = iota

	// Retryable indicates that the failed operation may succeed if
	// attempted again (e.g. after a busy database file, a transient
	// connection loss, or a deadlock rollback).
	Retryable
)

// DB wraps an open database connection together with the backend's error
// classifier, its goose dialect, and an optional cross-process file lock
// (SQLite only).
type DB struct {
	*sql.DB
	dialect            string
	errorClassificator ErrorClassificator
	fileLock           *flock.Flock
	logger             *logger.Logger
}

// Migrate applies all pending schema migrations for the backend's dialect.
func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB, db.dialect)
}

// Close closes the connection and releases the cross-process lock if one is
// held.
func (db *DB) Close() error {
	err := db.DB.Close()
	if db.fileLock != nil {
		if unlockErr := db.fileLock.Unlock(); err == nil {
			err = unlockErr
		}
	}
	return err
}

// Commit retry policy: short constant backoff, bounded attempts. A busy
// SQLite file or a serialization failure on Postgres resolves within a few
// tries; anything longer is surfaced to the caller.
const (
	retryAttempts = 4
	retryDelay    = 50 * time.Millisecond
)

// withRetry runs op, retrying it when the backend classifies the failure as
// transient.
func (db *DB) withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(retryAttempts, retry.NewConstant(retryDelay))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := op(ctx)
		if err != nil && db.errorClassificator.Classify(err) == Retryable {
			return retry.RetryableError(err)
		}
		return err
	})
}
