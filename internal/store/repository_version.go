package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/mkholodov/obsync/internal/logger"
	"github.com/mkholodov/obsync/models"
)

// versionRepository is the SQL-backed implementation of [VersionStore]. One
// implementation serves both the embedded SQLite backend and the
// shared-storage Postgres backend: the queries use dollar placeholders and
// upsert syntax both dialects accept, and driver differences are confined
// to the [DB] wrapper (connection setup, error classification, locking).
type versionRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewVersionRepository constructs a [VersionStore] backed by the provided
// database connection.
func NewVersionRepository(db *DB, log *logger.Logger) VersionStore {
	return &versionRepository{
		db:     db,
		logger: log,
	}
}

// Get implements [VersionStore].
func (r *versionRepository) Get(ctx context.Context, documentID, replicaID string) (models.VersionRecord, error) {
	query, args, err := buildGetVersionRecordQuery(documentID, replicaID)
	if err != nil {
		return models.VersionRecord{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var record models.VersionRecord
	row := r.db.QueryRowContext(ctx, query, args...)
	err = row.Scan(
		&record.DocumentID,
		&record.ReplicaID,
		&record.LastSyncedFingerprint.Content,
		&record.LastSyncedFingerprint.Structure,
		&record.CausalClock,
		&record.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.VersionRecord{}, ErrRecordNotFound
	}
	if err != nil {
		return models.VersionRecord{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	if err = checkRecordInvariants(record); err != nil {
		r.logger.Err(err).
			Str("func", "versionRepository.Get").
			Str("document_id", documentID).
			Str("replica_id", replicaID).
			Msg("version record violates store invariants")
		return models.VersionRecord{}, err
	}

	return record, nil
}

// Commit implements [VersionStore]. The clock advance and fingerprint
// replacement happen in a single upsert statement, so a crash leaves either
// the old row or the new one. Transient backend failures are retried.
func (r *versionRepository) Commit(ctx context.Context, documentID, replicaID string, fp models.Fingerprint) (models.VersionRecord, error) {
	if err := checkFingerprint(fp); err != nil {
		return models.VersionRecord{}, err
	}

	record := models.VersionRecord{
		DocumentID:            documentID,
		ReplicaID:             replicaID,
		LastSyncedFingerprint: fp,
	}

	err := r.db.withRetry(ctx, func(ctx context.Context) error {
		row := r.db.QueryRowContext(ctx, commitVersionRecord,
			documentID, replicaID, fp.Content, fp.Structure, time.Now().UTC())
		return row.Scan(&record.CausalClock, &record.UpdatedAt)
	})
	if err != nil {
		r.logger.Err(err).
			Str("func", "versionRepository.Commit").
			Str("document_id", documentID).
			Str("replica_id", replicaID).
			Msg("failed to commit version record")
		return models.VersionRecord{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if record.CausalClock <= 0 {
		return models.VersionRecord{}, fmt.Errorf("%w: commit produced clock %d for %s/%s",
			ErrStoreCorrupted, record.CausalClock, documentID, replicaID)
	}

	return record, nil
}

// Remove implements [VersionStore].
func (r *versionRepository) Remove(ctx context.Context, documentID string) error {
	queries, args, err := buildRemoveDocumentQueries(documentID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return r.db.withRetry(ctx, func(ctx context.Context) error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
		}
		defer tx.Rollback()

		for i, query := range queries {
			if _, err = tx.ExecContext(ctx, query, args[i]...); err != nil {
				return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
			}
		}

		return tx.Commit()
	})
}

// Base implements [VersionStore].
func (r *versionRepository) Base(ctx context.Context, documentID string) (models.BaseSnapshot, error) {
	query, args, err := buildGetBaseSnapshotQuery(documentID)
	if err != nil {
		return models.BaseSnapshot{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var (
		snapshot models.BaseSnapshot
		content  string
	)
	row := r.db.QueryRowContext(ctx, query, args...)
	err = row.Scan(
		&snapshot.DocumentID,
		&content,
		&snapshot.Fingerprint.Content,
		&snapshot.Fingerprint.Structure,
		&snapshot.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.BaseSnapshot{}, ErrBaseNotFound
	}
	if err != nil {
		return models.BaseSnapshot{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	if err = checkFingerprint(snapshot.Fingerprint); err != nil {
		return models.BaseSnapshot{}, err
	}

	snapshot.Content = []byte(content)
	return snapshot, nil
}

// SaveBase implements [VersionStore].
func (r *versionRepository) SaveBase(ctx context.Context, documentID string, content []byte, fp models.Fingerprint) error {
	if err := checkFingerprint(fp); err != nil {
		return err
	}

	return r.db.withRetry(ctx, func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, saveBaseSnapshot,
			documentID, string(content), fp.Content, fp.Structure, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
		}
		return nil
	})
}

// SaveConflict implements [VersionStore].
func (r *versionRepository) SaveConflict(ctx context.Context, conflict models.ConflictRecord) error {
	createdAt := conflict.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return r.db.withRetry(ctx, func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, saveConflictRecord,
			conflict.DocumentID,
			string(conflict.Local), string(conflict.Remote),
			conflict.LocalFingerprint.Content, conflict.LocalFingerprint.Structure,
			conflict.RemoteFingerprint.Content, conflict.RemoteFingerprint.Structure,
			conflict.Reason, createdAt)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
		}
		return nil
	})
}

// ListConflicts implements [VersionStore].
func (r *versionRepository) ListConflicts(ctx context.Context) ([]models.ConflictRecord, error) {
	query, args, err := buildListConflictsQuery()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var conflicts []models.ConflictRecord
	for rows.Next() {
		var (
			conflict      models.ConflictRecord
			local, remote string
		)
		err = rows.Scan(
			&conflict.DocumentID,
			&local, &remote,
			&conflict.LocalFingerprint.Content, &conflict.LocalFingerprint.Structure,
			&conflict.RemoteFingerprint.Content, &conflict.RemoteFingerprint.Structure,
			&conflict.Reason, &conflict.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		conflict.Local = []byte(local)
		conflict.Remote = []byte(remote)
		conflicts = append(conflicts, conflict)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return conflicts, nil
}

// DeleteConflict implements [VersionStore].
func (r *versionRepository) DeleteConflict(ctx context.Context, documentID string) error {
	query, args, err := buildDeleteConflictQuery(documentID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	if affected == 0 {
		return ErrConflictNotFound
	}

	return nil
}

// Close implements [VersionStore].
func (r *versionRepository) Close() error {
	return r.db.Close()
}

// checkRecordInvariants flags stored records that violate the store's
// invariants: clocks are strictly positive and fingerprints decode to
// 256-bit digests. Violations mean the store file was tampered with or
// corrupted; the engine must halt the pass rather than trust them.
func checkRecordInvariants(record models.VersionRecord) error {
	if record.CausalClock <= 0 {
		return fmt.Errorf("%w: causal clock %d for %s/%s",
			ErrStoreCorrupted, record.CausalClock, record.DocumentID, record.ReplicaID)
	}
	if err := checkFingerprint(record.LastSyncedFingerprint); err != nil {
		return fmt.Errorf("%w (record %s/%s)", err, record.DocumentID, record.ReplicaID)
	}
	return nil
}

// checkFingerprint verifies both digests are valid hex encodings of 32-byte
// hashes.
func checkFingerprint(fp models.Fingerprint) error {
	for _, digest := range []string{fp.Content, fp.Structure} {
		decoded, err := hex.DecodeString(digest)
		if err != nil || len(decoded) != 32 {
			return fmt.Errorf("%w: malformed fingerprint %q", ErrStoreCorrupted, digest)
		}
	}
	return nil
}
