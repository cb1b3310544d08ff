package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkholodov/obsync/internal/logger"
	"github.com/mkholodov/obsync/models"
)

// ── helpers ──────────────────────────────────────────────────────────────────

// stubClassifier returns a fixed classification, letting tests drive the
// retry loop without a real database error.
type stubClassifier struct {
	classification ErrorClassification
}

func (c stubClassifier) Classify(error) ErrorClassification {
	return c.classification
}

func newMockRepository(t *testing.T, classification ErrorClassification) (VersionStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	wrapped := &DB{
		DB:                 db,
		dialect:            "sqlite3",
		errorClassificator: stubClassifier{classification: classification},
		logger:             logger.Nop(),
	}
	return NewVersionRepository(wrapped, logger.Nop()), mock
}

var recordColumns = []string{
	"document_id", "replica_id", "content_hash", "structure_hash", "causal_clock", "updated_at",
}

// ── Get ──────────────────────────────────────────────────────────────────────

// TestRepositoryGet_Found verifies scanning a stored record.
func TestRepositoryGet_Found(t *testing.T) {
	repo, mock := newMockRepository(t, NonRetryable)
	fp := validFP("aa")
	updated := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT document_id, replica_id, content_hash, structure_hash, causal_clock, updated_at FROM version_records").
		WithArgs("note.md", "laptop").
		WillReturnRows(sqlmock.NewRows(recordColumns).
			AddRow("note.md", "laptop", fp.Content, fp.Structure, int64(7), updated))

	record, err := repo.Get(context.Background(), "note.md", "laptop")
	require.NoError(t, err)
	assert.Equal(t, "note.md", record.DocumentID)
	assert.Equal(t, "laptop", record.ReplicaID)
	assert.Equal(t, int64(7), record.CausalClock)
	assert.True(t, record.LastSyncedFingerprint.Equal(fp))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestRepositoryGet_NotFound verifies the first-sync sentinel mapping.
func TestRepositoryGet_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t, NonRetryable)

	mock.ExpectQuery("SELECT (.+) FROM version_records").
		WithArgs("never.md", "laptop").
		WillReturnRows(sqlmock.NewRows(recordColumns))

	_, err := repo.Get(context.Background(), "never.md", "laptop")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

// TestRepositoryGet_CorruptedRecord verifies that invariant-violating rows
// are reported as store corruption, not returned.
func TestRepositoryGet_CorruptedRecord(t *testing.T) {
	tests := []struct {
		name          string
		clock         int64
		contentDigest string
	}{
		{name: "non-positive clock", clock: 0, contentDigest: validFP("aa").Content},
		{name: "malformed fingerprint", clock: 3, contentDigest: "not-a-digest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepository(t, NonRetryable)

			mock.ExpectQuery("SELECT (.+) FROM version_records").
				WithArgs("note.md", "laptop").
				WillReturnRows(sqlmock.NewRows(recordColumns).
					AddRow("note.md", "laptop", tt.contentDigest, validFP("aa").Structure, tt.clock, time.Now()))

			_, err := repo.Get(context.Background(), "note.md", "laptop")
			assert.ErrorIs(t, err, ErrStoreCorrupted)
		})
	}
}

// ── Commit ───────────────────────────────────────────────────────────────────

// TestRepositoryCommit_ReturnsAdvancedClock verifies the single-statement
// upsert path.
func TestRepositoryCommit_ReturnsAdvancedClock(t *testing.T) {
	repo, mock := newMockRepository(t, NonRetryable)
	fp := validFP("bb")

	mock.ExpectQuery("INSERT INTO version_records").
		WithArgs("note.md", "laptop", fp.Content, fp.Structure, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"causal_clock", "updated_at"}).
			AddRow(int64(4), time.Now().UTC()))

	record, err := repo.Commit(context.Background(), "note.md", "laptop", fp)
	require.NoError(t, err)
	assert.Equal(t, int64(4), record.CausalClock)
	assert.True(t, record.LastSyncedFingerprint.Equal(fp))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestRepositoryCommit_RetriesTransientFailure verifies that a failure the
// backend classifies as transient is retried and can still succeed.
func TestRepositoryCommit_RetriesTransientFailure(t *testing.T) {
	repo, mock := newMockRepository(t, Retryable)
	fp := validFP("bb")

	mock.ExpectQuery("INSERT INTO version_records").
		WillReturnError(errors.New("database is locked"))
	mock.ExpectQuery("INSERT INTO version_records").
		WillReturnRows(sqlmock.NewRows([]string{"causal_clock", "updated_at"}).
			AddRow(int64(1), time.Now().UTC()))

	record, err := repo.Commit(context.Background(), "note.md", "laptop", fp)
	require.NoError(t, err)
	assert.Equal(t, int64(1), record.CausalClock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestRepositoryCommit_NonRetryableFailure verifies that a permanent
// failure surfaces immediately, wrapped in ErrExecutingQuery.
func TestRepositoryCommit_NonRetryableFailure(t *testing.T) {
	repo, mock := newMockRepository(t, NonRetryable)

	mock.ExpectQuery("INSERT INTO version_records").
		WillReturnError(errors.New("constraint violation"))

	_, err := repo.Commit(context.Background(), "note.md", "laptop", validFP("bb"))
	assert.ErrorIs(t, err, ErrExecutingQuery)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestRepositoryCommit_RejectsMalformedFingerprint verifies validation runs
// before any SQL.
func TestRepositoryCommit_RejectsMalformedFingerprint(t *testing.T) {
	repo, mock := newMockRepository(t, NonRetryable)

	_, err := repo.Commit(context.Background(), "note.md", "laptop",
		models.Fingerprint{Content: "xx", Structure: "yy"})
	assert.ErrorIs(t, err, ErrStoreCorrupted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ── Remove ───────────────────────────────────────────────────────────────────

// TestRepositoryRemove_TransactionCoversBothTables verifies that record and
// snapshot deletion happen in one transaction.
func TestRepositoryRemove_TransactionCoversBothTables(t *testing.T) {
	repo, mock := newMockRepository(t, NonRetryable)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM version_records").
		WithArgs("note.md").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM base_snapshots").
		WithArgs("note.md").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Remove(context.Background(), "note.md"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ── Base ─────────────────────────────────────────────────────────────────────

// TestRepositoryBase_NotFound verifies the missing-snapshot sentinel.
func TestRepositoryBase_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t, NonRetryable)

	mock.ExpectQuery("SELECT (.+) FROM base_snapshots").
		WithArgs("note.md").
		WillReturnRows(sqlmock.NewRows([]string{
			"document_id", "content", "content_hash", "structure_hash", "updated_at",
		}))

	_, err := repo.Base(context.Background(), "note.md")
	assert.ErrorIs(t, err, ErrBaseNotFound)
}

// TestRepositoryBase_RoundTrip verifies snapshot scanning.
func TestRepositoryBase_RoundTrip(t *testing.T) {
	repo, mock := newMockRepository(t, NonRetryable)
	fp := validFP("cc")

	mock.ExpectQuery("SELECT (.+) FROM base_snapshots").
		WithArgs("note.md").
		WillReturnRows(sqlmock.NewRows([]string{
			"document_id", "content", "content_hash", "structure_hash", "updated_at",
		}).AddRow("note.md", "# agreed content\n", fp.Content, fp.Structure, time.Now().UTC()))

	snapshot, err := repo.Base(context.Background(), "note.md")
	require.NoError(t, err)
	assert.Equal(t, []byte("# agreed content\n"), snapshot.Content)
	assert.True(t, snapshot.Fingerprint.Equal(fp))
}

// ── Conflicts ────────────────────────────────────────────────────────────────

// TestRepositoryDeleteConflict_NotFound verifies the zero-rows mapping.
func TestRepositoryDeleteConflict_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t, NonRetryable)

	mock.ExpectExec("DELETE FROM conflict_records").
		WithArgs("note.md").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteConflict(context.Background(), "note.md")
	assert.ErrorIs(t, err, ErrConflictNotFound)
}

// TestRepositoryListConflicts_ScansRows verifies row scanning and ordering
// comes from the query itself.
func TestRepositoryListConflicts_ScansRows(t *testing.T) {
	repo, mock := newMockRepository(t, NonRetryable)
	fp := validFP("dd")

	mock.ExpectQuery("SELECT (.+) FROM conflict_records").
		WillReturnRows(sqlmock.NewRows([]string{
			"document_id", "local_content", "remote_content",
			"local_content_hash", "local_structure_hash",
			"remote_content_hash", "remote_structure_hash",
			"reason", "created_at",
		}).AddRow("a.md", "local", "remote", fp.Content, fp.Structure, fp.Content, fp.Structure,
			"block 0 modified differently on both sides", time.Now().UTC()))

	conflicts, err := repo.ListConflicts(context.Background())
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "a.md", conflicts[0].DocumentID)
	assert.Equal(t, []byte("local"), conflicts[0].Local)
	assert.Equal(t, []byte("remote"), conflicts[0].Remote)
	assert.Contains(t, conflicts[0].Reason, "modified differently")
}
