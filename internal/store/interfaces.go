package store

//go:generate mockgen -source=interfaces.go -destination=../mock/version_store_mock.go -package=mock

import (
	"context"

	"github.com/mkholodov/obsync/models"
)

// VersionStore owns all durable synchronization metadata: version records,
// the base snapshot each merge diffs against, and unresolved conflict
// records. It is the only mutable shared state in the engine and is always
// injected, never global, so tests can substitute the in-memory backend.
//
// Commits for a single (documentID, replicaID) pair must be atomic and
// durable before returning; unrelated documents may commit concurrently.
type VersionStore interface {
	// Get returns the version record for one (document, replica) pair.
	// Returns ErrRecordNotFound if the document has never been
	// synchronized for that replica.
	Get(ctx context.Context, documentID, replicaID string) (models.VersionRecord, error)

	// Commit atomically advances the causal clock by one and stores the
	// new fingerprint. All-or-nothing: a crash mid-commit leaves either
	// the old record or the new one, never a mixed state.
	Commit(ctx context.Context, documentID, replicaID string, fp models.Fingerprint) (models.VersionRecord, error)

	// Remove drops every replica's version record for the document, plus
	// its base snapshot. Called once deletion is confirmed on all
	// reconciled replicas.
	Remove(ctx context.Context, documentID string) error

	// Base returns the last agreed content snapshot for the document, or
	// ErrBaseNotFound if no pass has committed one yet.
	Base(ctx context.Context, documentID string) (models.BaseSnapshot, error)

	// SaveBase records content as the document's new common ancestor.
	SaveBase(ctx context.Context, documentID string, content []byte, fp models.Fingerprint) error

	// SaveConflict persists an unresolved conflict, replacing any earlier
	// one for the same document.
	SaveConflict(ctx context.Context, conflict models.ConflictRecord) error

	// ListConflicts returns all unresolved conflicts, oldest first.
	ListConflicts(ctx context.Context) ([]models.ConflictRecord, error)

	// DeleteConflict removes the conflict record for a document. Returns
	// ErrConflictNotFound if none exists.
	DeleteConflict(ctx context.Context, documentID string) error

	// Close releases the backend connection and any cross-process lock.
	Close() error
}

// ErrorClassificator decides whether a failed database operation is worth
// retrying. Each SQL backend supplies its own implementation.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}
