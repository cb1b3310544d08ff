package store

import "errors"

// Sentinel errors returned by [VersionStore] methods to signal well-known
// failure conditions. Callers should use [errors.Is] to match against these
// values.
var (
	// ErrRecordNotFound is returned by Get when the (document, replica)
	// pair has never been committed: the first-sync case.
	ErrRecordNotFound = errors.New("version record not found")

	// ErrBaseNotFound is returned by Base when no pass has committed a
	// common-ancestor snapshot for the document yet.
	ErrBaseNotFound = errors.New("base snapshot not found")

	// ErrConflictNotFound is returned when a conflict operation targets a
	// document with no persisted conflict record.
	ErrConflictNotFound = errors.New("conflict record not found")

	// ErrStoreCorrupted is returned when a read violates a store
	// invariant (non-positive causal clock, undecodable fingerprint).
	// Fatal to the whole pass: the engine halts rather than proceed on
	// corrupted assumptions.
	ErrStoreCorrupted = errors.New("version store corrupted")

	// ErrStoreLocked is returned when another process holds the store's
	// cross-process lock.
	ErrStoreLocked = errors.New("version store locked by another process")
)

// Low-level database operation errors. These are returned (or wrapped) by
// the SQL backend when an operation fails before any domain logic applies.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised
	// SQL query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a query against the
	// database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrScanningRow is returned when scanning column values from a
	// result row fails.
	ErrScanningRow = errors.New("error scanning row")
)
