package store

import (
	sq "github.com/Masterminds/squirrel"
)

// Upsert statements are kept as raw SQL: both backends accept $N
// placeholders and the ON CONFLICT syntax, and the clock arithmetic inside
// the upsert is the part that must not drift between dialects.
const (
	commitVersionRecord = `INSERT INTO version_records
		(document_id, replica_id, content_hash, structure_hash, causal_clock, updated_at)
	VALUES ($1, $2, $3, $4, 1, $5)
	ON CONFLICT (document_id, replica_id) DO UPDATE SET
		content_hash   = EXCLUDED.content_hash,
		structure_hash = EXCLUDED.structure_hash,
		causal_clock   = version_records.causal_clock + 1,
		updated_at     = EXCLUDED.updated_at
	RETURNING causal_clock, updated_at;`

	saveBaseSnapshot = `INSERT INTO base_snapshots
		(document_id, content, content_hash, structure_hash, updated_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (document_id) DO UPDATE SET
		content        = EXCLUDED.content,
		content_hash   = EXCLUDED.content_hash,
		structure_hash = EXCLUDED.structure_hash,
		updated_at     = EXCLUDED.updated_at;`

	saveConflictRecord = `INSERT INTO conflict_records
		(document_id, local_content, remote_content,
		 local_content_hash, local_structure_hash,
		 remote_content_hash, remote_structure_hash,
		 reason, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (document_id) DO UPDATE SET
		local_content         = EXCLUDED.local_content,
		remote_content        = EXCLUDED.remote_content,
		local_content_hash    = EXCLUDED.local_content_hash,
		local_structure_hash  = EXCLUDED.local_structure_hash,
		remote_content_hash   = EXCLUDED.remote_content_hash,
		remote_structure_hash = EXCLUDED.remote_structure_hash,
		reason                = EXCLUDED.reason,
		created_at            = EXCLUDED.created_at;`
)

// builder is the shared squirrel statement builder. Dollar placeholders
// work for both SQLite and Postgres, so one builder serves both backends.
var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func buildGetVersionRecordQuery(documentID, replicaID string) (string, []any, error) {
	return builder.
		Select("document_id", "replica_id", "content_hash", "structure_hash", "causal_clock", "updated_at").
		From("version_records").
		Where(sq.Eq{"document_id": documentID, "replica_id": replicaID}).
		ToSql()
}

func buildRemoveDocumentQueries(documentID string) ([]string, [][]any, error) {
	var (
		queries []string
		args    [][]any
	)

	for _, table := range []string{"version_records", "base_snapshots"} {
		query, queryArgs, err := builder.
			Delete(table).
			Where(sq.Eq{"document_id": documentID}).
			ToSql()
		if err != nil {
			return nil, nil, err
		}
		queries = append(queries, query)
		args = append(args, queryArgs)
	}

	return queries, args, nil
}

func buildGetBaseSnapshotQuery(documentID string) (string, []any, error) {
	return builder.
		Select("document_id", "content", "content_hash", "structure_hash", "updated_at").
		From("base_snapshots").
		Where(sq.Eq{"document_id": documentID}).
		ToSql()
}

func buildListConflictsQuery() (string, []any, error) {
	return builder.
		Select("document_id", "local_content", "remote_content",
			"local_content_hash", "local_structure_hash",
			"remote_content_hash", "remote_structure_hash",
			"reason", "created_at").
		From("conflict_records").
		OrderBy("created_at ASC", "document_id ASC").
		ToSql()
}

func buildDeleteConflictQuery(documentID string) (string, []any, error) {
	return builder.
		Delete("conflict_records").
		Where(sq.Eq{"document_id": documentID}).
		ToSql()
}
