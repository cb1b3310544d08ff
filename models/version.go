package models

import "time"

// VersionRecord is the durable synchronization marker for one document on
// one replica. LastSyncedFingerprint always corresponds to the document
// state observed at the most recent committed sync pass involving that
// replica; it is never mutated outside a commit.
type VersionRecord struct {
	DocumentID string `json:"document_id"`
	ReplicaID  string `json:"replica_id"`

	// LastSyncedFingerprint is the fingerprint both sides agreed on at the
	// last committed pass touching this (document, replica) pair.
	LastSyncedFingerprint Fingerprint `json:"last_synced_fingerprint"`

	// CausalClock increments by exactly one on every accepted commit for
	// this pair. Strictly increasing; never reused, never rewound.
	CausalClock int64 `json:"causal_clock"`

	UpdatedAt time.Time `json:"updated_at"`
}

// BaseSnapshot is the last content state both replicas are known to have
// agreed on, kept so the merge engine has a real common ancestor to diff
// against. One snapshot per document, shared by all replicas.
type BaseSnapshot struct {
	DocumentID  string      `json:"document_id"`
	Content     []byte      `json:"content"`
	Fingerprint Fingerprint `json:"fingerprint"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
