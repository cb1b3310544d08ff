package models

import "time"

// ConflictRecord preserves both divergent variants of a document that could
// not be merged automatically. Created transiently during a sync pass and
// persisted only while unresolved; resolving the conflict (or a later pass
// that merges cleanly) deletes the record.
//
// Both variants are kept verbatim: the engine never discards a user's edit
// without attribution.
type ConflictRecord struct {
	DocumentID string `json:"document_id"`

	// Local and Remote are the full divergent contents as they stood when
	// the conflict was detected.
	Local  []byte `json:"local"`
	Remote []byte `json:"remote"`

	LocalFingerprint  Fingerprint `json:"local_fingerprint"`
	RemoteFingerprint Fingerprint `json:"remote_fingerprint"`

	// Reason describes why the merge engine declined to resolve the
	// divergence (e.g. which blocks collided, or that no common ancestor
	// was available).
	Reason string `json:"reason"`

	CreatedAt time.Time `json:"created_at"`
}
