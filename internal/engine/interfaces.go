package engine

//go:generate mockgen -source=interfaces.go -destination=../mock/host_mock.go -package=mock

import (
	"context"

	"github.com/mkholodov/obsync/models"
)

// Vault is the host-supplied capability for the local replica's canonical
// storage. The engine reads documents and proposes writes through it but
// never owns the files; Apply and Delete must be durable before returning,
// because a version record is only committed after its content landed.
type Vault interface {
	// Read returns the current content of a document.
	Read(ctx context.Context, documentID string) ([]byte, error)

	// Apply writes content to the document, creating it if needed.
	Apply(ctx context.Context, documentID string, content []byte) error

	// Delete removes the document from the vault.
	Delete(ctx context.Context, documentID string) error
}

// RemoteProvider is the host-supplied capability addressing the remote
// replica. How its bytes actually move — network, shared folder, anything —
// is the host's concern; the engine only sees this interface.
type RemoteProvider interface {
	// Fingerprint returns the remote replica's current fingerprint for a
	// document, letting change detection run without transferring
	// content.
	Fingerprint(ctx context.Context, documentID string) (models.Fingerprint, error)

	// Content fetches the remote document's full content on demand.
	Content(ctx context.Context, documentID string) ([]byte, error)

	// Apply pushes content to the remote replica.
	Apply(ctx context.Context, documentID string, content []byte) error

	// Delete removes the document on the remote replica.
	Delete(ctx context.Context, documentID string) error
}
