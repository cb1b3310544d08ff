// Package host provides a filesystem-backed replica: a directory of
// markdown documents exposed through the engine's vault and remote provider
// capabilities. It is the reference host used by the obsync binary to
// reconcile two local directories; embedders with real vaults supply their
// own implementations instead.
package host

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mkholodov/obsync/internal/fingerprint"
	"github.com/mkholodov/obsync/models"
)

// DirReplica roots a replica at a directory. Document IDs are the
// slash-separated paths of .md files relative to the root.
//
// It implements both the vault and the remote provider capability: which
// role a DirReplica plays is decided by where the caller wires it.
type DirReplica struct {
	root string
	fp   *fingerprint.Engine
}

// NewDirReplica constructs a replica over root, creating the directory if
// needed.
func NewDirReplica(root string, fp *fingerprint.Engine) (*DirReplica, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create replica root: %w", err)
	}
	return &DirReplica{root: root, fp: fp}, nil
}

// List walks the replica and returns a listing of every markdown document.
func (r *DirReplica) List(_ context.Context) ([]models.DocumentStat, error) {
	var listing []models.DocumentStat

	err := filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(r.root, path)
		if err != nil {
			return err
		}

		listing = append(listing, models.DocumentStat{
			ID:      filepath.ToSlash(rel),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk replica root: %w", err)
	}

	sort.Slice(listing, func(i, j int) bool { return listing[i].ID < listing[j].ID })
	return listing, nil
}

// Read returns the document's content.
func (r *DirReplica) Read(_ context.Context, documentID string) ([]byte, error) {
	path, err := r.resolve(documentID)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", documentID, err)
	}
	return content, nil
}

// Fingerprint computes the document's current fingerprint.
func (r *DirReplica) Fingerprint(ctx context.Context, documentID string) (models.Fingerprint, error) {
	content, err := r.Read(ctx, documentID)
	if err != nil {
		return models.Fingerprint{}, err
	}
	return r.fp.Compute(content)
}

// Content is Read under the remote provider's name.
func (r *DirReplica) Content(ctx context.Context, documentID string) ([]byte, error) {
	return r.Read(ctx, documentID)
}

// Apply writes content to the document, creating parent directories as
// needed. The write goes through a temp file and rename so a crash never
// leaves a half-written document behind.
func (r *DirReplica) Apply(_ context.Context, documentID string, content []byte) error {
	path, err := r.resolve(documentID)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create document directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".obsync-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write document %s: %w", documentID, err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync document %s: %w", documentID, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace document %s: %w", documentID, err)
	}
	return nil
}

// Delete removes the document. Deleting a document that is already gone is
// not an error; the reconciliation outcome is the same.
func (r *DirReplica) Delete(_ context.Context, documentID string) error {
	path, err := r.resolve(documentID)
	if err != nil {
		return err
	}
	if err = os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete document %s: %w", documentID, err)
	}
	return nil
}

// resolve maps a document ID to its absolute path, rejecting IDs that
// escape the replica root.
func (r *DirReplica) resolve(documentID string) (string, error) {
	if documentID == "" {
		return "", fmt.Errorf("empty document id")
	}
	path := filepath.Join(r.root, filepath.FromSlash(documentID))
	rel, err := filepath.Rel(r.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("document id %q escapes replica root", documentID)
	}
	return path, nil
}
