package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrStaleReference is returned by Replace when an old object id the record
// points at no longer exists in the media store. The stored reference and
// the store have drifted apart; the caller decides how loudly to complain.
var ErrStaleReference = errors.New("stale media reference")

// Asset is one uploaded object as the store reports it back.
type Asset struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// File is an asset to upload.
type File struct {
	Name string
	Body io.Reader
}

// UploadError reports a partially failed batch upload: which assets made it
// and which files did not. No retry is attempted here.
type UploadError struct {
	Uploaded []Asset
	Failed   []string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("uploaded %d of %d assets: %v", len(e.Uploaded), len(e.Uploaded)+len(e.Failed), e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Store is the slice of the remote media API the manager needs.
// Implemented by CloudinaryStore; faked in tests.
type Store interface {
	Upload(ctx context.Context, file File, folder, publicID string, tags []string) (Asset, error)
	// Destroy removes one object and reports whether it existed.
	Destroy(ctx context.Context, publicID string) (found bool, err error)
	DeleteByPrefix(ctx context.Context, prefix string) error
	DeleteFolder(ctx context.Context, folder string) error
}

// Manager implements the media lifecycle: batch upload, replace-by-old-ids
// and path purge. It holds no state beyond the store handle.
type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Upload pushes every file under folder. On the first failure it returns an
// UploadError naming what succeeded and what did not, so the caller can
// decide between compensating and surfacing.
func (m *Manager) Upload(ctx context.Context, files []File, folder string, tags []string) ([]Asset, error) {
	uploaded := make([]Asset, 0, len(files))
	for i, f := range files {
		asset, err := m.store.Upload(ctx, f, folder, publicIDFor(f.Name), tags)
		if err != nil {
			failed := make([]string, 0, len(files)-i)
			for _, rest := range files[i:] {
				failed = append(failed, rest.Name)
			}
			return uploaded, &UploadError{Uploaded: uploaded, Failed: failed, Err: err}
		}
		uploaded = append(uploaded, asset)
	}
	return uploaded, nil
}

// Replace deletes the old objects by id, then uploads the new files. A
// missing old id aborts before anything is uploaded and surfaces as
// ErrStaleReference; the record keeps its current references.
func (m *Manager) Replace(ctx context.Context, oldPublicIDs []string, files []File, folder string, tags []string) ([]Asset, error) {
	for _, id := range oldPublicIDs {
		found, err := m.store.Destroy(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("destroy %q: %w", id, err)
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrStaleReference, id)
		}
	}
	return m.Upload(ctx, files, folder, tags)
}

// PurgePath removes every object under prefix and then the folder itself.
// Purging an already-empty path is a no-op.
func (m *Manager) PurgePath(ctx context.Context, prefix string) error {
	if err := m.store.DeleteByPrefix(ctx, prefix); err != nil {
		return fmt.Errorf("purge assets under %q: %w", prefix, err)
	}
	if err := m.store.DeleteFolder(ctx, prefix); err != nil {
		return fmt.Errorf("remove folder %q: %w", prefix, err)
	}
	return nil
}

// publicIDFor keeps the original file name stem readable while making the
// stored id unique.
func publicIDFor(name string) string {
	stem := strings.TrimSuffix(path.Base(name), path.Ext(name))
	if stem == "" || stem == "." {
		stem = "asset"
	}
	return fmt.Sprintf("%s_%s", stem, uuid.NewString()[:8])
}
