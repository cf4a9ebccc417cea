package media

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryStore adapts the Cloudinary SDK to the Store interface.
type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryStore(cld *cloudinary.Cloudinary) *CloudinaryStore {
	return &CloudinaryStore{cld: cld}
}

func (s *CloudinaryStore) Upload(ctx context.Context, file File, folder, publicID string, tags []string) (Asset, error) {
	resp, err := s.cld.Upload.Upload(ctx, file.Body, uploader.UploadParams{
		Folder:    folder,
		PublicID:  publicID,
		Tags:      api.CldAPIArray(tags),
		Overwrite: api.Bool(false),
	})
	if err != nil {
		return Asset{}, fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return Asset{}, fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	return Asset{URL: resp.SecureURL, PublicID: resp.PublicID}, nil
}

func (s *CloudinaryStore) Destroy(ctx context.Context, publicID string) (bool, error) {
	resp, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return false, fmt.Errorf("cloudinary destroy: %w", err)
	}
	return resp.Result == "ok", nil
}

func (s *CloudinaryStore) DeleteByPrefix(ctx context.Context, prefix string) error {
	resp, err := s.cld.Admin.DeleteAssetsByPrefix(ctx, admin.DeleteAssetsByPrefixParams{
		Prefix: api.CldAPIArray{prefix},
	})
	if err != nil {
		return fmt.Errorf("cloudinary delete by prefix: %w", err)
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("cloudinary delete by prefix: %s", resp.Error.Message)
	}
	return nil
}

func (s *CloudinaryStore) DeleteFolder(ctx context.Context, folder string) error {
	resp, err := s.cld.Admin.DeleteFolder(ctx, admin.DeleteFolderParams{Folder: folder})
	if err != nil {
		// A folder that never had assets does not exist; purging it is a no-op.
		if strings.Contains(strings.ToLower(err.Error()), "can't find folder") {
			return nil
		}
		return fmt.Errorf("cloudinary delete folder: %w", err)
	}
	if msg := resp.Error.Message; msg != "" && !strings.Contains(strings.ToLower(msg), "can't find folder") {
		return fmt.Errorf("cloudinary delete folder: %s", msg)
	}
	return nil
}
