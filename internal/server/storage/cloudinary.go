package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

var (
	cloudinaryUpload = func(cld *cloudinary.Cloudinary, ctx context.Context, file any, params uploader.UploadParams) (*uploader.UploadResult, error) {
		return cld.Upload.Upload(ctx, file, params)
	}

	cloudinaryDestroy = func(cld *cloudinary.Cloudinary, ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error) {
		return cld.Upload.Destroy(ctx, params)
	}
)

// CloudinaryStore uploads to Cloudinary. References are the secure delivery
// URLs, which need no further signing.
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryStore(cloudName, apiKey, apiSecret, folder string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryStore{cld: cld, folder: folder}, nil
}

func (s *CloudinaryStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	publicID := strings.TrimSuffix(key, extOf(key))
	res, err := cloudinaryUpload(s.cld, ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     publicID,
		Folder:       s.folder,
		ResourceType: "auto",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("failed to upload to Cloudinary: %s", res.Error.Message)
	}
	if res.SecureURL == "" {
		return "", errors.New("cloudinary returned no url")
	}
	return res.SecureURL, nil
}

func (s *CloudinaryStore) URL(_ context.Context, ref string) (string, error) {
	return ref, nil
}

// Delete destroys the asset behind a delivery URL.
func (s *CloudinaryStore) Delete(ctx context.Context, ref string) error {
	resourceType, publicID, err := parseDeliveryURL(ref)
	if err != nil {
		return err
	}
	res, err := cloudinaryDestroy(s.cld, ctx, uploader.DestroyParams{PublicID: publicID, ResourceType: resourceType})
	if err != nil {
		return fmt.Errorf("failed to delete from Cloudinary: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("failed to delete from Cloudinary: %s", res.Error.Message)
	}
	return nil
}

// parseDeliveryURL splits .../<resource_type>/upload/[v<version>/]<public_id>.<ext>.
func parseDeliveryURL(ref string) (resourceType, publicID string, err error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", "", fmt.Errorf("bad cloudinary url %q: %w", ref, err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 1; i < len(parts)-1; i++ {
		if parts[i] != "upload" {
			continue
		}
		rest := parts[i+1:]
		if len(rest) > 1 && len(rest[0]) > 1 && rest[0][0] == 'v' && isDigits(rest[0][1:]) {
			rest = rest[1:]
		}
		id := strings.Join(rest, "/")
		return parts[i-1], strings.TrimSuffix(id, extOf(id)), nil
	}
	return "", "", fmt.Errorf("bad cloudinary url %q", ref)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func extOf(key string) string {
	i := strings.LastIndex(key, ".")
	if i < strings.LastIndex(key, "/") || i < 0 {
		return ""
	}
	return key[i:]
}
