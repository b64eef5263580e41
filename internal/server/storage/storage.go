// Package storage moves vault files to object storage and resolves the
// stored references back into downloadable URLs.
package storage

import (
	"context"
	"fmt"
	"path"

	"github.com/dmitrijs2005/eternalvault/internal/filex"
	"github.com/dmitrijs2005/eternalvault/internal/wizard"
	"github.com/google/uuid"
)

// BlobStore writes objects and resolves their references. Put returns the
// reference kept on the vault: the object key for S3, the delivery URL for
// Cloudinary.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	URL(ctx context.Context, ref string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// newObjectID is a seam for tests.
var newObjectID = func() string { return uuid.NewString() }

// ObjectKey places a user's file under a random prefix so equal names never
// collide.
func ObjectKey(userID, name string) string {
	return path.Join("users", userID, newObjectID(), filex.SafeName(name))
}

// Uploader adapts a BlobStore to wizard.FileUploader.
type Uploader struct {
	store BlobStore
}

func NewUploader(store BlobStore) *Uploader {
	return &Uploader{store: store}
}

func (u *Uploader) Upload(ctx context.Context, userID string, f wizard.File) (string, error) {
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ref, err := u.store.Put(ctx, ObjectKey(userID, f.Name), contentType, f.Data)
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return ref, nil
}

func (u *Uploader) Remove(ctx context.Context, ref string) error {
	if err := u.store.Delete(ctx, ref); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// FileName recovers the display name from a reference.
func FileName(ref string) string {
	return path.Base(ref)
}
