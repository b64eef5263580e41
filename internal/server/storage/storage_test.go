package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/eternalvault/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlob struct {
	key, contentType string
	data             []byte
	deleted          []string
	err              error
}

func (f *fakeBlob) Put(_ context.Context, key, contentType string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.key, f.contentType, f.data = key, contentType, data
	return key, nil
}

func (f *fakeBlob) URL(_ context.Context, ref string) (string, error) { return "https://cdn/" + ref, nil }

func (f *fakeBlob) Delete(_ context.Context, ref string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, ref)
	return nil
}

func withObjectID(t *testing.T, id string) {
	t.Helper()
	orig := newObjectID
	newObjectID = func() string { return id }
	t.Cleanup(func() { newObjectID = orig })
}

func TestObjectKey(t *testing.T) {
	withObjectID(t, "abc")
	assert.Equal(t, "users/u1/abc/letter.txt", ObjectKey("u1", "../../letter.txt"))
	assert.Equal(t, "users/u1/abc/unnamed", ObjectKey("u1", ""))
}

func TestUploader_Upload(t *testing.T) {
	withObjectID(t, "id1")
	blob := &fakeBlob{}
	u := NewUploader(blob)

	ref, err := u.Upload(context.Background(), "u1", wizard.File{Name: "a.jpg", ContentType: "image/jpeg", Data: []byte{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, "users/u1/id1/a.jpg", ref)
	assert.Equal(t, "image/jpeg", blob.contentType)
	assert.Equal(t, []byte{1, 2}, blob.data)
}

func TestUploader_DefaultContentType(t *testing.T) {
	blob := &fakeBlob{}
	_, err := NewUploader(blob).Upload(context.Background(), "u1", wizard.File{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", blob.contentType)
}

func TestUploader_Error(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewUploader(&fakeBlob{err: boom}).Upload(context.Background(), "u1", wizard.File{Name: "x"})
	require.ErrorIs(t, err, boom)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "a.jpg", FileName("users/u1/id/a.jpg"))
	assert.Equal(t, "photo.jpg", FileName("https://res.cloudinary.com/demo/image/upload/v1/eternalvault/photo.jpg"))
}

func TestUploader_Remove(t *testing.T) {
	blob := &fakeBlob{}
	require.NoError(t, NewUploader(blob).Remove(context.Background(), "users/u1/k/a.jpg"))
	assert.Equal(t, []string{"users/u1/k/a.jpg"}, blob.deleted)

	blob.err = errors.New("gone")
	err := NewUploader(blob).Remove(context.Background(), "x")
	assert.ErrorContains(t, err, "delete object: gone")
}
