package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalTestBackend(t *testing.T) *LocalBackend {
	t.Helper()
	backend, err := NewLocalBackend(t.TempDir())
	require.NoError(t, err)
	return backend
}

func TestLocalUploadAndInfo(t *testing.T) {
	backend := newLocalTestBackend(t)
	ctx := context.Background()

	content := "not really a jpeg"
	info, err := backend.UploadFile(ctx, strings.NewReader(content), int64(len(content)), "photo.jpg", "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "photo.jpg", info.Filename)
	assert.Equal(t, "/uploads/photo.jpg", info.URL)
	assert.Equal(t, int64(len(content)), info.Size)
	assert.Equal(t, "image/jpeg", info.ContentType)

	got, err := backend.GetFileInfo(ctx, "photo.jpg")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(len(content)), got.Size)

	missing, err := backend.GetFileInfo(ctx, "nope.jpg")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLocalDelete(t *testing.T) {
	backend := newLocalTestBackend(t)
	ctx := context.Background()

	_, err := backend.UploadFile(ctx, strings.NewReader("x"), 1, "a.png", "image/png")
	require.NoError(t, err)

	deleted, err := backend.DeleteFile(ctx, "a.png")
	require.NoError(t, err)
	assert.True(t, deleted)

	// Missing file is reported as not found, never as an error.
	deleted, err = backend.DeleteFile(ctx, "a.png")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestLocalListFiles(t *testing.T) {
	backend := newLocalTestBackend(t)
	ctx := context.Background()

	for _, name := range []string{"one.jpg", "two.png", "three.mp4"} {
		_, err := backend.UploadFile(ctx, strings.NewReader("data"), 4, name, "")
		require.NoError(t, err)
	}

	files, err := backend.ListFiles(ctx)
	require.NoError(t, err)
	assert.Len(t, files, 3)

	names := make(map[string]bool)
	for _, f := range files {
		names[f.Filename] = true
		assert.Equal(t, int64(4), f.Size)
	}
	assert.True(t, names["one.jpg"])
	assert.True(t, names["two.png"])
	assert.True(t, names["three.mp4"])
}

func TestLocalPresignedURL(t *testing.T) {
	backend := newLocalTestBackend(t)
	ctx := context.Background()

	_, err := backend.UploadFile(ctx, strings.NewReader("x"), 1, "clip.mp4", "video/mp4")
	require.NoError(t, err)

	url, err := backend.PresignedURL(ctx, "clip.mp4", 0)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/clip.mp4", url)

	url, err = backend.PresignedURL(ctx, "missing.mp4", 0)
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestLocalHealth(t *testing.T) {
	backend := newLocalTestBackend(t)

	health := backend.GetHealth(context.Background())
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "local", health.Type)
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "image/png", contentTypeFor("shot.png", ""))
	assert.Equal(t, "video/custom", contentTypeFor("shot.png", "video/custom"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("mystery.bin2", ""))
}
