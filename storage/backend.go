package storage

import (
	"context"
	"io"
	"time"

	"VibeFM/model"
)

// Backend is the uniform blob-storage contract implemented by the local
// filesystem and MinIO backends. The Service selects one at startup and
// delegates every call to it.
type Backend interface {
	// Type identifies the backend ("local" or "minio").
	Type() string
	// UploadFile writes the blob under filename and returns its canonical
	// reference. The caller is responsible for pre-generating a unique name.
	UploadFile(ctx context.Context, r io.Reader, size int64, filename, contentType string) (*model.FileInfo, error)
	// DeleteFile removes a blob. It returns false, not an error, when the
	// blob does not exist.
	DeleteFile(ctx context.Context, filename string) (bool, error)
	// GetFileInfo returns nil when the blob does not exist.
	GetFileInfo(ctx context.Context, filename string) (*model.FileInfo, error)
	// ListFiles returns every stored blob, materialized.
	ListFiles(ctx context.Context) ([]*model.FileInfo, error)
	// PresignedURL returns a fetchable URL for the blob. The local backend
	// ignores expires and returns the direct static URL.
	PresignedURL(ctx context.Context, filename string, expires time.Duration) (string, error)
	// GetHealth runs the backend's health probe.
	GetHealth(ctx context.Context) *Health
}

// Health is the result of a backend health probe.
type Health struct {
	Status    string              `json:"status"` // healthy, error, not_configured
	Type      string              `json:"type"`
	Error     string              `json:"error,omitempty"`
	Bucket    string              `json:"bucket,omitempty"`
	Region    string              `json:"region,omitempty"`
	UploadDir string              `json:"uploadDir,omitempty"`
	Stats     *model.StorageStats `json:"stats,omitempty"`
}

// computeStats aggregates file metadata into storage stats. Oldest and
// Newest stay nil for an empty store.
func computeStats(files []*model.FileInfo) *model.StorageStats {
	stats := &model.StorageStats{TotalFiles: len(files)}
	for _, f := range files {
		stats.TotalSize += f.Size
	}
	if len(files) > 0 {
		stats.AverageFileSize = float64(stats.TotalSize) / float64(len(files))
		oldest, newest := files[0].CreatedAt, files[0].CreatedAt
		for _, f := range files[1:] {
			if f.CreatedAt.Before(oldest) {
				oldest = f.CreatedAt
			}
			if f.CreatedAt.After(newest) {
				newest = f.CreatedAt
			}
		}
		stats.OldestFile = &oldest
		stats.NewestFile = &newest
	}
	return stats
}
