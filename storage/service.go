package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"time"

	"VibeFM/config"
	"VibeFM/logger"
	"VibeFM/model"
)

// ErrNotInitialized is returned by every Service method called before a
// backend has been adopted.
var ErrNotInitialized = errors.New("storage not initialized")

// defaultAllowedTypes is the upload extension allowlist.
var defaultAllowedTypes = []string{"jpg", "jpeg", "png", "gif", "mp4", "webm", "mov"}

// Service wraps the active storage backend. The backend is selected once at
// startup (object storage if credentialed and healthy, local disk
// otherwise) and treated as immutable afterward.
type Service struct {
	backend Backend
	now     func() time.Time
}

// UploadItem is one file of a batch upload.
type UploadItem struct {
	Reader       io.Reader
	Size         int64
	OriginalName string
	ContentType  string
}

// NewService runs the one-time fallback chain: MinIO when fully
// credentialed and its probe passes, local disk otherwise. It fails only
// when no backend is usable.
func NewService(ctx context.Context, cfg *config.Config) (*Service, error) {
	if cfg.HasMinioCredentials() {
		logger.Info("Object storage credentials detected, attempting MinIO backend",
			logger.String("endpoint", cfg.MinioEndpoint),
			logger.String("bucket", cfg.MinioBucket))

		backend, err := NewMinioBackend(cfg)
		if err == nil {
			if health := backend.GetHealth(ctx); health.Status == "healthy" {
				logger.Info("Using MinIO object storage")
				return &Service{backend: backend, now: time.Now}, nil
			} else {
				logger.Warn("MinIO backend unhealthy, falling back to local storage",
					logger.String("error", health.Error))
			}
		} else {
			logger.Warn("MinIO backend unavailable, falling back to local storage",
				logger.ErrorField(err))
		}
	}

	local, err := NewLocalBackend(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize any storage backend: %w", err)
	}
	if health := local.GetHealth(ctx); health.Status != "healthy" {
		return nil, fmt.Errorf("failed to initialize any storage backend: %s", health.Error)
	}

	logger.Info("Using local file storage", logger.String("dir", cfg.UploadDir))
	return &Service{backend: local, now: time.Now}, nil
}

// Type returns the active backend type, or "none".
func (s *Service) Type() string {
	if s == nil || s.backend == nil {
		return "none"
	}
	return s.backend.Type()
}

// LocalBackend returns the active backend as a *LocalBackend, or nil when
// object storage is in use. The server uses it to mount /uploads/.
func (s *Service) LocalBackend() *LocalBackend {
	if s == nil {
		return nil
	}
	if lb, ok := s.backend.(*LocalBackend); ok {
		return lb
	}
	return nil
}

// UploadFile writes the blob under filename and returns its canonical reference.
func (s *Service) UploadFile(ctx context.Context, r io.Reader, size int64, filename, contentType string) (*model.FileInfo, error) {
	if s == nil || s.backend == nil {
		return nil, ErrNotInitialized
	}
	return s.backend.UploadFile(ctx, r, size, filename, contentType)
}

// DeleteFile returns true when a file was found and removed, false when
// absent. "Not found" is never an error.
func (s *Service) DeleteFile(ctx context.Context, filename string) (bool, error) {
	if s == nil || s.backend == nil {
		return false, ErrNotInitialized
	}
	return s.backend.DeleteFile(ctx, filename)
}

// GetFileInfo returns nil for a missing file.
func (s *Service) GetFileInfo(ctx context.Context, filename string) (*model.FileInfo, error) {
	if s == nil || s.backend == nil {
		return nil, ErrNotInitialized
	}
	return s.backend.GetFileInfo(ctx, filename)
}

// ListFiles returns every stored blob.
func (s *Service) ListFiles(ctx context.Context) ([]*model.FileInfo, error) {
	if s == nil || s.backend == nil {
		return nil, ErrNotInitialized
	}
	return s.backend.ListFiles(ctx)
}

// GetStorageStats aggregates by listing all files. O(n) in file count; this
// is an operational call, not a hot path.
func (s *Service) GetStorageStats(ctx context.Context) (*model.StorageStats, error) {
	files, err := s.ListFiles(ctx)
	if err != nil {
		return nil, err
	}
	return computeStats(files), nil
}

// CleanupOldFiles deletes every file created strictly before now minus
// daysOld days. Deletion is sequential; one failure does not abort the
// sweep. Returns the number of successful deletions.
func (s *Service) CleanupOldFiles(ctx context.Context, daysOld int) (int, error) {
	files, err := s.ListFiles(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := s.now().AddDate(0, 0, -daysOld)
	deleted := 0
	for _, f := range files {
		if !f.CreatedAt.Before(cutoff) {
			continue
		}
		ok, err := s.backend.DeleteFile(ctx, f.Filename)
		if err != nil {
			logger.Warn("Failed to delete file during cleanup",
				logger.String("filename", f.Filename),
				logger.ErrorField(err))
			continue
		}
		if ok {
			deleted++
		}
	}

	logger.Info("Storage cleanup finished",
		logger.Int("deleted", deleted),
		logger.Int("daysOld", daysOld))
	return deleted, nil
}

// GeneratePresignedURL returns a working fetchable URL for the blob: a
// time-limited signed URL on object storage, the direct static URL on local
// disk. Empty string for a missing local file.
func (s *Service) GeneratePresignedURL(ctx context.Context, filename string, expires time.Duration) (string, error) {
	if s == nil || s.backend == nil {
		return "", ErrNotInitialized
	}
	return s.backend.PresignedURL(ctx, filename, expires)
}

// GetHealth reports the active backend's probe result plus current stats.
func (s *Service) GetHealth(ctx context.Context) *Health {
	if s == nil || s.backend == nil {
		return &Health{Status: "not_configured", Type: "none", Error: ErrNotInitialized.Error()}
	}
	health := s.backend.GetHealth(ctx)
	if health.Status == "healthy" {
		if stats, err := s.GetStorageStats(ctx); err == nil {
			health.Stats = stats
		}
	}
	return health
}

// UploadMultipleFiles processes the list sequentially, collecting a
// per-item result. One item's failure never aborts the batch.
func (s *Service) UploadMultipleFiles(ctx context.Context, items []UploadItem) ([]model.BatchUploadResult, error) {
	if s == nil || s.backend == nil {
		return nil, ErrNotInitialized
	}

	results := make([]model.BatchUploadResult, 0, len(items))
	for _, item := range items {
		filename := GenerateUniqueFilename(item.OriginalName)
		info, err := s.backend.UploadFile(ctx, item.Reader, item.Size, filename, item.ContentType)
		if err != nil {
			results = append(results, model.BatchUploadResult{
				Success:  false,
				Filename: item.OriginalName,
				Error:    err.Error(),
			})
			continue
		}
		results = append(results, model.BatchUploadResult{
			Success:  true,
			Filename: info.Filename,
			URL:      info.URL,
			Size:     info.Size,
		})
	}
	return results, nil
}

// DeleteMultipleFiles processes the list sequentially, collecting a
// per-item result.
func (s *Service) DeleteMultipleFiles(ctx context.Context, filenames []string) ([]model.BatchDeleteResult, error) {
	if s == nil || s.backend == nil {
		return nil, ErrNotInitialized
	}

	results := make([]model.BatchDeleteResult, 0, len(filenames))
	for _, filename := range filenames {
		ok, err := s.backend.DeleteFile(ctx, filename)
		if err != nil {
			results = append(results, model.BatchDeleteResult{Success: false, Filename: filename, Error: err.Error()})
			continue
		}
		results = append(results, model.BatchDeleteResult{Success: ok, Filename: filename})
	}
	return results, nil
}

// MaintenanceReport is the outcome of PerformMaintenance.
type MaintenanceReport struct {
	Success      bool                `json:"success"`
	DeletedFiles int                 `json:"deletedFiles"`
	CurrentStats *model.StorageStats `json:"currentStats,omitempty"`
	Error        string              `json:"error,omitempty"`
}

// PerformMaintenance sweeps files older than 30 days and reports fresh stats.
func (s *Service) PerformMaintenance(ctx context.Context) *MaintenanceReport {
	deleted, err := s.CleanupOldFiles(ctx, 30)
	if err != nil {
		return &MaintenanceReport{Success: false, Error: err.Error()}
	}
	stats, err := s.GetStorageStats(ctx)
	if err != nil {
		return &MaintenanceReport{Success: false, DeletedFiles: deleted, Error: err.Error()}
	}
	return &MaintenanceReport{Success: true, DeletedFiles: deleted, CurrentStats: stats}
}

// GenerateUniqueFilename builds a collision-resistant name from the upload
// timestamp, a random suffix and the original extension, lower-cased.
func GenerateUniqueFilename(originalName string) string {
	b := make([]byte, 4)
	rand.Read(b)
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("upload-%d-%s%s", time.Now().UnixMilli(), hex.EncodeToString(b), ext)
}

// IsValidFileType checks the filename extension against the upload allowlist.
func IsValidFileType(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	for _, allowed := range defaultAllowedTypes {
		if ext == allowed {
			return true
		}
	}
	return false
}

// FormatFileSize renders a byte count for human consumption.
func FormatFileSize(bytes int64) string {
	if bytes == 0 {
		return "0 Bytes"
	}
	sizes := []string{"Bytes", "KB", "MB", "GB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizes) {
		i = len(sizes) - 1
	}
	return fmt.Sprintf("%.2f %s", float64(bytes)/math.Pow(1024, float64(i)), sizes[i])
}
