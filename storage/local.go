package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"VibeFM/model"
)

// LocalBackend stores blobs as plain files under a single uploads
// directory, served back at /uploads/<filename>.
type LocalBackend struct {
	uploadsDir string
}

// NewLocalBackend creates the uploads directory if it does not exist.
func NewLocalBackend(uploadsDir string) (*LocalBackend, error) {
	if err := os.MkdirAll(uploadsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory %s: %w", uploadsDir, err)
	}
	return &LocalBackend{uploadsDir: uploadsDir}, nil
}

func (l *LocalBackend) Type() string {
	return "local"
}

// UploadsDir returns the directory blobs are written to, for static serving.
func (l *LocalBackend) UploadsDir() string {
	return l.uploadsDir
}

func (l *LocalBackend) UploadFile(ctx context.Context, r io.Reader, size int64, filename, contentType string) (*model.FileInfo, error) {
	path := filepath.Join(l.uploadsDir, filepath.Base(filename))

	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", filename, err)
	}
	written, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write file %s: %w", filename, err)
	}

	return &model.FileInfo{
		Filename:    filename,
		URL:         l.fileURL(filename),
		Size:        written,
		ContentType: contentTypeFor(filename, contentType),
		CreatedAt:   time.Now(),
	}, nil
}

func (l *LocalBackend) DeleteFile(ctx context.Context, filename string) (bool, error) {
	path := filepath.Join(l.uploadsDir, filepath.Base(filename))
	err := os.Remove(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete file %s: %w", filename, err)
	}
	return true, nil
}

func (l *LocalBackend) GetFileInfo(ctx context.Context, filename string) (*model.FileInfo, error) {
	path := filepath.Join(l.uploadsDir, filepath.Base(filename))
	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat file %s: %w", filename, err)
	}
	return &model.FileInfo{
		Filename:    filename,
		URL:         l.fileURL(filename),
		Size:        stat.Size(),
		ContentType: contentTypeFor(filename, ""),
		CreatedAt:   stat.ModTime(),
	}, nil
}

func (l *LocalBackend) ListFiles(ctx context.Context) ([]*model.FileInfo, error) {
	entries, err := os.ReadDir(l.uploadsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploads directory: %w", err)
	}

	files := make([]*model.FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := l.GetFileInfo(ctx, entry.Name())
		if err != nil || info == nil {
			continue
		}
		files = append(files, info)
	}
	return files, nil
}

// PresignedURL on the local backend is the direct static URL; there is
// nothing to sign and nothing expires.
func (l *LocalBackend) PresignedURL(ctx context.Context, filename string, expires time.Duration) (string, error) {
	info, err := l.GetFileInfo(ctx, filename)
	if err != nil {
		return "", err
	}
	if info == nil {
		return "", nil
	}
	return info.URL, nil
}

// GetHealth probes the backend by writing and removing a test file.
func (l *LocalBackend) GetHealth(ctx context.Context) *Health {
	testPath := filepath.Join(l.uploadsDir, ".write-test")
	if err := os.WriteFile(testPath, []byte("test"), 0644); err != nil {
		return &Health{Status: "error", Type: "local", UploadDir: l.uploadsDir, Error: err.Error()}
	}
	os.Remove(testPath)

	return &Health{Status: "healthy", Type: "local", UploadDir: l.uploadsDir}
}

func (l *LocalBackend) fileURL(filename string) string {
	return "/uploads/" + filename
}

func contentTypeFor(filename, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
