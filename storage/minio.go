package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"VibeFM/config"
	"VibeFM/logger"
	"VibeFM/model"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioBackend stores blobs in an S3-compatible bucket via minio-go.
type MinioBackend struct {
	client    *minio.Client
	endpoint  string
	bucket    string
	region    string
	useSSL    bool
	publicURL string
}

// NewMinioBackend builds the client. Connectivity is not verified here;
// GetHealth runs the actual probe.
func NewMinioBackend(cfg *config.Config) (*MinioBackend, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinioBackend{
		client:    client,
		endpoint:  cfg.MinioEndpoint,
		bucket:    cfg.MinioBucket,
		region:    cfg.MinioRegion,
		useSSL:    cfg.MinioUseSSL,
		publicURL: cfg.MinioPublicURL,
	}, nil
}

func (m *MinioBackend) Type() string {
	return "minio"
}

func (m *MinioBackend) UploadFile(ctx context.Context, r io.Reader, size int64, filename, contentType string) (*model.FileInfo, error) {
	info, err := m.client.PutObject(ctx, m.bucket, filename, r, size, minio.PutObjectOptions{
		ContentType: contentTypeFor(filename, contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s to bucket %s: %w", filename, m.bucket, err)
	}

	logger.Info("File uploaded to object storage",
		logger.String("filename", filename),
		logger.Int64("size", info.Size))

	return &model.FileInfo{
		Filename:    filename,
		URL:         m.objectURL(filename),
		Size:        info.Size,
		ContentType: contentTypeFor(filename, contentType),
		CreatedAt:   time.Now(),
	}, nil
}

func (m *MinioBackend) DeleteFile(ctx context.Context, filename string) (bool, error) {
	// RemoveObject succeeds on missing keys, so stat first to report
	// "not found" as false rather than a silent true.
	if _, err := m.client.StatObject(ctx, m.bucket, filename, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s before delete: %w", filename, err)
	}

	if err := m.client.RemoveObject(ctx, m.bucket, filename, minio.RemoveObjectOptions{}); err != nil {
		return false, fmt.Errorf("failed to delete %s from bucket %s: %w", filename, m.bucket, err)
	}
	return true, nil
}

func (m *MinioBackend) GetFileInfo(ctx context.Context, filename string) (*model.FileInfo, error) {
	stat, err := m.client.StatObject(ctx, m.bucket, filename, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", filename, err)
	}

	return &model.FileInfo{
		Filename:    filename,
		URL:         m.objectURL(filename),
		Size:        stat.Size,
		ContentType: stat.ContentType,
		CreatedAt:   stat.LastModified,
	}, nil
}

func (m *MinioBackend) ListFiles(ctx context.Context) ([]*model.FileInfo, error) {
	var files []*model.FileInfo
	for object := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list bucket %s: %w", m.bucket, object.Err)
		}
		// Plain listings come back without a content type.
		files = append(files, &model.FileInfo{
			Filename:    object.Key,
			URL:         m.objectURL(object.Key),
			Size:        object.Size,
			ContentType: contentTypeFor(object.Key, object.ContentType),
			CreatedAt:   object.LastModified,
		})
	}
	return files, nil
}

func (m *MinioBackend) PresignedURL(ctx context.Context, filename string, expires time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, filename, expires, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign URL for %s: %w", filename, err)
	}
	return u.String(), nil
}

// GetHealth checks the bucket exists, creating it if absent.
func (m *MinioBackend) GetHealth(ctx context.Context) *Health {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := m.client.BucketExists(probeCtx, m.bucket)
	if err != nil {
		return &Health{Status: "error", Type: "minio", Bucket: m.bucket, Region: m.region, Error: err.Error()}
	}

	if !exists {
		if err := m.client.MakeBucket(probeCtx, m.bucket, minio.MakeBucketOptions{Region: m.region}); err != nil {
			return &Health{Status: "error", Type: "minio", Bucket: m.bucket, Region: m.region, Error: err.Error()}
		}
		logger.Info("Created object storage bucket", logger.String("bucket", m.bucket))
	}

	return &Health{Status: "healthy", Type: "minio", Bucket: m.bucket, Region: m.region}
}

func (m *MinioBackend) objectURL(filename string) string {
	if m.publicURL != "" {
		return fmt.Sprintf("%s/%s", m.publicURL, filename)
	}
	scheme := "http"
	if m.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, m.endpoint, m.bucket, filename)
}
