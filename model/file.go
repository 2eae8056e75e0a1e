package model

import "time"

// FileInfo describes one stored blob regardless of backend.
type FileInfo struct {
	Filename    string    `json:"filename"`
	URL         string    `json:"url"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// StorageStats is the aggregate computed by listing all files. Oldest and
// Newest are nil when the store is empty.
type StorageStats struct {
	TotalFiles      int        `json:"totalFiles"`
	TotalSize       int64      `json:"totalSize"`
	AverageFileSize float64    `json:"averageFileSize"`
	OldestFile      *time.Time `json:"oldestFile"`
	NewestFile      *time.Time `json:"newestFile"`
}

// BatchUploadResult is the per-item outcome of UploadMultipleFiles.
type BatchUploadResult struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	URL      string `json:"url,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Error    string `json:"error,omitempty"`
}

// BatchDeleteResult is the per-item outcome of DeleteMultipleFiles.
type BatchDeleteResult struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	Error    string `json:"error,omitempty"`
}
