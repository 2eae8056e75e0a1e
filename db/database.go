package db

import (
	"context"
	"encoding/json"
	"time"

	"VibeFM/model"
)

// Backend is the uniform record-storage contract implemented by the
// flat-file JSON store and MongoDB. Every operation is required on both
// backends; there are no optional capabilities.
type Backend interface {
	// Type identifies the backend ("json" or "mongodb").
	Type() string
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error

	// SaveAnalysis assigns a new id, stores the record and returns the id.
	SaveAnalysis(ctx context.Context, record *model.AnalysisRecord) (string, error)
	// GetAnalysis returns nil for a missing id.
	GetAnalysis(ctx context.Context, id string) (*model.AnalysisRecord, error)
	// GetRecentAnalyses returns up to limit records, newest first.
	GetRecentAnalyses(ctx context.Context, limit int) ([]*model.AnalysisRecord, error)
	SearchAnalyses(ctx context.Context, filters SearchFilters) (*SearchResult, error)
	GetAnalytics(ctx context.Context) (*model.Analytics, error)
	// DeleteAnalysis returns true when a record existed and was removed.
	DeleteAnalysis(ctx context.Context, id string) (bool, error)
	// UpdateAnalysis applies the non-nil fields and returns whether a
	// record was found.
	UpdateAnalysis(ctx context.Context, id string, update AnalysisUpdate) (bool, error)
	// ToggleFavorite flips the flag and returns the new state plus whether
	// the record was found.
	ToggleFavorite(ctx context.Context, id string) (favorite bool, found bool, err error)
	IncrementViewCount(ctx context.Context, id string) (bool, error)

	SaveUser(ctx context.Context, user *model.UserRecord) (string, error)
	GetUser(ctx context.Context, id string) (*model.UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (*model.UserRecord, error)
	UpdateUser(ctx context.Context, id string, update UserUpdate) (bool, error)

	GetHealth(ctx context.Context) *Health
}

// defaultPageSize is the search page size when the caller does not set one.
const defaultPageSize = 10

// SearchFilters narrows and paginates analysis search. Zero values mean
// "filter not applied".
type SearchFilters struct {
	Emotion      string    // substring, case-insensitive
	Mood         string    // substring, case-insensitive
	DateFrom     time.Time // inclusive lower bound on creation time
	DateTo       time.Time // inclusive upper bound
	Keyword      string    // matched against vibe and serialized playlist
	FavoriteOnly bool
	UserID       string
	Page         int // 1-indexed; values < 1 become 1
	Limit        int // page size; values < 1 become defaultPageSize
}

func (f *SearchFilters) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageSize
	}
}

// SearchResult is one page of search output. TotalPages is
// ceil(Total/Limit); a page beyond it yields an empty Analyses slice with
// the same Total.
type SearchResult struct {
	Analyses   []*model.AnalysisRecord `json:"analyses"`
	Total      int                     `json:"total"`
	Page       int                     `json:"page"`
	TotalPages int                     `json:"totalPages"`
}

// AnalysisUpdate carries the partial fields of UpdateAnalysis. Nil pointers
// (and a nil Playlist) leave the stored value untouched.
type AnalysisUpdate struct {
	Filename     *string              `json:"filename,omitempty"`
	Vibe         *string              `json:"vibe,omitempty"`
	MoodCategory *string              `json:"moodCategory,omitempty"`
	Playlist     []model.PlaylistItem `json:"playlist,omitempty"`
	IsFavorite   *bool                `json:"isFavorite,omitempty"`
}

// UserUpdate carries the partial fields of UpdateUser.
type UserUpdate struct {
	Email         *string         `json:"email,omitempty"`
	Username      *string         `json:"username,omitempty"`
	Preferences   json.RawMessage `json:"preferences,omitempty"`
	MoodQuizData  json.RawMessage `json:"moodQuizData,omitempty"`
	TotalAnalyses *int            `json:"totalAnalyses,omitempty"`
}

// Health is the database health report.
type Health struct {
	Status        string                 `json:"status"` // healthy, error, not_initialized
	Type          string                 `json:"type"`
	TotalAnalyses int64                  `json:"totalAnalyses"`
	TotalUsers    int64                  `json:"totalUsers"`
	LastAnalysis  *time.Time             `json:"lastAnalysis"`
	Error         string                 `json:"error,omitempty"`
	Stats         map[string]interface{} `json:"stats,omitempty"`
}

// paginate slices a filtered record set into one page.
func paginate(records []*model.AnalysisRecord, page, limit int) *SearchResult {
	total := len(records)
	totalPages := (total + limit - 1) / limit

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return &SearchResult{
		Analyses:   records[start:end],
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	}
}
