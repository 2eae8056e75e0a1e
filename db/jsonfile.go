package db

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"VibeFM/logger"
	"VibeFM/model"

	"github.com/google/uuid"
)

// JSONBackend stores analyses and users as two JSON array files under a
// data directory, rewritten whole on every write. A mutex serializes
// read-modify-write cycles within the process; cross-process writers are
// not coordinated.
type JSONBackend struct {
	dataDir      string
	analysesFile string
	usersFile    string

	mu  sync.Mutex
	now func() time.Time
}

// jsonAnalysis is the on-disk shape of one analysis record. The opaque
// context blobs are kept as JSON strings, the playlist as a native array.
type jsonAnalysis struct {
	ID              string               `json:"id"`
	Filename        string               `json:"filename,omitempty"`
	DominantEmotion string               `json:"dominant_emotion"`
	Confidence      float64              `json:"confidence"`
	Vibe            string               `json:"vibe"`
	MoodCategory    string               `json:"mood_category"`
	Playlist        []model.PlaylistItem `json:"playlist"`
	ColorAnalysis   string               `json:"color_analysis,omitempty"`
	Preferences     string               `json:"preferences,omitempty"`
	MoodQuizData    string               `json:"mood_quiz_data,omitempty"`
	UserID          string               `json:"user_id,omitempty"`
	IsFavorite      bool                 `json:"is_favorite"`
	ViewCount       int                  `json:"view_count"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

type jsonUser struct {
	ID            string    `json:"id"`
	Email         string    `json:"email,omitempty"`
	Username      string    `json:"username,omitempty"`
	Preferences   string    `json:"preferences,omitempty"`
	MoodQuizData  string    `json:"mood_quiz_data,omitempty"`
	TotalAnalyses int       `json:"total_analyses"`
	LastActive    time.Time `json:"last_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewJSONBackend builds the backend; Connect creates the files.
func NewJSONBackend(dataDir string) *JSONBackend {
	return &JSONBackend{
		dataDir:      dataDir,
		analysesFile: filepath.Join(dataDir, "analyses.json"),
		usersFile:    filepath.Join(dataDir, "users.json"),
		now:          time.Now,
	}
}

func (j *JSONBackend) Type() string {
	return "json"
}

// Connect creates the data directory and empty array files when absent.
func (j *JSONBackend) Connect(ctx context.Context) error {
	if err := os.MkdirAll(j.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", j.dataDir, err)
	}
	for _, file := range []string{j.analysesFile, j.usersFile} {
		if _, err := os.Stat(file); os.IsNotExist(err) {
			if err := os.WriteFile(file, []byte("[]"), 0644); err != nil {
				return fmt.Errorf("failed to initialize %s: %w", file, err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to check %s: %w", file, err)
		}
	}
	return nil
}

func (j *JSONBackend) Disconnect(ctx context.Context) error {
	return nil
}

func (j *JSONBackend) SaveAnalysis(ctx context.Context, record *model.AnalysisRecord) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	analyses, err := j.readAnalyses()
	if err != nil {
		return "", err
	}

	now := j.now()
	doc := toJSONAnalysis(record)
	doc.ID = fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()[:8])
	doc.CreatedAt = now
	doc.UpdatedAt = now

	// Newest first, so recent reads are a prefix slice.
	analyses = append([]jsonAnalysis{doc}, analyses...)
	if err := j.writeAnalyses(analyses); err != nil {
		return "", err
	}

	logger.Info("Analysis saved to JSON database", logger.String("id", doc.ID))
	return doc.ID, nil
}

func (j *JSONBackend) GetAnalysis(ctx context.Context, id string) (*model.AnalysisRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	analyses, err := j.readAnalyses()
	if err != nil {
		return nil, err
	}
	for i := range analyses {
		if analyses[i].ID == id {
			return fromJSONAnalysis(&analyses[i]), nil
		}
	}
	return nil, nil
}

func (j *JSONBackend) GetRecentAnalyses(ctx context.Context, limit int) ([]*model.AnalysisRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	analyses, err := j.readAnalyses()
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		limit = 0
	}
	if limit > len(analyses) {
		limit = len(analyses)
	}

	records := make([]*model.AnalysisRecord, 0, limit)
	for i := 0; i < limit; i++ {
		records = append(records, fromJSONAnalysis(&analyses[i]))
	}
	return records, nil
}

func (j *JSONBackend) SearchAnalyses(ctx context.Context, filters SearchFilters) (*SearchResult, error) {
	filters.normalize()

	j.mu.Lock()
	defer j.mu.Unlock()

	analyses, err := j.readAnalyses()
	if err != nil {
		return nil, err
	}

	matched := make([]*model.AnalysisRecord, 0, len(analyses))
	for i := range analyses {
		if matchesFilters(&analyses[i], &filters) {
			matched = append(matched, fromJSONAnalysis(&analyses[i]))
		}
	}
	return paginate(matched, filters.Page, filters.Limit), nil
}

func matchesFilters(a *jsonAnalysis, f *SearchFilters) bool {
	if f.Emotion != "" && !strings.Contains(strings.ToLower(a.DominantEmotion), strings.ToLower(f.Emotion)) {
		return false
	}
	if f.Mood != "" && !strings.Contains(strings.ToLower(a.MoodCategory), strings.ToLower(f.Mood)) {
		return false
	}
	if !f.DateFrom.IsZero() && a.CreatedAt.Before(f.DateFrom) {
		return false
	}
	if !f.DateTo.IsZero() && a.CreatedAt.After(f.DateTo) {
		return false
	}
	if f.Keyword != "" {
		keyword := strings.ToLower(f.Keyword)
		serialized, _ := json.Marshal(a.Playlist)
		if !strings.Contains(strings.ToLower(a.Vibe), keyword) &&
			!strings.Contains(strings.ToLower(string(serialized)), keyword) {
			return false
		}
	}
	if f.FavoriteOnly && !a.IsFavorite {
		return false
	}
	if f.UserID != "" && a.UserID != f.UserID {
		return false
	}
	return true
}

func (j *JSONBackend) GetAnalytics(ctx context.Context) (*model.Analytics, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	analyses, err := j.readAnalyses()
	if err != nil {
		return nil, err
	}

	now := j.now()
	analytics := &model.Analytics{
		TotalAnalyses:       len(analyses),
		EmotionDistribution: make(map[string]int),
		MoodDistribution:    make(map[string]int),
		DailyActivity:       make(map[string]int),
	}

	thirtyDaysAgo := now.AddDate(0, 0, -30)
	var confidenceSum float64
	for i := range analyses {
		a := &analyses[i]
		analytics.EmotionDistribution[a.DominantEmotion]++
		analytics.MoodDistribution[a.MoodCategory]++
		confidenceSum += a.Confidence
		if !a.CreatedAt.Before(thirtyDaysAgo) {
			analytics.RecentAnalyses++
		}
	}

	// Last 7 calendar days, zeroes included.
	for i := 6; i >= 0; i-- {
		day := now.UTC().AddDate(0, 0, -i).Format("2006-01-02")
		analytics.DailyActivity[day] = 0
	}
	for i := range analyses {
		day := analyses[i].CreatedAt.UTC().Format("2006-01-02")
		if _, ok := analytics.DailyActivity[day]; ok {
			analytics.DailyActivity[day]++
		}
	}

	if len(analyses) > 0 {
		analytics.AverageConfidence = confidenceSum / float64(len(analyses))
	}
	return analytics, nil
}

func (j *JSONBackend) DeleteAnalysis(ctx context.Context, id string) (bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	analyses, err := j.readAnalyses()
	if err != nil {
		return false, err
	}

	kept := analyses[:0]
	found := false
	for _, a := range analyses {
		if a.ID == id {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	if !found {
		return false, nil
	}
	if err := j.writeAnalyses(kept); err != nil {
		return false, err
	}
	return true, nil
}

func (j *JSONBackend) UpdateAnalysis(ctx context.Context, id string, update AnalysisUpdate) (bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.mutateAnalysis(id, func(a *jsonAnalysis) {
		if update.Filename != nil {
			a.Filename = *update.Filename
		}
		if update.Vibe != nil {
			a.Vibe = *update.Vibe
		}
		if update.MoodCategory != nil {
			a.MoodCategory = *update.MoodCategory
		}
		if update.Playlist != nil {
			a.Playlist = update.Playlist
		}
		if update.IsFavorite != nil {
			a.IsFavorite = *update.IsFavorite
		}
	})
}

func (j *JSONBackend) ToggleFavorite(ctx context.Context, id string) (bool, bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var state bool
	found, err := j.mutateAnalysis(id, func(a *jsonAnalysis) {
		a.IsFavorite = !a.IsFavorite
		state = a.IsFavorite
	})
	return state, found, err
}

func (j *JSONBackend) IncrementViewCount(ctx context.Context, id string) (bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.mutateAnalysis(id, func(a *jsonAnalysis) {
		a.ViewCount++
	})
}

// mutateAnalysis rewrites one record in place. Caller holds the mutex.
func (j *JSONBackend) mutateAnalysis(id string, mutate func(*jsonAnalysis)) (bool, error) {
	analyses, err := j.readAnalyses()
	if err != nil {
		return false, err
	}
	for i := range analyses {
		if analyses[i].ID == id {
			mutate(&analyses[i])
			analyses[i].UpdatedAt = j.now()
			if err := j.writeAnalyses(analyses); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

func (j *JSONBackend) SaveUser(ctx context.Context, user *model.UserRecord) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	users, err := j.readUsers()
	if err != nil {
		return "", err
	}

	now := j.now()
	doc := jsonUser{
		ID:            fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()[:8]),
		Email:         user.Email,
		Username:      user.Username,
		Preferences:   string(user.Preferences),
		MoodQuizData:  string(user.MoodQuizData),
		TotalAnalyses: user.TotalAnalyses,
		LastActive:    now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	users = append(users, doc)
	if err := j.writeUsers(users); err != nil {
		return "", err
	}
	return doc.ID, nil
}

func (j *JSONBackend) GetUser(ctx context.Context, id string) (*model.UserRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	users, err := j.readUsers()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return fromJSONUser(&users[i]), nil
		}
	}
	return nil, nil
}

func (j *JSONBackend) GetUserByEmail(ctx context.Context, email string) (*model.UserRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	users, err := j.readUsers()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Email != "" && strings.EqualFold(users[i].Email, email) {
			return fromJSONUser(&users[i]), nil
		}
	}
	return nil, nil
}

func (j *JSONBackend) UpdateUser(ctx context.Context, id string, update UserUpdate) (bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	users, err := j.readUsers()
	if err != nil {
		return false, err
	}
	for i := range users {
		if users[i].ID != id {
			continue
		}
		u := &users[i]
		if update.Email != nil {
			u.Email = *update.Email
		}
		if update.Username != nil {
			u.Username = *update.Username
		}
		if update.Preferences != nil {
			u.Preferences = string(update.Preferences)
		}
		if update.MoodQuizData != nil {
			u.MoodQuizData = string(update.MoodQuizData)
		}
		if update.TotalAnalyses != nil {
			u.TotalAnalyses = *update.TotalAnalyses
		}
		now := j.now()
		u.LastActive = now
		u.UpdatedAt = now
		if err := j.writeUsers(users); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (j *JSONBackend) GetHealth(ctx context.Context) *Health {
	j.mu.Lock()
	defer j.mu.Unlock()

	analyses, err := j.readAnalyses()
	if err != nil {
		return &Health{Status: "error", Type: "json", Error: err.Error()}
	}
	users, err := j.readUsers()
	if err != nil {
		return &Health{Status: "error", Type: "json", Error: err.Error()}
	}

	health := &Health{
		Status:        "healthy",
		Type:          "json",
		TotalAnalyses: int64(len(analyses)),
		TotalUsers:    int64(len(users)),
	}
	if len(analyses) > 0 {
		created := analyses[0].CreatedAt
		health.LastAnalysis = &created
	}
	if stat, err := os.Stat(j.analysesFile); err == nil {
		health.Stats = map[string]interface{}{
			"analysesFileSize": stat.Size(),
			"lastModified":     stat.ModTime(),
		}
	}
	return health
}

// file helpers; callers hold the mutex

func (j *JSONBackend) readAnalyses() ([]jsonAnalysis, error) {
	data, err := os.ReadFile(j.analysesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read analyses file: %w", err)
	}
	var analyses []jsonAnalysis
	if err := json.Unmarshal(data, &analyses); err != nil {
		return nil, fmt.Errorf("failed to parse analyses file: %w", err)
	}
	return analyses, nil
}

func (j *JSONBackend) writeAnalyses(analyses []jsonAnalysis) error {
	data, err := json.MarshalIndent(analyses, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal analyses: %w", err)
	}
	if err := os.WriteFile(j.analysesFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write analyses file: %w", err)
	}
	return nil
}

func (j *JSONBackend) readUsers() ([]jsonUser, error) {
	data, err := os.ReadFile(j.usersFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}
	var users []jsonUser
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("failed to parse users file: %w", err)
	}
	return users, nil
}

func (j *JSONBackend) writeUsers(users []jsonUser) error {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal users: %w", err)
	}
	if err := os.WriteFile(j.usersFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write users file: %w", err)
	}
	return nil
}

// converters

func toJSONAnalysis(record *model.AnalysisRecord) jsonAnalysis {
	return jsonAnalysis{
		Filename:        record.Filename,
		DominantEmotion: record.DominantEmotion,
		Confidence:      record.Confidence,
		Vibe:            record.Vibe,
		MoodCategory:    record.MoodCategory,
		Playlist:        record.Playlist,
		ColorAnalysis:   string(record.ColorAnalysis),
		Preferences:     string(record.Preferences),
		MoodQuizData:    string(record.MoodQuizData),
		UserID:          record.UserID,
		IsFavorite:      record.IsFavorite,
		ViewCount:       record.ViewCount,
	}
}

func fromJSONAnalysis(doc *jsonAnalysis) *model.AnalysisRecord {
	record := &model.AnalysisRecord{
		ID:              doc.ID,
		Filename:        doc.Filename,
		DominantEmotion: doc.DominantEmotion,
		Confidence:      doc.Confidence,
		Vibe:            doc.Vibe,
		MoodCategory:    doc.MoodCategory,
		Playlist:        doc.Playlist,
		UserID:          doc.UserID,
		IsFavorite:      doc.IsFavorite,
		ViewCount:       doc.ViewCount,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}
	if doc.ColorAnalysis != "" {
		record.ColorAnalysis = json.RawMessage(doc.ColorAnalysis)
	}
	if doc.Preferences != "" {
		record.Preferences = json.RawMessage(doc.Preferences)
	}
	if doc.MoodQuizData != "" {
		record.MoodQuizData = json.RawMessage(doc.MoodQuizData)
	}
	return record
}

func fromJSONUser(doc *jsonUser) *model.UserRecord {
	user := &model.UserRecord{
		ID:            doc.ID,
		Email:         doc.Email,
		Username:      doc.Username,
		TotalAnalyses: doc.TotalAnalyses,
		LastActive:    doc.LastActive,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
	if doc.Preferences != "" {
		user.Preferences = json.RawMessage(doc.Preferences)
	}
	if doc.MoodQuizData != "" {
		user.MoodQuizData = json.RawMessage(doc.MoodQuizData)
	}
	return user
}
