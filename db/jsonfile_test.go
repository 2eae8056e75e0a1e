package db

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"VibeFM/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) *JSONBackend {
	t.Helper()
	backend := NewJSONBackend(t.TempDir())
	require.NoError(t, backend.Connect(context.Background()))
	return backend
}

func sampleRecord(emotion string) *model.AnalysisRecord {
	return &model.AnalysisRecord{
		Filename:        "upload-123-abcd.jpg",
		DominantEmotion: emotion,
		Confidence:      0.85,
		Vibe:            "Riding a wave of good energy today.",
		MoodCategory:    "energetic",
		Playlist: []model.PlaylistItem{
			{Title: "Levitating", Artist: "Dua Lipa", Reason: "Feel-good disco vibes"},
			{Title: "Blinding Lights", Artist: "The Weeknd", Reason: "Energetic and uplifting"},
		},
		ColorAnalysis: json.RawMessage(`{"mood":"vibrant","temperature":"warm"}`),
	}
}

func TestJSONBackendRoundTrip(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	id, err := backend.SaveAnalysis(ctx, sampleRecord("happy"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := backend.GetAnalysis(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, id, got.ID)
	assert.Equal(t, "happy", got.DominantEmotion)
	assert.Equal(t, "Riding a wave of good energy today.", got.Vibe)
	assert.Equal(t, "energetic", got.MoodCategory)
	require.Len(t, got.Playlist, 2)
	assert.Equal(t, "Levitating", got.Playlist[0].Title)
	assert.Equal(t, "Blinding Lights", got.Playlist[1].Title)
	assert.JSONEq(t, `{"mood":"vibrant","temperature":"warm"}`, string(got.ColorAnalysis))
	assert.False(t, got.CreatedAt.IsZero())
}

func TestJSONBackendGetAnalysisMissing(t *testing.T) {
	backend := newTestBackend(t)

	got, err := backend.GetAnalysis(context.Background(), "no-such-id")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestJSONBackendRecentNewestFirst(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	offset := 0
	backend.now = func() time.Time {
		offset++
		return base.Add(time.Duration(offset) * time.Minute)
	}

	for _, emotion := range []string{"happy", "sad", "angry"} {
		_, err := backend.SaveAnalysis(ctx, sampleRecord(emotion))
		require.NoError(t, err)
	}

	recent, err := backend.GetRecentAnalyses(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "angry", recent[0].DominantEmotion)
	assert.Equal(t, "sad", recent[1].DominantEmotion)

	all, err := backend.GetRecentAnalyses(ctx, 50)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestJSONBackendDelete(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	id, err := backend.SaveAnalysis(ctx, sampleRecord("happy"))
	require.NoError(t, err)

	deleted, err := backend.DeleteAnalysis(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := backend.GetAnalysis(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting again reports not found, not an error.
	deleted, err = backend.DeleteAnalysis(ctx, id)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestJSONBackendUpdate(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	id, err := backend.SaveAnalysis(ctx, sampleRecord("happy"))
	require.NoError(t, err)

	vibe := "A calmer take on the same mood."
	mood := "calm"
	found, err := backend.UpdateAnalysis(ctx, id, AnalysisUpdate{Vibe: &vibe, MoodCategory: &mood})
	require.NoError(t, err)
	assert.True(t, found)

	got, err := backend.GetAnalysis(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, vibe, got.Vibe)
	assert.Equal(t, mood, got.MoodCategory)
	assert.Equal(t, "happy", got.DominantEmotion)

	found, err = backend.UpdateAnalysis(ctx, "no-such-id", AnalysisUpdate{Vibe: &vibe})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestJSONBackendToggleFavorite(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	id, err := backend.SaveAnalysis(ctx, sampleRecord("happy"))
	require.NoError(t, err)

	favorite, found, err := backend.ToggleFavorite(ctx, id)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, favorite)

	favorite, found, err = backend.ToggleFavorite(ctx, id)
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, favorite)

	_, found, err = backend.ToggleFavorite(ctx, "no-such-id")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestJSONBackendIncrementViewCount(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	id, err := backend.SaveAnalysis(ctx, sampleRecord("happy"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		found, err := backend.IncrementViewCount(ctx, id)
		require.NoError(t, err)
		assert.True(t, found)
	}

	got, err := backend.GetAnalysis(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, got.ViewCount)
}

func TestJSONBackendSearchFilters(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	happy := sampleRecord("happy")
	sad := sampleRecord("sad")
	sad.MoodCategory = "melancholic"
	sad.Vibe = "Rainy window kind of afternoon."
	sad.Playlist = []model.PlaylistItem{
		{Title: "Mad World", Artist: "Gary Jules", Reason: "Atmospheric melancholy"},
	}
	sad.UserID = "user-1"

	_, err := backend.SaveAnalysis(ctx, happy)
	require.NoError(t, err)
	sadID, err := backend.SaveAnalysis(ctx, sad)
	require.NoError(t, err)

	result, err := backend.SearchAnalyses(ctx, SearchFilters{Emotion: "SAD"})
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)
	assert.Equal(t, sadID, result.Analyses[0].ID)

	result, err = backend.SearchAnalyses(ctx, SearchFilters{Mood: "melancholic"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)

	// Keyword matches vibe text and playlist contents.
	result, err = backend.SearchAnalyses(ctx, SearchFilters{Keyword: "rainy"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	result, err = backend.SearchAnalyses(ctx, SearchFilters{Keyword: "gary jules"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)

	result, err = backend.SearchAnalyses(ctx, SearchFilters{UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)

	result, err = backend.SearchAnalyses(ctx, SearchFilters{FavoriteOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)

	_, _, err = backend.ToggleFavorite(ctx, sadID)
	require.NoError(t, err)
	result, err = backend.SearchAnalyses(ctx, SearchFilters{FavoriteOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
}

func TestJSONBackendSearchPagination(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, err := backend.SaveAnalysis(ctx, sampleRecord("happy"))
		require.NoError(t, err)
	}

	result, err := backend.SearchAnalyses(ctx, SearchFilters{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 25, result.Total)
	assert.Equal(t, 3, result.TotalPages)
	assert.Len(t, result.Analyses, 10)

	result, err = backend.SearchAnalyses(ctx, SearchFilters{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, result.Analyses, 5)

	// Beyond the last page is empty, not an error.
	result, err = backend.SearchAnalyses(ctx, SearchFilters{Page: 4, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, result.Analyses)
	assert.Equal(t, 25, result.Total)

	// Out-of-range values fall back to defaults.
	result, err = backend.SearchAnalyses(ctx, SearchFilters{Page: 0, Limit: -5})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Page)
	assert.Len(t, result.Analyses, 10)
}

func TestJSONBackendAnalyticsEmpty(t *testing.T) {
	backend := newTestBackend(t)

	analytics, err := backend.GetAnalytics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, analytics.TotalAnalyses)
	assert.Equal(t, 0, analytics.RecentAnalyses)
	assert.Zero(t, analytics.AverageConfidence)
	assert.Len(t, analytics.DailyActivity, 7)
	for _, count := range analytics.DailyActivity {
		assert.Zero(t, count)
	}
}

func TestJSONBackendAnalytics(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	first := sampleRecord("happy")
	first.Confidence = 0.9
	second := sampleRecord("sad")
	second.Confidence = 0.5
	second.MoodCategory = "melancholic"

	_, err := backend.SaveAnalysis(ctx, first)
	require.NoError(t, err)
	_, err = backend.SaveAnalysis(ctx, second)
	require.NoError(t, err)

	analytics, err := backend.GetAnalytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, analytics.TotalAnalyses)
	assert.Equal(t, 2, analytics.RecentAnalyses)
	assert.Equal(t, 1, analytics.EmotionDistribution["happy"])
	assert.Equal(t, 1, analytics.EmotionDistribution["sad"])
	assert.Equal(t, 1, analytics.MoodDistribution["energetic"])
	assert.Equal(t, 1, analytics.MoodDistribution["melancholic"])
	assert.InDelta(t, 0.7, analytics.AverageConfidence, 1e-9)

	today := time.Now().UTC().Format("2006-01-02")
	assert.Equal(t, 2, analytics.DailyActivity[today])
}

func TestJSONBackendUsers(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	id, err := backend.SaveUser(ctx, &model.UserRecord{
		Email:    "vibe@example.com",
		Username: "vibe",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	user, err := backend.GetUser(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "vibe", user.Username)

	byEmail, err := backend.GetUserByEmail(ctx, "VIBE@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, id, byEmail.ID)

	total := 4
	found, err := backend.UpdateUser(ctx, id, UserUpdate{TotalAnalyses: &total})
	require.NoError(t, err)
	assert.True(t, found)

	user, err = backend.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 4, user.TotalAnalyses)
}

func TestJSONBackendHealth(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	health := backend.GetHealth(ctx)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "json", health.Type)
	assert.Zero(t, health.TotalAnalyses)
	assert.Nil(t, health.LastAnalysis)

	_, err := backend.SaveAnalysis(ctx, sampleRecord("happy"))
	require.NoError(t, err)

	health = backend.GetHealth(ctx)
	assert.Equal(t, int64(1), health.TotalAnalyses)
	assert.NotNil(t, health.LastAnalysis)
}
