package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"VibeFM/config"
	"VibeFM/core/vibe"
	"VibeFM/db"
	"VibeFM/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	cfg := &config.Config{
		UploadDir: t.TempDir(),
		DataDir:   t.TempDir(),
	}

	storageSvc, err := storage.NewService(ctx, cfg)
	require.NoError(t, err)
	dbSvc, err := db.NewService(ctx, cfg, nil)
	require.NoError(t, err)
	analyzer := vibe.NewAnalyzer(nil, dbSvc)

	handler := NewAPIHandler(storageSvc, dbSvc, analyzer, cfg)
	ts := httptest.NewServer(NewRouter(handler, storageSvc))
	t.Cleanup(ts.Close)
	return ts
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func analyzeSomething(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	body := `{"emotions":[{"name":"happy","score":0.9}],"filename":"upload-1-aaaa.jpg"}`
	resp, err := http.Post(ts.URL+"/api/analyze-mood", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		AnalysisID string `json:"analysisId"`
	}
	decodeBody(t, resp, &result)
	require.NotEmpty(t, result.AnalysisID)
	return result.AnalysisID
}

func TestUploadEndpoint(t *testing.T) {
	ts := newTestServer(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("media", "holiday.jpg")
	require.NoError(t, err)
	part.Write([]byte("jpeg bytes"))
	require.NoError(t, writer.Close())

	resp, err := http.Post(ts.URL+"/api/upload", writer.FormDataContentType(), &buf)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Success bool `json:"success"`
		File    struct {
			Filename     string `json:"filename"`
			OriginalName string `json:"originalname"`
			Path         string `json:"path"`
		} `json:"file"`
	}
	decodeBody(t, resp, &result)
	assert.True(t, result.Success)
	assert.Equal(t, "holiday.jpg", result.File.OriginalName)
	assert.True(t, strings.HasPrefix(result.File.Filename, "upload-"))
	assert.True(t, strings.HasPrefix(result.File.Path, "/uploads/"))
}

func TestUploadRejectsBadType(t *testing.T) {
	ts := newTestServer(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("media", "malware.exe")
	require.NoError(t, err)
	part.Write([]byte("nope"))
	require.NoError(t, writer.Close())

	resp, err := http.Post(ts.URL+"/api/upload", writer.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnalyzeMoodEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/analyze-mood", "application/json",
		strings.NewReader(`{"emotions":[{"name":"sad","score":0.8}]}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Success         bool   `json:"success"`
		DominantEmotion string `json:"dominantEmotion"`
		MoodCategory    string `json:"moodCategory"`
		Playlist        []struct {
			Title string `json:"title"`
		} `json:"playlist"`
	}
	decodeBody(t, resp, &result)
	assert.True(t, result.Success)
	assert.Equal(t, "sad", result.DominantEmotion)
	assert.Equal(t, "melancholic", result.MoodCategory)
	assert.NotEmpty(t, result.Playlist)
}

func TestAnalyzeMoodRejectsMissingEmotions(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/analyze-mood", "application/json",
		strings.NewReader(`{"filename":"x.jpg"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetAnalysisEndpoint(t *testing.T) {
	ts := newTestServer(t)
	id := analyzeSomething(t, ts)

	resp, err := http.Get(ts.URL + "/api/analysis/" + id)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var record struct {
		ID   string `json:"id"`
		Vibe string `json:"vibe"`
	}
	decodeBody(t, resp, &record)
	assert.Equal(t, id, record.ID)
	assert.NotEmpty(t, record.Vibe)

	resp, err = http.Get(ts.URL + "/api/analysis/no-such-id")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFavoriteToggleEndpoint(t *testing.T) {
	ts := newTestServer(t)
	id := analyzeSomething(t, ts)

	var result struct {
		IsFavorite bool `json:"isFavorite"`
	}

	resp, err := http.Post(ts.URL+"/api/analysis/"+id+"/favorite", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &result)
	assert.True(t, result.IsFavorite)

	resp, err = http.Post(ts.URL+"/api/analysis/"+id+"/favorite", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &result)
	assert.False(t, result.IsFavorite)
}

func TestDeleteAnalysisEndpoint(t *testing.T) {
	ts := newTestServer(t)
	id := analyzeSomething(t, ts)

	del := func() int {
		req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/analysis/"+id, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, del())
	assert.Equal(t, http.StatusNotFound, del())
}

func TestSearchEndpoint(t *testing.T) {
	ts := newTestServer(t)
	analyzeSomething(t, ts)

	resp, err := http.Get(ts.URL + "/api/search?emotion=happy&page=1&limit=5")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Total int `json:"total"`
		Page  int `json:"page"`
	}
	decodeBody(t, resp, &result)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Page)

	resp, err = http.Get(ts.URL + "/api/search?emotion=disgusted")
	require.NoError(t, err)
	decodeBody(t, resp, &result)
	assert.Zero(t, result.Total)
}

func TestAnalyticsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	analyzeSomething(t, ts)

	resp, err := http.Get(ts.URL + "/api/analytics")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		TotalAnalyses       int            `json:"totalAnalyses"`
		EmotionDistribution map[string]int `json:"emotionDistribution"`
	}
	decodeBody(t, resp, &result)
	assert.Equal(t, 1, result.TotalAnalyses)
	assert.Equal(t, 1, result.EmotionDistribution["happy"])
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Status   string `json:"status"`
		Storage  struct{ Type string }
		Database struct{ Type string }
	}
	decodeBody(t, resp, &result)
	assert.Equal(t, "healthy", result.Status)
}

func TestForceMongoEndpointWithoutURI(t *testing.T) {
	ts := newTestServer(t)

	// The test server runs without a MongoDB URI, so the override is refused
	// and the flat-file backend keeps serving.
	resp, err := http.Post(ts.URL+"/api/admin/database/force-mongo", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var result struct {
		Error string `json:"error"`
	}
	decodeBody(t, resp, &result)
	assert.Contains(t, result.Error, "MONGODB_URI")

	health, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	var status struct {
		Database struct{ Type string }
	}
	decodeBody(t, health, &status)
	assert.Equal(t, "json", status.Database.Type)
}

func TestStorageStatsAndCleanupEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/storage/stats")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats struct {
		Type       string `json:"type"`
		TotalFiles int    `json:"totalFiles"`
	}
	decodeBody(t, resp, &stats)
	assert.Equal(t, "local", stats.Type)
	assert.Zero(t, stats.TotalFiles)

	resp, err = http.Post(ts.URL+"/api/storage/cleanup?days=30", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cleanup struct {
		Success      bool `json:"success"`
		DeletedFiles int  `json:"deletedFiles"`
	}
	decodeBody(t, resp, &cleanup)
	assert.True(t, cleanup.Success)
	assert.Zero(t, cleanup.DeletedFiles)
}

func TestUploadsStaticServing(t *testing.T) {
	ts := newTestServer(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("media", "pic.png")
	require.NoError(t, err)
	part.Write([]byte("png bytes"))
	require.NoError(t, writer.Close())

	resp, err := http.Post(ts.URL+"/api/upload", writer.FormDataContentType(), &buf)
	require.NoError(t, err)
	var uploaded struct {
		File struct {
			Path string `json:"path"`
		} `json:"file"`
	}
	decodeBody(t, resp, &uploaded)

	resp, err = http.Get(ts.URL + uploaded.File.Path)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
